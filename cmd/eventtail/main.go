// Package main provides a development tool that logs in and prints the
// realtime events delivered to that account.
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

type event struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

func main() {
	host := flag.String("host", "localhost:8375", "API server host")
	username := flag.String("username", "", "Account username")
	password := flag.String("password", "password123", "Account password")
	raw := flag.Bool("raw", false, "Print frames as received")
	flag.Parse()

	if *username == "" {
		log.Fatal("-username is required")
	}

	token, err := login(*host, *username, *password)
	if err != nil {
		log.Fatalf("❌ Login failed: %v", err)
	}
	log.Printf("✅ Logged in as %s", *username)

	u := url.URL{Scheme: "ws", Host: *host, Path: "/ws", RawQuery: "token=" + url.QueryEscape(token)}
	conn, resp, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		if resp != nil {
			log.Fatalf("❌ Dial failed with status %d: %v", resp.StatusCode, err)
		}
		log.Fatalf("❌ Dial failed: %v", err)
	}
	defer func() { _ = conn.Close() }()
	log.Printf("📡 Tailing events from %s", u.Host)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Printf("read: %v", err)
				}
				return
			}
			printEvent(msg, *raw)
		}
	}()

	select {
	case <-done:
	case <-interrupt:
		log.Println("🛑 Interrupted by user")
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		select {
		case <-done:
		case <-time.After(time.Second):
		}
	}
}

func printEvent(msg []byte, raw bool) {
	var ev event
	if raw || json.Unmarshal(msg, &ev) != nil || ev.Type == "" {
		fmt.Println(string(msg))
		return
	}
	fmt.Printf("%s  %-18s %s\n", ev.CreatedAt.Local().Format(time.TimeOnly), ev.Type, ev.Payload)
}

func login(host, username, password string) (string, error) {
	loginURL := fmt.Sprintf("http://%s/api/auth/login", host)
	body, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})

	resp, err := http.Post(loginURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("login failed with status %d", resp.StatusCode)
	}

	var result struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}
	return result.Token, nil
}
