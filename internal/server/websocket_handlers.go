package server

import (
	"vaultbox/internal/middleware"
	"vaultbox/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketHandler streams the caller's events: reactions to their content,
// comments on their posts and files attached to their posts. Incoming frames
// are ignored.
// @Summary Event stream
// @Tags realtime
// @Param token query string false "JWT when no header or cookie is sent"
// @Success 101
// @Failure 401 {object} models.ErrorResponse
// @Router /ws [get]
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		ident, ok := conn.Locals(middleware.IdentityLocal).(models.Identity)
		if !ok || ident.IsZero() {
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"unauthorized"}`))
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(ident.ID, conn)
		if err != nil {
			middleware.Logger.Warn("websocket register failed", "user_id", ident.ID, "error", err)
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		middleware.Logger.Info("websocket connected", "user_id", ident.ID, "username", ident.Username)

		done := make(chan struct{})
		go client.WritePump(done)
		client.ReadPump()
		close(done)
	})
}
