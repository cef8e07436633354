// Package middleware provides authentication, logging, rate limiting and tracing middleware.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"vaultbox/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	// TokenIssuer and TokenAudience are pinned on every token we sign.
	TokenIssuer   = "vaultbox-api"
	TokenAudience = "vaultbox-client"
	// TokenTTL is how long an issued token stays valid.
	TokenTTL = 7 * 24 * time.Hour
	// AuthCookie carries the token for browser clients.
	AuthCookie = "auth_token"

	// IdentityLocal is the Locals key holding the resolved models.Identity.
	IdentityLocal = "identity"
	userIDLocal   = "userID"
	tokenLocal    = "token"
)

// Claims is the JWT payload.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// UserLookup resolves the user a token was issued for.
type UserLookup interface {
	GetByID(ctx context.Context, id uint) (*models.User, error)
}

// Authenticator signs, verifies and revokes JWTs and exposes them as Fiber middleware.
type Authenticator struct {
	secret []byte
	rdb    *redis.Client
	users  UserLookup
	now    func() time.Time

	// revoked holds blacklisted jtis when redis is not configured.
	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewAuthenticator creates an Authenticator. A nil rdb keeps the blacklist in process.
func NewAuthenticator(secret string, rdb *redis.Client, users UserLookup) *Authenticator {
	return &Authenticator{
		secret:  []byte(secret),
		rdb:     rdb,
		users:   users,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}
}

// IssueToken signs a token for the user and returns it with its expiry.
func (a *Authenticator) IssueToken(user *models.User) (string, time.Time, error) {
	now := a.now()
	exp := now.Add(TokenTTL)
	claims := Claims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			Issuer:    TokenIssuer,
			Audience:  jwt.ClaimStrings{TokenAudience},
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Parse verifies the signature, issuer, audience and time claims of a token.
func (a *Authenticator) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(TokenIssuer),
		jwt.WithAudience(TokenAudience),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid {
		return nil, models.NewUnauthenticatedError("invalid or expired token")
	}
	if claims.ID == "" {
		return nil, models.NewUnauthenticatedError("token has no id")
	}
	return claims, nil
}

// Revoke blacklists the token's jti until the token would have expired.
func (a *Authenticator) Revoke(ctx context.Context, tokenString string) error {
	claims, err := a.Parse(tokenString)
	if err != nil {
		return err
	}
	ttl := claims.ExpiresAt.Sub(a.now())
	if ttl <= 0 {
		return nil
	}

	if a.rdb != nil {
		if err := a.rdb.Set(ctx, blacklistKey(claims.ID), "1", ttl).Err(); err != nil {
			return models.NewInternalError(fmt.Errorf("blacklist token: %w", err))
		}
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.revoked[claims.ID] = claims.ExpiresAt.Time
	return nil
}

func (a *Authenticator) isRevoked(ctx context.Context, jti string) (bool, error) {
	if a.rdb != nil {
		n, err := a.rdb.Exists(ctx, blacklistKey(jti)).Result()
		if err != nil {
			return false, err
		}
		return n > 0, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	exp, ok := a.revoked[jti]
	if ok && a.now().After(exp) {
		delete(a.revoked, jti)
		return false, nil
	}
	return ok, nil
}

func blacklistKey(jti string) string {
	return "blacklist:" + jti
}

// Authenticate resolves a raw token to the identity of an existing user.
func (a *Authenticator) Authenticate(ctx context.Context, tokenString string) (models.Identity, error) {
	claims, err := a.Parse(tokenString)
	if err != nil {
		return models.Identity{}, err
	}

	revoked, err := a.isRevoked(ctx, claims.ID)
	if err != nil {
		Logger.WarnContext(ctx, "token blacklist check failed", "error", err)
		return models.Identity{}, models.NewUnauthenticatedError("unable to verify token")
	}
	if revoked {
		return models.Identity{}, models.NewUnauthenticatedError("token has been revoked")
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 32)
	if err != nil || id == 0 {
		return models.Identity{}, models.NewUnauthenticatedError("invalid user ID in token")
	}

	user, err := a.users.GetByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) || models.HasCode(err, models.CodeNotFound) {
			return models.Identity{}, models.NewNotFoundError("User", id)
		}
		return models.Identity{}, models.NewInternalError(err)
	}
	return user.Identity(), nil
}

// Required rejects requests without a valid token.
func (a *Authenticator) Required() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := TokenFromRequest(c)
		if token == "" {
			return models.RespondWithError(c, models.NewUnauthenticatedError("authentication required"))
		}
		ident, err := a.Authenticate(c.UserContext(), token)
		if err != nil {
			return models.RespondWithError(c, err)
		}
		setIdentity(c, ident, token)
		return c.Next()
	}
}

// Optional resolves the identity when the request carries a usable token and
// continues anonymously otherwise.
func (a *Authenticator) Optional() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if token := TokenFromRequest(c); token != "" {
			if ident, err := a.Authenticate(c.UserContext(), token); err == nil {
				setIdentity(c, ident, token)
			}
		}
		return c.Next()
	}
}

// TokenFromRequest reads the token from the Authorization header, the auth
// cookie, or the token query parameter used by WebSocket clients.
func TokenFromRequest(c *fiber.Ctx) string {
	if header := c.Get(fiber.HeaderAuthorization); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie := c.Cookies(AuthCookie); cookie != "" {
		return cookie
	}
	return c.Query("token")
}

func setIdentity(c *fiber.Ctx, ident models.Identity, token string) {
	c.Locals(IdentityLocal, ident)
	c.Locals(userIDLocal, ident.ID)
	c.Locals(tokenLocal, token)
	c.SetUserContext(context.WithValue(c.UserContext(), UserIDKey, ident.ID))
}

// IdentityFrom returns the identity resolved by Required or Optional.
func IdentityFrom(c *fiber.Ctx) (models.Identity, bool) {
	ident, ok := c.Locals(IdentityLocal).(models.Identity)
	return ident, ok && !ident.IsZero()
}

// TokenFrom returns the raw token that authenticated the request.
func TokenFrom(c *fiber.Ctx) string {
	token, _ := c.Locals(tokenLocal).(string)
	return token
}
