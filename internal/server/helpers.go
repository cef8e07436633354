package server

import (
	"strings"
	"time"
	"unicode"

	"vaultbox/internal/middleware"
	"vaultbox/internal/models"

	"github.com/gofiber/fiber/v2"
)

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	maxPaginationLimit = 100
	defaultPageSize    = 20
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// parseID extracts a route parameter by name as a positive uint.
// The error message is derived from the parameter name (e.g. "id" -> "Invalid ID",
// "postID" -> "Invalid post ID", "commentID" -> "Invalid comment ID").
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		return 0, models.NewValidationError("Invalid " + humanizeParam(param))
	}
	return uint(id), nil
}

// humanizeParam converts a route param name into a human-readable label.
func humanizeParam(param string) string {
	if param == "id" {
		return "ID"
	}
	if strings.HasSuffix(param, "ID") {
		words := splitCamel(param[:len(param)-2])
		return strings.ToLower(strings.Join(words, " ")) + " ID"
	}
	return param
}

// splitCamel splits a camelCase string into words.
func splitCamel(s string) []string {
	var words []string
	start := 0
	for i, r := range s {
		if i > 0 && unicode.IsUpper(r) {
			words = append(words, s[start:i])
			start = i
		}
	}
	return append(words, s[start:])
}

// identity returns the caller resolved by the auth middleware; the zero
// identity stands for an anonymous caller.
func identity(c *fiber.Ctx) models.Identity {
	ident, _ := middleware.IdentityFrom(c)
	return ident
}

// parseBody decodes the JSON request body into dst.
func parseBody(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	return nil
}

// postView is a post with its rendered age.
type postView struct {
	*models.Post
	TimeSince string `json:"time_since"`
}

func newPostViews(posts []*models.Post, now time.Time) []postView {
	out := make([]postView, len(posts))
	for i, p := range posts {
		out[i] = postView{Post: p, TimeSince: p.TimeSince(now)}
	}
	return out
}

// vaultView is a vault with its rendered age.
type vaultView struct {
	*models.Vault
	TimeSince string `json:"time_since"`
}

func newVaultViews(vaults []*models.Vault, now time.Time) []vaultView {
	out := make([]vaultView, len(vaults))
	for i, v := range vaults {
		out[i] = vaultView{Vault: v, TimeSince: v.TimeSince(now)}
	}
	return out
}
