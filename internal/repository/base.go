// Package repository provides data access layer implementations for the application.
package repository

import (
	"errors"
	"strings"

	"vaultbox/internal/models"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Sort orders for post and comment listings.
const (
	SortTop   = "top"
	SortLikes = "likes"
	SortScore = "score"
	SortNew   = "new"
)

// IsUniqueViolation reports whether err is a unique or primary key conflict
// on either supported dialect.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// notFound maps gorm.ErrRecordNotFound to a NOT_FOUND AppError and anything
// else to an internal error.
func notFound(err error, resource string, id interface{}) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.NewNotFoundError(resource, id)
	}
	return models.NewInternalError(err)
}

// applySort appends the ORDER BY clause for the requested ranking. The count
// columns are SELECT aliases added by the detail helpers; both dialects accept
// bare aliases in ORDER BY.
func applySort(db *gorm.DB, table, sort string) *gorm.DB {
	switch sort {
	case SortLikes:
		return db.Order("like_count DESC").Order(table + ".created_at DESC")
	case SortScore:
		return db.Order("score DESC").Order(table + ".created_at DESC")
	case SortNew:
		return db.Order(table + ".created_at DESC")
	default:
		return db.Order("reaction_count DESC").Order(table + ".created_at DESC")
	}
}

// ValidSort reports whether s names a known ranking. Empty means the default.
func ValidSort(s string) bool {
	switch s {
	case "", SortTop, SortLikes, SortScore, SortNew:
		return true
	}
	return false
}

// reactionCountColumns selects the ranking counters. reaction_count counts
// every reaction row, "none" included.
func reactionCountColumns(reactionTable, fk, table string) string {
	from := "(SELECT COUNT(*) FROM " + reactionTable + " r WHERE r." + fk + " = " + table + ".id"
	count := func(where string) string {
		return from + " AND " + where + ")"
	}
	likes := count("r.type = 'like'")
	dislikes := count("r.type = 'dislike'")
	return from + ") AS reaction_count, " +
		likes + " AS like_count, " +
		dislikes + " AS dislike_count, " +
		"(" + likes + " - " + dislikes + ") AS score"
}
