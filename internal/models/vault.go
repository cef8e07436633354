package models

import "time"

// Privacy controls who can see a vault.
type Privacy string

const (
	PrivacyPrivate Privacy = "private"
	PrivacyPublic  Privacy = "public"
)

// Valid reports whether p is a known privacy setting.
func (p Privacy) Valid() bool {
	return p == PrivacyPrivate || p == PrivacyPublic
}

// Vault is a user-owned named collection of posts. Titles are unique per user.
type Vault struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:100;not null;uniqueIndex:idx_vault_user_title" json:"title"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_vault_user_title" json:"user_id"`
	User      User      `gorm:"foreignKey:UserID" json:"user"`
	Privacy   Privacy   `gorm:"size:8;not null;default:private" json:"privacy"`
	PostCount int64     `gorm:"->;-:migration" json:"post_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VisibleTo reports whether the vault may be shown to the given caller.
func (v *Vault) VisibleTo(ident Identity) bool {
	return v.Privacy == PrivacyPublic || (!ident.IsZero() && v.UserID == ident.ID)
}

// VaultPost is vault membership; the composite key keeps a post at most once per vault.
type VaultPost struct {
	VaultID   uint      `gorm:"primaryKey" json:"vault_id"`
	PostID    uint      `gorm:"primaryKey;index" json:"post_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TimeSince renders the vault age for display.
func (v *Vault) TimeSince(now time.Time) string {
	return TimeSince(v.CreatedAt, now)
}
