package database

import "vaultbox/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.Tag{},
		&models.Post{},
		&models.MediaFile{},
		&models.Comment{},
		&models.PostReaction{},
		&models.CommentReaction{},
		&models.Vault{},
		&models.VaultPost{},
		&models.Report{},
	}
}
