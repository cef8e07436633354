package repository

import (
	"context"

	"vaultbox/internal/models"
	"vaultbox/internal/observability"

	"gorm.io/gorm"
)

// VaultRepository defines persistence operations for vaults and their memberships.
type VaultRepository interface {
	Create(ctx context.Context, vault *models.Vault) error
	GetByID(ctx context.Context, id uint) (*models.Vault, error)
	ListByUser(ctx context.Context, userID uint, includePrivate bool) ([]*models.Vault, error)
	Update(ctx context.Context, vault *models.Vault) error
	Delete(ctx context.Context, id uint) error
	AddPost(ctx context.Context, vaultID, postID uint) error
	RemovePost(ctx context.Context, vaultID, postID uint) (bool, error)
}

type vaultRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewVaultRepository creates a new vault repository.
func NewVaultRepository(db *gorm.DB) VaultRepository {
	return &vaultRepository{db: db, log: observability.NewRepoLogger("vaults")}
}

func applyVaultDetails(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Vault{}).
		Select("vaults.*, (SELECT COUNT(*) FROM vault_posts WHERE vault_posts.vault_id = vaults.id) AS post_count")
}

func (r *vaultRepository) Create(ctx context.Context, vault *models.Vault) error {
	defer observability.TrackQuery("create", "vaults")()
	if err := r.db.WithContext(ctx).Omit("User").Create(vault).Error; err != nil {
		if IsUniqueViolation(err) {
			return models.NewConflictError("you already have a vault with this title")
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": vault.ID, "user_id": vault.UserID})
	return nil
}

func (r *vaultRepository) GetByID(ctx context.Context, id uint) (*models.Vault, error) {
	defer observability.TrackQuery("get", "vaults")()
	var vault models.Vault
	if err := applyVaultDetails(r.db.WithContext(ctx)).Preload("User").First(&vault, id).Error; err != nil {
		return nil, notFound(err, "Vault", id)
	}
	return &vault, nil
}

func (r *vaultRepository) ListByUser(ctx context.Context, userID uint, includePrivate bool) ([]*models.Vault, error) {
	defer observability.TrackQuery("list", "vaults")()
	var vaults []*models.Vault
	db := applyVaultDetails(r.db.WithContext(ctx)).Where("vaults.user_id = ?", userID)
	if !includePrivate {
		db = db.Where("vaults.privacy = ?", models.PrivacyPublic)
	}
	if err := db.Order("vaults.created_at DESC").Find(&vaults).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return vaults, nil
}

func (r *vaultRepository) Update(ctx context.Context, vault *models.Vault) error {
	defer observability.TrackQuery("update", "vaults")()
	err := r.db.WithContext(ctx).Model(vault).Updates(map[string]interface{}{
		"title":   vault.Title,
		"privacy": vault.Privacy,
	}).Error
	if err != nil {
		if IsUniqueViolation(err) {
			return models.NewConflictError("you already have a vault with this title")
		}
		return models.NewInternalError(err)
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"id": vault.ID})
	return nil
}

func (r *vaultRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "vaults")()
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("vault_id = ?", id).Delete(&models.VaultPost{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Vault{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	if err != nil {
		return notFound(err, "Vault", id)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"id": id})
	return nil
}

// AddPost records membership. The composite primary key rejects duplicates.
func (r *vaultRepository) AddPost(ctx context.Context, vaultID, postID uint) error {
	defer observability.TrackQuery("create", "vault_posts")()
	err := r.db.WithContext(ctx).Create(&models.VaultPost{VaultID: vaultID, PostID: postID}).Error
	if err != nil {
		if IsUniqueViolation(err) {
			return models.NewConflictError("post is already in this vault")
		}
		return models.NewInternalError(err)
	}
	return nil
}

// RemovePost deletes membership and reports whether there was any.
func (r *vaultRepository) RemovePost(ctx context.Context, vaultID, postID uint) (bool, error) {
	defer observability.TrackQuery("delete", "vault_posts")()
	res := r.db.WithContext(ctx).Where("vault_id = ? AND post_id = ?", vaultID, postID).Delete(&models.VaultPost{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}
