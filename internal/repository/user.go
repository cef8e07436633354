package repository

import (
	"context"

	"vaultbox/internal/models"
	"vaultbox/internal/observability"

	"gorm.io/gorm"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Stats(ctx context.Context, userID uint) (models.UserStats, error)
}

type userRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewUserRepository returns a new UserRepository implementation.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db, log: observability.NewRepoLogger("users")}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	defer observability.TrackQuery("create", "users")()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if IsUniqueViolation(err) {
			return models.NewConflictError("username is already taken")
		}
		r.log.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.log.LogCreate(ctx, map[string]interface{}{"id": user.ID, "username": user.Username})
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	defer observability.TrackQuery("get", "users")()
	var user models.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, notFound(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	defer observability.TrackQuery("get", "users")()
	var user models.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, notFound(err, "User", username)
	}
	return &user, nil
}

// Stats counts the user's posts, vaults, comments and liked posts in one query.
func (r *userRepository) Stats(ctx context.Context, userID uint) (models.UserStats, error) {
	defer observability.TrackQuery("stats", "users")()
	var stats models.UserStats
	err := r.db.WithContext(ctx).Raw(`SELECT
		(SELECT COUNT(*) FROM posts WHERE user_id = ?) AS post_count,
		(SELECT COUNT(*) FROM vaults WHERE user_id = ?) AS vault_count,
		(SELECT COUNT(*) FROM comments WHERE user_id = ?) AS comment_count,
		(SELECT COUNT(*) FROM post_reactions WHERE user_id = ? AND type = ?) AS liked_posts`,
		userID, userID, userID, userID, models.ReactionLike,
	).Scan(&stats).Error
	if err != nil {
		return stats, models.NewInternalError(err)
	}
	return stats, nil
}
