package service

import (
	"context"

	"vaultbox/internal/models"
	"vaultbox/internal/repository"
	"vaultbox/internal/validation"
)

// VaultService manages vaults and which posts they hold.
type VaultService struct {
	vaults    repository.VaultRepository
	posts     repository.PostRepository
	users     repository.UserRepository
	reactions repository.ReactionRepository
}

// VaultInput is the payload for creating or updating a vault. Empty fields
// keep their current value on update.
type VaultInput struct {
	Title   string `json:"title"`
	Privacy string `json:"privacy"`
}

// NewVaultService creates a VaultService.
func NewVaultService(
	vaults repository.VaultRepository,
	posts repository.PostRepository,
	users repository.UserRepository,
	reactions repository.ReactionRepository,
) *VaultService {
	return &VaultService{vaults: vaults, posts: posts, users: users, reactions: reactions}
}

func parsePrivacy(raw string, fallback models.Privacy) (models.Privacy, error) {
	if raw == "" {
		return fallback, nil
	}
	p := models.Privacy(raw)
	if !p.Valid() {
		return "", models.NewValidationError("privacy must be private or public")
	}
	return p, nil
}

func validateVaultTitle(title string) error {
	if err := validation.ValidateLength("title", title, 1, 100); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

// Create stores a new vault. Vaults are private unless asked otherwise.
func (s *VaultService) Create(ctx context.Context, ident models.Identity, in VaultInput) (*models.Vault, error) {
	if ident.IsZero() {
		return nil, models.NewUnauthenticatedError("authentication required")
	}
	if err := validateVaultTitle(in.Title); err != nil {
		return nil, err
	}
	privacy, err := parsePrivacy(in.Privacy, models.PrivacyPrivate)
	if err != nil {
		return nil, err
	}

	vault := &models.Vault{Title: in.Title, UserID: ident.ID, Privacy: privacy}
	if err := s.vaults.Create(ctx, vault); err != nil {
		return nil, err
	}
	return s.vaults.GetByID(ctx, vault.ID)
}

// Get returns the vault if the viewer may see it.
func (s *VaultService) Get(ctx context.Context, viewer models.Identity, id uint) (*models.Vault, error) {
	vault, err := s.vaults.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !vault.VisibleTo(viewer) {
		return nil, models.NewNotFoundError("Vault", id)
	}
	return vault, nil
}

func (s *VaultService) owned(ctx context.Context, ident models.Identity, id uint) (*models.Vault, error) {
	vault, err := s.vaults.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ident.IsZero() || vault.UserID != ident.ID {
		return nil, models.NewNotFoundError("Vault", id)
	}
	return vault, nil
}

// Update renames or re-scopes a vault. Owner only.
func (s *VaultService) Update(ctx context.Context, ident models.Identity, id uint, in VaultInput) (*models.Vault, error) {
	vault, err := s.owned(ctx, ident, id)
	if err != nil {
		return nil, err
	}
	if in.Title != "" {
		if err := validateVaultTitle(in.Title); err != nil {
			return nil, err
		}
		vault.Title = in.Title
	}
	if vault.Privacy, err = parsePrivacy(in.Privacy, vault.Privacy); err != nil {
		return nil, err
	}
	if err := s.vaults.Update(ctx, vault); err != nil {
		return nil, err
	}
	return s.vaults.GetByID(ctx, id)
}

// Delete removes a vault and its memberships. Owner only.
func (s *VaultService) Delete(ctx context.Context, ident models.Identity, id uint) error {
	if _, err := s.owned(ctx, ident, id); err != nil {
		return err
	}
	return s.vaults.Delete(ctx, id)
}

// ListPosts pages through a visible vault's posts, newest membership first.
func (s *VaultService) ListPosts(ctx context.Context, viewer models.Identity, id uint, limit, offset int) ([]*models.Post, error) {
	if _, err := s.Get(ctx, viewer, id); err != nil {
		return nil, err
	}
	posts, err := s.posts.List(ctx, repository.PostQuery{
		Limit:   limit,
		Offset:  offset,
		Sort:    repository.SortNew,
		VaultID: id,
	})
	if err != nil {
		return nil, err
	}
	if err := fillPostReactions(ctx, s.reactions, viewer, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// AddPost puts an existing post into the caller's vault.
func (s *VaultService) AddPost(ctx context.Context, ident models.Identity, vaultID, postID uint) error {
	if _, err := s.owned(ctx, ident, vaultID); err != nil {
		return err
	}
	if _, err := s.posts.GetByID(ctx, postID); err != nil {
		return err
	}
	return s.vaults.AddPost(ctx, vaultID, postID)
}

// RemovePost takes a post out of the caller's vault.
func (s *VaultService) RemovePost(ctx context.Context, ident models.Identity, vaultID, postID uint) error {
	if _, err := s.owned(ctx, ident, vaultID); err != nil {
		return err
	}
	removed, err := s.vaults.RemovePost(ctx, vaultID, postID)
	if err != nil {
		return err
	}
	if !removed {
		return models.NewValidationError("post is not in this vault")
	}
	return nil
}

// ListForUser lists a user's vaults; private ones only for the owner.
func (s *VaultService) ListForUser(ctx context.Context, viewer models.Identity, username string) ([]*models.Vault, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.vaults.ListByUser(ctx, user.ID, !viewer.IsZero() && viewer.ID == user.ID)
}
