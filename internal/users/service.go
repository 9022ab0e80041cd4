package users

import (
	"context"

	"github.com/nmartinez-dev/expensio-backend/pkg/db/models"
	pkgerrors "github.com/nmartinez-dev/expensio-backend/pkg/errors"
	"github.com/nmartinez-dev/expensio-backend/pkg/logger"
)

// AvatarSyncer pushes a new profile image to the external identity provider.
// pkg/identity implements it; nil means no provider is configured.
type AvatarSyncer interface {
	UpdateProfileImage(ctx context.Context, userID, imageURL string) error
}

// Service exposes the profile operations.
type Service interface {
	Upsert(ctx context.Context, input UpsertInput) error
	SetAvatar(ctx context.Context, userID, imageURL string) error
}

type service struct {
	repo   Repository
	syncer AvatarSyncer
	logg   *logger.Logger
}

// NewService wires the profile service. syncer may be nil.
func NewService(repo Repository, syncer AvatarSyncer, logg *logger.Logger) Service {
	return &service{repo: repo, syncer: syncer, logg: logg}
}

func (s *service) Upsert(ctx context.Context, input UpsertInput) error {
	if input.UserID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Missing userId")
	}

	profile := &models.UserProfile{
		ID:       input.UserID,
		Name:     input.Name,
		ImageURI: input.ImageURI,
		Contact:  input.Contact,
		Address:  input.Address,
	}
	if err := s.repo.Upsert(ctx, profile); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving user metadata")
	}

	if s.logg != nil {
		saved := s.logg.WithField(ctx, "user_id", input.UserID)
		s.logg.Info(saved, "user.metadata_saved")
	}
	return nil
}

// SetAvatar persists the avatar locally and then pushes it to the identity
// provider. The push is best-effort: a provider outage must not lose the
// local write, so failures are logged and swallowed.
func (s *service) SetAvatar(ctx context.Context, userID, imageURL string) error {
	if userID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Missing userId")
	}
	if imageURL == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Missing imageUrl")
	}

	if err := s.repo.UpdateImageURI(ctx, userID, imageURL); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving avatar")
	}

	if s.syncer != nil {
		if err := s.syncer.UpdateProfileImage(ctx, userID, imageURL); err != nil && s.logg != nil {
			failed := s.logg.WithFields(ctx, map[string]any{
				"user_id": userID,
				"error":   err.Error(),
			})
			s.logg.Warn(failed, "user.avatar_sync_failed")
		}
	}
	return nil
}
