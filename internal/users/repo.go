package users

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nmartinez-dev/expensio-backend/pkg/db/models"
)

// Repository manages the user profile rows.
type Repository interface {
	Upsert(ctx context.Context, profile *models.UserProfile) error
	UpdateImageURI(ctx context.Context, userID, imageURI string) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a profile repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

// Upsert inserts the row or replaces every non-key column, matching the
// insert-on-conflict-update the clients rely on.
func (r *repository) Upsert(ctx context.Context, profile *models.UserProfile) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(profile).Error
}

// UpdateImageURI sets only the avatar column, creating the row when the
// profile has never been saved.
func (r *repository) UpdateImageURI(ctx context.Context, userID, imageURI string) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"image_uri"}),
		}).
		Create(&models.UserProfile{ID: userID, ImageURI: &imageURI}).Error
}
