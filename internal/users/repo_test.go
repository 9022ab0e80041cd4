package users

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/nmartinez-dev/expensio-backend/pkg/db/models"
)

func setupProfilesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS users (
  id VARCHAR(255) PRIMARY KEY,
  name VARCHAR(255),
  image_uri TEXT,
  contact VARCHAR(50),
  address TEXT
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func strptr(s string) *string { return &s }

func TestRepositoryUpsert_insertsThenReplaces(t *testing.T) {
	db := setupProfilesTestDB(t)
	repo := NewRepository(db)

	require.NoError(t, repo.Upsert(context.Background(), &models.UserProfile{
		ID:      "user_abc",
		Name:    strptr("Nahuel"),
		Contact: strptr("+54 9 11 5555-0000"),
	}))

	require.NoError(t, repo.Upsert(context.Background(), &models.UserProfile{
		ID:      "user_abc",
		Name:    strptr("Nahuel M."),
		Address: strptr("Buenos Aires"),
	}))

	var profile models.UserProfile
	require.NoError(t, db.First(&profile, "id = ?", "user_abc").Error)
	require.NotNil(t, profile.Name)
	assert.Equal(t, "Nahuel M.", *profile.Name)
	require.NotNil(t, profile.Address)
	assert.Equal(t, "Buenos Aires", *profile.Address)
	// the second payload carried no contact, so the column was overwritten
	assert.Nil(t, profile.Contact)

	var count int64
	require.NoError(t, db.Model(&models.UserProfile{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRepositoryUpdateImageURI_touchesOnlyAvatar(t *testing.T) {
	db := setupProfilesTestDB(t)
	repo := NewRepository(db)

	require.NoError(t, repo.Upsert(context.Background(), &models.UserProfile{
		ID:   "user_abc",
		Name: strptr("Nahuel"),
	}))

	require.NoError(t, repo.UpdateImageURI(context.Background(), "user_abc", "https://img.example/a.png"))

	var profile models.UserProfile
	require.NoError(t, db.First(&profile, "id = ?", "user_abc").Error)
	require.NotNil(t, profile.ImageURI)
	assert.Equal(t, "https://img.example/a.png", *profile.ImageURI)
	require.NotNil(t, profile.Name)
	assert.Equal(t, "Nahuel", *profile.Name)
}

func TestRepositoryUpdateImageURI_createsMissingRow(t *testing.T) {
	db := setupProfilesTestDB(t)
	repo := NewRepository(db)

	require.NoError(t, repo.UpdateImageURI(context.Background(), "user_new", "https://img.example/b.png"))

	var profile models.UserProfile
	require.NoError(t, db.First(&profile, "id = ?", "user_new").Error)
	require.NotNil(t, profile.ImageURI)
	assert.Equal(t, "https://img.example/b.png", *profile.ImageURI)
	assert.Nil(t, profile.Name)
}
