package testutil

import (
	"testing"

	"showcase/internal/database"
	"showcase/internal/models"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLiteDB opens a migrated in-memory SQLite database. A single
// connection is used so every query sees the same in-memory schema.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

// TestPassword is the plain-text password of users created by CreateUser.
const TestPassword = "Password123!"

// CreateUser inserts a user with TestPassword and returns it.
func CreateUser(t *testing.T, db *gorm.DB, username string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{
		Username: models.NormalizeUsername(username),
		Email:    models.NormalizeUsername(username) + "@example.com",
		Password: string(hash),
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// CreateProject inserts a minimal project owned by owner with the given tags.
func CreateProject(t *testing.T, db *gorm.DB, owner *models.User, title string, tags ...string) *models.Project {
	t.Helper()
	project := &models.Project{
		Title:       title,
		Description: "Description of " + title,
		OwnerID:     owner.ID,
		MainImage:   "projects/" + title,
		Images: []models.Image{{
			OriginalName: title + ".png",
			Extension:    "png",
			URLPath:      "projects/" + title,
			Width:        1,
			Height:       1,
			IsMain:       true,
		}},
	}
	for _, name := range tags {
		tag := models.Tag{Name: name}
		require.NoError(t, db.Where(models.Tag{Name: name}).FirstOrCreate(&tag).Error)
		project.Tags = append(project.Tags, tag)
	}
	require.NoError(t, db.Omit("Owner", "Tags.*").Create(project).Error)
	return project
}
