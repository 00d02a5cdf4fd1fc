// Package testutil opens throwaway sqlite databases and seeds records for
// package tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"estatehub_backend/internal/model"
	"estatehub_backend/pkg/config"
	"estatehub_backend/pkg/database"
)

var seq atomic.Int64

func next() int64 { return seq.Add(1) }

// NewDB returns a migrated sqlite database living in t.TempDir().
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(config.DatabaseConfig{Driver: "sqlite", URL: path + "?_busy_timeout=5000"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db, model.All()...))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// CreateUser inserts an active account. mutate may adjust fields first.
func CreateUser(t testing.TB, db *gorm.DB, mutate ...func(*model.User)) *model.User {
	t.Helper()
	n := next()
	u := &model.User{
		Email:     fmt.Sprintf("user%d@example.com", n),
		Username:  fmt.Sprintf("user%d", n),
		Password:  "x",
		FirstName: "Test",
		LastName:  fmt.Sprintf("User%d", n),
		IsActive:  true,
	}
	for _, m := range mutate {
		m(u)
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateAdmin inserts a staff superuser.
func CreateAdmin(t testing.TB, db *gorm.DB) *model.User {
	return CreateUser(t, db, func(u *model.User) {
		u.IsStaff = true
		u.IsSuperuser = true
	})
}

// CreateAgent inserts an account plus its agent record.
func CreateAgent(t testing.TB, db *gorm.DB, status model.VerificationStatus, mutate ...func(*model.Agent)) *model.Agent {
	t.Helper()
	u := CreateUser(t, db)
	a := &model.Agent{
		UserID:             u.ID,
		AgencyName:         fmt.Sprintf("Agency %d", u.ID),
		LicenseNumber:      fmt.Sprintf("LIC-%d", next()),
		VerificationStatus: status,
		IsActive:           true,
	}
	for _, m := range mutate {
		m(a)
	}
	require.NoError(t, db.Create(a).Error)
	a.User = *u
	return a
}

func CreateCategory(t testing.TB, db *gorm.DB, name string) *model.Category {
	t.Helper()
	c := &model.Category{Name: name, Description: name + " properties"}
	require.NoError(t, db.Create(c).Error)
	return c
}

func CreateLocation(t testing.TB, db *gorm.DB, name, city string) *model.Location {
	t.Helper()
	l := &model.Location{Name: name, City: city, State: "Nairobi", Country: "Kenya"}
	require.NoError(t, db.Create(l).Error)
	return l
}

// CreateListing inserts a published, active, available listing.
func CreateListing(t testing.TB, db *gorm.DB, title string, mutate ...func(*model.Listing)) *model.Listing {
	t.Helper()
	l := &model.Listing{
		Title:       title,
		Description: title + " description",
		Price:       decimal.NewFromInt(100000),
		Status:      model.ListingAvailable,
		IsActive:    true,
		IsPublished: true,
	}
	for _, m := range mutate {
		m(l)
	}
	require.NoError(t, db.Create(l).Error)
	return l
}

// OwnedBy assigns the listing to an agent and its account.
func OwnedBy(a *model.Agent) func(*model.Listing) {
	return func(l *model.Listing) {
		l.AgentID = &a.ID
		l.UserID = &a.UserID
	}
}
