package database

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"estatehub_backend/pkg/config"
)

type note struct {
	ID   uint
	Body string `gorm:"uniqueIndex"`
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Open(config.DatabaseConfig{Driver: "sqlite", URL: filepath.Join(t.TempDir(), "db.sqlite")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = Close(db) })
	require.NoError(t, Migrate(db, &note{}))
	return db
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "oracle"})
	assert.Error(t, err)
}

func TestSupportsDistinctOn(t *testing.T) {
	db := openTestDB(t)
	assert.False(t, SupportsDistinctOn(db))
}

func TestDuplicateKeyIsTranslated(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.Create(&note{Body: "same"}).Error)
	err := db.Create(&note{Body: "same"}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestContainsPattern(t *testing.T) {
	assert.Equal(t, `%50\%%`, ContainsPattern("50%"))
	assert.Equal(t, `%a\_b%`, ContainsPattern("a_b"))
	assert.Equal(t, `%c:\\d%`, ContainsPattern(`c:\d`))
}

func TestContainsAny(t *testing.T) {
	db := openTestDB(t)
	for _, body := range []string{"Sunny Villa", "100% financed", "plain_name", "plainXname"} {
		require.NoError(t, db.Create(&note{Body: body}).Error)
	}

	find := func(term string) []string {
		var rows []note
		require.NoError(t, ContainsAny(db.Model(&note{}), term, "body").Order("id").Find(&rows).Error)
		out := make([]string, 0, len(rows))
		for _, r := range rows {
			out = append(out, r.Body)
		}
		return out
	}

	assert.Equal(t, []string{"Sunny Villa"}, find("sunny VILLA"))
	assert.Equal(t, []string{"100% financed"}, find("%"))
	assert.Equal(t, []string{"plain_name"}, find("_"))
	assert.Empty(t, find("missing"))
}
