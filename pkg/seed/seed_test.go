package seed_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub_backend/internal/model"
	"estatehub_backend/internal/testutil"
	"estatehub_backend/pkg/seed"
)

func TestRunIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	data, err := seed.Parse(nil)
	require.NoError(t, err)
	require.NotEmpty(t, data.Categories)

	first, err := seed.Run(db, data)
	require.NoError(t, err)
	assert.Equal(t, len(data.Categories), first.Categories)
	assert.Equal(t, len(data.Locations), first.Locations)

	second, err := seed.Run(db, data)
	require.NoError(t, err)
	assert.Zero(t, second.Categories)
	assert.Zero(t, second.Amenities)
	assert.Zero(t, second.Locations)

	var count int64
	require.NoError(t, db.Model(&model.Amenity{}).Count(&count).Error)
	assert.Equal(t, int64(len(data.Amenities)), count)
}

func TestParseCustomDocument(t *testing.T) {
	data, err := seed.Parse([]byte("categories:\n  - name: Holiday\n"))
	require.NoError(t, err)
	require.Len(t, data.Categories, 1)
	assert.Equal(t, "Holiday", data.Categories[0].Name)
	assert.Empty(t, data.Locations)
}

func TestParseRejectsBadYAML(t *testing.T) {
	_, err := seed.Parse([]byte("categories: [unterminated"))
	assert.Error(t, err)
}
