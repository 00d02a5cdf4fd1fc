package inquiry

import (
	"errors"
	"os"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"pgregory.net/rapid"

	"estatehub_backend/internal/model"
	"estatehub_backend/internal/testutil"
	"estatehub_backend/pkg/config"
	"estatehub_backend/pkg/database"
)

// naiveLatest is the reference grouping: the max (created_at, id) per key.
func naiveLatest(rows []model.Inquiry) []uint {
	best := map[groupKey]model.Inquiry{}
	for _, r := range rows {
		k := groupKey{r.ListingID, r.UserID, r.Subject, r.Message}
		cur, ok := best[k]
		if !ok || r.CreatedAt.After(cur.CreatedAt) || (r.CreatedAt.Equal(cur.CreatedAt) && r.ID > cur.ID) {
			best[k] = r
		}
	}
	ids := make([]uint, 0, len(best))
	for _, r := range best {
		ids = append(ids, r.ID)
	}
	return ids
}

type world struct {
	users    []uint
	listings []uint
}

func newWorld(t testing.TB, db *gorm.DB) world {
	var w world
	for i := 0; i < 3; i++ {
		w.users = append(w.users, testutil.CreateUser(t, db).ID)
		w.listings = append(w.listings, testutil.CreateListing(t, db, "Dedup").ID)
	}
	return w
}

// drawInquiries generates rows from small value pools so groups collide and
// timestamps tie.
func drawInquiries(t *rapid.T, w world) []model.Inquiry {
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	n := rapid.IntRange(0, 30).Draw(t, "n")
	rows := make([]model.Inquiry, n)
	for i := range rows {
		rows[i] = model.Inquiry{
			ListingID: rapid.SampledFrom(w.listings).Draw(t, "listing"),
			UserID:    rapid.SampledFrom(w.users).Draw(t, "user"),
			Subject:   rapid.SampledFrom([]string{"", "Viewing", "Price"}).Draw(t, "subject"),
			Message:   rapid.SampledFrom([]string{"Hi", "Is it available?"}).Draw(t, "message"),
			Status:    model.InquiryNew,
			CreatedAt: base.Add(time.Duration(rapid.IntRange(0, 3).Draw(t, "minute")) * time.Minute),
		}
	}
	return rows
}

func insert(t require.TestingT, db *gorm.DB, rows []model.Inquiry) {
	require.NoError(t, db.Exec("DELETE FROM inquiries").Error)
	if len(rows) > 0 {
		require.NoError(t, db.Omit("User", "Listing").Create(&rows).Error)
	}
}

func sorted(ids []uint) []uint {
	out := append([]uint(nil), ids...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func TestOrderedScanMatchesReference(t *testing.T) {
	db := testutil.NewDB(t)
	w := newWorld(t, db)

	rapid.Check(t, func(rt *rapid.T) {
		rows := drawInquiries(rt, w)
		insert(rt, db, rows)

		got, err := OrderedScan{}.LatestIDs(db.Model(&model.Inquiry{}))
		require.NoError(rt, err)
		assert.Equal(rt, sorted(naiveLatest(rows)), sorted(got))
	})
}

func TestNewDeduplicatorPicksBackend(t *testing.T) {
	db := testutil.NewDB(t)
	assert.IsType(t, OrderedScan{}, NewDeduplicator(db))
}

var errRollback = errors.New("rollback")

// TestBackendsAgreeOnPostgres runs both backends against the same rows.
// Set TEST_DATABASE_URL to a scratch postgres database to enable it.
func TestBackendsAgreeOnPostgres(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := database.Open(config.DatabaseConfig{Driver: "postgres", URL: url})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, database.Migrate(db, model.All()...))
	require.IsType(t, DistinctOn{}, NewDeduplicator(db))

	w := newWorld(t, db)
	t.Cleanup(func() {
		db.Unscoped().Where("id IN ?", w.listings).Delete(&model.Listing{})
		db.Unscoped().Where("id IN ?", w.users).Delete(&model.User{})
	})

	rapid.Check(t, func(rt *rapid.T) {
		err := db.Transaction(func(tx *gorm.DB) error {
			rows := drawInquiries(rt, w)
			if len(rows) > 0 {
				require.NoError(rt, tx.Omit("User", "Listing").Create(&rows).Error)
			}
			scope := func() *gorm.DB {
				return tx.Model(&model.Inquiry{}).Where("inquiries.listing_id IN ?", w.listings)
			}

			native, err := DistinctOn{}.LatestIDs(scope())
			require.NoError(rt, err)
			scanned, err := OrderedScan{}.LatestIDs(scope())
			require.NoError(rt, err)

			want := sorted(naiveLatest(rows))
			assert.Equal(rt, want, sorted(native))
			assert.Equal(rt, want, sorted(scanned))
			return errRollback
		})
		require.ErrorIs(rt, err, errRollback)
	})
}
