package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub_backend/internal/model"
	"estatehub_backend/internal/testutil"
	"estatehub_backend/pkg/apperror"
)

func TestAdminListIncludesDrafts(t *testing.T) {
	f := newFixture(t)
	admin := testutil.CreateAdmin(t, f.db)
	ctx := context.Background()
	testutil.CreateListing(t, f.db, "Live")
	testutil.CreateListing(t, f.db, "Draft", func(l *model.Listing) { l.IsPublished = false })
	testutil.CreateListing(t, f.db, "Pinned", func(l *model.Listing) { l.AgentLocation = "Near the mall" })

	page, err := f.svc.AdminList(ctx, admin, AdminFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, page.Page.Total)

	page, err = f.svc.AdminList(ctx, admin, AdminFilter{Published: "false"})
	require.NoError(t, err)
	require.Len(t, page.Listings, 1)
	assert.Equal(t, "Draft", page.Listings[0].Title)

	page, err = f.svc.AdminList(ctx, admin, AdminFilter{PendingLocation: true})
	require.NoError(t, err)
	require.Len(t, page.Listings, 1)
	assert.Equal(t, "Pinned", page.Listings[0].Title)

	_, err = f.svc.AdminList(ctx, testutil.CreateUser(t, f.db), AdminFilter{})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}

func TestModerate(t *testing.T) {
	f := newFixture(t)
	admin := testutil.CreateAdmin(t, f.db)
	ctx := context.Background()
	l := testutil.CreateListing(t, f.db, "Moderated")

	off, on := false, true
	sold := "sold"
	got, err := f.svc.Moderate(ctx, admin, l.ID, ModerateInput{IsPublished: &off, IsFeatured: &on, Status: &sold})
	require.NoError(t, err)
	assert.False(t, got.IsPublished)
	assert.True(t, got.IsFeatured)
	assert.Equal(t, model.ListingSold, got.Status)

	bad := "gone"
	_, err = f.svc.Moderate(ctx, admin, l.ID, ModerateInput{Status: &bad})
	var verr *apperror.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = f.svc.Moderate(ctx, admin, 9999, ModerateInput{IsActive: &on})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestAssignLocation(t *testing.T) {
	f := newFixture(t)
	admin := testutil.CreateAdmin(t, f.db)
	ctx := context.Background()
	l := testutil.CreateListing(t, f.db, "Vague", func(l *model.Listing) { l.AgentLocation = "Behind Yaya Centre" })

	got, err := f.svc.AssignLocation(ctx, admin, l.ID, LocationAssignment{LocationID: &f.location.ID})
	require.NoError(t, err)
	require.NotNil(t, got.LocationID)
	assert.Equal(t, f.location.ID, *got.LocationID)
	assert.Empty(t, got.AgentLocation)

	other := testutil.CreateListing(t, f.db, "Vague Too", func(l *model.Listing) { l.AgentLocation = "Off Ngong Road" })
	got, err = f.svc.AssignLocation(ctx, admin, other.ID, LocationAssignment{Location: &model.Location{
		Name: "Ngong Road", City: "Nairobi", State: "Nairobi", Country: "Kenya",
	}})
	require.NoError(t, err)
	require.NotNil(t, got.Location)
	assert.Equal(t, "Ngong Road", got.Location.Name)

	_, err = f.svc.AssignLocation(ctx, admin, other.ID, LocationAssignment{})
	var verr *apperror.ValidationError
	assert.ErrorAs(t, err, &verr)
}
