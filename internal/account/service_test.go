package account

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estatehub_backend/internal/model"
	"estatehub_backend/internal/testutil"
	"estatehub_backend/pkg/apperror"
	"estatehub_backend/pkg/storage"
	"estatehub_backend/pkg/utils/jwt"
)

func newService(t *testing.T) (*Service, *storage.LocalStore) {
	t.Helper()
	db := testutil.NewDB(t)
	store, err := storage.NewLocalStore(t.TempDir(), "/media")
	require.NoError(t, err)
	return NewService(db, jwt.NewIssuer("test-secret", time.Hour), store), store
}

func validRegistration() RegisterInput {
	return RegisterInput{
		Email:     "  Jane@Example.com ",
		Username:  "jane",
		Password:  "s3cret-pass",
		FirstName: "Jane",
		LastName:  "Doe",
	}
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	sess, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "jane@example.com", sess.User.Email)
	assert.True(t, sess.User.IsActive)
	assert.NotEqual(t, "s3cret-pass", sess.User.Password)

	login, err := svc.Login(ctx, LoginInput{Email: "JANE@example.com", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, login.User.ID)

	user, err := svc.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, "jane", user.Username)
}

func TestEmailIsNormalizedBeforeValidation(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	in := validRegistration()
	in.Username = "  jane  "
	sess, err := svc.Register(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", sess.User.Email)
	assert.Equal(t, "jane", sess.User.Username)

	login, err := svc.Login(ctx, LoginInput{Email: "\tJane@EXAMPLE.com  ", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, login.User.ID)

	_, err = svc.Register(ctx, RegisterInput{Email: "   ", Username: "other", Password: "s3cret-pass"})
	var verr *apperror.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	in := validRegistration()
	in.Email = "JANE@example.com"
	in.Username = "jane"
	_, err = svc.Register(ctx, in)

	var verr *apperror.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "username")
}

func TestRegisterValidatesInput(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Register(context.Background(), RegisterInput{Email: "nope", Username: "x", Password: "short"})

	var verr *apperror.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "email")
	assert.Contains(t, verr.Fields, "username")
	assert.Contains(t, verr.Fields, "password")
}

func TestLoginIsRecorded(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	sess, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	for i := 0; i < LoginHistoryLimit+2; i++ {
		_, err := svc.Login(ctx, LoginInput{
			Email: "jane@example.com", Password: "s3cret-pass",
			IP: "10.0.0.1", Device: strings.Repeat("x", 300),
		})
		require.NoError(t, err)
	}
	_, err = svc.Login(ctx, LoginInput{Email: "jane@example.com", Password: "wrong-pass"})
	require.Error(t, err)

	logins, err := svc.RecentLogins(ctx, sess.User)
	require.NoError(t, err)
	require.Len(t, logins, LoginHistoryLimit)
	assert.Equal(t, "10.0.0.1", logins[0].IP)
	assert.Len(t, logins[0].Device, 255)
	assert.Greater(t, logins[0].ID, logins[1].ID)

	var total int64
	require.NoError(t, svc.db.Model(&model.LoginHistory{}).Where("user_id = ?", sess.User.ID).Count(&total).Error)
	assert.EqualValues(t, LoginHistoryLimit+2, total)
}

func TestLoginFailures(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	sess, err := svc.Register(ctx, validRegistration())
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Email: "jane@example.com", Password: "wrong-pass"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.Login(ctx, LoginInput{Email: "ghost@example.com", Password: "whatever"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	require.NoError(t, svc.db.Model(&model.User{}).Where("id = ?", sess.User.ID).Update("is_active", false).Error)
	_, err = svc.Login(ctx, LoginInput{Email: "jane@example.com", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.Authenticate(ctx, sess.Token)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestProfileIsCreatedLazily(t *testing.T) {
	svc, _ := newService(t)
	user := testutil.CreateUser(t, svc.db)

	var count int64
	require.NoError(t, svc.db.Model(&model.Profile{}).Where("user_id = ?", user.ID).Count(&count).Error)
	require.Zero(t, count)

	p1, err := svc.GetProfile(context.Background(), user)
	require.NoError(t, err)
	p2, err := svc.GetProfile(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, p2.ID)
	assert.Equal(t, "", p1.AvatarURL)
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newService(t)
	user := testutil.CreateUser(t, svc.db)

	p, err := svc.UpdateProfile(context.Background(), user, ProfileInput{
		FirstName:   "Amina",
		PhoneNumber: "+254700111222",
		City:        "Nairobi",
	})
	require.NoError(t, err)
	assert.Equal(t, "Nairobi", p.City)

	var reloaded model.User
	require.NoError(t, svc.db.First(&reloaded, user.ID).Error)
	assert.Equal(t, "Amina", reloaded.FirstName)

	_, err = svc.UpdateProfile(context.Background(), user, ProfileInput{PhoneNumber: "012345678901234567890123"})
	var verr *apperror.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUploadAvatarReplacesPrevious(t *testing.T) {
	svc, store := newService(t)
	user := testutil.CreateUser(t, svc.db)
	ctx := context.Background()

	first, err := svc.UploadAvatar(ctx, user, testutil.PNGUpload(t, "avatar", "me.png"))
	require.NoError(t, err)
	require.NotEmpty(t, first.AvatarURL)
	firstKey := first.AvatarKey

	second, err := svc.UploadAvatar(ctx, user, testutil.PNGUpload(t, "avatar", "me2.png"))
	require.NoError(t, err)
	assert.NotEqual(t, firstKey, second.AvatarKey)

	_, statErr := os.Stat(filepath.Join(store.Root(), filepath.FromSlash(firstKey)))
	assert.True(t, os.IsNotExist(statErr), "old avatar removed")
	assert.Equal(t, "", store.URL(firstKey))
}

func TestUploadAvatarRejectsWrongType(t *testing.T) {
	svc, _ := newService(t)
	user := testutil.CreateUser(t, svc.db)
	_, err := svc.UploadAvatar(context.Background(), user, testutil.PNGUpload(t, "avatar", "me.gif"))
	var verr *apperror.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "avatar")
}

func TestCreateSuperuser(t *testing.T) {
	svc, _ := newService(t)
	u, err := svc.CreateSuperuser(context.Background(), RegisterInput{Email: "root@example.com", Username: "root", Password: "rootroot1"})
	require.NoError(t, err)
	assert.True(t, u.IsSuperuser)
	assert.True(t, u.IsStaff)
	assert.True(t, u.IsAdmin())
}

func TestUpdateUserFlags(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	admin := testutil.CreateAdmin(t, svc.db)
	staff := testutil.CreateUser(t, svc.db, func(u *model.User) { u.IsStaff = true })
	target := testutil.CreateUser(t, svc.db)

	off := false
	on := true
	updated, err := svc.UpdateUserFlags(ctx, admin, target.ID, UserFlagsInput{IsActive: &off, IsStaff: &on})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.True(t, updated.IsStaff)

	_, err = svc.UpdateUserFlags(ctx, staff, target.ID, UserFlagsInput{IsActive: &on})
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	_, err = svc.UpdateUserFlags(ctx, admin, admin.ID, UserFlagsInput{IsSuperuser: &off})
	var verr *apperror.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestListUsers(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	admin := testutil.CreateAdmin(t, svc.db)
	testutil.CreateUser(t, svc.db, func(u *model.User) { u.FirstName = "Wanjiru" })
	plain := testutil.CreateUser(t, svc.db)

	page, err := svc.ListUsers(ctx, admin, UserFilter{Query: "wanjiru"})
	require.NoError(t, err)
	require.Len(t, page.Users, 1)
	assert.Equal(t, "Wanjiru", page.Users[0].FirstName)

	_, err = svc.ListUsers(ctx, plain, UserFilter{})
	assert.ErrorIs(t, err, apperror.ErrForbidden)
}
