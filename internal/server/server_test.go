package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"estatehub_backend/internal/inquiry"
	"estatehub_backend/internal/model"
	"estatehub_backend/internal/testutil"
	"estatehub_backend/pkg/config"
	"estatehub_backend/pkg/email"
	"estatehub_backend/pkg/storage"
	"estatehub_backend/pkg/utils/jwt"
)

type harness struct {
	app    *fiber.App
	db     *gorm.DB
	tokens *jwt.Issuer
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewDB(t)
	store, err := storage.NewLocalStore(t.TempDir(), "/media")
	require.NoError(t, err)

	sender, err := email.NewSender(config.EmailConfig{Provider: "log"})
	require.NoError(t, err)
	mail, err := email.NewService(sender, "noreply@example.com")
	require.NoError(t, err)
	dispatch := email.NewDispatcher(time.Second)
	t.Cleanup(dispatch.Wait)

	tokens := jwt.NewIssuer("test-secret", time.Hour)
	deps := Wire(db, store, tokens, inquiry.NewEmailNotifier(mail, dispatch), 1000000)
	return &harness{app: New(deps), db: db, tokens: tokens}
}

func (h *harness) tokenFor(t *testing.T, u *model.User) string {
	t.Helper()
	token, err := h.tokens.GenerateToken(u.ID, u.Email)
	require.NoError(t, err)
	return token
}

func (h *harness) do(t *testing.T, method, path, token string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, ok := body.(string)
		if !ok {
			b, err := json.Marshal(body)
			require.NoError(t, err)
			raw = string(b)
		}
		reader = strings.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]interface{}{}
	if len(bytes.TrimSpace(data)) > 0 && data[0] == '{' {
		require.NoError(t, json.Unmarshal(data, &out))
	}
	return resp, out
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	resp, body := h.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodGet, "/api/home", "", nil)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := h.app.Test(req, -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "http_requests_total")
}

func TestRegisterLoginAndMe(t *testing.T) {
	h := newHarness(t)

	resp, body := h.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "Jane@Example.com",
		"username": "jane",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.NotEmpty(t, body["token"])

	resp, body = h.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "jane@example.com",
		"password": "s3cret-pass",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)

	resp, body = h.do(t, http.MethodGet, "/api/me", token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	user, _ := body["user"].(map[string]interface{})
	assert.Equal(t, "jane", user["username"])
}

func TestLoginWrongPassword(t *testing.T) {
	h := newHarness(t)
	h.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "sam@example.com", "username": "sam", "password": "correct-horse",
	})

	resp, _ := h.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "sam@example.com", "password": "wrong-horse",
	})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRegisterValidationFields(t *testing.T) {
	h := newHarness(t)
	resp, body := h.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":    "not-an-email",
		"username": "x1",
		"password": "short",
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	fields, _ := body["fields"].(map[string]interface{})
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "password")
}

func TestMalformedJSON(t *testing.T) {
	h := newHarness(t)
	resp, body := h.do(t, http.MethodPost, "/api/auth/login", "", "{not json")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid input", body["error"])
}

func TestProtectedRoutesNeedToken(t *testing.T) {
	h := newHarness(t)
	for _, path := range []string{"/api/me", "/api/profile", "/api/inquiries", "/api/agents/dashboard"} {
		resp, _ := h.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode, path)
	}

	resp, _ := h.do(t, http.MethodGet, "/api/me", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestDisabledAccountTokenRejected(t *testing.T) {
	h := newHarness(t)
	u := testutil.CreateUser(t, h.db)
	token := h.tokenFor(t, u)
	require.NoError(t, h.db.Model(u).Update("is_active", false).Error)

	resp, _ := h.do(t, http.MethodGet, "/api/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestPlainUserCannotCreateListing(t *testing.T) {
	h := newHarness(t)
	u := testutil.CreateUser(t, h.db)

	resp, body := h.do(t, http.MethodPost, "/api/listings", h.tokenFor(t, u), map[string]string{
		"title": "Nice flat",
	})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.NotEmpty(t, body["error"])
}

func TestCreateListingWithNumericJSON(t *testing.T) {
	h := newHarness(t)
	a := testutil.CreateAgent(t, h.db, model.VerificationVerified)
	cat := testutil.CreateCategory(t, h.db, "Villa")
	loc := testutil.CreateLocation(t, h.db, "Westlands", "Nairobi")
	token := h.tokenFor(t, &a.User)

	resp, body := h.do(t, http.MethodPost, "/api/listings", token, map[string]interface{}{
		"title":       "Garden villa",
		"description": "Four bedrooms",
		"price":       250000,
		"bathrooms":   2.5,
		"category_id": cat.ID,
		"location_id": loc.ID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body)
	listing, _ := body["listing"].(map[string]interface{})
	assert.Equal(t, "garden-villa", listing["slug"])

	resp, body = h.do(t, http.MethodPost, "/api/listings", token, map[string]interface{}{
		"title":       "Bad price",
		"description": "x",
		"price":       false,
		"category_id": cat.ID,
		"location_id": loc.ID,
	})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	fields, _ := body["fields"].(map[string]interface{})
	assert.Contains(t, fields, "price")
}

func TestListingsPublicRead(t *testing.T) {
	h := newHarness(t)
	a := testutil.CreateAgent(t, h.db, model.VerificationVerified)
	l := testutil.CreateListing(t, h.db, "Sea view villa", testutil.OwnedBy(a))

	resp, _ := h.do(t, http.MethodGet, "/api/listings", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = h.do(t, http.MethodGet, "/api/listings/"+l.Slug, "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = h.do(t, http.MethodGet, "/api/listings/no-such-listing", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestInquiryFlow(t *testing.T) {
	h := newHarness(t)
	a := testutil.CreateAgent(t, h.db, model.VerificationVerified)
	l := testutil.CreateListing(t, h.db, "Loft", testutil.OwnedBy(a))
	buyer := testutil.CreateUser(t, h.db)
	buyerToken := h.tokenFor(t, buyer)
	agentToken := h.tokenFor(t, &a.User)

	resp, body := h.do(t, http.MethodPost, "/api/listings/"+l.Slug+"/inquiries", buyerToken, map[string]string{
		"subject": "Viewing",
		"message": "Is Saturday possible?",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	inq, _ := body["inquiry"].(map[string]interface{})
	id := int(inq["id"].(float64))

	path := "/api/inquiries/" + strconv.Itoa(id)
	resp, _ = h.do(t, http.MethodPost, path+"/respond", buyerToken, map[string]string{"response": "me?"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = h.do(t, http.MethodPost, path+"/respond", agentToken, map[string]string{"response": "Yes, 10am."})
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = h.do(t, http.MethodGet, path, buyerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	inq, _ = body["inquiry"].(map[string]interface{})
	assert.Equal(t, "responded", inq["status"])

	resp, _ = h.do(t, http.MethodGet, "/api/agents/dashboard", agentToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = h.do(t, http.MethodGet, "/api/agents/dashboard", buyerToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestSearchRedirectsOnEmptyQuery(t *testing.T) {
	h := newHarness(t)
	resp, _ := h.do(t, http.MethodGet, "/api/search?q=%20", "", nil)
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/api/home", resp.Header.Get(fiber.HeaderLocation))

	resp, body := h.do(t, http.MethodGet, "/api/search?q=villa", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "villa", body["query"])
}

func TestLegalPages(t *testing.T) {
	h := newHarness(t)
	resp, _ := h.do(t, http.MethodGet, "/api/pages/terms", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = h.do(t, http.MethodGet, "/api/pages/careers", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestReferenceWritesNeedSuperuser(t *testing.T) {
	h := newHarness(t)
	staff := testutil.CreateUser(t, h.db, func(u *model.User) { u.IsStaff = true })
	root := testutil.CreateAdmin(t, h.db)

	resp, _ := h.do(t, http.MethodPost, "/api/admin/categories", h.tokenFor(t, staff), map[string]string{"name": "Villa"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = h.do(t, http.MethodPost, "/api/admin/categories", h.tokenFor(t, root), map[string]string{"name": "Villa"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, body := h.do(t, http.MethodGet, "/api/categories", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	results, _ := body["results"].([]interface{})
	require.Len(t, results, 1)
	assert.Equal(t, "Villa", results[0].(map[string]interface{})["name"])
}

func TestAdminAgentsEmptyForStaff(t *testing.T) {
	h := newHarness(t)
	testutil.CreateAgent(t, h.db, model.VerificationVerified)
	staff := testutil.CreateUser(t, h.db, func(u *model.User) { u.IsStaff = true })
	plain := testutil.CreateUser(t, h.db)

	resp, _ := h.do(t, http.MethodGet, "/api/admin/agents", h.tokenFor(t, plain), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body := h.do(t, http.MethodGet, "/api/admin/agents", h.tokenFor(t, staff), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["agents"])

	resp, body = h.do(t, http.MethodGet, "/api/admin/agents", h.tokenFor(t, testutil.CreateAdmin(t, h.db)), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["agents"], 1)
}

func TestCleanPricesDryRun(t *testing.T) {
	h := newHarness(t)
	root := testutil.CreateAdmin(t, h.db)
	resp, body := h.do(t, http.MethodPost, "/api/admin/maintenance/clean-prices?dry_run=true", h.tokenFor(t, root), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["dry_run"])
}
