package bootstrap

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yigit/edupay/internal/app/models"
	appServices "github.com/yigit/edupay/internal/app/services"
	"github.com/yigit/edupay/internal/config"
	pkgauth "github.com/yigit/edupay/internal/pkg/auth"
	"github.com/yigit/edupay/internal/pkg/websocket"
	"github.com/yigit/edupay/internal/seed"
	"github.com/yigit/edupay/internal/store/memstore"
)

func init() {
	pkgauth.BcryptCost = bcrypt.MinCost
}

type apiEnv struct {
	deps   *Dependencies
	router *gin.Engine
}

func testConfig(t *testing.T) *config.Config {
	cfg := &config.Config{}
	cfg.Server.Port = "8080"
	cfg.Server.Mode = "production"
	cfg.Server.StoragePath = t.TempDir()
	cfg.Server.PublicBaseURL = "https://fees.example.edu"
	cfg.Server.MaxLogoBytes = 1 << 20
	cfg.JWT.Secret = "test-secret"
	cfg.JWT.TokenExpiration = "1h"
	cfg.JWT.Issuer = "edupay.test"
	cfg.Admin.LoginID = "admin"
	cfg.Admin.Password = "admin-pass"
	cfg.Admin.Name = "Super Admin"
	cfg.Receipts.Prefix = "DC"
	cfg.Receipts.Base = 1000
	cfg.Sync.RefreshTimeout = 5 * time.Second
	cfg.Sync.StoreCallTimeout = time.Second
	return cfg
}

func setup(t *testing.T) *apiEnv {
	t.Helper()
	ctx := context.Background()
	mem := memstore.New()
	require.NoError(t, seed.CreateDemoData(ctx, mem, zerolog.Nop()))

	cfg := testConfig(t)
	deps, err := BuildDependencies(ctx, cfg, mem, zerolog.Nop())
	require.NoError(t, err)
	InitialSync(ctx, deps)

	admin := models.Session{Name: "Super Admin", UserID: "admin", Role: models.RoleAdmin}
	_, err = deps.AccountantService.Create(ctx, admin, appServices.AccountantInput{
		Name: "Priya Nair", UserID: "priya", Password: "priya-pass",
	})
	require.NoError(t, err)

	return &apiEnv{deps: deps, router: SetupRouter(cfg, deps, zerolog.Nop())}
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *apiEnv) login(t *testing.T, loginID, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"loginId": loginID, "password": password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp struct {
		Data struct {
			Token struct {
				AccessToken string `json:"accessToken"`
			} `json:"token"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Data.Token.AccessToken)
	return resp.Data.Token.AccessToken
}

func (e *apiEnv) studentID(t *testing.T, name string) string {
	t.Helper()
	for _, s := range e.deps.State.Current().Students {
		if s.Name == name {
			return s.ID
		}
	}
	t.Fatalf("student %q not seeded", name)
	return ""
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Data
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var resp struct {
		Error map[string]any `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp), rec.Body.String())
	return resp.Error
}

type httpTest struct {
	name     string
	method   string
	path     string
	asAdmin  bool
	body     any
	wantCode int
}

func TestAPI_Health(t *testing.T) {
	env := setup(t)
	rec := env.do(t, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPI_LoginMeLogout(t *testing.T) {
	env := setup(t)

	rec := env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"loginId": "admin", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"loginId": "admin"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	token := env.login(t, "priya", "priya-pass")
	rec = env.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeData(t, rec)
	assert.Equal(t, "priya", me["userId"])
	assert.Equal(t, string(models.RoleAccountant), me["role"])

	rec = env.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAPI_RoleGate(t *testing.T) {
	env := setup(t)
	adminToken := env.login(t, "admin", "admin-pass")
	accToken := env.login(t, "priya", "priya-pass")

	tests := []httpTest{
		{name: "accountant lists courses", method: http.MethodGet, path: "/api/v1/courses", wantCode: http.StatusOK},
		{name: "accountant lists students", method: http.MethodGet, path: "/api/v1/students", wantCode: http.StatusOK},
		{name: "accountant reads settings", method: http.MethodGet, path: "/api/v1/settings", wantCode: http.StatusOK},
		{name: "accountant reads dashboard", method: http.MethodGet, path: "/api/v1/dashboard", wantCode: http.StatusOK},
		{name: "accountant cannot create course", method: http.MethodPost, path: "/api/v1/courses", body: map[string]any{}, wantCode: http.StatusForbidden},
		{name: "accountant cannot delete student", method: http.MethodDelete, path: "/api/v1/students/x", wantCode: http.StatusForbidden},
		{name: "accountant cannot list pending", method: http.MethodGet, path: "/api/v1/pending-changes", wantCode: http.StatusForbidden},
		{name: "accountant cannot list accountants", method: http.MethodGet, path: "/api/v1/accountants", wantCode: http.StatusForbidden},
		{name: "accountant cannot change settings", method: http.MethodPut, path: "/api/v1/settings/profile", body: map[string]any{"institutionName": "X"}, wantCode: http.StatusForbidden},
		{name: "admin lists accountants", method: http.MethodGet, path: "/api/v1/accountants", asAdmin: true, wantCode: http.StatusOK},
		{name: "admin lists pending", method: http.MethodGet, path: "/api/v1/pending-changes", asAdmin: true, wantCode: http.StatusOK},
		{name: "admin creates invalid course", method: http.MethodPost, path: "/api/v1/courses", asAdmin: true, body: map[string]any{"name": "Empty"}, wantCode: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token := accToken
			if tt.asAdmin {
				token = adminToken
			}
			rec := env.do(t, tt.method, tt.path, token, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}

func TestAPI_PaymentApprovalFlow(t *testing.T) {
	env := setup(t)
	adminToken := env.login(t, "admin", "admin-pass")
	accToken := env.login(t, "priya", "priya-pass")
	aarav := env.studentID(t, "Aarav Sharma")

	rec := env.do(t, http.MethodPost, "/api/v1/payments", accToken, map[string]any{
		"studentId":     aarav,
		"amount":        20000,
		"paymentMethod": "UPI",
		"transactionId": "TXN-1",
		"upiId":         "aarav@okaxis",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	payment := decodeData(t, rec)
	assert.Equal(t, "DC-1000", payment["receiptNumber"])
	assert.Equal(t, "priya", payment["collectedBy"])
	paymentID := payment["id"].(string)

	// Same id with different case and padding is a duplicate.
	rec = env.do(t, http.MethodPost, "/api/v1/payments", accToken, map[string]any{
		"studentId":     aarav,
		"amount":        100,
		"paymentMethod": "UPI",
		"transactionId": " txn-1 ",
	})
	require.Equal(t, http.StatusConflict, rec.Code)
	dup := decodeError(t, rec)
	assert.Equal(t, "PAY_001", dup["code"])
	assert.Equal(t, "transactionId", dup["field"])

	rec = env.do(t, http.MethodPut, "/api/v1/payments/"+paymentID, accToken, map[string]any{"amount": 25000})
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	assert.Equal(t, appServices.OutcomeSubmitted, decodeData(t, rec)["outcome"])

	rec = env.do(t, http.MethodGet, "/api/v1/pending-changes", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var pending struct {
		Data []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pending))
	require.Len(t, pending.Data, 1)
	assert.Equal(t, "Aarav Sharma", pending.Data[0]["studentName"])
	assert.Equal(t, "DC-1000", pending.Data[0]["receiptNumber"])

	rec = env.do(t, http.MethodPost, "/api/v1/pending-changes/"+pending.Data[0]["id"].(string)+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	approved, ok := env.deps.State.Current().Payment(paymentID)
	require.True(t, ok)
	assert.Equal(t, "25000", approved.Amount.String())
	assert.True(t, approved.IsEdited)
	assert.Empty(t, env.deps.State.Current().PendingChanges)

	rec = env.do(t, http.MethodGet, "/api/v1/payments/"+paymentID+"/receipt", accToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "B.Tech Computer Science", decodeData(t, rec)["courseName"])
}

func TestAPI_Exports(t *testing.T) {
	env := setup(t)
	token := env.login(t, "admin", "admin-pass")

	rec := env.do(t, http.MethodGet, "/api/v1/reports/ledger/export?format=csv", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/csv"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment;")
	assert.Contains(t, rec.Body.String(), "Kabir Rao")

	rec = env.do(t, http.MethodGet, "/api/v1/payments/export?format=xlsx", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))

	rec = env.do(t, http.MethodGet, "/api/v1/payments/export?format=pdf", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_WebSocketReceivesSyncEvents(t *testing.T) {
	env := setup(t)
	token := env.login(t, "priya", "priya-pass")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go env.deps.Hub.Run(ctx)

	srv := httptest.NewServer(env.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws?token=" + token
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return env.deps.Hub.ClientCount() == 1 }, time.Second, 10*time.Millisecond)

	rec := env.do(t, http.MethodPost, "/api/v1/sync", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event websocket.Event
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, websocket.EventSnapshotUpdated, event.Type)
	assert.Equal(t, 3, event.Counts["students"])
}

func TestAPI_LogoUploadIsServed(t *testing.T) {
	env := setup(t)
	token := env.login(t, "admin", "admin-pass")

	png := append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 64)...)
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("logo", "crest.png")
	require.NoError(t, err)
	_, err = part.Write(png)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/settings/logo", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	logoURL, _ := decodeData(t, rec)["logoUrl"].(string)
	require.True(t, strings.HasPrefix(logoURL, "https://fees.example.edu/uploads/logos/"), logoURL)

	rec = env.do(t, http.MethodGet, strings.TrimPrefix(logoURL, "https://fees.example.edu"), "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, png, rec.Body.Bytes())

	// A missing file part is rejected before reaching the service.
	rec = env.do(t, http.MethodPost, "/api/v1/settings/logo", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
