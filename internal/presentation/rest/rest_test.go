package rest

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barkshad/fuliza/internal/application/dto"
	"github.com/barkshad/fuliza/internal/application/usecase"
	"github.com/barkshad/fuliza/internal/domain/model"
	"github.com/barkshad/fuliza/pkg/auth"
)

// --- Mock implementations ---

type mockKYC struct {
	execFunc func(ctx context.Context, req dto.SubmitKYCRequest) (dto.ProfileResponse, error)
	got      dto.SubmitKYCRequest
	bodies   map[string]string
}

func (m *mockKYC) Execute(ctx context.Context, req dto.SubmitKYCRequest) (dto.ProfileResponse, error) {
	m.got = req
	m.bodies = map[string]string{}
	for name, u := range map[string]dto.Upload{"id_front": req.IDFront, "id_back": req.IDBack, "selfie": req.Selfie} {
		if u.Body != nil {
			data, _ := io.ReadAll(u.Body)
			m.bodies[name] = string(data)
		}
	}
	if m.execFunc != nil {
		return m.execFunc(ctx, req)
	}
	return dto.ProfileResponse{UID: req.UID, Status: "verified"}, nil
}

type mockExport struct{ calls int }

func (m *mockExport) Execute(context.Context) (dto.ExportResponse, error) {
	m.calls++
	return dto.ExportResponse{URL: "https://docs.test/master_user_list/master_user_list.csv", Rows: 3}, nil
}

type mockConfirm struct {
	got []dto.PaymentCallback
	err error
}

func (m *mockConfirm) Execute(_ context.Context, cb dto.PaymentCallback) error {
	m.got = append(m.got, cb)
	return m.err
}

type fixture struct {
	router  http.Handler
	jwt     *auth.JWTService
	kyc     *mockKYC
	export  *mockExport
	confirm *mockConfirm
}

func newFixture(t *testing.T, checks map[string]Check, perMinute int) *fixture {
	t.Helper()
	jwtSvc, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret", Issuer: "boostd-test", Expiration: time.Minute})
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	f := &fixture{jwt: jwtSvc, kyc: &mockKYC{}, export: &mockExport{}, confirm: &mockConfirm{}}
	boost := NewBoostHandler(f.kyc, f.export, f.confirm, "hook-secret", logger)
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { _, _ = io.WriteString(w, "boost_up 1\n") })
	f.router = NewRouter(NewHealthHandler("boost-service", checks, logger), boost, metrics, jwtSvc, NewRateLimiter(perMinute), logger)
	return f
}

func (f *fixture) token(t *testing.T, roles ...string) string {
	t.Helper()
	tok, err := f.jwt.GenerateToken("uid-1", roles)
	require.NoError(t, err)
	return "Bearer " + tok
}

func (f *fixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func kycForm(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, content := range files {
		fw, err := mw.CreateFormFile(field, field+".jpg")
		require.NoError(t, err)
		_, err = io.WriteString(fw, content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

// --- Tests ---

func TestHealth(t *testing.T) {
	f := newFixture(t, map[string]Check{
		"postgres": func(context.Context) error { return nil },
	}, 0)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"service":"boost-service"`)

	rec = f.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	down := newFixture(t, map[string]Check{
		"redis": func(context.Context) error { return errors.New("dial tcp: refused") },
	}, 0)
	rec = down.do(httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "dial tcp: refused")

	rec = f.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "boost_up 1\n", rec.Body.String())
}

func TestSubmitKYC(t *testing.T) {
	t.Run("uploads every document for the caller", func(t *testing.T) {
		f := newFixture(t, nil, 0)
		body, ct := kycForm(t, map[string]string{"id_front": "front", "id_back": "back", "selfie": "face"})
		req := httptest.NewRequest(http.MethodPost, "/v1/kyc", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set("Authorization", f.token(t, auth.RoleCustomer))

		rec := f.do(req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "uid-1", f.kyc.got.UID)
		assert.Equal(t, map[string]string{"id_front": "front", "id_back": "back", "selfie": "face"}, f.kyc.bodies)
		assert.Equal(t, "selfie.jpg", f.kyc.got.Selfie.Name)
	})

	t.Run("missing document is a bad request", func(t *testing.T) {
		f := newFixture(t, nil, 0)
		f.kyc.execFunc = func(context.Context, dto.SubmitKYCRequest) (dto.ProfileResponse, error) {
			return dto.ProfileResponse{}, usecase.ErrMissingDocument
		}
		body, ct := kycForm(t, map[string]string{"id_front": "front"})
		req := httptest.NewRequest(http.MethodPost, "/v1/kyc", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set("Authorization", f.token(t, auth.RoleCustomer))

		rec := f.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Nil(t, f.kyc.got.Selfie.Body)
	})

	t.Run("unknown profile", func(t *testing.T) {
		f := newFixture(t, nil, 0)
		f.kyc.execFunc = func(context.Context, dto.SubmitKYCRequest) (dto.ProfileResponse, error) {
			return dto.ProfileResponse{}, model.ErrProfileNotFound
		}
		body, ct := kycForm(t, map[string]string{"id_front": "a", "id_back": "b", "selfie": "c"})
		req := httptest.NewRequest(http.MethodPost, "/v1/kyc", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set("Authorization", f.token(t, auth.RoleCustomer))

		assert.Equal(t, http.StatusNotFound, f.do(req).Code)
	})

	t.Run("requires a token", func(t *testing.T) {
		f := newFixture(t, nil, 0)
		body, ct := kycForm(t, map[string]string{"id_front": "a"})
		req := httptest.NewRequest(http.MethodPost, "/v1/kyc", body)
		req.Header.Set("Content-Type", ct)
		assert.Equal(t, http.StatusUnauthorized, f.do(req).Code)
	})
}

func TestExportMasterRecord_AdminOnly(t *testing.T) {
	f := newFixture(t, nil, 0)

	req := httptest.NewRequest(http.MethodPost, "/v1/admin/export", nil)
	req.Header.Set("Authorization", f.token(t, auth.RoleCustomer))
	assert.Equal(t, http.StatusForbidden, f.do(req).Code)
	assert.Zero(t, f.export.calls)

	req = httptest.NewRequest(http.MethodPost, "/v1/admin/export", nil)
	req.Header.Set("Authorization", f.token(t, auth.RoleAdmin))
	rec := f.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"rows":3`)
	assert.Equal(t, 1, f.export.calls)
}

func TestPaymentCallback(t *testing.T) {
	f := newFixture(t, nil, 0)
	payload := `{"checkout_request_id":"ws_CO_9","transaction_id":"tx-9","status":"success"}`

	req := httptest.NewRequest(http.MethodPost, "/v1/payments/callback", strings.NewReader(payload))
	req.Header.Set(callbackSecretHeader, "wrong")
	assert.Equal(t, http.StatusUnauthorized, f.do(req).Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/payments/callback", strings.NewReader(`{}`))
	req.Header.Set(callbackSecretHeader, "hook-secret")
	assert.Equal(t, http.StatusBadRequest, f.do(req).Code)

	req = httptest.NewRequest(http.MethodPost, "/v1/payments/callback", strings.NewReader(payload))
	req.Header.Set(callbackSecretHeader, "hook-secret")
	assert.Equal(t, http.StatusAccepted, f.do(req).Code)
	require.Len(t, f.confirm.got, 1)
	assert.Equal(t, dto.PaymentCallback{CheckoutRequestID: "ws_CO_9", TransactionID: "tx-9", Status: "success"}, f.confirm.got[0])
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, nil, 2)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
	}
	assert.Equal(t, http.StatusTooManyRequests, f.do(httptest.NewRequest(http.MethodGet, "/healthz", nil)).Code)
}

func TestNewRateLimiter_Disabled(t *testing.T) {
	l := NewRateLimiter(0)
	for i := 0; i < 100; i++ {
		require.True(t, l.Allow())
	}
}
