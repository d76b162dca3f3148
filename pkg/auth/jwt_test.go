package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newTestJWTService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(JWTConfig{
		Secret:     "test-secret-key-for-unit-tests",
		Issuer:     "boostd-test",
		Expiration: 15 * time.Minute,
	})
	require.NoError(t, err)
	return svc
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestJWTService(t)

	token, err := svc.GenerateToken("uid-42", []string{RoleCustomer})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "uid-42", claims.UserID)
	assert.Equal(t, "uid-42", claims.Subject)
	assert.Equal(t, "boostd-test", claims.Issuer)
	assert.True(t, claims.HasRole(RoleCustomer))
	assert.False(t, claims.HasRole(RoleAdmin))
}

func TestValidateToken_Rejects(t *testing.T) {
	svc := newTestJWTService(t)

	t.Run("expired", func(t *testing.T) {
		expired, err := NewJWTService(JWTConfig{Secret: "test-secret-key-for-unit-tests", Issuer: "boostd-test", Expiration: -time.Minute})
		require.NoError(t, err)
		token, err := expired.GenerateToken("uid", nil)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other, err := NewJWTService(JWTConfig{Secret: "other", Issuer: "boostd-test", Expiration: time.Minute})
		require.NoError(t, err)
		token, err := other.GenerateToken("uid", nil)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, err := NewJWTService(JWTConfig{Secret: "test-secret-key-for-unit-tests", Issuer: "elsewhere", Expiration: time.Minute})
		require.NoError(t, err)
		token, err := other.GenerateToken("uid", nil)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewJWTService_RequiresKey(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	assert.Error(t, err)
}

func TestUnaryAuthInterceptor(t *testing.T) {
	svc := newTestJWTService(t)
	policy := Policy{
		Public: []string{"/boost.v1.BoostService/ProjectLimit"},
		Roles:  map[string][]string{"/boost.v1.BoostService/ExportMasterRecord": {RoleAdmin}},
	}
	interceptor := UnaryAuthInterceptor(svc, policy)

	var seen *Claims
	handler := func(ctx context.Context, _ any) (any, error) {
		seen, _ = ClaimsFromContext(ctx)
		return "ok", nil
	}
	call := func(method, token string) error {
		ctx := context.Background()
		if token != "" {
			ctx = metadata.NewIncomingContext(ctx, metadata.Pairs("authorization", "Bearer "+token))
		}
		_, err := interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: method}, handler)
		return err
	}

	customer, err := svc.GenerateToken("uid-1", []string{RoleCustomer})
	require.NoError(t, err)
	admin, err := svc.GenerateToken("ops-1", []string{RoleAdmin})
	require.NoError(t, err)

	t.Run("public method without token", func(t *testing.T) {
		require.NoError(t, call("/boost.v1.BoostService/ProjectLimit", ""))
	})

	t.Run("missing token", func(t *testing.T) {
		err := call("/boost.v1.BoostService/ListPackages", "")
		assert.Equal(t, codes.Unauthenticated, status.Code(err))
	})

	t.Run("customer reaches customer method", func(t *testing.T) {
		require.NoError(t, call("/boost.v1.BoostService/ListPackages", customer))
		require.NotNil(t, seen)
		assert.Equal(t, "uid-1", seen.UserID)
	})

	t.Run("customer denied admin method", func(t *testing.T) {
		err := call("/boost.v1.BoostService/ExportMasterRecord", customer)
		assert.Equal(t, codes.PermissionDenied, status.Code(err))
	})

	t.Run("admin reaches admin method", func(t *testing.T) {
		require.NoError(t, call("/boost.v1.BoostService/ExportMasterRecord", admin))
	})
}

func TestHTTPMiddleware(t *testing.T) {
	svc := newTestJWTService(t)
	policy := Policy{
		Public: []string{"/healthz"},
		Roles:  map[string][]string{"GET /api/v1/admin/master-record": {RoleAdmin}},
	}
	h := HTTPMiddleware(svc, policy)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func(method, path, token string) int {
		req := httptest.NewRequest(method, path, nil)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	customer, err := svc.GenerateToken("uid-1", []string{RoleCustomer})
	require.NoError(t, err)

	assert.Equal(t, http.StatusNoContent, do(http.MethodGet, "/healthz", ""))
	assert.Equal(t, http.StatusUnauthorized, do(http.MethodPost, "/api/v1/kyc", ""))
	assert.Equal(t, http.StatusNoContent, do(http.MethodPost, "/api/v1/kyc", customer))
	assert.Equal(t, http.StatusForbidden, do(http.MethodGet, "/api/v1/admin/master-record", customer))
}
