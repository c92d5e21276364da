package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"recipe-restful/cache"
	"recipe-restful/database"
	"recipe-restful/models"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var testKey = []byte("test-signing-key")

func setup(t *testing.T) (*gorm.DB, *Authenticator) {
	t.Helper()
	db := database.OpenTestDB(t)
	a := NewAuthenticator(db, cache.NewMemoryStore(time.Minute), Options{
		SigningKey: testKey,
		AccessTTL:  time.Hour,
		CacheTTL:   time.Minute,
	}, zap.NewNop())
	return db, a
}

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, Password: "hash", IsActive: true}
	require.NoError(t, db.Create(user).Error)
	return user
}

func TestGenerateToken(t *testing.T) {
	_, a := setup(t)
	user := &models.User{ID: 7, Email: "user@example.com"}

	token, err := a.GenerateToken(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := a.ParseAndValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.Email, claims.Email)
	assert.Equal(t, "7", claims.Subject)
}

func TestParseAndValidateToken(t *testing.T) {
	_, a := setup(t)

	t.Run("Expired token", func(t *testing.T) {
		claims := &CustomClaims{
			UserID: 1,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
			},
		}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testKey)
		require.NoError(t, err)

		_, err = a.ParseAndValidateToken(signed)
		assert.EqualError(t, err, "token is either expired or not active yet")
	})

	t.Run("Wrong key", func(t *testing.T) {
		claims := &CustomClaims{UserID: 1}
		signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other"))
		require.NoError(t, err)

		_, err = a.ParseAndValidateToken(signed)
		assert.EqualError(t, err, "invalid token signature")
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := a.ParseAndValidateToken("not-a-jwt")
		assert.EqualError(t, err, "malformed token")
	})
}

func TestIssueTokenIsStable(t *testing.T) {
	db, a := setup(t)
	user := createUser(t, db, "user@example.com")

	first, err := a.IssueToken(user)
	require.NoError(t, err)
	assert.Len(t, first, 32)

	second, err := a.IssueToken(user)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var count int64
	db.Model(&models.Token{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAuthenticate(t *testing.T) {
	db, a := setup(t)
	ctx := context.Background()
	user := createUser(t, db, "user@example.com")
	key, err := a.IssueToken(user)
	require.NoError(t, err)

	t.Run("Stored token", func(t *testing.T) {
		got, err := a.Authenticate(ctx, "Token "+key)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
		assert.Equal(t, user.Email, got.Email)
	})

	t.Run("Access token", func(t *testing.T) {
		access, err := a.GenerateToken(user)
		require.NoError(t, err)
		got, err := a.Authenticate(ctx, "Bearer "+access)
		require.NoError(t, err)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("Errors", func(t *testing.T) {
		cases := []struct {
			header string
			want   error
		}{
			{"", ErrMissingCredentials},
			{"Token", ErrInvalidHeader},
			{"Basic abc", ErrInvalidHeader},
			{"Token a b", ErrInvalidHeader},
			{"Token unknown", ErrInvalidToken},
			{"Bearer garbage", ErrInvalidToken},
		}
		for _, tc := range cases {
			_, err := a.Authenticate(ctx, tc.header)
			assert.ErrorIs(t, err, tc.want, "header %q", tc.header)
		}
	})
}

func TestAuthenticateInactiveUser(t *testing.T) {
	db, a := setup(t)
	ctx := context.Background()
	user := createUser(t, db, "inactive@example.com")
	key, err := a.IssueToken(user)
	require.NoError(t, err)

	_, err = a.Authenticate(ctx, "Token "+key)
	require.NoError(t, err)

	require.NoError(t, db.Model(user).Update("is_active", false).Error)

	// The cached principal survives until it is forgotten.
	_, err = a.Authenticate(ctx, "Token "+key)
	require.NoError(t, err)

	a.ForgetUser(ctx, user.ID)
	_, err = a.Authenticate(ctx, "Token "+key)
	assert.ErrorIs(t, err, ErrInactiveUser)
}

func TestForgetUserEvictsEveryCredential(t *testing.T) {
	db, a := setup(t)
	ctx := context.Background()
	user := createUser(t, db, "gone@example.com")
	other := createUser(t, db, "stays@example.com")

	key, err := a.IssueToken(user)
	require.NoError(t, err)
	access, err := a.GenerateToken(user)
	require.NoError(t, err)
	otherKey, err := a.IssueToken(other)
	require.NoError(t, err)

	// Warm the cache under both schemes.
	for _, header := range []string{"Token " + key, "Bearer " + access, "Token " + otherKey} {
		_, err := a.Authenticate(ctx, header)
		require.NoError(t, err, header)
	}

	require.NoError(t, db.Where("user_id = ?", user.ID).Delete(&models.Token{}).Error)
	require.NoError(t, db.Delete(user).Error)
	a.ForgetUser(ctx, user.ID)

	_, err = a.Authenticate(ctx, "Bearer "+access)
	assert.ErrorIs(t, err, ErrInactiveUser)
	_, err = a.Authenticate(ctx, "Token "+key)
	assert.ErrorIs(t, err, ErrInvalidToken)

	got, err := a.Authenticate(ctx, "Token "+otherKey)
	require.NoError(t, err)
	assert.Equal(t, other.ID, got.ID)
}

func TestCachedPrincipalNeedsGeneration(t *testing.T) {
	db, a := setup(t)
	ctx := context.Background()
	user := createUser(t, db, "user@example.com")
	key, err := a.IssueToken(user)
	require.NoError(t, err)

	_, err = a.Authenticate(ctx, "Token "+key)
	require.NoError(t, err)
	_, ok := a.cached(ctx, cacheKey("token "+key))
	assert.True(t, ok)

	require.NoError(t, a.cache.Delete(ctx, generationKey(user.ID)))
	_, ok = a.cached(ctx, cacheKey("token "+key))
	assert.False(t, ok)
}

func TestFilter(t *testing.T) {
	db, a := setup(t)
	user := createUser(t, db, "user@example.com")
	key, err := a.IssueToken(user)
	require.NoError(t, err)

	ws := new(restful.WebService)
	ws.Route(ws.GET("/protected").Filter(a.Filter()).To(func(req *restful.Request, resp *restful.Response) {
		current, ok := CurrentUser(req)
		assert.True(t, ok)
		assert.Equal(t, user.ID, current.ID)
		_, _ = resp.Write([]byte("protected"))
	}))
	container := restful.NewContainer()
	container.Add(ws)

	t.Run("No token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		w := httptest.NewRecorder()
		container.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Authentication credentials were not provided.")
	})

	t.Run("Invalid token format", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "InvalidTokenFormat")
		w := httptest.NewRecorder()
		container.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid authorization header format")
	})

	t.Run("Valid token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Token "+key)
		w := httptest.NewRecorder()
		container.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "protected", w.Body.String())
	})
}
