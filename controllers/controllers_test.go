package controllers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"recipe-restful/auth"
	"recipe-restful/cache"
	"recipe-restful/database"
	"recipe-restful/models"
	"recipe-restful/services"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type staticReadiness bool

func (r staticReadiness) Ready() bool { return bool(r) }

type testServer struct {
	t         *testing.T
	db        *gorm.DB
	users     services.UserService
	auth      *auth.Authenticator
	container *restful.Container
	mediaRoot string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := database.OpenTestDB(t)
	hasher := services.NewHasher(2, bcrypt.MinCost)
	t.Cleanup(hasher.Close)

	logger := zap.NewNop()
	users := services.NewUserService(db, hasher)
	authn := auth.NewAuthenticator(db, cache.NewMemoryStore(time.Minute), auth.Options{
		SigningKey: []byte("test-key"),
		AccessTTL:  time.Hour,
		CacheTTL:   time.Minute,
	}, logger)
	mediaRoot := t.TempDir()

	container := NewContainer(RouterConfig{
		DB:        db,
		Users:     users,
		Auth:      authn,
		Images:    services.NewImageStore(mediaRoot),
		Readiness: staticReadiness(true),
		Logger:    logger,
	})
	return &testServer{t: t, db: db, users: users, auth: authn, container: container, mediaRoot: mediaRoot}
}

// createUser registers a user and returns it with an Authorization header value.
func (s *testServer) createUser(email string) (*models.User, string) {
	s.t.Helper()
	user, err := s.users.CreateUser(email, "testpass123", services.WithName("Test Name"))
	require.NoError(s.t, err)
	key, err := s.auth.IssueToken(user)
	require.NoError(s.t, err)
	return user, "Token " + key
}

func (s *testServer) do(method, path, authHeader string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	w := httptest.NewRecorder()
	s.container.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}
