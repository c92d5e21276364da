package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"recipe-restful/cache"
	"recipe-restful/models"
	"recipe-restful/repositories"

	restful "github.com/emicklei/go-restful/v3"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// Request attribute names set by Filter.
	attrUser = "user"

	schemeToken  = "token"
	schemeBearer = "bearer"

	issuer = "recipe-api"
)

var (
	ErrMissingCredentials = errors.New("Authentication credentials were not provided.")
	ErrInvalidHeader      = errors.New("Invalid authorization header format")
	ErrInvalidToken       = errors.New("Invalid token.")
	ErrInactiveUser       = errors.New("User inactive or deleted.")
)

// CustomClaims represents the claims carried by an access token.
type CustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type Options struct {
	SigningKey []byte
	AccessTTL  time.Duration
	CacheTTL   time.Duration
}

// Authenticator resolves the Authorization header to a user. It accepts stored opaque
// tokens ("Token <key>") and signed access tokens ("Bearer <jwt>").
type Authenticator struct {
	tokens repositories.TokenRepository
	users  repositories.UserRepository
	cache  cache.Store
	opts   Options
	logger *zap.Logger
}

func NewAuthenticator(db *gorm.DB, store cache.Store, opts Options, logger *zap.Logger) *Authenticator {
	if opts.AccessTTL <= 0 {
		opts.AccessTTL = 24 * time.Hour
	}
	return &Authenticator{
		tokens: repositories.NewTokenRepository(db),
		users:  repositories.NewUserRepository(db),
		cache:  store,
		opts:   opts,
		logger: logger.Named("auth"),
	}
}

// GenerateToken creates a new signed access token for the given user.
func (a *Authenticator) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(a.opts.AccessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(a.opts.SigningKey)
	if err != nil {
		return "", err
	}
	return tokenString, nil
}

// ParseAndValidateToken checks signature, algorithm and validity window of an access token.
func (a *Authenticator) ParseAndValidateToken(tokenString string) (*CustomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.opts.SigningKey, nil
	})

	if err != nil {
		var ve *jwt.ValidationError
		if errors.As(err, &ve) {
			if ve.Errors&jwt.ValidationErrorMalformed != 0 {
				return nil, errors.New("malformed token")
			} else if ve.Errors&(jwt.ValidationErrorExpired|jwt.ValidationErrorNotValidYet) != 0 {
				return nil, errors.New("token is either expired or not active yet")
			} else if ve.Errors&jwt.ValidationErrorSignatureInvalid != 0 {
				return nil, errors.New("invalid token signature")
			}
		}
		return nil, fmt.Errorf("couldn't handle this token: %w", err)
	}

	if claims, ok := token.Claims.(*CustomClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// IssueToken returns the user's stored token, creating it on first use.
func (a *Authenticator) IssueToken(user *models.User) (string, error) {
	existing, err := a.tokens.FindByUserID(user.ID)
	if err == nil {
		return existing.Key, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("looking up token: %w", err)
	}

	token := &models.Token{
		Key:    strings.ReplaceAll(uuid.NewString(), "-", ""),
		UserID: user.ID,
	}
	if err := a.tokens.Create(token); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent login created it first.
			if existing, err := a.tokens.FindByUserID(user.ID); err == nil {
				return existing.Key, nil
			}
		}
		return "", fmt.Errorf("creating token: %w", err)
	}
	return token.Key, nil
}

// parseHeader splits "<scheme> <credential>".
func parseHeader(header string) (scheme, credential string, err error) {
	if header == "" {
		return "", "", ErrMissingCredentials
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return "", "", ErrInvalidHeader
	}
	scheme = strings.ToLower(parts[0])
	if scheme != schemeToken && scheme != schemeBearer {
		return "", "", ErrInvalidHeader
	}
	return scheme, parts[1], nil
}

func cacheKey(header string) string {
	sum := sha256.Sum256([]byte(header))
	return "auth:" + hex.EncodeToString(sum[:])
}

// generationKey holds the user's current cache generation. Deleting it invalidates every
// principal cached for that user, whatever credential it was cached under.
func generationKey(userID uint) string {
	return "auth:user:" + strconv.FormatUint(uint64(userID), 10)
}

// principal is a cached authentication result, valid while Generation is current.
type principal struct {
	Generation string      `json:"generation"`
	User       models.User `json:"user"`
}

// Authenticate resolves an Authorization header value to an active user.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*models.User, error) {
	scheme, credential, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	key := cacheKey(scheme + " " + credential)
	if user, ok := a.cached(ctx, key); ok {
		return user, nil
	}

	var user *models.User
	switch scheme {
	case schemeToken:
		token, err := a.tokens.FindByKey(credential)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidToken
			}
			return nil, fmt.Errorf("looking up token: %w", err)
		}
		user = &token.User
	case schemeBearer:
		claims, err := a.ParseAndValidateToken(credential)
		if err != nil {
			a.logger.Debug("rejected access token", zap.Error(err))
			return nil, ErrInvalidToken
		}
		user, err = a.users.FindByID(claims.UserID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInactiveUser
			}
			return nil, fmt.Errorf("looking up user: %w", err)
		}
	}

	if !user.IsActive {
		return nil, ErrInactiveUser
	}
	a.remember(ctx, key, user)
	return user, nil
}

func (a *Authenticator) generation(ctx context.Context, userID uint) (string, bool) {
	raw, found, err := a.cache.Get(ctx, generationKey(userID))
	if err != nil {
		a.logger.Warn("auth cache lookup failed", zap.Error(err))
		return "", false
	}
	return string(raw), found && len(raw) > 0
}

func (a *Authenticator) cached(ctx context.Context, key string) (*models.User, bool) {
	raw, found, err := a.cache.Get(ctx, key)
	if err != nil {
		a.logger.Warn("auth cache lookup failed", zap.Error(err))
		return nil, false
	}
	if !found {
		return nil, false
	}
	var p principal
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}
	current, ok := a.generation(ctx, p.User.ID)
	if !ok || current != p.Generation {
		return nil, false
	}
	return &p.User, true
}

func (a *Authenticator) remember(ctx context.Context, key string, user *models.User) {
	gen, ok := a.generation(ctx, user.ID)
	if !ok {
		gen = uuid.NewString()
		// Outlives the entries stamped with it; an expired generation only costs a lookup.
		if err := a.cache.Set(ctx, generationKey(user.ID), []byte(gen), 2*a.opts.CacheTTL); err != nil {
			a.logger.Warn("auth cache store failed", zap.Error(err))
			return
		}
	}

	raw, err := json.Marshal(principal{Generation: gen, User: *user})
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, key, raw, a.opts.CacheTTL); err != nil {
		a.logger.Warn("auth cache store failed", zap.Error(err))
	}
}

// ForgetUser drops every cached principal of the user, after the account changed or
// was deleted.
func (a *Authenticator) ForgetUser(ctx context.Context, userID uint) {
	if err := a.cache.Delete(ctx, generationKey(userID)); err != nil {
		a.logger.Warn("auth cache delete failed", zap.Error(err))
	}
}

// Filter creates a go-restful FilterFunction that rejects unauthenticated requests
// with 401 before they reach a handler.
func (a *Authenticator) Filter() restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		header := req.HeaderParameter("Authorization")
		user, err := a.Authenticate(req.Request.Context(), header)
		if err != nil {
			msg := err.Error()
			if !isClientError(err) {
				a.logger.Error("authentication failed", zap.Error(err))
				msg = ErrInvalidToken.Error()
			}
			resp.AddHeader("WWW-Authenticate", "Token")
			_ = resp.WriteHeaderAndJson(http.StatusUnauthorized, map[string]string{"message": msg}, restful.MIME_JSON)
			return
		}

		// Store user information in request attributes for use by subsequent processing functions
		req.SetAttribute(attrUser, user)

		chain.ProcessFilter(req, resp)
	}
}

func isClientError(err error) bool {
	for _, known := range []error{ErrMissingCredentials, ErrInvalidHeader, ErrInvalidToken, ErrInactiveUser} {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}

// CurrentUser returns the user stored by Filter.
func CurrentUser(req *restful.Request) (*models.User, bool) {
	user, ok := req.Attribute(attrUser).(*models.User)
	return user, ok && user != nil
}
