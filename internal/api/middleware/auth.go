package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nando-scheduler/backend/internal/domain/entities"
	"github.com/nando-scheduler/backend/internal/infrastructure/observability"
	"github.com/nando-scheduler/backend/pkg/config"
	apperrors "github.com/nando-scheduler/backend/pkg/errors"
)

type requesterKey struct{}

// WithRequester stores the authenticated requester in a context
func WithRequester(ctx context.Context, requester entities.Requester) context.Context {
	return context.WithValue(ctx, requesterKey{}, requester)
}

// RequesterFromContext returns the requester stored by the auth middleware.
// An anonymous requester is returned when none is present.
func RequesterFromContext(ctx context.Context) entities.Requester {
	requester, _ := ctx.Value(requesterKey{}).(entities.Requester)
	return requester
}

// UserEnsurer mirrors a verified requester into the users table
type UserEnsurer interface {
	EnsureUser(ctx context.Context, requester entities.Requester) (*entities.User, error)
}

// TokenClaims are the claims read from an HS256 bearer token
type TokenClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

var errMissingToken = errors.New("missing bearer token")

// Authenticator verifies bearer tokens and attaches the requester to the request
type Authenticator struct {
	secret []byte
	opts   []jwt.ParserOption
	users  UserEnsurer
}

// NewAuthenticator creates a new authenticator. users may be nil.
func NewAuthenticator(cfg config.AuthConfig, users UserEnsurer) *Authenticator {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	return &Authenticator{
		secret: []byte(cfg.JWTSecret),
		opts:   opts,
		users:  users,
	}
}

// Parse verifies a raw token and returns the requester it identifies
func (a *Authenticator) Parse(raw string) (entities.Requester, error) {
	claims := &TokenClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, a.opts...)
	if err != nil {
		return entities.Requester{}, err
	}
	if claims.Subject == "" {
		return entities.Requester{}, errors.New("token has no subject")
	}
	return entities.Requester{
		UserID: claims.Subject,
		Email:  entities.NormalizeEmail(claims.Email),
	}, nil
}

// Middleware rejects requests without a valid bearer token
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerToken(r)
		if err != nil {
			unauthorized(w, err.Error())
			return
		}
		requester, err := a.Parse(raw)
		if err != nil {
			observability.LoggerFromContext(r.Context()).Debug().Err(err).Msg("Rejected bearer token")
			unauthorized(w, "invalid or expired token")
			return
		}

		if info := requestInfoFrom(r.Context()); info != nil {
			info.userID = requester.UserID
		}

		ctx := WithRequester(r.Context(), requester)
		if a.users != nil {
			if _, err := a.users.EnsureUser(ctx, requester); err != nil {
				rejectUser(w, r, requester, err)
				return
			}
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken reads the Authorization header. EventSource clients cannot
// set headers, so the stream endpoints also accept an access_token query parameter.
func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return "", errors.New("authorization header must be Bearer <token>")
		}
		return strings.TrimSpace(token), nil
	}
	if strings.HasPrefix(r.URL.Path, "/api/stream/") {
		if token := r.URL.Query().Get("access_token"); token != "" {
			return token, nil
		}
	}
	return "", errMissingToken
}

// rejectUser answers a failed user sync. A token the users table cannot
// accept is the caller's fault; anything else is ours.
func rejectUser(w http.ResponseWriter, r *http.Request, requester entities.Requester, err error) {
	logger := observability.LoggerFromContext(r.Context())
	if appErr, ok := apperrors.As(err); ok {
		switch appErr.Type {
		case apperrors.ErrorTypeUnauthorized:
			logger.Debug().Err(err).Str("user_id", requester.UserID).Msg("Rejected token identity")
			unauthorized(w, appErr.Message)
			return
		case apperrors.ErrorTypeConflict:
			logger.Warn().Err(err).Str("user_id", requester.UserID).Msg("Token identity conflicts with a stored user")
			writeError(w, http.StatusConflict, appErr.Message)
			return
		}
	}
	logger.Error().Err(err).Str("user_id", requester.UserID).Msg("Failed to sync user")
	writeError(w, http.StatusInternalServerError, "failed to load user")
}

func unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
	writeError(w, http.StatusUnauthorized, message)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
