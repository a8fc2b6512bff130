// Package auth provides middleware and helpers for JWT-based authentication
// and user identification in HTTP requests. It supports cookie-based or
// Authorization header-based token parsing.
//
// A token is only accepted while the user named in its claims still
// exists in storage, so removing the account invalidates every token
// issued for it immediately.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/docqa/internal/logger"
	"github.com/patric-chuzhbe/docqa/internal/models"
	"github.com/patric-chuzhbe/docqa/internal/user"
)

type userFinder interface {
	FindUserByUsername(ctx context.Context, username string) (*user.User, bool, error)
}

// Auth handles user authentication and JWT token management.
// It resolves session tokens into usernames and writes or clears the
// session cookie.
type Auth struct {
	// db is the interface to the user data storage.
	db userFinder

	// authCookieName is the name of the cookie used to store the JWT.
	authCookieName string

	// authCookieSigningSecretKey is the key used to sign JWTs.
	authCookieSigningSecretKey []byte

	// tokenTTL limits the lifetime of issued tokens.
	tokenTTL time.Duration
}

// Claims represents the JWT claims used by the system.
// It embeds standard JWT claims and adds the owning username.
type Claims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// UsernameKey is the context key used to store and retrieve the authenticated username.
const UsernameKey ContextKey = "username"

// New creates a new Auth handler with the given user data access layer,
// cookie name, JWT signing secret and token lifetime.
func New(
	db userFinder,
	authCookieName string,
	authCookieSigningSecretKey []byte,
	tokenTTL time.Duration,
) *Auth {
	return &Auth{
		db:                         db,
		authCookieName:             authCookieName,
		authCookieSigningSecretKey: authCookieSigningSecretKey,
		tokenTTL:                   tokenTTL,
	}
}

// AuthenticateUser is an HTTP middleware that authenticates incoming requests
// using JWTs found in the Authorization header or cookies.
// Requests without a valid token, or whose user no longer exists in
// storage, are rejected with 401 before reaching the handler.
func (a *Auth) AuthenticateUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		tokenString := a.getTokenStringFromAuthorizationHeaderOrCookie(request)
		if tokenString == "" {
			writeJSONError(response, http.StatusUnauthorized, "Login is required.")

			return
		}

		username, err := a.getUsernameFromToken(tokenString)
		if err != nil {
			logger.Log.Debugln("Error calling the `a.getUsernameFromToken()`: ", zap.Error(err))
			writeJSONError(response, http.StatusUnauthorized, "Login is required.")

			return
		}

		usr, found, err := a.db.FindUserByUsername(request.Context(), username)
		if err != nil {
			logger.Log.Debugln("Error calling the `a.db.FindUserByUsername()`: ", zap.Error(err))
			response.WriteHeader(http.StatusInternalServerError)

			return
		}
		if !found {
			writeJSONError(response, http.StatusUnauthorized, "Invalid user.")

			return
		}

		ctx := context.WithValue(request.Context(), UsernameKey, usr.Username)
		requestWithCtx := request.WithContext(ctx)

		h.ServeHTTP(response, requestWithCtx)
	}

	return http.HandlerFunc(middleware)
}

// IssueSession builds a signed session token for the given username and
// attaches it to the response as both a cookie and the Authorization header.
func (a *Auth) IssueSession(response http.ResponseWriter, username string) error {
	JWTString, err := a.buildJWTString(&Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.tokenTTL)),
		},
		Username: username,
	})
	if err != nil {
		return fmt.Errorf("in internal/auth/auth.go/IssueSession(): error while `a.buildJWTString()` calling: %w", err)
	}

	response.Header().Set("Authorization", JWTString)

	http.SetCookie(
		response,
		&http.Cookie{
			Name:     a.authCookieName,
			Value:    JWTString,
			Path:     "/",
			HttpOnly: true,
			Expires:  time.Now().Add(a.tokenTTL),
		},
	)

	return nil
}

// ClearSession overwrites the session cookie with an already expired one.
// It has no precondition and succeeds for callers without a session.
func (a *Auth) ClearSession(response http.ResponseWriter) {
	http.SetCookie(
		response,
		&http.Cookie{
			Name:    a.authCookieName,
			Value:   "",
			Path:    "/",
			Expires: time.Unix(0, 0),
			MaxAge:  -1,
		},
	)
}

func (a *Auth) getTokenStringFromAuthorizationHeaderOrCookie(request *http.Request) string {
	tokenString := request.Header.Get("Authorization")
	if tokenString != "" {
		return tokenString
	}
	cookie, err := request.Cookie(a.authCookieName)
	if err == nil {
		tokenString = cookie.Value
	}

	return tokenString
}

func (a *Auth) getUsernameFromToken(tokenString string) (string, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.authCookieSigningSecretKey, nil
		},
	)
	if err != nil {
		return "", fmt.Errorf("in internal/auth/auth.go/getUsernameFromToken(): error while `jwt.ParseWithClaims()` calling: %w", err)
	}
	if !token.Valid || claims.Username == "" {
		return "", fmt.Errorf("in internal/auth/auth.go/getUsernameFromToken(): the token is not valid")
	}

	return claims.Username, nil
}

func (a *Auth) buildJWTString(claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, *claims)

	tokenString, err := token.SignedString(a.authCookieSigningSecretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

func writeJSONError(response http.ResponseWriter, statusCode int, detail string) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(statusCode)
	if err := json.NewEncoder(response).Encode(models.ErrorResponse{Detail: detail}); err != nil {
		logger.Log.Debugln("Error encoding the error response: ", zap.Error(err))
	}
}
