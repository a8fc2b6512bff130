package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/patric-chuzhbe/docqa/internal/db/memorystorage"
	"github.com/patric-chuzhbe/docqa/internal/logger"
	"github.com/patric-chuzhbe/docqa/internal/models"
	"github.com/patric-chuzhbe/docqa/internal/user"
)

const (
	testCookieName = "username"
	testUsername   = "champollion"
)

var testSigningKey = []byte("test-auth-cookie-signing-key")

func newTestAuth(t *testing.T) (*Auth, *memorystorage.MemoryStorage) {
	require.NoError(t, logger.Init("debug"))

	db, err := memorystorage.New()
	require.NoError(t, err)

	return New(db, testCookieName, testSigningKey, time.Hour), db
}

func issueSessionCookie(t *testing.T, theAuth *Auth, username string) *http.Cookie {
	recorder := httptest.NewRecorder()
	require.NoError(t, theAuth.IssueSession(recorder, username))

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)

	return cookies[0]
}

func TestAuthenticateUserPassesUsernameThrough(t *testing.T) {
	theAuth, db := newTestAuth(t)
	require.NoError(t, db.CreateUser(context.Background(), &user.User{Username: testUsername, Password: "rosetta"}))

	sessionCookie := issueSessionCookie(t, theAuth, testUsername)

	var seenUsername string
	handler := theAuth.AuthenticateUser(http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		seenUsername, _ = request.Context().Value(UsernameKey).(string)
		response.WriteHeader(http.StatusOK)
	}))

	request := httptest.NewRequest(http.MethodPost, "/query", nil)
	request.AddCookie(sessionCookie)
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, testUsername, seenUsername)
}

func TestAuthenticateUserRejectsMissingToken(t *testing.T) {
	theAuth, _ := newTestAuth(t)

	handler := theAuth.AuthenticateUser(http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		t.Fatal("the handler must not be reached without a token")
	}))

	request := httptest.NewRequest(http.MethodPost, "/query", nil)
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	var errorResponse models.ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &errorResponse))
	assert.Equal(t, "Login is required.", errorResponse.Detail)
}

func TestAuthenticateUserRejectsTamperedToken(t *testing.T) {
	theAuth, db := newTestAuth(t)
	require.NoError(t, db.CreateUser(context.Background(), &user.User{Username: testUsername, Password: "rosetta"}))

	sessionCookie := issueSessionCookie(t, theAuth, testUsername)
	sessionCookie.Value += "tampered"

	handler := theAuth.AuthenticateUser(http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		t.Fatal("the handler must not be reached with a tampered token")
	}))

	request := httptest.NewRequest(http.MethodPost, "/query", nil)
	request.AddCookie(sessionCookie)
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestAuthenticateUserRejectsRemovedUser(t *testing.T) {
	theAuth, db := newTestAuth(t)
	require.NoError(t, db.CreateUser(context.Background(), &user.User{Username: testUsername, Password: "rosetta"}))

	sessionCookie := issueSessionCookie(t, theAuth, testUsername)

	require.NoError(t, db.RemoveUserAndContext(context.Background(), testUsername))

	handler := theAuth.AuthenticateUser(http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		t.Fatal("the handler must not be reached after the user removal")
	}))

	request := httptest.NewRequest(http.MethodPost, "/query", nil)
	request.AddCookie(sessionCookie)
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	var errorResponse models.ErrorResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &errorResponse))
	assert.Equal(t, "Invalid user.", errorResponse.Detail)
}

func TestClearSessionExpiresTheCookie(t *testing.T) {
	theAuth, _ := newTestAuth(t)

	recorder := httptest.NewRecorder()
	theAuth.ClearSession(recorder)

	cookies := recorder.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, testCookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestAuthorizationHeaderTakesPrecedenceOverCookie(t *testing.T) {
	theAuth, db := newTestAuth(t)
	require.NoError(t, db.CreateUser(context.Background(), &user.User{Username: testUsername, Password: "rosetta"}))

	sessionCookie := issueSessionCookie(t, theAuth, testUsername)

	var seenUsername string
	handler := theAuth.AuthenticateUser(http.HandlerFunc(func(response http.ResponseWriter, request *http.Request) {
		seenUsername, _ = request.Context().Value(UsernameKey).(string)
	}))

	request := httptest.NewRequest(http.MethodPost, "/query", nil)
	request.Header.Set("Authorization", sessionCookie.Value)
	recorder := httptest.NewRecorder()

	handler.ServeHTTP(recorder, request)

	assert.Equal(t, testUsername, seenUsername)
}
