// Package router wires the HTTP endpoints of the document
// question-answering gateway: account registration and login, document
// upload, querying, and the operational ping and stats handlers.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/docqa/internal/auth"
	"github.com/patric-chuzhbe/docqa/internal/gzippedhttp"
	"github.com/patric-chuzhbe/docqa/internal/ipchecker"
	"github.com/patric-chuzhbe/docqa/internal/logger"
	"github.com/patric-chuzhbe/docqa/internal/models"
	"github.com/patric-chuzhbe/docqa/internal/service"
)

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	pinger
}

type authenticator interface {
	AuthenticateUser(h http.Handler) http.Handler
	IssueSession(response http.ResponseWriter, username string) error
	ClearSession(response http.ResponseWriter)
}

// Router bundles the dependencies of the HTTP handlers.
type Router struct {
	db        storage
	auth      authenticator
	ipChecker *ipchecker.IPChecker
	svc       *service.Service
}

var validate = validator.New()

// New creates the chi router with all gateway endpoints registered.
func New(
	db storage,
	authMiddleware authenticator,
	ipChecker *ipchecker.IPChecker,
	svc *service.Service,
) *chi.Mux {
	myRouter := Router{
		db:        db,
		auth:      authMiddleware,
		ipChecker: ipChecker,
		svc:       svc,
	}

	router := chi.NewRouter()
	router.Use(
		logger.WithLoggingHTTPMiddleware,
		gzippedhttp.UngzipRequest,
	)

	router.With(gzippedhttp.GzipResponse).Post(`/sign`, myRouter.PostSign)
	router.With(gzippedhttp.GzipResponse).Post(`/login`, myRouter.PostLogin)
	router.With(gzippedhttp.GzipResponse).Post(`/logout`, myRouter.PostLogout)
	router.With(
		gzippedhttp.GzipResponse,
		myRouter.auth.AuthenticateUser,
	).Post(`/Cancel_membership`, myRouter.PostCancelmembership)
	router.With(
		gzippedhttp.GzipResponse,
		myRouter.auth.AuthenticateUser,
	).Post(`/upload`, myRouter.PostUpload)
	router.With(
		gzippedhttp.GzipResponse,
		myRouter.auth.AuthenticateUser,
	).Post(`/query`, myRouter.PostQuery)
	router.Get(`/ping`, myRouter.GetPing)
	router.With(gzippedhttp.GzipResponse).Get(`/api/internal/stats`, myRouter.GetApiinternalstats)

	return router
}

// PostSign registers a new user account.
func (r *Router) PostSign(response http.ResponseWriter, request *http.Request) {
	authRequest, ok := readAuthRequest(response, request)
	if !ok {
		return
	}

	err := r.svc.Register(request.Context(), authRequest.Username, authRequest.Password)
	if errors.Is(err, models.ErrUserAlreadyExists) {
		sendJSONError(response, http.StatusBadRequest, "This username is already taken.")

		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `r.svc.Register()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)

		return
	}

	sendJSONResponse(response, http.StatusOK, models.MessageResponse{
		Message: fmt.Sprintf("Welcome, %s! Your registration with the ancient language research lab is complete.", authRequest.Username),
	})
}

// PostLogin checks the credentials and opens a cookie session.
func (r *Router) PostLogin(response http.ResponseWriter, request *http.Request) {
	authRequest, ok := readAuthRequest(response, request)
	if !ok {
		return
	}

	err := r.svc.CheckCredentials(request.Context(), authRequest.Username, authRequest.Password)
	if errors.Is(err, models.ErrInvalidCredentials) {
		sendJSONError(response, http.StatusUnauthorized, "Incorrect username or password.")

		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `r.svc.CheckCredentials()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)

		return
	}

	if err := r.auth.IssueSession(response, authRequest.Username); err != nil {
		logger.Log.Debugln("Error calling the `r.auth.IssueSession()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)

		return
	}

	sendJSONResponse(response, http.StatusOK, models.MessageResponse{
		Message: fmt.Sprintf("Hello, researcher %s.", authRequest.Username),
	})
}

// PostLogout drops the session cookie.
// It succeeds for callers without a session as well.
func (r *Router) PostLogout(response http.ResponseWriter, request *http.Request) {
	r.auth.ClearSession(response)

	sendJSONResponse(response, http.StatusOK, models.MessageResponse{
		Message: "You have been logged out.",
	})
}

// PostCancelmembership removes the account together with its stored
// document and drops the session cookie.
func (r *Router) PostCancelmembership(response http.ResponseWriter, request *http.Request) {
	username, ok := getUsernameFromContext(request)
	if !ok {
		sendJSONError(response, http.StatusUnauthorized, "Login is required.")

		return
	}

	if err := r.svc.Deregister(request.Context(), username); err != nil {
		logger.Log.Debugln("Error calling the `r.svc.Deregister()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)

		return
	}

	r.auth.ClearSession(response)

	sendJSONResponse(response, http.StatusOK, models.MessageResponse{
		Message: "Membership cancelled. Your data has been safely destroyed.",
	})
}

// PostUpload accepts a multipart PDF upload and stores its extracted
// text as the caller's question-answering context.
func (r *Router) PostUpload(response http.ResponseWriter, request *http.Request) {
	username, ok := getUsernameFromContext(request)
	if !ok {
		sendJSONError(response, http.StatusUnauthorized, "Login is required.")

		return
	}

	file, fileHeader, err := request.FormFile("file")
	if err != nil {
		sendJSONError(response, http.StatusBadRequest, "A file is required.")

		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		logger.Log.Debugln("Error reading the uploaded file: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)

		return
	}

	result, err := r.svc.IngestDocument(request.Context(), username, fileHeader.Filename, data)
	switch {
	case errors.Is(err, models.ErrUnsupportedFormat):
		sendJSONError(response, http.StatusBadRequest, "Only PDF files are supported.")

		return

	case errors.Is(err, models.ErrEmptyDocument):
		sendJSONError(response, http.StatusBadRequest, "The file is empty.")

		return

	case errors.Is(err, models.ErrExtractionFailed):
		sendJSONError(response, http.StatusInternalServerError, err.Error())

		return

	case errors.Is(err, models.ErrUserNotFound):
		sendJSONError(response, http.StatusUnauthorized, "Invalid user.")

		return

	case err != nil:
		logger.Log.Debugln("Error calling the `r.svc.IngestDocument()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)

		return
	}

	sendJSONResponse(response, http.StatusOK, models.UploadResponse{
		Ok:         true,
		User:       username,
		Message:    "The ancient document was successfully deciphered.",
		TextLength: result.TextLength,
		Preview:    result.Preview,
	})
}

// PostQuery answers a question against the caller's stored document.
func (r *Router) PostQuery(response http.ResponseWriter, request *http.Request) {
	username, ok := getUsernameFromContext(request)
	if !ok {
		sendJSONError(response, http.StatusUnauthorized, "Login is required.")

		return
	}

	var queryRequest models.QueryRequest
	if err := json.NewDecoder(request.Body).Decode(&queryRequest); err != nil {
		logger.Log.Debugln("Error decoding the query request: ", zap.Error(err))
		sendJSONError(response, http.StatusBadRequest, "The request body is not a valid JSON.")

		return
	}
	if err := validate.Struct(queryRequest); err != nil {
		sendJSONError(response, http.StatusUnprocessableEntity, "The query is required.")

		return
	}

	answer, err := r.svc.Query(request.Context(), username, queryRequest.Query)
	if errors.Is(err, models.ErrNoContext) {
		sendJSONError(response, http.StatusBadRequest, "Please upload an ancient document first.")

		return
	}
	if err != nil {
		logger.Log.Debugln("Error calling the `r.svc.Query()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)

		return
	}

	if answer.Degraded {
		logger.Log.Infoln("the answering service is unreachable, a degraded answer was returned")
	}

	sendJSONResponse(response, http.StatusOK, models.QueryResponse{
		Ok:     true,
		User:   username,
		Query:  queryRequest.Query,
		Result: answer.Result,
	})
}

// GetPing responds 200 when the storage layer is reachable.
func (r *Router) GetPing(response http.ResponseWriter, request *http.Request) {
	if err := r.db.Ping(request.Context()); err != nil {
		logger.Log.Debugln("Error calling the `r.db.Ping()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)

		return
	}

	response.WriteHeader(http.StatusOK)
}

// GetApiinternalstats returns user and stored document counters.
// It is reachable only from the trusted subnet.
func (r *Router) GetApiinternalstats(response http.ResponseWriter, request *http.Request) {
	if r.ipChecker.IsTrustedSubnetEmpty() {
		response.WriteHeader(http.StatusForbidden)

		return
	}

	clientIP, err := r.ipChecker.GetClientIP(request)
	if err != nil {
		logger.Log.Debugln("Error calling the `r.ipChecker.GetClientIP()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)

		return
	}

	if !r.ipChecker.Check(clientIP) {
		response.WriteHeader(http.StatusForbidden)

		return
	}

	stats, err := r.svc.GetInternalStats(request.Context())
	if err != nil {
		logger.Log.Debugln("Error calling the `r.svc.GetInternalStats()`: ", zap.Error(err))
		response.WriteHeader(http.StatusInternalServerError)

		return
	}

	sendJSONResponse(response, http.StatusOK, stats)
}

func readAuthRequest(response http.ResponseWriter, request *http.Request) (models.AuthRequest, bool) {
	var authRequest models.AuthRequest
	if err := json.NewDecoder(request.Body).Decode(&authRequest); err != nil {
		logger.Log.Debugln("Error decoding the auth request: ", zap.Error(err))
		sendJSONError(response, http.StatusBadRequest, "The request body is not a valid JSON.")

		return models.AuthRequest{}, false
	}
	if err := validate.Struct(authRequest); err != nil {
		sendJSONError(response, http.StatusUnprocessableEntity, "The username and the password are required.")

		return models.AuthRequest{}, false
	}

	return authRequest, true
}

func getUsernameFromContext(request *http.Request) (string, bool) {
	username, ok := request.Context().Value(auth.UsernameKey).(string)
	if !ok || username == "" {
		return "", false
	}

	return username, true
}

func sendJSONResponse(response http.ResponseWriter, statusCode int, payload interface{}) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(statusCode)
	if err := json.NewEncoder(response).Encode(payload); err != nil {
		logger.Log.Debugln("Error encoding the response: ", zap.Error(err))
	}
}

func sendJSONError(response http.ResponseWriter, statusCode int, detail string) {
	sendJSONResponse(response, statusCode, models.ErrorResponse{Detail: detail})
}
