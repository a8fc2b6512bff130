package models

import (
	"encoding/json"
	"errors"
	"time"
)

// AuthRequest is the JSON body of the registration and login endpoints.
type AuthRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// QueryRequest is the JSON body of the question endpoint.
type QueryRequest struct {
	Query string `json:"query" validate:"required"`
}

// MessageResponse is the plain confirmation payload returned by the
// registration, login, logout and membership cancellation endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// UploadResponse describes a successfully ingested document.
// Preview carries the first part of the extracted text, TextLength its
// full length in characters.
type UploadResponse struct {
	Ok         bool   `json:"ok"`
	User       string `json:"user"`
	Message    string `json:"message"`
	TextLength int    `json:"text_length"`
	Preview    string `json:"preview"`
}

// QueryResponse wraps the answering service's payload. Result is passed
// through verbatim, so its shape is owned by the answering service.
type QueryResponse struct {
	Ok     bool            `json:"ok"`
	User   string          `json:"user"`
	Query  string          `json:"query"`
	Result json.RawMessage `json:"result"`
}

// DegradedAnswer is the synthesized result returned when the answering
// service cannot be reached.
type DegradedAnswer struct {
	Answer string `json:"answer"`
}

// ErrorResponse is the envelope for every non-2xx JSON response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// InternalStatsResponse reports storage counters for the internal stats endpoint.
type InternalStatsResponse struct {
	Users    int64 `json:"users"`
	Contexts int64 `json:"contexts"`
}

// DocContext is the single current document context of one user.
// A new upload replaces the previous context as a whole.
type DocContext struct {
	ID         string
	Username   string
	Text       string
	UploadedAt time.Time
}

// IndexJob is a queued request to pre-index an uploaded document
// in the answering service.
type IndexJob struct {
	Username string
	FullText string
}

var (
	// ErrUserAlreadyExists is returned on registration with a taken username.
	ErrUserAlreadyExists = errors.New("the username is already taken")

	// ErrUserNotFound is returned when the named user does not exist.
	ErrUserNotFound = errors.New("the user does not exist")

	// ErrInvalidCredentials is returned on a failed username/password check.
	ErrInvalidCredentials = errors.New("incorrect username or password")

	// ErrUnsupportedFormat is returned on upload of a non-PDF file.
	ErrUnsupportedFormat = errors.New("only PDF files are supported")

	// ErrEmptyDocument is returned on upload of a zero-length file.
	ErrEmptyDocument = errors.New("the file is empty")

	// ErrExtractionFailed wraps errors of the text extraction library.
	ErrExtractionFailed = errors.New("PDF parsing failed")

	// ErrNoContext is returned on a query from a user who has no uploaded document.
	ErrNoContext = errors.New("no document has been uploaded yet")
)
