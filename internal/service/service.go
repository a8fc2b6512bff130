package service

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/thoas/go-funk"

	"github.com/patric-chuzhbe/docqa/internal/models"
	"github.com/patric-chuzhbe/docqa/internal/user"
)

type identityKeeper interface {
	CreateUser(ctx context.Context, usr *user.User) error

	FindUserByUsername(ctx context.Context, username string) (*user.User, bool, error)

	RemoveUserAndContext(ctx context.Context, username string) error

	GetNumberOfUsers(ctx context.Context) (int64, error)
}

type contextKeeper interface {
	SaveUserContext(ctx context.Context, docContext *models.DocContext) error

	FindContextByUsername(ctx context.Context, username string) (*models.DocContext, bool, error)

	GetNumberOfContexts(ctx context.Context) (int64, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type storage interface {
	identityKeeper
	contextKeeper
	pinger
}

type textExtractor interface {
	ExtractText(filename string, data []byte) (string, error)
}

type answerer interface {
	Answer(ctx context.Context, query, contextText string) (json.RawMessage, error)
}

type indexQueue interface {
	EnqueueJob(job *models.IndexJob)
}

// previewLength is the number of leading characters of the extracted
// text returned to the uploader.
const previewLength = 200

const degradedAnswerFormat = "Sorry, the AI model server cannot be reached. (%v)"

var supportedExtensions = []string{".pdf"}

type Service struct {
	db              storage
	extractor       textExtractor
	rag             answerer
	indexQueue      indexQueue
	indexingEnabled bool
}

// IngestResult describes a freshly stored document.
type IngestResult struct {
	TextLength int
	Preview    string
}

// AnswerResult carries the answering service reply as is.
// Degraded is set when the reply was synthesized locally because the
// answering service could not be reached.
type AnswerResult struct {
	Result   json.RawMessage
	Degraded bool
}

func New(
	db storage,
	extractor textExtractor,
	rag answerer,
	indexQueue indexQueue,
	indexingEnabled bool,
) *Service {
	return &Service{
		db:              db,
		extractor:       extractor,
		rag:             rag,
		indexQueue:      indexQueue,
		indexingEnabled: indexingEnabled,
	}
}

// Register creates a new user account with the given credentials.
func (s *Service) Register(ctx context.Context, username, password string) error {
	return s.db.CreateUser(ctx, &user.User{Username: username, Password: password})
}

// CheckCredentials validates the username and password pair.
// An unknown username and a wrong password are indistinguishable to the caller.
func (s *Service) CheckCredentials(ctx context.Context, username, password string) error {
	usr, found, err := s.db.FindUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if !found {
		return models.ErrInvalidCredentials
	}
	if subtle.ConstantTimeCompare([]byte(usr.Password), []byte(password)) != 1 {
		return models.ErrInvalidCredentials
	}

	return nil
}

// Deregister removes the user account together with its stored document.
func (s *Service) Deregister(ctx context.Context, username string) error {
	return s.db.RemoveUserAndContext(ctx, username)
}

// IngestDocument extracts plain text from the uploaded file and stores
// it as the user's single question-answering context, replacing any
// previous one. It returns the character count of the extracted text
// and a preview built from its first characters.
func (s *Service) IngestDocument(
	ctx context.Context,
	username string,
	filename string,
	data []byte,
) (IngestResult, error) {
	if !funk.ContainsString(supportedExtensions, strings.ToLower(filepath.Ext(filename))) {
		return IngestResult{}, models.ErrUnsupportedFormat
	}

	if len(data) == 0 {
		return IngestResult{}, models.ErrEmptyDocument
	}

	text, err := s.extractor.ExtractText(filename, data)
	if err != nil {
		return IngestResult{}, fmt.Errorf("%w: %v", models.ErrExtractionFailed, err)
	}

	err = s.db.SaveUserContext(
		ctx,
		&models.DocContext{
			ID:         uuid.New().String(),
			Username:   username,
			Text:       text,
			UploadedAt: time.Now(),
		},
	)
	if err != nil {
		return IngestResult{}, err
	}

	if s.indexingEnabled {
		s.indexQueue.EnqueueJob(&models.IndexJob{Username: username, FullText: text})
	}

	return IngestResult{
		TextLength: utf8.RuneCountInString(text),
		Preview:    buildPreview(text),
	}, nil
}

// Query answers the question using the user's stored document as context.
// When the answering service cannot be reached or replies with garbage,
// a degraded answer is returned instead of an error.
func (s *Service) Query(ctx context.Context, username, question string) (AnswerResult, error) {
	docContext, found, err := s.db.FindContextByUsername(ctx, username)
	if err != nil {
		return AnswerResult{}, err
	}
	if !found {
		return AnswerResult{}, models.ErrNoContext
	}

	result, err := s.rag.Answer(ctx, question, docContext.Text)
	if err != nil {
		degraded, marshalErr := json.Marshal(models.DegradedAnswer{
			Answer: fmt.Sprintf(degradedAnswerFormat, err),
		})
		if marshalErr != nil {
			return AnswerResult{}, marshalErr
		}

		return AnswerResult{Result: degraded, Degraded: true}, nil
	}

	return AnswerResult{Result: result}, nil
}

// GetInternalStats returns statistics such as total user and stored document count.
func (s *Service) GetInternalStats(ctx context.Context) (models.InternalStatsResponse, error) {
	users, err := s.db.GetNumberOfUsers(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	contexts, err := s.db.GetNumberOfContexts(ctx)
	if err != nil {
		return models.InternalStatsResponse{}, err
	}

	return models.InternalStatsResponse{
		Users:    users,
		Contexts: contexts,
	}, nil
}

// Ping checks the health of the database/storage layer.
func (s *Service) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

func buildPreview(text string) string {
	runes := []rune(text)
	if len(runes) > previewLength {
		runes = runes[:previewLength]
	}

	return string(runes) + "..."
}
