// Package ragclient talks to the external retrieval-augmented generation
// service that produces answers for user questions.
package ragclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

type answerRequest struct {
	Query   string `json:"query"`
	Context string `json:"context"`
}

type indexRequest struct {
	FullText  string `json:"full_text"`
	ChunkSize int    `json:"chunk_size"`
}

// RAGClient is an HTTP client for the answering service.
type RAGClient struct {
	client        *resty.Client
	answerTimeout time.Duration
	indexTimeout  time.Duration
}

// New creates a RAGClient for the answering service at baseURL.
// The timeouts bound single answering and indexing calls respectively.
func New(baseURL string, answerTimeout, indexTimeout time.Duration) *RAGClient {
	return &RAGClient{
		client:        resty.New().SetBaseURL(baseURL),
		answerTimeout: answerTimeout,
		indexTimeout:  indexTimeout,
	}
}

// Answer sends the question together with the document text to the
// answering service and returns its JSON reply as is.
// A non-2xx status or a reply that is not valid JSON is an error.
func (c *RAGClient) Answer(ctx context.Context, query, contextText string) (json.RawMessage, error) {
	answerCtx, cancel := context.WithTimeout(ctx, c.answerTimeout)
	defer cancel()

	response, err := c.client.R().
		SetContext(answerCtx).
		SetHeader("Content-Type", "application/json").
		SetBody(answerRequest{Query: query, Context: contextText}).
		Post("/answer")
	if err != nil {
		return nil, fmt.Errorf("in internal/ragclient/ragclient.go/Answer(): error while `c.client.R().Post()` calling: %w", err)
	}
	if response.IsError() {
		return nil, fmt.Errorf("in internal/ragclient/ragclient.go/Answer(): the answering service replied with the `%s` status", response.Status())
	}

	body := response.Body()
	if !json.Valid(body) {
		return nil, fmt.Errorf("in internal/ragclient/ragclient.go/Answer(): the answering service replied with malformed JSON")
	}

	return json.RawMessage(body), nil
}

// IndexDocument pushes the full document text to the answering service
// so it can be chunked and indexed ahead of future questions.
func (c *RAGClient) IndexDocument(ctx context.Context, fullText string, chunkSize int) error {
	indexCtx, cancel := context.WithTimeout(ctx, c.indexTimeout)
	defer cancel()

	response, err := c.client.R().
		SetContext(indexCtx).
		SetHeader("Content-Type", "application/json").
		SetBody(indexRequest{FullText: fullText, ChunkSize: chunkSize}).
		Post("/upload")
	if err != nil {
		return fmt.Errorf("in internal/ragclient/ragclient.go/IndexDocument(): error while `c.client.R().Post()` calling: %w", err)
	}
	if response.IsError() {
		return fmt.Errorf("in internal/ragclient/ragclient.go/IndexDocument(): the answering service replied with the `%s` status", response.Status())
	}

	return nil
}
