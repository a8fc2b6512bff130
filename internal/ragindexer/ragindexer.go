// Package ragindexer pushes uploaded documents to the answering service
// in the background so they are chunked and indexed ahead of questions.
package ragindexer

import (
	"context"
	"time"

	"github.com/patric-chuzhbe/docqa/internal/logger"
	"github.com/patric-chuzhbe/docqa/internal/models"
)

type task struct {
	username string
	fullText string
}

type documentIndexer interface {
	IndexDocument(ctx context.Context, fullText string, chunkSize int) error
}

// RAGIndexer buffers indexing jobs and flushes them to the answering
// service on a fixed schedule. Only the newest document per user is
// sent; superseded uploads queued in the same window are dropped.
type RAGIndexer struct {
	queue                    chan *task
	rag                      documentIndexer
	chunkSize                int
	delayBetweenQueueFetches time.Duration
	errorChannel             chan error
}

// New creates a RAGIndexer which sends documents to rag, chunkSize
// characters per chunk.
func New(
	rag documentIndexer,
	chunkSize int,
	channelCapacity int,
	delayBetweenQueueFetches time.Duration,
) *RAGIndexer {
	return &RAGIndexer{
		queue:                    make(chan *task, channelCapacity),
		rag:                      rag,
		chunkSize:                chunkSize,
		delayBetweenQueueFetches: delayBetweenQueueFetches,
		errorChannel:             make(chan error, channelCapacity),
	}
}

// ListenErrors starts a goroutine which passes indexing errors to the callback.
func (r *RAGIndexer) ListenErrors(callback func(error)) {
	go func() {
		for err := range r.errorChannel {
			callback(err)
		}
	}()
}

// EnqueueJob puts an indexing job into the queue.
func (r *RAGIndexer) EnqueueJob(job *models.IndexJob) {
	r.queue <- &task{
		username: job.Username,
		fullText: job.FullText,
	}
}

// Run starts the background indexing loop.
// The loop stops when ctx is cancelled. Documents whose indexing call
// failed stay queued and are retried on the next tick.
func (r *RAGIndexer) Run(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(r.delayBetweenQueueFetches)
		defer ticker.Stop()

		var tasks []task

		for {
			select {
			case <-ctx.Done():
				return
			case t := <-r.queue:
				tasks = append(tasks, *t)
			case <-ticker.C:
				if len(tasks) == 0 {
					continue
				}
				tasks = r.indexLatestDocuments(ctx, tasks)
			}
		}
	}()
}

func (r *RAGIndexer) indexLatestDocuments(ctx context.Context, tasks []task) []task {
	indexed := 0
	var failed []task
	for username, fullText := range r.collectLatestByUser(tasks) {
		err := r.rag.IndexDocument(ctx, fullText, r.chunkSize)
		if err != nil {
			r.errorChannel <- err
			failed = append(failed, task{username: username, fullText: fullText})
			continue
		}
		indexed++
	}
	if indexed > 0 {
		logger.Log.Infof("indexed %d document(s) for the answering service", indexed)
	}

	return failed
}

func (r *RAGIndexer) collectLatestByUser(tasks []task) map[string]string {
	result := map[string]string{}
	for _, t := range tasks {
		result[t.username] = t.fullText
	}

	return result
}
