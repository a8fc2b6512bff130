// Package app initializes and runs the main application service.
// It configures logging, storage, authentication, the answering service
// client, and routing, and handles graceful shutdown.
package app

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/patric-chuzhbe/docqa/internal/auth"
	"github.com/patric-chuzhbe/docqa/internal/authenticator"
	"github.com/patric-chuzhbe/docqa/internal/router"

	"github.com/patric-chuzhbe/docqa/internal/config"
	"github.com/patric-chuzhbe/docqa/internal/db/memorystorage"
	"github.com/patric-chuzhbe/docqa/internal/extractor"
	"github.com/patric-chuzhbe/docqa/internal/ipchecker"
	"github.com/patric-chuzhbe/docqa/internal/logger"
	"github.com/patric-chuzhbe/docqa/internal/models"
	"github.com/patric-chuzhbe/docqa/internal/ragclient"
	"github.com/patric-chuzhbe/docqa/internal/ragindexer"
	"github.com/patric-chuzhbe/docqa/internal/service"
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
	Close() error
}

// App encapsulates the configuration, HTTP handler, storage backend,
// and background services (such as the pre-indexing worker) needed to run
// the document QA gateway.
type App struct {
	cfg            *config.Config
	db             storage
	ragIndexer     *ragindexer.RAGIndexer
	stopRagIndexer context.CancelFunc
	httpHandler    http.Handler
}

// New initializes a new instance of App by:
// - loading configuration
// - initializing logger
// - setting up the in-memory storage
// - setting up the answering service client and the background pre-indexing worker
// - setting up the router and middleware
func New() (*App, error) {
	var err error
	app := &App{}

	app.cfg, err = config.New()
	if err != nil {
		return nil, err
	}

	err = logger.Init(app.cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	app.db, err = memorystorage.New()
	if err != nil {
		return nil, err
	}

	authCookieSigningSecretKey, err := base64.URLEncoding.DecodeString(app.cfg.AuthCookieSigningSecretKey)
	if err != nil {
		return nil, err
	}

	ragClient := ragclient.New(
		app.cfg.RAGServerURL,
		app.cfg.AnswerTimeout,
		app.cfg.IndexTimeout,
	)

	app.ragIndexer = ragindexer.New(
		ragClient,
		app.cfg.IndexChunkSize,
		app.cfg.ChannelCapacity,
		app.cfg.DelayBetweenQueueFetches,
	)
	ragIndexerRunCtx, stopRagIndexer := context.WithCancel(context.Background())
	app.stopRagIndexer = stopRagIndexer

	app.ragIndexer.Run(ragIndexerRunCtx)
	app.ragIndexer.ListenErrors(func(err error) {
		logger.Log.Debugln("Error passed from the `app.ragIndexer.ListenErrors()`:", zap.Error(err))
	})

	s := service.New(
		app.db,
		extractor.New(),
		ragClient,
		app.ragIndexer,
		app.cfg.IndexingEnabled,
	)

	ipChecker, err := ipchecker.New(app.cfg.TrustedSubnet)
	if err != nil {
		return nil, err
	}

	// The session token format stays hidden behind the Authenticator
	// interface; swapping it out does not touch the router or the service.
	var sessionResolver authenticator.Authenticator = auth.New(
		app.db,
		app.cfg.AuthCookieName,
		authCookieSigningSecretKey,
		app.cfg.AuthTokenTTL,
	)

	app.httpHandler = router.New(
		app.db,
		sessionResolver,
		ipChecker,
		s,
	)

	return app, nil
}

// Run starts the HTTP server with graceful shutdown support.
// It listens for system signals and cleans up resources upon termination.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	logger.Log.Infoln("server running", "RunAddr", a.cfg.RunAddr)

	server := &http.Server{
		Addr:    a.cfg.RunAddr,
		Handler: a.httpHandler,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Log.Infoln("Received shutdown signal. Stopping the pre-indexing worker and exiting...")
		a.stopRagIndexer()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		return a.db.Close()

	case err := <-serverErrCh:
		return fmt.Errorf("server error: %w", err)
	}
}

// Close finalizes resources used by App such as logging.
func (a *App) Close() {
	if err := logger.Sync(); err != nil {
		fmt.Println("Logger sync error:", err)
	}
}
