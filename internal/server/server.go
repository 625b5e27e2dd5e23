package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/kodbank/apiserver/config"
	"github.com/kodbank/apiserver/internal/auth"
	"github.com/kodbank/apiserver/internal/db"
	"github.com/kodbank/apiserver/internal/events"
	"github.com/kodbank/apiserver/internal/handlers"
	"github.com/kodbank/apiserver/internal/inference"
	"github.com/kodbank/apiserver/internal/logging"
	"github.com/kodbank/apiserver/internal/mq"
	"github.com/kodbank/apiserver/internal/services"
	"github.com/kodbank/apiserver/internal/storage"
	"github.com/kodbank/apiserver/internal/store"
	"github.com/rs/zerolog"
)

const maxRequestBodyBytes = 1 << 20

// Server wraps the HTTP server and the resources it owns.
type Server struct {
	httpServer *http.Server
	router     http.Handler
	db         *db.DB
	queue      *mq.MQ
	logger     zerolog.Logger
}

// Dependencies are the collaborators the router is built from. Objects and
// Events may be nil.
type Dependencies struct {
	DB           *db.DB
	Issuer       *auth.Issuer
	Generator    services.Generator
	Objects      services.ObjectStore
	Events       services.EventPublisher
	SecureCookie bool
	Logger       zerolog.Logger
}

// New connects every backend named in cfg and builds the server.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*Server, error) {
	jwtSecret := strings.TrimSpace(cfg.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	// A fresh SQLite file has no schema; postgres is migrated explicitly.
	if dbConn.Dialect == db.SQLite {
		if err := db.MigrateUp(dbConn); err != nil {
			_ = dbConn.Close()
			return nil, err
		}
	}

	deps := Dependencies{
		DB:           dbConn,
		Issuer:       auth.NewIssuer(jwtSecret),
		SecureCookie: cfg.IsProduction(),
		Logger:       logger,
	}

	provider, err := inference.NewProvider(cfg.Inference)
	if err != nil {
		logger.Warn().Err(err).Msg("inference provider unavailable, chat will use the fallback reply")
		provider = nil
	}
	deps.Generator = inference.NewGateway(provider, logger)

	objects, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("open object storage: %w", err)
	}
	if objects != nil {
		deps.Objects = objects
	}

	queue, err := mq.Open(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("open message queue: %w", err)
	}
	deps.Events = events.NewPublisher(queue, cfg.MQ.Channel, logger)

	router := NewRouter(deps)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Chat requests wait on the inference provider.
		WriteTimeout: 45 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		queue:      queue,
		logger:     logger,
	}, nil
}

// NewRouter builds the HTTP routes over deps.
func NewRouter(deps Dependencies) http.Handler {
	userRepo := store.NewUserRepository(deps.DB)
	statsRepo := store.NewStatsRepository(deps.DB)
	transactionRepo := store.NewTransactionRepository(deps.DB)
	chatRepo := store.NewChatRepository(deps.DB)

	accounts := services.NewAccountService(userRepo, deps.Events)
	dashboards := services.NewDashboardService(userRepo, statsRepo, transactionRepo)
	chat := services.NewChatService(chatRepo, deps.Generator, deps.Events)
	statements := services.NewStatementService(transactionRepo, deps.Objects)

	authHandler := handlers.NewAuthHandler(accounts, deps.Issuer, deps.SecureCookie, deps.Logger)
	requireSession := handlers.RequireSession(deps.Issuer)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.RequestSize(maxRequestBodyBytes),
		logging.RequestLogger(deps.Logger),
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz(deps.DB))
	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			handlers.AuthRouter(r, authHandler)
		})
		r.Group(func(r chi.Router) {
			r.Use(requireSession)
			r.Route("/dashboard", func(r chi.Router) {
				handlers.DashboardRouter(r, handlers.NewDashboardHandler(dashboards, deps.Logger))
			})
			r.Route("/chat", func(r chi.Router) {
				handlers.ChatRouter(r, handlers.NewChatHandler(chat, deps.Logger))
			})
			r.Route("/statements", func(r chi.Router) {
				handlers.StatementRouter(r, handlers.NewStatementHandler(statements, deps.Logger))
			})
		})
	})
	return router
}

// Router exposes the root handler.
func (s *Server) Router() http.Handler {
	return s.router
}

// Addr is the address the server listens on.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Start runs the HTTP server. It returns nil after Shutdown.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and releases the backends.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.queue != nil {
		if closeErr := s.queue.Close(); closeErr != nil {
			s.logger.Warn().Err(closeErr).Msg("close message queue")
		}
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
