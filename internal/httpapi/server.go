package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"PriceTracker/internal/config"
	"PriceTracker/internal/domain"
	"PriceTracker/internal/logging"
)

const (
	readTimeout  = 10 * time.Second
	writeTimeout = 120 * time.Second
	idleTimeout  = 120 * time.Second
)

// AccountService registers users and validates their tokens.
type AccountService interface {
	Register(ctx context.Context, username, password string) (domain.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	Authenticate(ctx context.Context, token string) (*domain.User, error)
}

// NewsService serves stored articles and upvotes.
type NewsService interface {
	List(ctx context.Context, userID *int64) ([]domain.ArticleView, error)
	Get(ctx context.Context, articleID int64, userID *int64) (domain.ArticleView, error)
	Details(ctx context.Context, articleID int64, userID *int64) (domain.UpvoteDetails, error)
	ToggleUpvote(ctx context.Context, articleID, userID int64) (domain.UpvoteAction, error)
	Summarize(ctx context.Context, content string) (domain.Summary, error)
}

// SearchService runs ad-hoc searches.
type SearchService interface {
	Run(ctx context.Context, prompt string) ([]domain.SearchResult, error)
}

// Deps groups the services exposed over HTTP.
type Deps struct {
	Accounts AccountService
	News     NewsService
	Search   SearchService
	Prices   *PriceProxy
	Logger   *slog.Logger
}

// Server is the REST API.
type Server struct {
	router *gin.Engine
	server *http.Server
	logger *slog.Logger
}

// NewServer builds the router and the underlying http.Server.
func NewServer(cfg config.HTTPConfig, deps Deps) *Server {
	log := deps.Logger
	if log == nil {
		log = logging.Discard()
	}

	router := NewRouter(cfg, deps, log)
	return &Server{
		router: router,
		logger: log,
		server: &http.Server{
			Addr:         cfg.Addr,
			Handler:      router,
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
			IdleTimeout:  idleTimeout,
		},
	}
}

// NewRouter registers every route on a fresh gin engine.
func NewRouter(cfg config.HTTPConfig, deps Deps, log *slog.Logger) *gin.Engine {
	if log == nil {
		log = logging.Discard()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware(cfg.AllowOrigin))
	router.Use(loggingMiddleware(log))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	h := &handlers{accounts: deps.Accounts, news: deps.News, search: deps.Search, prices: deps.Prices, logger: log}
	requireUser := authMiddleware(deps.Accounts)
	optionalUser := optionalAuthMiddleware(deps.Accounts)

	v1 := router.Group("/api/v1")

	users := v1.Group("/users")
	users.POST("/register", h.register)
	users.POST("/login", h.login)
	users.GET("/me", requireUser, h.me)

	news := v1.Group("/news")
	news.GET("/news", h.listNews)
	news.GET("/user_news", requireUser, h.listUserNews)
	news.GET("/:id", optionalUser, h.getArticle)
	news.GET("/:id/upvotes", optionalUser, h.upvoteDetails)
	news.POST("/:id/upvote", requireUser, h.toggleUpvote)
	news.POST("/search_news", h.searchNews)
	news.POST("/news_summary", requireUser, h.summarize)

	v1.GET("/prices/necessities-price", h.necessitiesPrice)

	return router
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}
