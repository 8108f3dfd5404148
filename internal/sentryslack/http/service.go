package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/sjzar/sentry-slack/internal/errors"
	"github.com/sjzar/sentry-slack/internal/slack"
	"github.com/sjzar/sentry-slack/pkg/model"
)

type Service struct {
	conf   Config
	store  OptionStore
	labels LabelStore

	mu     sync.RWMutex
	plugin *slack.Plugin

	router *gin.Engine
	server *http.Server
}

type Config interface {
	GetHTTPAddr() string
}

// OptionStore persists per-project plugin settings.
type OptionStore interface {
	Ping(ctx context.Context) error
	GetOptions(ctx context.Context, projectID int64, plugin string) (map[string]any, error)
	SetOptions(ctx context.Context, projectID int64, plugin string, options map[string]any) error
	DeleteOptions(ctx context.Context, projectID int64, plugin string) error
}

// LabelStore records display labels for tag keys and values.
type LabelStore interface {
	SetKeyLabel(ctx context.Context, projectID int64, key, label string) error
	SetValueLabel(ctx context.Context, projectID int64, tag model.Tag, label string) error
}

func NewService(conf Config, store OptionStore, labels LabelStore, plugin *slack.Plugin) *Service {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()

	if err := router.SetTrustedProxies(nil); err != nil {
		log.Err(err).Msg("Failed to set trusted proxies")
	}

	router.Use(
		errors.RecoveryMiddleware(),
		errors.ErrorHandlerMiddleware(),
		gin.LoggerWithWriter(log.Logger, "/health", "/metrics"),
	)

	s := &Service{
		conf:   conf,
		store:  store,
		labels: labels,
		plugin: plugin,
		router: router,
	}

	s.initRouter()
	return s
}

// SetPlugin swaps the plugin used by later requests, e.g. after the base
// URL changed in the config file.
func (s *Service) SetPlugin(plugin *slack.Plugin) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plugin = plugin
}

func (s *Service) getPlugin() *slack.Plugin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plugin
}

func (s *Service) ListenAndServe() error {

	s.server = &http.Server{
		Addr:    s.conf.GetHTTPAddr(),
		Handler: s.router,
	}

	log.Info().Msg("Starting HTTP server on " + s.conf.GetHTTPAddr())
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.HTTPShutDown(err)
	}
	return nil
}

func (s *Service) Stop() error {

	if s.server == nil {
		return nil
	}

	// 使用超时上下文优雅关闭
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		log.Debug().Err(err).Msg("Failed to shutdown HTTP server")
		return nil
	}

	log.Info().Msg("HTTP server stopped")
	return nil
}

func (s *Service) GetRouter() *gin.Engine {
	return s.router
}
