package sentryslack

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sjzar/sentry-slack/internal/errors"
	"github.com/sjzar/sentry-slack/internal/sentryslack/conf"
	"github.com/sjzar/sentry-slack/internal/sentryslack/http"
	"github.com/sjzar/sentry-slack/internal/slack"
	"github.com/sjzar/sentry-slack/internal/store"
	"github.com/sjzar/sentry-slack/internal/transport"
	"github.com/sjzar/sentry-slack/pkg/config"
	"github.com/sjzar/sentry-slack/pkg/model"
)

// Manager 管理插件服务及其依赖
type Manager struct {
	sc  *conf.ServerConfig
	scm *config.Manager

	// Services
	store  *store.Store
	cache  *store.LabelCache
	client *transport.Client
	http   *http.Service
}

func New() *Manager {
	return &Manager{}
}

// labels is where the plugin reads tag labels and the API writes them: the
// sqlite store, optionally behind the redis cache.
func (m *Manager) labels() store.LabelSource {
	if m.cache != nil {
		return m.cache
	}
	return m.store
}

func (m *Manager) newPlugin() *slack.Plugin {
	labels := m.labels()
	return slack.New(m.client,
		slack.WithBaseURL(m.sc.GetBaseURL()),
		slack.WithTagLabels(labels.KeyLabels, labels.ValueLabels),
	)
}

// CommandHTTPServer 启动 HTTP 服务并阻塞，直到收到退出信号
func (m *Manager) CommandHTTPServer(configPath string, cmdConf map[string]any) error {

	var err error
	m.sc, m.scm, err = conf.LoadServiceConfig(configPath, cmdConf)
	if err != nil {
		return err
	}
	applyLogLevel(m.sc.Debug)

	m.store, err = store.Open(m.sc.GetDBPath())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if redisURL := m.sc.GetRedisURL(); redisURL != "" {
		m.cache, err = store.NewLabelCache(ctx, redisURL, m.store, m.sc.GetLabelCacheTTL())
		if err != nil {
			return errors.JoinErrors(err, m.StopService())
		}
		log.Info().Str("redis", transport.RedactURL(redisURL)).Msg("tag label cache enabled")
	}

	m.client = transport.New(m.sc.GetWebhookTimeout())
	m.http = http.NewService(m.sc, m.store, m.labels(), m.newPlugin())

	m.scm.Watch(m.sc, func(event fsnotify.Event) {
		applyLogLevel(m.sc.Debug)
		m.http.SetPlugin(m.newPlugin())
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- m.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.JoinErrors(err, m.StopService())
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		return m.StopService()
	}
}

// StopService 按依赖的反序停止服务
func (m *Manager) StopService() error {
	var errs []error

	if m.http != nil {
		errs = append(errs, m.http.Stop())
	}
	if m.cache != nil {
		errs = append(errs, errors.WrapIfErr(m.cache.Close(), errors.ErrTypeConfig, "close label cache", nethttp.StatusInternalServerError))
	}
	if m.store != nil {
		errs = append(errs, errors.WrapIfErr(m.store.Close(), errors.ErrTypeDatabase, "close store", nethttp.StatusInternalServerError))
	}

	return errors.JoinErrors(errs...)
}

// CommandNotify sends one notification read from a JSON file without
// touching any storage. Tag labels fall back to raw keys and values.
func (m *Manager) CommandNotify(file string, opts slack.Options, baseURL string, timeout time.Duration) (*transport.Result, error) {
	b, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.InvalidArg("file")
	}

	var n model.Notification
	if err := json.Unmarshal(b, &n); err != nil {
		return nil, errors.Validation("invalid notification file", err)
	}

	opts = opts.Normalize()
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	if timeout <= 0 {
		timeout = transport.DefaultTimeout
	}
	m.client = transport.New(timeout)
	plugin := slack.New(m.client, slack.WithBaseURL(baseURL))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return plugin.Notify(ctx, n, opts)
}

func applyLogLevel(debug bool) {
	if debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
}
