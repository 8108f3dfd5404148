package http

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/sjzar/sentry-slack/internal/errors"
	"github.com/sjzar/sentry-slack/internal/slack"
	"github.com/sjzar/sentry-slack/internal/transport"
	"github.com/sjzar/sentry-slack/pkg/model"
)

func (s *Service) initRouter() {
	s.initBaseRouter()
	s.initAPIRouter()
}

func (s *Service) initBaseRouter() {
	s.router.GET("/health", s.handleHealth)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.NoRoute(s.NoRoute)
}

func (s *Service) initAPIRouter() {
	api := s.router.Group("/api/v1")
	{
		api.GET("/plugins/slack", s.handleMetadata)

		project := api.Group("/projects/:project")
		project.GET("/plugins/slack", s.handleGetOptions)
		project.PUT("/plugins/slack", s.handleSetOptions)
		project.DELETE("/plugins/slack", s.handleDeleteOptions)
		project.POST("/plugins/slack/notify", s.handleNotify)
		project.POST("/plugins/slack/test", s.handleTest)
		project.PUT("/tags/:key", s.handleKeyLabel)
		project.PUT("/tags/:key/values/:value", s.handleValueLabel)
	}
}

func (s *Service) NoRoute(c *gin.Context) {
	errors.Err(c, errors.NotFound(c.Request.URL.Path, nil))
}

// handleHealth reports 503 while the store cannot be reached.
func (s *Service) handleHealth(c *gin.Context) {
	if err := s.store.Ping(c.Request.Context()); err != nil {
		log.Warn().Err(err).Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func projectID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("project"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.InvalidArg("project")
	}
	return id, nil
}

func (s *Service) handleMetadata(c *gin.Context) {
	c.JSON(http.StatusOK, s.getPlugin().Metadata())
}

func (s *Service) loadOptions(c *gin.Context, id int64) (slack.Options, error) {
	raw, err := s.store.GetOptions(c.Request.Context(), id, slack.ConfKey)
	if err != nil {
		return slack.Options{}, err
	}
	return slack.DecodeOptions(raw)
}

func (s *Service) handleGetOptions(c *gin.Context) {
	id, err := projectID(c)
	if err != nil {
		errors.Err(c, err)
		return
	}

	opts, err := s.loadOptions(c, id)
	if err != nil {
		errors.Err(c, err)
		return
	}

	configured := opts.Configured()
	if configured {
		opts.Webhook = transport.RedactURL(opts.Webhook)
	}

	c.JSON(http.StatusOK, gin.H{
		"project":    id,
		"configured": configured,
		"options":    opts,
	})
}

func (s *Service) handleSetOptions(c *gin.Context) {
	id, err := projectID(c)
	if err != nil {
		errors.Err(c, err)
		return
	}

	var opts slack.Options
	switch c.ContentType() {
	case binding.MIMEPOSTForm:
		if err := c.Request.ParseForm(); err != nil {
			errors.Err(c, errors.DecodeOptionsFailed(err))
			return
		}
		opts, err = slack.DecodeForm(c.Request.PostForm)
		if err != nil {
			errors.Err(c, err)
			return
		}
	default:
		opts = slack.DefaultOptions()
		if err := c.ShouldBindJSON(&opts); err != nil {
			errors.Err(c, errors.DecodeOptionsFailed(err))
			return
		}
	}

	opts = opts.Normalize()
	if err := opts.Validate(); err != nil {
		errors.Err(c, err)
		return
	}

	if err := s.store.SetOptions(c.Request.Context(), id, slack.ConfKey, opts.Map()); err != nil {
		errors.Err(c, err)
		return
	}

	opts.Webhook = transport.RedactURL(opts.Webhook)
	c.JSON(http.StatusOK, gin.H{
		"project":    id,
		"configured": true,
		"options":    opts,
	})
}

func (s *Service) handleDeleteOptions(c *gin.Context) {
	id, err := projectID(c)
	if err != nil {
		errors.Err(c, err)
		return
	}

	if err := s.store.DeleteOptions(c.Request.Context(), id, slack.ConfKey); err != nil {
		errors.Err(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Service) handleNotify(c *gin.Context) {
	id, err := projectID(c)
	if err != nil {
		errors.Err(c, err)
		return
	}

	var n model.Notification
	if err := c.ShouldBindJSON(&n); err != nil {
		errors.Err(c, errors.InvalidArg("notification"))
		return
	}

	project := &n.Event.Group.Project
	switch project.ID {
	case 0:
		project.ID = id
	case id:
	default:
		errors.Err(c, errors.InvalidArg("project"))
		return
	}

	s.notify(c, id, n)
}

// handleTest sends a sample message so users can check their settings.
func (s *Service) handleTest(c *gin.Context) {
	id, err := projectID(c)
	if err != nil {
		errors.Err(c, err)
		return
	}

	var project model.Project
	if err := c.ShouldBindJSON(&project); err != nil && c.Request.ContentLength > 0 {
		errors.Err(c, errors.InvalidArg("project"))
		return
	}
	project.ID = id
	if project.Slug == "" {
		project.Slug = strconv.FormatInt(id, 10)
	}
	if project.Name == "" {
		project.Name = project.Slug
	}

	s.notify(c, id, testNotification(project))
}

func (s *Service) notify(c *gin.Context, id int64, n model.Notification) {
	opts, err := s.loadOptions(c, id)
	if err != nil {
		errors.Err(c, err)
		return
	}

	result, err := s.getPlugin().Notify(c.Request.Context(), n, opts)
	if err != nil {
		errors.Err(c, err)
		return
	}
	if result == nil {
		c.JSON(http.StatusOK, gin.H{"status": "skipped"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "sent",
		"code":     result.StatusCode,
		"duration": result.Duration.Round(time.Millisecond).String(),
	})
}

func testNotification(project model.Project) model.Notification {
	return model.Notification{
		Event: model.Event{
			Group: model.Group{
				Level:   model.LevelInfo,
				Message: "This is a test message generated from sentry-slack",
				Culprit: "sentry-slack test",
				Project: project,
			},
		},
	}
}

type labelRequest struct {
	Label string `json:"label"`
}

func (s *Service) handleKeyLabel(c *gin.Context) {
	id, err := projectID(c)
	if err != nil {
		errors.Err(c, err)
		return
	}

	var req labelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.Err(c, errors.InvalidArg("label"))
		return
	}

	key := c.Param("key")
	if err := s.labels.SetKeyLabel(c.Request.Context(), id, key, req.Label); err != nil {
		errors.Err(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "label": req.Label})
}

func (s *Service) handleValueLabel(c *gin.Context) {
	id, err := projectID(c)
	if err != nil {
		errors.Err(c, err)
		return
	}

	var req labelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errors.Err(c, errors.InvalidArg("label"))
		return
	}

	tag := model.Tag{Key: c.Param("key"), Value: c.Param("value")}
	if err := s.labels.SetValueLabel(c.Request.Context(), id, tag, req.Label); err != nil {
		errors.Err(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": tag.Key, "value": tag.Value, "label": req.Label})
}
