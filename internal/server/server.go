package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Arturia169/my-homepage/internal/livestatus"
)

type Aggregator interface {
	Aggregate(ctx context.Context, t livestatus.Targets) (livestatus.AggregateResult, error)
}

// SnapshotPublisher receives every successful aggregate, off the response path.
type SnapshotPublisher interface {
	Publish(ctx context.Context, res livestatus.AggregateResult) error
}

type Options struct {
	Aggregator Aggregator
	Targets    livestatus.TargetSource
	// Publisher is optional.
	Publisher      SnapshotPublisher
	PublishTimeout time.Duration
	ImageProxy     *ImageProxy
	Logger         *zap.Logger
	Version        string
}

type Server struct {
	agg            Aggregator
	targets        livestatus.TargetSource
	publisher      SnapshotPublisher
	publishTimeout time.Duration
	img            *ImageProxy
	log            *zap.Logger
	version        string
	started        time.Time

	publishing sync.WaitGroup
}

func New(opts Options) *Server {
	s := &Server{
		agg:            opts.Aggregator,
		targets:        opts.Targets,
		publisher:      opts.Publisher,
		publishTimeout: opts.PublishTimeout,
		img:            opts.ImageProxy,
		log:            opts.Logger,
		version:        opts.Version,
		started:        time.Now(),
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.publishTimeout <= 0 {
		s.publishTimeout = 5 * time.Second
	}
	if s.targets == nil {
		s.targets = livestatus.StaticTargets{}
	}
	return s
}

// Handler builds the gin engine.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(RequestID(), AccessLog(s.log), Recovery(s.log), CORS())

	r.GET(PathHealth, s.handleHealth)
	r.GET(PathReady, s.handleReady)

	api := r.Group("/api")
	{
		api.GET("/live", s.handleLive)
		if s.img != nil {
			api.GET("/img", s.img.Serve)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.Header("Cache-Control", "no-store")
		c.String(http.StatusNotFound, "Not Found")
	})
	return r
}

func (s *Server) handleLive(c *gin.Context) {
	ctx := c.Request.Context()
	c.Header("Cache-Control", "no-store")

	res, err := s.agg.Aggregate(ctx, s.targets.Targets(ctx))
	if err != nil {
		s.log.Error("live: aggregate failed", zap.String("request_id", c.GetString(requestIDKey)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	s.publish(res)
	c.JSON(http.StatusOK, res)
}

func (s *Server) publish(res livestatus.AggregateResult) {
	if s.publisher == nil {
		return
	}
	s.publishing.Add(1)
	go func() {
		defer s.publishing.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.publishTimeout)
		defer cancel()
		if err := s.publisher.Publish(ctx, res); err != nil {
			s.log.Warn("live: snapshot publish failed", zap.Error(err))
		}
	}()
}

// Close waits for in-flight snapshot publishes.
func (s *Server) Close() {
	s.publishing.Wait()
}
