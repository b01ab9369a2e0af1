// Package server exposes the attempt store over HTTP for classroom use.
package server

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/verte-zerg/sansu/internal/model"
	"github.com/verte-zerg/sansu/internal/store"
)

// Config controls the HTTP service.
type Config struct {
	Addr         string
	WriteRate    float64
	WriteBurst   int
	AllowOrigins []string
}

// DefaultConfig returns the settings used when the config file has none.
func DefaultConfig() Config {
	return Config{
		Addr:       "127.0.0.1:8787",
		WriteRate:  5,
		WriteBurst: 10,
	}
}

// Server serves attempts from a store.
type Server struct {
	store  store.AttemptStore
	log    *zap.Logger
	cfg    Config
	now    func() time.Time
	limits *limiterSet
}

// New creates a Server. A nil logger disables logging.
func New(st store.AttemptStore, log *zap.Logger, cfg Config) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.WriteRate <= 0 {
		cfg.WriteRate = def.WriteRate
	}
	if cfg.WriteBurst <= 0 {
		cfg.WriteBurst = def.WriteBurst
	}
	return &Server{
		store:  st,
		log:    log,
		cfg:    cfg,
		now:    time.Now,
		limits: newLimiterSet(rate.Limit(cfg.WriteRate), cfg.WriteBurst),
	}
}

// Handler builds the HTTP handler with routes and middleware.
func (s *Server) Handler() http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/attempts", s.appendAttempt)
		api.GET("/attempts", s.queryAttempts)
	}

	if len(s.cfg.AllowOrigins) == 0 {
		return r
	}
	return cors.New(cors.Options{
		AllowedOrigins: s.cfg.AllowOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}).Handler(r)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("serving attempts", zap.String("addr", s.cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("server stopped")
	return nil
}

func (s *Server) appendAttempt(c *gin.Context) {
	var rec model.AttemptRecord
	if err := c.ShouldBindJSON(&rec); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid attempt payload"})
		return
	}
	if strings.TrimSpace(rec.ClassCode) == "" || strings.TrimSpace(rec.Word) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "classCode and word are required"})
		return
	}
	if !s.limits.allow(writerKey(c, rec), s.now()) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
		return
	}
	rec.Timestamp = s.now()
	if err := s.store.AppendAttempt(c.Request.Context(), rec); err != nil {
		s.log.Error("append attempt", zap.String("class", rec.ClassCode), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "created"})
}

func (s *Server) queryAttempts(c *gin.Context) {
	field := c.Query("field")
	value := c.Query("value")
	if !store.QueryableField(field) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported field " + field})
		return
	}
	attempts, err := s.store.QueryByField(c.Request.Context(), field, value)
	if err != nil {
		s.log.Error("query attempts", zap.String("field", field), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if attempts == nil {
		attempts = []model.AttemptRecord{}
	}
	c.JSON(http.StatusOK, attempts)
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client", c.ClientIP()),
		)
	}
}

// writerKey identifies one student terminal. Terminals behind one address
// get separate buckets.
func writerKey(c *gin.Context, rec model.AttemptRecord) string {
	who := rec.SessionID
	if who == "" {
		who = rec.ClassCode + "/" + rec.StudentNo
	}
	return c.ClientIP() + "|" + who
}

const (
	limiterIdle = 10 * time.Minute
	maxLimiters = 4096
)

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// limiterSet keeps one token bucket per writer. Idle buckets are dropped and
// the set never holds more than max entries.
type limiterSet struct {
	mu        sync.Mutex
	limit     rate.Limit
	burst     int
	idle      time.Duration
	max       int
	lastSweep time.Time
	clients   map[string]*limiterEntry
}

func newLimiterSet(limit rate.Limit, burst int) *limiterSet {
	return &limiterSet{
		limit:   limit,
		burst:   burst,
		idle:    limiterIdle,
		max:     maxLimiters,
		clients: map[string]*limiterEntry{},
	}
}

func (l *limiterSet) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}
	e, ok := l.clients[key]
	if !ok {
		if len(l.clients) >= l.max {
			l.evictOldest()
		}
		e = &limiterEntry{lim: rate.NewLimiter(l.limit, l.burst)}
		l.clients[key] = e
	}
	e.seen = now
	return e.lim.AllowN(now, 1)
}

func (l *limiterSet) sweep(now time.Time) {
	for key, e := range l.clients {
		if now.Sub(e.seen) >= l.idle {
			delete(l.clients, key)
		}
	}
	l.lastSweep = now
}

func (l *limiterSet) evictOldest() {
	var oldest string
	var seen time.Time
	for key, e := range l.clients {
		if oldest == "" || e.seen.Before(seen) {
			oldest, seen = key, e.seen
		}
	}
	delete(l.clients, oldest)
}
