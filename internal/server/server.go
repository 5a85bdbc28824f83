// Package server exposes prompt composition, evaluation and live testing
// over a small JSON HTTP API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mwiater/manzai/internal/appconfig"
	"github.com/mwiater/manzai/internal/character"
	"github.com/mwiater/manzai/internal/evaluate"
	"github.com/mwiater/manzai/internal/logging"
	"github.com/mwiater/manzai/internal/providers"
)

// Server holds the collaborators shared by every handler.
type Server struct {
	cfg       *appconfig.Config
	host      appconfig.Host
	generator providers.Generator
	evaluator *evaluate.Evaluator
	// fallback is used when a request omits the character.
	fallback *character.Profile
	engine   *gin.Engine
	now      func() time.Time
}

// New builds the router. fallback may be nil.
func New(cfg *appconfig.Config, host appconfig.Host, g providers.Generator, fallback *character.Profile) *Server {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	s := &Server{
		cfg:       cfg,
		host:      host,
		generator: g,
		evaluator: evaluate.New(evaluate.DefaultVocabulary()),
		fallback:  fallback,
		engine:    gin.New(),
		now:       time.Now,
	}
	s.engine.Use(gin.Recovery(), requestLogger())
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.engine.Group("/api")
	{
		api.GET("/status", s.status)
		api.POST("/prompt", s.composePrompt)
		api.POST("/evaluate", s.evaluateReply)
		api.POST("/test", s.testCharacter)
		api.POST("/export", s.export)
	}
}

// Handler returns the HTTP handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on the configured listen address until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Listen(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logging.LogEvent("manzai API listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.LogEvent("%s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start).Round(time.Millisecond))
	}
}

// profile decodes, validates and defaults a character sent inline. An
// absent character falls back to the server's default profile.
func (s *Server) profile(raw json.RawMessage) (character.Profile, error) {
	if len(raw) == 0 || strings.TrimSpace(string(raw)) == "null" {
		if s.fallback == nil {
			return character.Profile{}, &character.ValidationError{Field: "character", Reason: "is required"}
		}
		return *s.fallback, nil
	}
	return character.Parse(raw, character.FormatJSON)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
