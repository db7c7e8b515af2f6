package http

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/custodia-labs/ragdesk/internal/core/ports/driving"
	"github.com/custodia-labs/ragdesk/internal/logger"
)

// ErrMissingPipeline is returned when the pipeline service is not provided.
var ErrMissingPipeline = errors.New("http: pipeline service is required")

// Ports aggregates the driving ports the API serves.
type Ports struct {
	Pipeline driving.PipelineService

	// Sessions enables the /sessions routes. Optional.
	Sessions driving.SessionService

	// Compare enables POST /compare. Optional.
	Compare driving.CompareService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Pipeline == nil {
		return ErrMissingPipeline
	}
	return nil
}

var registerValidators sync.Once

// NewRouter builds the gin engine with all routes.
func NewRouter(ports *Ports) (*gin.Engine, error) {
	if err := ports.Validate(); err != nil {
		return nil, err
	}

	var regErr error
	registerValidators.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			regErr = v.RegisterValidation("notblank", validators.NotBlank)
		}
	})
	if regErr != nil {
		return nil, fmt.Errorf("register validators: %w", regErr)
	}

	router := gin.New()
	router.Use(requestLogger(), gin.Recovery())
	router.MaxMultipartMemory = maxUploadSize

	h := &handler{ports: ports}

	v1 := router.Group("/api/v1")
	v1.GET("/status", h.status)
	v1.POST("/ingest", h.ingest)
	v1.POST("/retrieve", h.retrieve)

	if ports.Sessions != nil {
		sessions := v1.Group("/sessions")
		sessions.POST("", h.createSession)
		sessions.GET("/:id", h.getSession)
		sessions.DELETE("/:id", h.deleteSession)
		sessions.POST("/:id/ask", h.ask)
	}
	if ports.Compare != nil {
		v1.POST("/compare", h.compare)
	}

	return router, nil
}

// requestLogger logs each request through the verbose logger.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http: %s %s -> %d (%s)", c.Request.Method, c.Request.URL.Path,
			c.Writer.Status(), time.Since(start).Round(time.Millisecond))
		for _, e := range c.Errors {
			logger.Warn("http: %s %s: %v", c.Request.Method, c.Request.URL.Path, e.Err)
		}
	}
}

// Serve runs the API on addr until the context is cancelled.
func Serve(ctx context.Context, addr string, router nethttp.Handler) error {
	srv := &nethttp.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http: shutdown: %v", err)
		}
	}()

	err := srv.ListenAndServe()
	if errors.Is(err, nethttp.ErrServerClosed) {
		return nil
	}
	return err
}
