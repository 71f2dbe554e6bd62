package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/anhnhh24/DriverLicenseTest/internal/response"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Pinger is a dependency that can report its health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// SystemHandler reports process health.
type SystemHandler struct {
	deps      map[string]Pinger
	startTime time.Time
	log       zerolog.Logger
}

// NewSystemHandler creates a new SystemHandler checking the named dependencies.
func NewSystemHandler(deps map[string]Pinger, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		deps:      deps,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

// Health godoc
// GET /health
// Pings every dependency concurrently; any failure answers 503.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	results := make(map[string]string, len(h.deps))
	errs := make(map[string]error, len(h.deps))
	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	out := make([]error, len(names))

	var g errgroup.Group
	for i, name := range names {
		g.Go(func() error {
			out[i] = h.deps[name].Ping(ctx)
			return nil
		})
	}
	_ = g.Wait()

	for i, name := range names {
		if out[i] != nil {
			results[name] = "down"
			errs[name] = out[i]
			continue
		}
		results[name] = "ok"
	}

	data := gin.H{
		"status":       "ok",
		"dependencies": results,
		"uptime":       time.Since(h.startTime).Round(time.Second).String(),
	}
	if len(errs) > 0 {
		for name, err := range errs {
			h.log.Warn().Err(err).Str("dependency", name).Msg("Health check failed")
		}
		data["status"] = "degraded"
		c.JSON(http.StatusServiceUnavailable, response.Response{
			Success: false,
			Data:    data,
			Message: "One or more dependencies are unavailable",
		})
		return
	}
	response.Success(c, http.StatusOK, data)
}
