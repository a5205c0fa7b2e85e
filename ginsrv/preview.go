package ginsrv

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/seb7887/gofw/backoff"
	"github.com/seb7887/gofw/backoff/config"
	"go.uber.org/zap"
)

// DefaultPreviewAttempts is the number of decisions simulated when a request sets none.
const DefaultPreviewAttempts = 10

// Decision is one entry of a simulated schedule.
type Decision struct {
	Attempt    int    `json:"attempt"`
	Abort      bool   `json:"abort"`
	IntervalMs int64  `json:"interval_ms"`
	Interval   string `json:"interval"`
}

// ScheduleResponse is the body of GET /v1/schedule.
type ScheduleResponse struct {
	Algorithm string     `json:"algorithm"`
	Decisions []Decision `json:"decisions"`
}

// Preview serves schedule simulations over HTTP.
type Preview struct {
	defaults    config.Backoff
	maxAttempts int
	logger      *zap.Logger
}

func NewPreview(svc config.Service, logger *zap.Logger) *Preview {
	svc.Defaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Preview{
		defaults:    svc.Backoff.Clone(),
		maxAttempts: svc.MaxPreviewAttempts,
		logger:      logger,
	}
}

// Routes returns the preview API. gatherer backs /metrics; nil skips the route.
func (p *Preview) Routes(gatherer prometheus.Gatherer) []Route {
	routes := []Route{
		{Method: http.MethodGet, Path: "/health", Handler: p.Health},
		{Method: http.MethodGet, Path: "/v1/schedule", Handler: p.Schedule},
	}
	if gatherer != nil {
		routes = append(routes, Route{
			Method:  http.MethodGet,
			Path:    "/metrics",
			Handler: gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})),
		})
	}
	return routes
}

func (p *Preview) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Schedule simulates a fresh session. Query parameters overlay the configured defaults;
// attempts sets the number of decisions and seed makes jittered schedules reproducible.
func (p *Preview) Schedule(c *gin.Context) {
	// Binding writes through pointer fields, so it must never see the shared defaults.
	params := p.defaults.Clone()
	if err := c.ShouldBindQuery(&params); err != nil {
		p.badRequest(c, err)
		return
	}

	attempts, err := p.attempts(c)
	if err != nil {
		p.badRequest(c, err)
		return
	}

	var rnd backoff.Rand
	if raw, ok := c.GetQuery("seed"); ok {
		seed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			p.badRequest(c, fmt.Errorf("seed: %w", err))
			return
		}
		rnd = rand.New(rand.NewPCG(seed, seed))
	}

	cfg, err := params.BuildWithRand(rnd)
	if err != nil {
		p.badRequest(c, err)
		return
	}

	results, err := backoff.Schedule(cfg, attempts)
	if err != nil {
		if errors.Is(err, backoff.ErrInvalidConfig) {
			p.badRequest(c, err)
			return
		}
		p.logger.Error("schedule simulation failed", zap.Error(err))
		_ = c.Error(err)
		c.Status(http.StatusInternalServerError)
		return
	}

	algorithm := params.Algorithm
	if algorithm == "" {
		algorithm = config.AlgorithmExponential
	}
	resp := ScheduleResponse{Algorithm: algorithm, Decisions: make([]Decision, 0, len(results))}
	for i, res := range results {
		resp.Decisions = append(resp.Decisions, Decision{
			Attempt:    i + 1,
			Abort:      res.Aborted(),
			IntervalMs: res.Interval().Milliseconds(),
			Interval:   res.String(),
		})
	}

	c.JSON(http.StatusOK, resp)
}

func (p *Preview) attempts(c *gin.Context) (int, error) {
	raw, ok := c.GetQuery("attempts")
	if !ok {
		return min(DefaultPreviewAttempts, p.maxAttempts), nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("attempts: %w", err)
	}
	if n < 1 || n > p.maxAttempts {
		return 0, fmt.Errorf("attempts must be between 1 and %d", p.maxAttempts)
	}
	return n, nil
}

func (p *Preview) badRequest(c *gin.Context, err error) {
	p.logger.Debug("rejected schedule preview", zap.Error(err))
	_ = c.Error(err)
	c.Status(http.StatusBadRequest)
}
