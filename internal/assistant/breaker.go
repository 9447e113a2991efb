package assistant

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	domainerrors "github.com/shelfwise/shelfwise-server/internal/errors"
	"github.com/shelfwise/shelfwise-server/internal/metrics"
)

// BreakerConfig configures the circuit breaker around model calls.
type BreakerConfig struct {
	Name string
	// MaxRequests is the number of trial calls allowed while half-open.
	MaxRequests uint32
	// Interval resets the failure counts while closed.
	Interval time.Duration
	// Timeout is how long the breaker stays open.
	Timeout time.Duration
	// MinRequests and FailureRatio decide when to open.
	MinRequests  uint32
	FailureRatio float64
}

// DefaultBreakerConfig opens after 60% of at least 5 calls fail within a
// minute and retries after 30 seconds.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:         "gemini",
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      30 * time.Second,
		MinRequests:  5,
		FailureRatio: 0.6,
	}
}

// BreakerGenerator guards a Generator with a circuit breaker. While open,
// calls fail fast with errors.ErrUpstream.
type BreakerGenerator struct {
	next   Generator
	cb     *gobreaker.CircuitBreaker[ModelReply]
	name   string
	logger *slog.Logger
}

// NewBreakerGenerator wraps next.
func NewBreakerGenerator(next Generator, cfg BreakerConfig, logger *slog.Logger) *BreakerGenerator {
	if cfg.Name == "" {
		cfg.Name = "model"
	}
	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)

	cb := gobreaker.NewCircuitBreaker[ModelReply](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			if ratio >= cfg.FailureRatio {
				logger.Warn("opening circuit", "name", cfg.Name, "failures", counts.TotalFailures, "failure_rate", ratio)
				return true
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
		// Cancelled requests say nothing about the model's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	})

	return &BreakerGenerator{next: next, cb: cb, name: cfg.Name, logger: logger}
}

// Generate implements Generator.
func (b *BreakerGenerator) Generate(ctx context.Context, req GenerateRequest) (ModelReply, error) {
	reply, err := b.cb.Execute(func() (ModelReply, error) {
		return b.next.Generate(ctx, req)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			b.logger.Warn("model call rejected by circuit breaker", "name", b.name, "error", err)
			return nil, domainerrors.Upstream(err)
		}
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		return nil, err
	}
	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	return reply, nil
}

// State returns the current breaker state.
func (b *BreakerGenerator) State() gobreaker.State { return b.cb.State() }

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}
