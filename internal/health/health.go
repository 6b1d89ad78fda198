package health

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Checker defines the interface for health checking components
type Checker interface {
	HealthCheck(ctx context.Context) error
	IsCritical() bool // Critical services block startup if unhealthy
	Name() string
}

// Manager runs a set of registered checkers
type Manager struct {
	checkers []Checker
	logger   *zap.Logger
	mu       sync.RWMutex
}

// NewManager creates a new health manager
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		checkers: make([]Checker, 0),
		logger:   logger,
	}
}

// AddChecker adds a health checker to the manager
func (h *Manager) AddChecker(checker Checker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checkers = append(h.checkers, checker)
}

// StartupHealthCheck performs critical health checks that must pass for startup
func (h *Manager) StartupHealthCheck(ctx context.Context) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var criticalFailures []error

	for _, checker := range h.checkers {
		err := checker.HealthCheck(ctx)
		switch {
		case err == nil:
			h.logger.Info("Service health check passed",
				zap.String("service", checker.Name()),
				zap.Bool("critical", checker.IsCritical()))
		case checker.IsCritical():
			criticalFailures = append(criticalFailures, fmt.Errorf("%s: %w", checker.Name(), err))
			h.logger.Error("Critical service health check failed",
				zap.String("service", checker.Name()),
				zap.Error(err))
		default:
			h.logger.Warn("Non-critical service health check failed",
				zap.String("service", checker.Name()),
				zap.Error(err))
		}
	}

	if len(criticalFailures) > 0 {
		return fmt.Errorf("critical services failed health check: %v", criticalFailures)
	}

	h.logger.Info("All critical services healthy", zap.Int("total_checks", len(h.checkers)))
	return nil
}

// Report is the per-service outcome of a runtime check
type Report struct {
	Healthy  bool              `json:"-"`
	Services map[string]string `json:"services"`
}

// RuntimeHealthCheck runs every checker. The report is unhealthy only when a critical checker fails.
func (h *Manager) RuntimeHealthCheck(ctx context.Context) Report {
	h.mu.RLock()
	defer h.mu.RUnlock()

	report := Report{Healthy: true, Services: make(map[string]string, len(h.checkers))}
	for _, checker := range h.checkers {
		if err := checker.HealthCheck(ctx); err != nil {
			report.Services[checker.Name()] = "unhealthy"
			if checker.IsCritical() {
				report.Healthy = false
			}
			h.logger.Warn("Runtime health check failed",
				zap.String("service", checker.Name()),
				zap.Error(err))
			continue
		}
		report.Services[checker.Name()] = "healthy"
	}
	return report
}

// FuncChecker adapts a probe function into a Checker
type FuncChecker struct {
	name     string
	critical bool
	probe    func(ctx context.Context) error
}

// NewFuncChecker creates a checker named name that calls probe
func NewFuncChecker(name string, critical bool, probe func(ctx context.Context) error) *FuncChecker {
	return &FuncChecker{name: name, critical: critical, probe: probe}
}

func (f *FuncChecker) HealthCheck(ctx context.Context) error {
	if f.probe == nil {
		return fmt.Errorf("%s has no probe configured", f.name)
	}
	return f.probe(ctx)
}

func (f *FuncChecker) IsCritical() bool {
	return f.critical
}

func (f *FuncChecker) Name() string {
	return f.name
}
