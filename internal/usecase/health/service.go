package health

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates search still works but AI expansion does not.
	Degraded Status = "degraded"
	// Unhealthy indicates the catalog store is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names reported in Report.Checks.
const (
	ComponentDatabase = "database"
	ComponentAI       = "ai"
)

// DefaultTimeout bounds each component check.
const DefaultTimeout = 3 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	db      DBPinger
	ai      AIChecker
	timeout time.Duration
}

// New creates a Service. ai can be nil.
func New(db DBPinger, ai AIChecker) *Service {
	return &Service{db: db, ai: ai, timeout: DefaultTimeout}
}

// Check runs the component checks concurrently.
func (s *Service) Check(ctx context.Context) Report {
	var dbResult, aiResult CheckResult

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		dbResult = s.runCheck(gctx, s.db.Ping)
		return nil
	})
	if s.ai != nil {
		g.Go(func() error {
			aiResult = s.runCheck(gctx, s.ai.HealthCheck)
			return nil
		})
	}
	_ = g.Wait()

	checks := map[string]CheckResult{ComponentDatabase: dbResult}
	if s.ai != nil {
		checks[ComponentAI] = aiResult
	}

	status := Healthy
	switch {
	case dbResult == CheckError:
		status = Unhealthy
	case aiResult == CheckError:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}

func (s *Service) runCheck(ctx context.Context, fn func(context.Context) error) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		return CheckError
	}
	return CheckOK
}
