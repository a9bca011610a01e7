package health

import "context"

// DBPinger checks catalog store availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// AIChecker checks AI provider availability.
type AIChecker interface {
	HealthCheck(ctx context.Context) error
}
