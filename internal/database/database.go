package database

import (
	"context"

	"FitAI_V1.0/internal/dietplan"
)

// Service is a plan store the server can health-check and close.
type Service interface {
	dietplan.PlanStore

	// Health returns a map of health status information.
	// The keys and values in the map are backend-specific.
	Health(ctx context.Context) map[string]string

	Close()
}
