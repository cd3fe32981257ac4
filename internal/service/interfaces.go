package service

import (
	"context"

	"github.com/cypherlabdev/arb-detection-service/internal/cache"
	"github.com/cypherlabdev/arb-detection-service/internal/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mocks/service_mocks.go -package=mocks

// OddsCollector gathers one discrete snapshot of outcome records per cycle
// together with per-source record counts
type OddsCollector interface {
	Collect(ctx context.Context) ([]models.OutcomeRecord, map[string]int, error)
}

// DetectionEngine runs arbitrage detection over a snapshot and applies caller
// filters to already computed results
type DetectionEngine interface {
	DetectCycle(records []models.OutcomeRecord, allowed map[string]struct{}) ([]models.ArbitrageOpportunity, models.DetectionSummary)
	FilterOpportunities(opps []models.ArbitrageOpportunity, filters *models.Filters) []models.ArbitrageOpportunity
}

// SnapshotStore publishes the latest computed snapshot for sibling services
type SnapshotStore interface {
	PublishSnapshot(ctx context.Context, snap cache.Snapshot) error
	Ping(ctx context.Context) error
	Close() error
}
