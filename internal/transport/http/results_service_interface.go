package http

import (
	"context"

	"marksheet/internal/query"
	"marksheet/pkg/contracts/domain"
)

// ResultsServiceInterface defines the contract for results operations
type ResultsServiceInterface interface {
	Refresh(ctx context.Context, locator string) (int, error)
	Snapshot(ctx context.Context) domain.Snapshot
	Averages(ctx context.Context) (domain.Averages, error)
	Student(ctx context.Context, name string) (domain.StudentRecord, error)
	Top(ctx context.Context) (domain.StudentRecord, error)
	StudentSummary(ctx context.Context, name string) (domain.StudentRecord, domain.Averages, int, error)
	ExamSlots() []string
}

// QueryEngineInterface defines the contract for the lane-based query engine
type QueryEngineInterface interface {
	Submit(lane, text string) error
	State(lane string) (query.LaneState, error)
	Compare() (a, b *domain.StudentRecord, ok bool)
}
