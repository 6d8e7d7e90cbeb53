package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"marksheet/internal/config"
	"marksheet/internal/feed"
	"marksheet/internal/infrastructure"
	"marksheet/internal/results"
	"marksheet/internal/store"
	"marksheet/pkg/contracts/domain"
)

// ResultsService is the refresh controller and the read surface over the
// dataset store. It is the only mutator of the store's content: every
// refresh runs begin-load, fetch, parse, normalize, rank, publish as one
// sequence, and any failure along the way resets the store to the unloaded
// state instead of leaving stale data behind.
type ResultsService struct {
	cfg        *config.Config
	store      *store.Store
	client     *feed.Client
	normalizer *results.Normalizer
	logger     *slog.Logger
	metrics    *infrastructure.Metrics

	// group collapses overlapping refreshes of the same locator into one
	// fetch-parse-publish cycle; the store's load token handles the rest.
	group singleflight.Group
}

// NewResultsService creates the service with its collaborators.
func NewResultsService(cfg *config.Config, st *store.Store, client *feed.Client, logger *slog.Logger, metrics *infrastructure.Metrics) *ResultsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultsService{
		cfg:        cfg,
		store:      st,
		client:     client,
		normalizer: results.NewNormalizer(cfg.Feed.ExamSlots),
		logger:     logger.With(slog.String("component", "results_service")),
		metrics:    metrics,
	}
}

// Refresh pulls the feed at the given locator (the configured one when
// empty) and replaces the dataset. Returns the published record count.
func (s *ResultsService) Refresh(ctx context.Context, locator string) (int, error) {
	if locator == "" {
		locator = s.cfg.Feed.Locator
	}
	if strings.TrimSpace(locator) == "" {
		s.countRefresh("missing_locator")
		return 0, feed.ErrMissingLocator
	}

	v, err, shared := s.group.Do(locator, func() (interface{}, error) {
		return s.refresh(ctx, locator)
	})
	if shared {
		s.logger.InfoContext(ctx, "refresh coalesced with in-flight invocation",
			slog.String("locator", locator))
	}
	if err != nil {
		return 0, err
	}
	return v.(int), nil
}

// refresh is one full load cycle. No partial application: the store either
// ends up with the complete new snapshot or in the unloaded state.
func (s *ResultsService) refresh(ctx context.Context, locator string) (int, error) {
	start := time.Now()
	token := s.store.BeginLoad()

	body, err := s.client.Fetch(ctx, locator)
	if err != nil {
		s.store.FailLoad(token, err)
		s.countRefresh(refreshOutcome(err))
		return 0, err
	}

	table, err := feed.Parse(body)
	if err != nil {
		s.store.FailLoad(token, err)
		s.countRefresh(refreshOutcome(err))
		return 0, fmt.Errorf("parsing feed: %w", err)
	}

	records := s.normalizer.Normalize(table)
	ranked, averages := results.Rank(records, s.normalizer.Slots())

	if !s.store.Publish(token, ranked, averages) {
		// A newer load superseded this one while it was in flight.
		s.countRefresh("superseded")
		return len(ranked), nil
	}

	if s.metrics != nil {
		s.metrics.DatasetSize.Set(float64(len(ranked)))
		s.metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	}
	s.countRefresh("success")

	s.logger.InfoContext(ctx, "dataset refreshed",
		slog.String("locator", locator),
		slog.Int("records", len(ranked)),
		slog.Duration("duration", time.Since(start)))

	return len(ranked), nil
}

// Snapshot returns the current dataset view.
func (s *ResultsService) Snapshot(ctx context.Context) domain.Snapshot {
	return s.store.Snapshot()
}

// Averages returns the current per-exam class averages.
func (s *ResultsService) Averages(ctx context.Context) (domain.Averages, error) {
	snap := s.store.Snapshot()
	if !snap.Loaded {
		return nil, ErrDatasetNotLoaded
	}
	return snap.Averages, nil
}

// Student resolves an exact case-insensitive name match.
func (s *ResultsService) Student(ctx context.Context, name string) (domain.StudentRecord, error) {
	snap := s.store.Snapshot()
	if !snap.Loaded {
		return domain.StudentRecord{}, ErrDatasetNotLoaded
	}
	for _, rec := range snap.Records {
		if strings.EqualFold(rec.Name, name) {
			return rec, nil
		}
	}
	return domain.StudentRecord{}, ErrStudentNotFound
}

// Top returns the rank-1 record.
func (s *ResultsService) Top(ctx context.Context) (domain.StudentRecord, error) {
	snap := s.store.Snapshot()
	if !snap.Loaded {
		return domain.StudentRecord{}, ErrDatasetNotLoaded
	}
	if len(snap.Records) == 0 {
		return domain.StudentRecord{}, ErrNoStudents
	}
	return snap.Records[0], nil
}

// StudentSummary returns the data the summary exporter needs: the resolved
// record together with the averages from the same snapshot.
func (s *ResultsService) StudentSummary(ctx context.Context, name string) (domain.StudentRecord, domain.Averages, int, error) {
	snap := s.store.Snapshot()
	if !snap.Loaded {
		return domain.StudentRecord{}, nil, 0, ErrDatasetNotLoaded
	}
	for _, rec := range snap.Records {
		if strings.EqualFold(rec.Name, name) {
			return rec, snap.Averages, len(snap.Records), nil
		}
	}
	return domain.StudentRecord{}, nil, 0, ErrStudentNotFound
}

// ExamSlots returns the canonical exam slot order.
func (s *ResultsService) ExamSlots() []string {
	return s.normalizer.Slots()
}

func (s *ResultsService) countRefresh(outcome string) {
	if s.metrics != nil {
		s.metrics.RefreshesTotal.WithLabelValues(outcome).Inc()
	}
}

// refreshOutcome maps a refresh error to its metrics label.
func refreshOutcome(err error) string {
	var transportErr *feed.TransportError
	var formatErr *feed.FormatError
	switch {
	case errors.Is(err, feed.ErrMissingLocator):
		return "missing_locator"
	case errors.As(err, &transportErr):
		return "transport_error"
	case errors.As(err, &formatErr):
		return "format_error"
	default:
		return "error"
	}
}
