package service

import (
	"context"

	"github.com/tejashwikalptaru/gostream/internal/domain"
	"github.com/tejashwikalptaru/gostream/internal/ports"
)

// StatsService reads listening history and derives statistics from it.
type StatsService struct {
	history ports.HistoryRepository
}

// NewStatsService creates a stats service over the persisted history.
func NewStatsService(history ports.HistoryRepository) *StatsService {
	return &StatsService{history: history}
}

// Recent returns the user's most-recent-first history.
func (s *StatsService) Recent(ctx context.Context, userID string) ([]domain.Track, error) {
	return s.history.LoadHistory(ctx, userID)
}

// Stats computes the user's listening statistics.
func (s *StatsService) Stats(ctx context.Context, userID string) (domain.ListeningStats, error) {
	counts, err := s.history.LoadPlayCounts(ctx, userID)
	if err != nil {
		return domain.ListeningStats{}, err
	}
	return domain.ComputeStats(counts), nil
}
