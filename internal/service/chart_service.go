package service

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/cve-dashboard/internal/dto"
	"github.com/noah-isme/cve-dashboard/internal/models"
	appErrors "github.com/noah-isme/cve-dashboard/pkg/errors"
)

type aggregateGateway interface {
	EventCounts(ctx context.Context) (*models.EventCounts, error)
	YearCounts(ctx context.Context) (*models.YearCounts, error)
	TopSources(ctx context.Context) (*models.TopSources, error)
	AnalysisStatus(ctx context.Context) (*models.AnalysisStatus, error)
	MonthlyTrends(ctx context.Context, year int) (*models.MonthlyTrends, error)
	Growth(ctx context.Context) (*models.Growth, error)
	DashboardSummary(ctx context.Context) (*models.DashboardSummary, error)
}

// ChartService fetches aggregates and reshapes them into chart datasets.
type ChartService struct {
	gateway aggregateGateway
	cache   *CacheService
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewChartService constructs a chart service. A nil cache disables caching.
func NewChartService(gateway aggregateGateway, cache *CacheService, ttl time.Duration, logger *zap.Logger) *ChartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChartService{gateway: gateway, cache: cache, ttl: ttl, logger: logger, now: time.Now}
}

// EventCounts returns the events-by-type pie.
func (s *ChartService) EventCounts(ctx context.Context) (*dto.ChartDataset, bool, error) {
	return s.dataset(ctx, "event-counts", func(ctx context.Context) (dto.ChartDataset, error) {
		in, err := s.gateway.EventCounts(ctx)
		if err != nil {
			return dto.ChartDataset{}, err
		}
		return EventCountsDataset(in), nil
	})
}

// YearCounts returns the per-year area chart.
func (s *ChartService) YearCounts(ctx context.Context) (*dto.ChartDataset, bool, error) {
	return s.dataset(ctx, "year-counts", func(ctx context.Context) (dto.ChartDataset, error) {
		in, err := s.gateway.YearCounts(ctx)
		if err != nil {
			return dto.ChartDataset{}, err
		}
		return YearCountsDataset(in), nil
	})
}

// TopSources returns the top sources bar chart.
func (s *ChartService) TopSources(ctx context.Context) (*dto.ChartDataset, bool, error) {
	return s.dataset(ctx, "top-sources", func(ctx context.Context) (dto.ChartDataset, error) {
		in, err := s.gateway.TopSources(ctx)
		if err != nil {
			return dto.ChartDataset{}, err
		}
		return TopSourcesDataset(in), nil
	})
}

// AnalysisStatus returns the analysis status bar chart.
func (s *ChartService) AnalysisStatus(ctx context.Context) (*dto.ChartDataset, bool, error) {
	return s.dataset(ctx, "analysis-status", func(ctx context.Context) (dto.ChartDataset, error) {
		in, err := s.gateway.AnalysisStatus(ctx)
		if err != nil {
			return dto.ChartDataset{}, err
		}
		return AnalysisStatusDataset(in), nil
	})
}

// MonthlyTrends returns per-month event series. Year zero means the gateway default.
func (s *ChartService) MonthlyTrends(ctx context.Context, year int) (*dto.ChartDataset, bool, error) {
	if year < 0 || (year > 0 && (year < 1999 || year > s.now().Year()+1)) {
		return nil, false, appErrors.WithFields(appErrors.Clone(appErrors.ErrValidation, "invalid year"),
			map[string]string{"year": "Year must be between 1999 and next year."})
	}
	name := "monthly-trends"
	if year > 0 {
		name += ":" + strconv.Itoa(year)
	}
	return s.dataset(ctx, name, func(ctx context.Context) (dto.ChartDataset, error) {
		in, err := s.gateway.MonthlyTrends(ctx, year)
		if err != nil {
			return dto.ChartDataset{}, err
		}
		return MonthlyTrendsDataset(in), nil
	})
}

// Growth returns the growth-over-time line chart.
func (s *ChartService) Growth(ctx context.Context) (*dto.ChartDataset, bool, error) {
	return s.dataset(ctx, "growth", func(ctx context.Context) (dto.ChartDataset, error) {
		in, err := s.gateway.Growth(ctx)
		if err != nil {
			return dto.ChartDataset{}, err
		}
		return GrowthDataset(in), nil
	})
}

// Summary returns the processed table and status bar chart.
func (s *ChartService) Summary(ctx context.Context) (*dto.SummaryCharts, bool, error) {
	var out dto.SummaryCharts
	hit, err := s.cache.Remember(ctx, CacheKey("charts", "summary"), s.ttl, &out, func(ctx context.Context) (interface{}, error) {
		in, err := s.gateway.DashboardSummary(ctx)
		if err != nil {
			return nil, err
		}
		return SummaryDatasets(in), nil
	})
	if err != nil {
		s.logger.Warn("chart aggregate failed", zap.String("chart", "summary"), zap.Error(err))
		return nil, false, err
	}
	return &out, hit, nil
}

func (s *ChartService) dataset(ctx context.Context, name string, load func(ctx context.Context) (dto.ChartDataset, error)) (*dto.ChartDataset, bool, error) {
	var out dto.ChartDataset
	hit, err := s.cache.Remember(ctx, CacheKey("charts", name), s.ttl, &out, func(ctx context.Context) (interface{}, error) {
		return load(ctx)
	})
	if err != nil {
		s.logger.Warn("chart aggregate failed", zap.String("chart", name), zap.Error(err))
		return nil, false, err
	}
	return &out, hit, nil
}
