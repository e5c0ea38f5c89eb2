package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/cve-dashboard/internal/dto"
	"github.com/noah-isme/cve-dashboard/internal/models"
	appErrors "github.com/noah-isme/cve-dashboard/pkg/errors"
)

type suggestionSearcher interface {
	SearchPage(ctx context.Context, query string, pageSize, offset int) (*models.ResultPage, error)
}

// SuggestionService returns debounced identifier suggestions for the search box.
type SuggestionService struct {
	source suggestionSearcher
	limit  int
	logger *zap.Logger
}

// NewSuggestionService constructs a suggestion service.
func NewSuggestionService(source suggestionSearcher, limit int, logger *zap.Logger) *SuggestionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if limit <= 0 {
		limit = 10
	}
	return &SuggestionService{source: source, limit: limit, logger: logger}
}

// Suggest waits for the session's debounce window and returns distinct CVE ids
// from the first search page. A blank query cancels pending lookups.
func (s *SuggestionService) Suggest(ctx context.Context, session *Session, query string) (dto.SuggestionsResponse, error) {
	query = strings.TrimSpace(query)
	resp := dto.SuggestionsResponse{Query: query, Suggestions: []string{}}
	if session == nil || session.Suggestions == nil {
		return resp, appErrors.Clone(appErrors.ErrInternal, "session not initialised")
	}
	if query == "" {
		session.Suggestions.Cancel()
		return resp, nil
	}

	err := session.Suggestions.Do(ctx, func(ctx context.Context) error {
		page, err := s.source.SearchPage(ctx, query, s.limit, 0)
		if err != nil {
			return err
		}
		resp.Suggestions = distinctCveIDs(page.Data, s.limit)
		return nil
	})
	if err != nil {
		if !errors.Is(err, appErrors.ErrSuperseded) && !errors.Is(err, context.Canceled) {
			s.logger.Warn("suggestion lookup failed", zap.String("session_id", session.ID), zap.Error(err))
		}
		return dto.SuggestionsResponse{Query: query, Suggestions: []string{}}, err
	}
	return resp, nil
}

func distinctCveIDs(records []models.ChangeRecord, limit int) []string {
	seen := make(map[string]struct{}, len(records))
	out := make([]string, 0, limit)
	for _, r := range records {
		id := strings.TrimSpace(r.CveID)
		if id == "" {
			continue
		}
		key := strings.ToUpper(id)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, id)
		if len(out) == limit {
			break
		}
	}
	return out
}
