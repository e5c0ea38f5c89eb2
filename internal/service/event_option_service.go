package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/cve-dashboard/internal/dto"
	"github.com/noah-isme/cve-dashboard/internal/models"
	appErrors "github.com/noah-isme/cve-dashboard/pkg/errors"
)

type eventOptionGateway interface {
	ListEventOptions(ctx context.Context) ([]models.EventOption, error)
	CreateEventOption(ctx context.Context, name string) (*models.EventOption, error)
}

// EventOptionService lists and registers filterable event names.
type EventOptionService struct {
	gateway eventOptionGateway
	logger  *zap.Logger
}

// NewEventOptionService constructs the service.
func NewEventOptionService(gateway eventOptionGateway, logger *zap.Logger) *EventOptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventOptionService{gateway: gateway, logger: logger}
}

// List returns event names from the gateway, falling back to the built-in
// names when the gateway has none configured.
func (s *EventOptionService) List(ctx context.Context) (dto.EventOptionsResponse, error) {
	options, err := s.gateway.ListEventOptions(ctx)
	if err != nil {
		s.logger.Warn("list event options failed", zap.Error(err))
		return dto.EventOptionsResponse{}, err
	}
	names := make([]string, 0, len(options))
	seen := make(map[string]struct{}, len(options))
	for _, o := range options {
		name := strings.TrimSpace(o.EventName)
		key := strings.ToLower(name)
		if name == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}
	if len(names) == 0 {
		return dto.EventOptionsResponse{Options: append([]string(nil), models.DefaultEventNames...), Fallback: true}, nil
	}
	return dto.EventOptionsResponse{Options: names}, nil
}

// Create registers name after rejecting blanks and case-insensitive duplicates locally.
func (s *EventOptionService) Create(ctx context.Context, name string) (*models.EventOption, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.WithFields(appErrors.Clone(appErrors.ErrValidation, "event name is required"),
			map[string]string{"eventName": "Event name is required."})
	}

	current, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, existing := range current.Options {
		if strings.EqualFold(existing, name) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "Event option already exists")
		}
	}

	option, err := s.gateway.CreateEventOption(ctx, name)
	if err != nil {
		if appErrors.IsValidation(err) {
			return nil, appErrors.Clone(appErrors.ErrConflict, appErrors.FromError(err).Message)
		}
		s.logger.Warn("create event option failed", zap.String("event_name", name), zap.Error(err))
		return nil, err
	}
	s.logger.Info("event option created", zap.String("event_name", option.EventName))
	return option, nil
}
