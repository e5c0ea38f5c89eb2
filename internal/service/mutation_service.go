package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/cve-dashboard/internal/dto"
	"github.com/noah-isme/cve-dashboard/internal/models"
	appErrors "github.com/noah-isme/cve-dashboard/pkg/errors"
)

var looseEmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type recordGateway interface {
	GetRecord(ctx context.Context, id int64) (*models.ChangeRecord, error)
	CreateRecord(ctx context.Context, payload models.ChangeRecordPayload) (*models.ChangeRecord, error)
	UpdateRecord(ctx context.Context, id int64, payload models.ChangeRecordUpdate) (*models.ChangeRecord, error)
	DeleteRecord(ctx context.Context, id int64) error
}

// ViewRefresher re-fetches the current page after a successful mutation.
type ViewRefresher interface {
	Refresh(ctx context.Context) (dto.ResultView, error)
}

// MutationResult is a mutated record together with the refreshed view.
type MutationResult struct {
	Record *models.ChangeRecord `json:"record,omitempty"`
	View   dto.ResultView       `json:"view"`
}

// MutationService validates create/edit/delete forms before any gateway call
// and refreshes the caller's view afterwards.
type MutationService struct {
	gateway   recordGateway
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMutationService constructs the service.
func NewMutationService(gateway recordGateway, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *MutationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &MutationService{gateway: gateway, cache: cache, validator: validate, logger: logger}
	svc.validator.RegisterTagNameFunc(jsonFieldName)
	svc.validator.RegisterValidation("looseemail", func(fl validator.FieldLevel) bool {
		return looseEmailPattern.MatchString(strings.TrimSpace(fl.Field().String()))
	})
	svc.validator.RegisterValidation("created", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseCreated(fl.Field().String())
		return ok
	})
	return svc
}

// Get fetches a single record.
func (s *MutationService) Get(ctx context.Context, id int64) (*models.ChangeRecord, error) {
	if id <= 0 {
		return nil, invalidID()
	}
	record, err := s.gateway.GetRecord(ctx, id)
	if err != nil {
		s.logger.Warn("get record failed", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return record, nil
}

// Create validates the form, submits it and refreshes the view.
func (s *MutationService) Create(ctx context.Context, req dto.CreateChangeRecordRequest, view ViewRefresher) (*MutationResult, error) {
	fields := s.validate(req)
	details, detailErr := parseDetails(req.Details, true)
	if detailErr != "" {
		fields = addField(fields, "details", detailErr)
	}
	if fields != nil {
		return nil, appErrors.WithFields(appErrors.Clone(appErrors.ErrValidation, "invalid change record"), fields)
	}

	payload := models.ChangeRecordPayload{
		CveID:            strings.TrimSpace(req.CveID),
		EventName:        strings.TrimSpace(req.EventName),
		CveChangeID:      strings.TrimSpace(req.CveChangeID),
		SourceIdentifier: strings.TrimSpace(req.SourceIdentifier),
		Created:          strings.TrimSpace(req.Created),
		Details:          details,
	}
	record, err := s.gateway.CreateRecord(ctx, payload)
	if err != nil {
		s.logger.Warn("create record failed", zap.String("cve_id", payload.CveID), zap.Error(err))
		return nil, err
	}
	s.logger.Info("change record created", zap.Int64("id", record.ID), zap.String("cve_id", record.CveID))
	return s.afterMutation(ctx, record, view), nil
}

// Update validates the edit form and replaces the record's editable fields.
func (s *MutationService) Update(ctx context.Context, id int64, req dto.UpdateChangeRecordRequest, view ViewRefresher) (*MutationResult, error) {
	if id <= 0 {
		return nil, invalidID()
	}
	fields := s.validate(req)
	details, detailErr := parseDetails(req.Details, false)
	if detailErr != "" {
		fields = addField(fields, "details", detailErr)
	}
	if fields != nil {
		return nil, appErrors.WithFields(appErrors.Clone(appErrors.ErrValidation, "invalid change record"), fields)
	}

	payload := models.ChangeRecordUpdate{
		CveID:            strings.TrimSpace(req.CveID),
		EventName:        strings.TrimSpace(req.EventName),
		CveChangeID:      strings.TrimSpace(req.CveChangeID),
		SourceIdentifier: strings.TrimSpace(req.SourceIdentifier),
		Created:          strings.TrimSpace(req.Created),
	}
	if details != nil {
		payload.Details = &details
	}
	record, err := s.gateway.UpdateRecord(ctx, id, payload)
	if err != nil {
		s.logger.Warn("update record failed", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	if record.ID == 0 {
		record.ID = id
	}
	return s.afterMutation(ctx, record, view), nil
}

// Delete removes a record and refreshes the view.
func (s *MutationService) Delete(ctx context.Context, id int64, view ViewRefresher) (*MutationResult, error) {
	if id <= 0 {
		return nil, invalidID()
	}
	if err := s.gateway.DeleteRecord(ctx, id); err != nil {
		s.logger.Warn("delete record failed", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	s.logger.Info("change record deleted", zap.Int64("id", id))
	return s.afterMutation(ctx, nil, view), nil
}

func (s *MutationService) afterMutation(ctx context.Context, record *models.ChangeRecord, view ViewRefresher) *MutationResult {
	_ = s.cache.Invalidate(ctx, CacheKey("charts", "*"))
	result := &MutationResult{Record: record}
	if view == nil {
		return result
	}
	refreshed, err := view.Refresh(ctx)
	if err != nil {
		s.logger.Warn("refresh after mutation failed", zap.Error(err))
	}
	result.View = refreshed
	return result
}

func (s *MutationService) validate(req interface{}) map[string]string {
	err := s.validator.Struct(req)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fieldMessage(fe)
	}
	return fields
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "looseemail":
		return "Enter a valid email address."
	case "created":
		return "Enter a valid date or timestamp."
	default:
		return "Invalid value."
	}
}

// parseDetails accepts a JSON array of objects, or a JSON string containing one.
// Objects are passed through untouched. An absent optional value yields nil.
func parseDetails(raw json.RawMessage, required bool) ([]models.ChangeDetail, string) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err != nil {
			return nil, "Details must be valid JSON."
		}
		trimmed = bytes.TrimSpace([]byte(text))
	}
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		if required {
			return nil, "This field is required."
		}
		return nil, ""
	}
	if !json.Valid(trimmed) {
		return nil, "Details must be valid JSON."
	}
	if trimmed[0] != '[' {
		return nil, "Details must be a JSON array."
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, "Details must be an array of objects."
	}
	details := make([]models.ChangeDetail, 0, len(items))
	for _, item := range items {
		var detail models.ChangeDetail
		item = bytes.TrimSpace(item)
		if len(item) == 0 || item[0] != '{' || json.Unmarshal(item, &detail) != nil {
			return nil, "Details must be an array of objects."
		}
		details = append(details, detail)
	}
	return details, ""
}

func addField(fields map[string]string, key, msg string) map[string]string {
	if fields == nil {
		fields = map[string]string{}
	}
	if _, exists := fields[key]; !exists {
		fields[key] = msg
	}
	return fields
}

func invalidID() error {
	return appErrors.WithFields(appErrors.Clone(appErrors.ErrValidation, "invalid record id"),
		map[string]string{"id": "Record id must be a positive integer."})
}

func jsonFieldName(field reflect.StructField) string {
	name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return field.Name
	}
	return name
}
