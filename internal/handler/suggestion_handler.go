package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cve-dashboard/internal/dto"
	"github.com/noah-isme/cve-dashboard/internal/service"
	appErrors "github.com/noah-isme/cve-dashboard/pkg/errors"
	"github.com/noah-isme/cve-dashboard/pkg/response"
)

type suggestionService interface {
	Suggest(ctx context.Context, session *service.Session, query string) (dto.SuggestionsResponse, error)
}

// SuggestionHandler serves debounced CVE id suggestions for the search box.
type SuggestionHandler struct {
	service suggestionService
}

// NewSuggestionHandler constructs the handler.
func NewSuggestionHandler(service suggestionService) *SuggestionHandler {
	return &SuggestionHandler{service: service}
}

// Suggest godoc
// @Summary Suggest CVE ids for a partial query
// @Description Responds after the debounce window; a newer call from the same session supersedes this one with 409.
// @Tags Suggestions
// @Produce json
// @Param q query string false "Partial query"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /suggestions [get]
func (h *SuggestionHandler) Suggest(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	session := sessionFromContext(c)
	if session == nil {
		return
	}
	result, err := h.service.Suggest(c.Request.Context(), session, c.Query("q"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
