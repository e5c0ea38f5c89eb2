package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/cve-dashboard/internal/dto"
	"github.com/noah-isme/cve-dashboard/internal/middleware"
	"github.com/noah-isme/cve-dashboard/internal/service"
	appErrors "github.com/noah-isme/cve-dashboard/pkg/errors"
	"github.com/noah-isme/cve-dashboard/pkg/response"
)

func sessionFromContext(c *gin.Context) *service.Session {
	session := middleware.CurrentSession(c)
	if session == nil || session.Controller == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "session not resolved"))
		return nil
	}
	return session
}

func recordIDParam(c *gin.Context) (int64, bool) {
	raw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.WithFields(appErrors.Clone(appErrors.ErrValidation, "invalid record id"),
			map[string]string{"id": "ID must be a positive integer."}))
		return 0, false
	}
	return id, true
}

func writeView(c *gin.Context, status int, view dto.ResultView) {
	response.JSON(c, status, view, view.Pagination(), middleware.ExtractMeta(c))
}

// queryList accepts both repeated parameters and comma separated values.
func queryList(c *gin.Context, key string) []string {
	var out []string
	for _, raw := range c.QueryArray(key) {
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func invalidPayload(c *gin.Context, what string) {
	response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid "+what+" payload"))
}

