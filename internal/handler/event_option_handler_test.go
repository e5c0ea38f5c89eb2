package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cve-dashboard/internal/dto"
	"github.com/noah-isme/cve-dashboard/internal/models"
	appErrors "github.com/noah-isme/cve-dashboard/pkg/errors"
)

type fakeEventOptionSrv struct {
	created string
	err     error
}

func (f *fakeEventOptionSrv) List(context.Context) (dto.EventOptionsResponse, error) {
	return dto.EventOptionsResponse{Options: []string{"CVE Received"}}, f.err
}

func (f *fakeEventOptionSrv) Create(_ context.Context, name string) (*models.EventOption, error) {
	f.created = name
	if f.err != nil {
		return nil, f.err
	}
	return &models.EventOption{ID: 3, EventName: name}, nil
}

func TestEventOptionHandlerList(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/event-options", "", nil)

	NewEventOptionHandler(&fakeEventOptionSrv{}).List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, []interface{}{"CVE Received"}, envelope.Data["options"])
}

func TestEventOptionHandlerCreate(t *testing.T) {
	srv := &fakeEventOptionSrv{}
	c, rec := newContext(http.MethodPost, "/event-options", `{"eventName":"Rejected"}`, nil)

	NewEventOptionHandler(srv).Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "Rejected", srv.created)
}

func TestEventOptionHandlerCreateConflict(t *testing.T) {
	srv := &fakeEventOptionSrv{err: appErrors.Clone(appErrors.ErrConflict, "Event option already exists")}
	c, rec := newContext(http.MethodPost, "/event-options", `{"eventName":"cve received"}`, nil)

	NewEventOptionHandler(srv).Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	envelope := decodeEnvelope(t, rec)
	assert.Equal(t, "Event option already exists", envelope.Error["message"])
}
