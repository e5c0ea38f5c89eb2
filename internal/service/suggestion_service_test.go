package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/cve-dashboard/internal/models"
	appErrors "github.com/noah-isme/cve-dashboard/pkg/errors"
)

type fakeSearcher struct {
	calls   int32
	records []models.ChangeRecord
	err     error
	block   chan struct{}
}

func (f *fakeSearcher) SearchPage(ctx context.Context, query string, size, offset int) (*models.ResultPage, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return &models.ResultPage{Data: f.records, TotalResults: len(f.records)}, nil
}

func newSuggestSession(window time.Duration) *Session {
	return &Session{ID: "s1", Suggestions: NewDebouncer(window)}
}

func TestSuggestReturnsDistinctIDs(t *testing.T) {
	src := &fakeSearcher{records: []models.ChangeRecord{
		{CveID: "CVE-2024-0001"}, {CveID: "cve-2024-0001"}, {CveID: "CVE-2024-0002"}, {CveID: ""}, {CveID: "CVE-2024-0003"},
	}}
	svc := NewSuggestionService(src, 2, nil)

	resp, err := svc.Suggest(context.Background(), newSuggestSession(time.Millisecond), " CVE-2024 ")
	require.NoError(t, err)
	assert.Equal(t, "CVE-2024", resp.Query)
	assert.Equal(t, []string{"CVE-2024-0001", "CVE-2024-0002"}, resp.Suggestions)
}

func TestSuggestBlankQuerySkipsLookup(t *testing.T) {
	src := &fakeSearcher{}
	svc := NewSuggestionService(src, 10, nil)

	resp, err := svc.Suggest(context.Background(), newSuggestSession(time.Millisecond), "   ")
	require.NoError(t, err)
	assert.Empty(t, resp.Suggestions)
	assert.Zero(t, atomic.LoadInt32(&src.calls))
}

func TestSuggestSupersededDuringWindow(t *testing.T) {
	src := &fakeSearcher{records: []models.ChangeRecord{{CveID: "CVE-2024-1111"}}}
	svc := NewSuggestionService(src, 10, nil)
	session := newSuggestSession(100 * time.Millisecond)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, firstErr = svc.Suggest(context.Background(), session, "CVE")
	}()
	time.Sleep(20 * time.Millisecond)

	resp, err := svc.Suggest(context.Background(), session, "CVE-2024")
	require.NoError(t, err)
	wg.Wait()

	assert.ErrorIs(t, firstErr, appErrors.ErrSuperseded)
	assert.Equal(t, []string{"CVE-2024-1111"}, resp.Suggestions)
	assert.Equal(t, int32(1), atomic.LoadInt32(&src.calls))
}

func TestSuggestCancelsInFlightLookup(t *testing.T) {
	src := &fakeSearcher{block: make(chan struct{})}
	svc := NewSuggestionService(src, 10, nil)
	session := newSuggestSession(0)

	errCh := make(chan error, 1)
	go func() {
		_, err := svc.Suggest(context.Background(), session, "CVE")
		errCh <- err
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&src.calls) == 1 }, time.Second, 5*time.Millisecond)

	session.Suggestions.Cancel()
	assert.ErrorIs(t, <-errCh, appErrors.ErrSuperseded)
}

func TestSuggestPropagatesGatewayError(t *testing.T) {
	src := &fakeSearcher{err: appErrors.ErrGatewayUnavailable}
	svc := NewSuggestionService(src, 10, nil)

	_, err := svc.Suggest(context.Background(), newSuggestSession(0), "CVE")
	assert.ErrorIs(t, err, appErrors.ErrGatewayUnavailable)
}

func TestDebouncerCallerCancellation(t *testing.T) {
	d := NewDebouncer(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := d.Do(ctx, func(context.Context) error { return errors.New("must not run") })
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, appErrors.ErrSuperseded)
}
