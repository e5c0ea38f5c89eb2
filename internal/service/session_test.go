package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSessionRegistryReusesAndSweeps(t *testing.T) {
	created := 0
	registry := NewSessionRegistry(func(id string) *Session {
		created++
		return &Session{
			Controller:  NewResultSetController(nil, nil, nil, ResultSetConfig{}),
			Suggestions: NewDebouncer(time.Millisecond),
		}
	}, nil)
	now := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	registry.now = func() time.Time { return now }

	a := registry.Get("a")
	assert.Same(t, a, registry.Get("a"))
	assert.Equal(t, "a", a.ID)
	assert.Equal(t, DefaultSessionID, registry.Get("  ").ID)
	assert.Equal(t, 2, created)

	now = now.Add(20 * time.Minute)
	registry.Get("a")

	now = now.Add(15 * time.Minute)
	assert.Equal(t, 1, registry.Sweep(30*time.Minute))
	assert.Equal(t, 1, registry.Len())
	assert.Zero(t, registry.Sweep(0))
}

func TestNewControllerDefaultsPageSize(t *testing.T) {
	c := NewResultSetController(nil, nil, nil, ResultSetConfig{DefaultPageSize: 7})
	assert.Equal(t, 100, c.View().PageSize)

	c = NewResultSetController(nil, nil, nil, ResultSetConfig{DefaultPageSize: 25})
	assert.Equal(t, 25, c.View().PageSize)

	c = NewResultSetController(nil, nil, nil, ResultSetConfig{DefaultPageSize: 7, PageSizeOptions: []int{5, 15}})
	assert.Equal(t, 5, c.View().PageSize)
}
