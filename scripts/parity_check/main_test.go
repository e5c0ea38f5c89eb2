package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	var doc interface{}
	require.NoError(t, json.Unmarshal([]byte(`{"data":{"totalResults":25,"rows":[{"cveId":"CVE-1"},{"cveId":"CVE-2"}]}}`), &doc))

	v, err := lookup(doc, "data.totalResults")
	require.NoError(t, err)
	assert.Equal(t, int64(25), v)

	v, err = lookup(doc, "data.rows.#")
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	v, err = lookup(doc, "data.rows.1.cveId")
	require.NoError(t, err)
	assert.Equal(t, "CVE-2", v)

	_, err = lookup(doc, "data.missing")
	assert.Error(t, err)
	_, err = lookup(doc, "data.rows.5")
	assert.Error(t, err)
}

func TestCompareTarget(t *testing.T) {
	var sessionHeader, method string
	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessionHeader = r.Header.Get("X-Session-ID")
		method = r.Method
		_, _ = w.Write([]byte(`{"data":{"totalResults":42}}`))
	}))
	defer backend.Close()
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"totalResults":42}`))
	}))
	defer gateway.Close()

	comp := compareTarget(backend.Client(), backend.URL, gateway.URL, "s-1", target{
		Name:          "total",
		BackendMethod: "post",
		BackendPath:   "/view/refresh",
		BackendField:  "data.totalResults",
		GatewayPath:   "/cvechanges/paginated/",
		GatewayField:  "totalResults",
	})

	require.NoError(t, comp.Error)
	assert.True(t, comp.Match)
	assert.Equal(t, "s-1", sessionHeader)
	assert.Equal(t, http.MethodPost, method)
}
