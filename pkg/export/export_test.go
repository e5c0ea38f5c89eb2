package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDataset() Dataset {
	return Dataset{
		Headers: []string{"CVE ID", "Event"},
		Rows: []map[string]string{
			{"CVE ID": "CVE-2024-0001", "Event": "CVE Received"},
			{"CVE ID": "CVE-2024-0002", "Event": "Initial Analysis, rerun"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(sampleDataset(), "ignored")
	require.NoError(t, err)

	expected := "CVE ID,Event\nCVE-2024-0001,CVE Received\nCVE-2024-0002,\"Initial Analysis, rerun\"\n"
	assert.Equal(t, expected, string(out))
}

func TestExportersRejectEmptyHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{}, "")
	assert.ErrorIs(t, err, ErrNoHeaders)

	_, err = NewPDFExporter().Render(Dataset{}, "")
	assert.ErrorIs(t, err, ErrNoHeaders)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(sampleDataset(), "Change events")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "a b", truncate("a\nb", 10))
}
