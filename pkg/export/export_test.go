package export

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"학생", "학년"},
		Rows: []map[string]string{
			{"학생": "홍길동", "학년": "중2"},
			{"학생": "김, 철수"},
		},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, utf8BOM))
	assert.Equal(t, "학생,학년\n홍길동,중2\n\"김, 철수\",\n", string(out[len(utf8BOM):]))
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterWithoutFont(t *testing.T) {
	exporter := NewPDFExporter("")
	assert.False(t, exporter.Available())
	_, err := exporter.Render(Dataset{Headers: []string{"a"}}, "title")
	assert.ErrorIs(t, err, ErrFontNotConfigured)
}

func TestColumnWidths(t *testing.T) {
	cols := columnWidths(100, 3, []float64{2, 0})
	require.Len(t, cols, 3)
	assert.InDelta(t, 50, cols[0], 0.001)
	assert.InDelta(t, 25, cols[1], 0.001)
	assert.InDelta(t, 25, cols[2], 0.001)
}
