package ga

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisualizeTSPWritesSVGFile(t *testing.T) {
	route := testCities()
	path := filepath.Join(t.TempDir(), "route.svg")

	require.NoError(t, VisualizeTSP(route, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")
}

func TestVisualizeTSPRejectsEmptyRoute(t *testing.T) {
	err := VisualizeTSP(nil, filepath.Join(t.TempDir(), "route.svg"))
	assert.Error(t, err)
}
