package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScenarios_Golden(t *testing.T) {
	files, err := filepath.Glob("testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, files, "no scenario fixtures found")

	for _, f := range files {
		t.Run(filepath.Base(f), func(t *testing.T) {
			RunWithGolden(t, f)
		})
	}
}
