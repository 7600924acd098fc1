package manifest_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/perceptlab/facetrial/internal/manifest"
)

func sample() []manifest.Stimulus {
	return []manifest.Stimulus{
		{Image: "images/western/a.jpg", Source: manifest.SourceWestern, Task: manifest.TaskPractice},
		{Image: "images/chinese/b.jpg", Source: manifest.SourceChinese, Task: manifest.TaskMain, Race: "asian"},
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func([]manifest.Stimulus) []manifest.Stimulus
		wantErr string
	}{
		{
			name:   "valid",
			mutate: func(s []manifest.Stimulus) []manifest.Stimulus { return s },
		},
		{
			name:    "empty manifest",
			mutate:  func(s []manifest.Stimulus) []manifest.Stimulus { return nil },
			wantErr: "no stimuli",
		},
		{
			name: "empty image path",
			mutate: func(s []manifest.Stimulus) []manifest.Stimulus {
				s[1].Image = ""
				return s
			},
			wantErr: "empty image path",
		},
		{
			name: "duplicate image path",
			mutate: func(s []manifest.Stimulus) []manifest.Stimulus {
				s[1].Image = s[0].Image
				return s
			},
			wantErr: "duplicate image path",
		},
		{
			name: "unknown source",
			mutate: func(s []manifest.Stimulus) []manifest.Stimulus {
				s[0].Source = "martian"
				return s
			},
			wantErr: `unknown source "martian"`,
		},
		{
			name: "unknown task",
			mutate: func(s []manifest.Stimulus) []manifest.Stimulus {
				s[0].Task = "warmup"
				return s
			},
			wantErr: `unknown task "warmup"`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := manifest.Validate(tc.mutate(sample()))
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestCounts(t *testing.T) {
	practice, main := manifest.Counts(sample())
	require.Equal(t, 1, practice)
	require.Equal(t, 1, main)
}

func TestWriteLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stimuli.json")
	want := sample()

	require.NoError(t, manifest.Write(path, want))
	got, err := manifest.Load(path)
	require.NoError(t, err)
	require.Equal(t, want, got)

	// Writing the same records again must produce identical bytes.
	first, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, manifest.Write(path, want))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestWriteLeavesNoTempFileBehind(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, manifest.Write(filepath.Join(dir, "stimuli.json"), sample()))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "stimuli.json", entries[0].Name())
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stimuli.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	_, err := manifest.Load(path)
	require.Error(t, err)
	require.ErrorContains(t, err, "parse manifest")
}
