package compile_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/perceptlab/facetrial/internal/compile"
	"github.com/perceptlab/facetrial/internal/manifest"
)

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func baseOptions(t *testing.T) compile.Options {
	t.Helper()
	dir := t.TempDir()
	return compile.Options{
		WesternCSV: writeCSV(t, dir, "western.csv",
			"image_path,top_race_4,top_gender,top_age\n"+
				"/data/faces/a.jpg,white,male,30\n"+
				"/data/faces/b.jpg,white,female,25\n"),
		ChineseCSV: writeCSV(t, dir, "chinese.csv",
			"image_path\n"+
				"/data/faces/c.jpg\n"+
				"/data/faces/d.jpg\n"),
		OutputPath:   filepath.Join(dir, "stimuli.json"),
		NPractice:    1,
		ImageBaseURL: "images/",
		Seed:         42,
	}
}

func TestRunCountsAndOrdering(t *testing.T) {
	opts := baseOptions(t)
	res, err := compile.Run(opts)
	require.NoError(t, err)

	require.Equal(t, 4, res.Total)
	require.Equal(t, 1, res.Practice)
	require.Equal(t, 3, res.Main)
	require.Equal(t, 2, res.Western)
	require.Equal(t, 2, res.Chinese)
	require.Zero(t, res.Skipped)

	stims, err := manifest.Load(opts.OutputPath)
	require.NoError(t, err)
	require.NoError(t, manifest.Validate(stims))
	require.Len(t, stims, 4)

	// Practice leads the manifest.
	require.Equal(t, manifest.TaskPractice, stims[0].Task)
	for _, st := range stims[1:] {
		require.Equal(t, manifest.TaskMain, st.Task)
	}

	// Paths are base URL + source + filename, metadata carried through.
	for _, st := range stims {
		require.Contains(t, st.Image, "images/"+string(st.Source)+"/")
	}
}

func TestRunIsDeterministicForFixedSeed(t *testing.T) {
	opts := baseOptions(t)
	_, err := compile.Run(opts)
	require.NoError(t, err)
	first, err := os.ReadFile(opts.OutputPath)
	require.NoError(t, err)

	_, err = compile.Run(opts)
	require.NoError(t, err)
	second, err := os.ReadFile(opts.OutputPath)
	require.NoError(t, err)

	require.Equal(t, first, second, "same inputs and seed must give byte-identical output")
}

func TestRunEvenPracticeSplit(t *testing.T) {
	opts := baseOptions(t)
	opts.NPractice = 2
	_, err := compile.Run(opts)
	require.NoError(t, err)

	stims, err := manifest.Load(opts.OutputPath)
	require.NoError(t, err)

	counts := map[manifest.Source]int{}
	for _, st := range stims {
		if st.Task == manifest.TaskPractice {
			counts[st.Source]++
		}
	}
	require.Equal(t, 1, counts[manifest.SourceWestern])
	require.Equal(t, 1, counts[manifest.SourceChinese])
}

func TestRunPracticeOverflowsIntoLargerPool(t *testing.T) {
	dir := t.TempDir()
	opts := compile.Options{
		WesternCSV: writeCSV(t, dir, "western.csv", "image_path\n/w/only.jpg\n"),
		ChineseCSV: writeCSV(t, dir, "chinese.csv",
			"image_path\n/c/1.jpg\n/c/2.jpg\n/c/3.jpg\n"),
		OutputPath: filepath.Join(dir, "stimuli.json"),
		NPractice:  4,
		Seed:       7,
	}
	_, err := compile.Run(opts)
	require.NoError(t, err)

	stims, err := manifest.Load(opts.OutputPath)
	require.NoError(t, err)
	practice, main := manifest.Counts(stims)
	require.Equal(t, 4, practice)
	require.Zero(t, main)
}

func TestRunConfigErrorWhenPracticeExceedsPool(t *testing.T) {
	opts := baseOptions(t)
	opts.NPractice = 5

	_, err := compile.Run(opts)
	require.Error(t, err)
	var cfgErr *compile.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	require.NoFileExists(t, opts.OutputPath, "no partial manifest may be written")
}

func TestRunSchemaErrorOnMissingColumn(t *testing.T) {
	opts := baseOptions(t)
	opts.ChineseCSV = writeCSV(t, t.TempDir(), "chinese.csv", "filename\nc.jpg\n")

	_, err := compile.Run(opts)
	require.Error(t, err)
	var schemaErr *compile.SchemaError
	require.ErrorAs(t, err, &schemaErr)
	require.Equal(t, "image_path", schemaErr.Column)
	require.NoFileExists(t, opts.OutputPath)
}

func TestRunValidationErrorOnEmptyPath(t *testing.T) {
	opts := baseOptions(t)
	// encoding/csv drops fully empty lines, so use an explicitly empty field.
	opts.WesternCSV = writeCSV(t, t.TempDir(), "western.csv",
		"image_path,top_gender\n/w/a.jpg,male\n,female\n")

	_, err := compile.Run(opts)
	require.Error(t, err)
	var valErr *compile.ValidationError
	require.ErrorAs(t, err, &valErr)
	require.Equal(t, 3, valErr.Line)
	require.NoFileExists(t, opts.OutputPath)
}

func TestRunSkipInvalidRows(t *testing.T) {
	opts := baseOptions(t)
	opts.SkipInvalid = true
	opts.WesternCSV = writeCSV(t, t.TempDir(), "western.csv",
		"image_path\n/w/a.jpg\n,\n/w/b.jpg\n")

	res, err := compile.Run(opts)
	require.NoError(t, err)
	require.Equal(t, 1, res.Skipped)
	require.Equal(t, 4, res.Total)
}

func TestRunDuplicateImageRejected(t *testing.T) {
	opts := baseOptions(t)
	opts.WesternCSV = writeCSV(t, t.TempDir(), "western.csv",
		"image_path\n/one/a.jpg\n/two/a.jpg\n")

	_, err := compile.Run(opts)
	require.Error(t, err)
	var valErr *compile.ValidationError
	require.ErrorAs(t, err, &valErr)
	require.Contains(t, valErr.Reason, "duplicate image")
}

func TestRunSamplePerSource(t *testing.T) {
	opts := baseOptions(t)
	opts.Sample = 1
	opts.NPractice = 0

	res, err := compile.Run(opts)
	require.NoError(t, err)
	require.Equal(t, 1, res.Western)
	require.Equal(t, 1, res.Chinese)
	require.Equal(t, 2, res.Total)
	require.Zero(t, res.Practice)
}

func TestRunNegativePracticeRejected(t *testing.T) {
	opts := baseOptions(t)
	opts.NPractice = -1

	_, err := compile.Run(opts)
	var cfgErr *compile.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}
