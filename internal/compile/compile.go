// Package compile turns the two source image lists into the stimulus
// manifest consumed by the trial runner. Conversion is deterministic for a
// fixed seed, and either succeeds completely or writes nothing.
package compile

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path"
	"strings"

	"github.com/perceptlab/facetrial/internal/manifest"
)

const imagePathColumn = "image_path"

// Options control a single conversion run.
type Options struct {
	WesternCSV string
	ChineseCSV string
	OutputPath string

	// NPractice is the total number of practice trials across both sources,
	// split as evenly as the pools allow.
	NPractice int

	// Sample, when positive, randomly keeps only this many rows per source.
	// Used for small test deployments.
	Sample int

	// ImageBaseURL is prepended to every image path, followed by the source
	// name and the bare filename.
	ImageBaseURL string

	// Seed drives practice selection and sampling. Equal inputs and an equal
	// seed always produce a byte-identical manifest.
	Seed int64

	// SkipInvalid skips rows with unusable image paths instead of aborting.
	SkipInvalid bool
}

// Result summarizes a successful conversion for the operator.
type Result struct {
	Path     string
	Total    int
	Practice int
	Main     int
	Western  int
	Chinese  int
	Skipped  int
}

type row struct {
	filename  string
	race      string
	gender    string
	age       string
	attention bool
}

// Run performs the conversion described by opts.
func Run(opts Options) (*Result, error) {
	if opts.NPractice < 0 {
		return nil, &ConfigError{Reason: fmt.Sprintf("n_practice must be >= 0, got %d", opts.NPractice)}
	}
	if opts.Sample < 0 {
		return nil, &ConfigError{Reason: fmt.Sprintf("sample must be >= 0, got %d", opts.Sample)}
	}
	if opts.OutputPath == "" {
		return nil, &ConfigError{Reason: "output path is required"}
	}

	rng := rand.New(rand.NewSource(opts.Seed))

	western, skippedW, err := readRows(opts.WesternCSV, opts.SkipInvalid)
	if err != nil {
		return nil, err
	}
	chinese, skippedC, err := readRows(opts.ChineseCSV, opts.SkipInvalid)
	if err != nil {
		return nil, err
	}

	if opts.Sample > 0 {
		western = sampleRows(rng, western, opts.Sample)
		chinese = sampleRows(rng, chinese, opts.Sample)
	}

	total := len(western) + len(chinese)
	if opts.NPractice > total {
		return nil, &ConfigError{
			Reason: fmt.Sprintf("n_practice %d exceeds the %d available stimuli", opts.NPractice, total),
		}
	}

	nWest, nChin := splitPractice(rng, opts.NPractice, len(western), len(chinese))
	practiceWest := pickSet(rng, len(western), nWest)
	practiceChin := pickSet(rng, len(chinese), nChin)

	baseURL := normalizeBaseURL(opts.ImageBaseURL)
	var stims []manifest.Stimulus
	appendGroup := func(rows []row, source manifest.Source, practice map[int]bool, wantPractice bool) {
		for i, r := range rows {
			if practice[i] != wantPractice {
				continue
			}
			task := manifest.TaskMain
			if wantPractice {
				task = manifest.TaskPractice
			}
			stims = append(stims, manifest.Stimulus{
				Image:            baseURL + string(source) + "/" + r.filename,
				Source:           source,
				Task:             task,
				IsAttentionCheck: r.attention,
				Race:             r.race,
				Gender:           r.gender,
				Age:              r.age,
			})
		}
	}
	// Practice records lead the manifest; main records keep input order.
	appendGroup(western, manifest.SourceWestern, practiceWest, true)
	appendGroup(chinese, manifest.SourceChinese, practiceChin, true)
	appendGroup(western, manifest.SourceWestern, practiceWest, false)
	appendGroup(chinese, manifest.SourceChinese, practiceChin, false)

	if err := checkUnique(stims, opts); err != nil {
		return nil, err
	}
	if err := manifest.Write(opts.OutputPath, stims); err != nil {
		return nil, err
	}

	practice, main := manifest.Counts(stims)
	return &Result{
		Path:     opts.OutputPath,
		Total:    len(stims),
		Practice: practice,
		Main:     main,
		Western:  len(western),
		Chinese:  len(chinese),
		Skipped:  skippedW + skippedC,
	}, nil
}

func readRows(file string, skipInvalid bool) ([]row, int, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, 0, &SchemaError{File: file, Column: imagePathColumn}
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read %s: %w", file, err)
	}

	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	pathCol, ok := cols[imagePathColumn]
	if !ok {
		return nil, 0, &SchemaError{File: file, Column: imagePathColumn}
	}

	var rows []row
	skipped := 0
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read %s: %w", file, err)
		}
		filename := baseFilename(field(record, pathCol))
		if filename == "" {
			if skipInvalid {
				skipped++
				continue
			}
			return nil, 0, &ValidationError{File: file, Line: line, Reason: "row has no usable image path"}
		}
		rows = append(rows, row{
			filename:  filename,
			race:      field(record, col(cols, "top_race_4")),
			gender:    field(record, col(cols, "top_gender")),
			age:       field(record, col(cols, "top_age")),
			attention: parseBool(field(record, col(cols, "attention_check"))),
		})
	}
	return rows, skipped, nil
}

func field(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func col(cols map[string]int, name string) int {
	if idx, ok := cols[name]; ok {
		return idx
	}
	return -1
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

func baseFilename(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	base := path.Base(p)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// splitPractice divides n practice slots evenly between the two pools. An odd
// remainder goes to a pool chosen by one RNG draw; overflow beyond a pool's
// size spills into the other. Callers guarantee n <= westLen+chinLen.
func splitPractice(rng *rand.Rand, n, westLen, chinLen int) (nWest, nChin int) {
	nWest = n / 2
	nChin = n / 2
	if n%2 == 1 {
		if rng.Intn(2) == 0 {
			nWest++
		} else {
			nChin++
		}
	}
	if nWest > westLen {
		nChin += nWest - westLen
		nWest = westLen
	}
	if nChin > chinLen {
		nWest += nChin - chinLen
		nChin = chinLen
	}
	return nWest, nChin
}

func pickSet(rng *rand.Rand, poolSize, n int) map[int]bool {
	picked := make(map[int]bool, n)
	for _, idx := range rng.Perm(poolSize)[:n] {
		picked[idx] = true
	}
	return picked
}

// sampleRows keeps n randomly chosen rows, preserving input order.
func sampleRows(rng *rand.Rand, rows []row, n int) []row {
	if n >= len(rows) {
		return rows
	}
	keep := pickSet(rng, len(rows), n)
	out := make([]row, 0, n)
	for i, r := range rows {
		if keep[i] {
			out = append(out, r)
		}
	}
	return out
}

func normalizeBaseURL(base string) string {
	if base == "" || strings.HasSuffix(base, "/") {
		return base
	}
	return base + "/"
}

func checkUnique(stims []manifest.Stimulus, opts Options) error {
	seen := make(map[string]bool, len(stims))
	for _, st := range stims {
		if seen[st.Image] {
			file := opts.WesternCSV
			if st.Source == manifest.SourceChinese {
				file = opts.ChineseCSV
			}
			return &ValidationError{File: file, Reason: fmt.Sprintf("duplicate image %q", st.Image)}
		}
		seen[st.Image] = true
	}
	return nil
}
