// Package summary aggregates exported session CSVs into per-condition
// accuracy and response-time statistics. Signal-detection analysis happens
// downstream; this is the quick sanity view for the operator.
package summary

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
)

// Row is one aggregated line of the summary: a (version, task, source) cell,
// or a per-version total when Task and Source are "all".
type Row struct {
	Version  int
	Task     string
	Source   string
	Count    int
	Accuracy float64
	MeanRT   float64
	MedianRT float64
}

// Report holds the aggregation in output order.
type Report struct {
	Rows []Row
}

type trialRow struct {
	version int
	task    string
	source  string
	correct bool
	rt      float64
}

// Run reads one or more exported CSV files and aggregates them.
func Run(paths []string) (*Report, error) {
	if len(paths) == 0 {
		return nil, errors.New("at least one results file is required")
	}

	var all []trialRow
	for _, path := range paths {
		rows, err := loadFile(path)
		if err != nil {
			return nil, err
		}
		all = append(all, rows...)
	}

	grouped := map[[3]string][]trialRow{}
	for _, tr := range all {
		v := strconv.Itoa(tr.version)
		grouped[[3]string{v, tr.task, tr.source}] = append(grouped[[3]string{v, tr.task, tr.source}], tr)
		grouped[[3]string{v, "all", "all"}] = append(grouped[[3]string{v, "all", "all"}], tr)
	}

	rows := make([]Row, 0, len(grouped))
	for key, group := range grouped {
		version, _ := strconv.Atoi(key[0])
		rows = append(rows, buildRow(version, key[1], key[2], group))
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Version != rows[j].Version {
			return rows[i].Version < rows[j].Version
		}
		if rows[i].Task != rows[j].Task {
			return rows[i].Task < rows[j].Task
		}
		return rows[i].Source < rows[j].Source
	})

	return &Report{Rows: rows}, nil
}

// WriteCSV writes the aggregation as CSV.
func (r *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := []string{"version", "task", "source", "count", "accuracy", "mean_rt", "median_rt"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range r.Rows {
		record := []string{
			strconv.Itoa(row.Version),
			row.Task,
			row.Source,
			strconv.Itoa(row.Count),
			formatFloat(row.Accuracy),
			formatFloat(row.MeanRT),
			formatFloat(row.MedianRT),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func buildRow(version int, task, source string, group []trialRow) Row {
	correct := 0
	rts := make([]float64, 0, len(group))
	sum := 0.0
	for _, tr := range group {
		if tr.correct {
			correct++
		}
		rts = append(rts, tr.rt)
		sum += tr.rt
	}
	sort.Float64s(rts)
	return Row{
		Version:  version,
		Task:     task,
		Source:   source,
		Count:    len(group),
		Accuracy: float64(correct) / float64(len(group)),
		MeanRT:   sum / float64(len(group)),
		MedianRT: median(rts),
	}
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

func loadFile(path string) ([]trialRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	cols := map[string]int{}
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range []string{"version", "task", "source", "correct", "rt"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%s: missing column %q", path, required)
		}
	}

	var rows []trialRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		version, err := strconv.Atoi(record[cols["version"]])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad version: %w", path, line, err)
		}
		correct, err := strconv.ParseBool(record[cols["correct"]])
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad correct flag: %w", path, line, err)
		}
		rt, err := strconv.ParseFloat(record[cols["rt"]], 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: bad rt: %w", path, line, err)
		}
		rows = append(rows, trialRow{
			version: version,
			task:    record[cols["task"]],
			source:  record[cols["source"]],
			correct: correct,
			rt:      rt,
		})
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: no trial rows", path)
	}
	return rows, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}
