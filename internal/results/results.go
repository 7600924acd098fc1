// Package results defines the per-trial outcome record and the export
// writers that hand the finished sequence to the analysis side.
package results

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/perceptlab/facetrial/internal/manifest"
)

// Trial is one completed trial. Records are appended in presentation order
// and never mutated afterwards.
type Trial struct {
	Stimulus      string          `json:"stimulus"`
	Source        manifest.Source `json:"source"`
	Response      string          `json:"response"`
	ResponseLabel manifest.Source `json:"response_label"`
	Correct       bool            `json:"correct"`
	RT            int64           `json:"rt"` // milliseconds since stimulus onset
	Version       int             `json:"version"`
	Task          manifest.Task   `json:"task"`
}

// SessionMeta describes the session a result set belongs to.
type SessionMeta struct {
	RunID       string    `json:"run_id"`
	Participant string    `json:"participant"`
	Version     int       `json:"version"`
	Manifest    string    `json:"manifest"`
	StartedAt   time.Time `json:"started_at"`
	EndedAt     time.Time `json:"ended_at"`
}

type export struct {
	SessionMeta
	Trials []Trial `json:"trials"`
}

// Header returns the CSV export column names, in order.
func Header() []string {
	return []string{"stimulus", "source", "response", "response_label", "correct", "rt", "version", "task"}
}

func (t Trial) record() []string {
	return []string{
		t.Stimulus,
		string(t.Source),
		t.Response,
		string(t.ResponseLabel),
		strconv.FormatBool(t.Correct),
		strconv.FormatInt(t.RT, 10),
		strconv.Itoa(t.Version),
		string(t.Task),
	}
}

// WriteCSV writes the trial sequence, one row per trial, order preserved.
func WriteCSV(w io.Writer, trials []Trial) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header()); err != nil {
		return err
	}
	for _, t := range trials {
		if err := cw.Write(t.record()); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes the session metadata together with the full trial
// sequence.
func WriteJSON(w io.Writer, meta SessionMeta, trials []Trial) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(export{SessionMeta: meta, Trials: trials})
}

// Export writes the CSV file plus a JSON sidecar into dir, named after the
// run ID, and returns the CSV path.
func Export(dir string, meta SessionMeta, trials []Trial) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	csvPath := filepath.Join(dir, meta.RunID+".csv")
	f, err := os.Create(csvPath)
	if err != nil {
		return "", err
	}
	if err := WriteCSV(f, trials); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	jsonPath := filepath.Join(dir, meta.RunID+".json")
	jf, err := os.Create(jsonPath)
	if err != nil {
		return "", err
	}
	if err := WriteJSON(jf, meta, trials); err != nil {
		jf.Close()
		return "", err
	}
	return csvPath, jf.Close()
}
