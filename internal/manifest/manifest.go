package manifest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Source identifies which image pool a stimulus was drawn from.
type Source string

const (
	SourceWestern Source = "western"
	SourceChinese Source = "chinese"
)

// Task separates warm-up trials from scored ones.
type Task string

const (
	TaskPractice Task = "practice"
	TaskMain     Task = "main"
)

// Stimulus is a single manifest entry. Records are created by the compiler
// and are read-only from then on; the image path is the record's identity.
type Stimulus struct {
	Image            string `json:"image"`
	Source           Source `json:"source"`
	Task             Task   `json:"task"`
	IsAttentionCheck bool   `json:"is_attention_check"`

	// Optional annotations carried through from the input CSVs.
	Race   string `json:"race,omitempty"`
	Gender string `json:"gender,omitempty"`
	Age    string `json:"age,omitempty"`
}

// ValidSource reports whether s is one of the known source pools.
func ValidSource(s Source) bool {
	return s == SourceWestern || s == SourceChinese
}

// ValidTask reports whether t is one of the known task kinds.
func ValidTask(t Task) bool {
	return t == TaskPractice || t == TaskMain
}

// Load reads a manifest from a JSON file.
func Load(path string) ([]Stimulus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var stims []Stimulus
	if err := json.Unmarshal(data, &stims); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	return stims, nil
}

// Validate checks that the manifest is usable by the trial runner: at least
// one record, non-empty unique image paths, and known enum values throughout.
func Validate(stims []Stimulus) error {
	if len(stims) == 0 {
		return errors.New("manifest contains no stimuli")
	}
	seen := make(map[string]bool, len(stims))
	for i, st := range stims {
		if st.Image == "" {
			return fmt.Errorf("entry %d: empty image path", i)
		}
		if seen[st.Image] {
			return fmt.Errorf("entry %d: duplicate image path %q", i, st.Image)
		}
		seen[st.Image] = true
		if !ValidSource(st.Source) {
			return fmt.Errorf("entry %d (%s): unknown source %q", i, st.Image, st.Source)
		}
		if !ValidTask(st.Task) {
			return fmt.Errorf("entry %d (%s): unknown task %q", i, st.Image, st.Task)
		}
	}
	return nil
}

// Counts returns the number of practice and main records.
func Counts(stims []Stimulus) (practice, main int) {
	for _, st := range stims {
		if st.Task == TaskPractice {
			practice++
		} else {
			main++
		}
	}
	return practice, main
}

// Write serializes the manifest and renames it into place, so a failed run
// never leaves a partial file behind. Output is byte-stable for equal input.
func Write(path string, stims []Stimulus) error {
	data, err := json.MarshalIndent(stims, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".manifest-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}
