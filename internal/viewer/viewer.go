// Package viewer hands stimulus images to an external viewer command, for
// setups where the terminal cannot render the image itself.
package viewer

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/mattn/go-shellwords"
)

const placeholder = "{image}"

// Viewer launches the configured command once per stimulus. A nil Viewer is
// valid and shows nothing.
type Viewer struct {
	argv []string
}

// New parses the configured command line. An empty command yields a nil
// viewer.
func New(command string) (*Viewer, error) {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return nil, nil
	}
	argv, err := shellwords.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse viewer command %q: %w", command, err)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("viewer command %q parsed to nothing", command)
	}
	return &Viewer{argv: argv}, nil
}

// Show launches the viewer for one image without waiting for it to exit, so
// the trial timeline is never blocked on the external process.
func (v *Viewer) Show(image string) error {
	if v == nil {
		return nil
	}
	argv := v.argsFor(image)
	cmd := exec.Command(argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start viewer: %w", err)
	}
	go cmd.Wait()
	return nil
}

// argsFor substitutes the image path for every {image} placeholder, or
// appends it when the command uses none.
func (v *Viewer) argsFor(image string) []string {
	argv := make([]string, len(v.argv))
	substituted := false
	for i, arg := range v.argv {
		if strings.Contains(arg, placeholder) {
			argv[i] = strings.ReplaceAll(arg, placeholder, image)
			substituted = true
		} else {
			argv[i] = arg
		}
	}
	if !substituted {
		argv = append(argv, image)
	}
	return argv
}
