// Package shell runs command lines for the $cmd directive.
package shell

import (
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// System runs commands through the host shell and captures their standard
// output, with any trailing newline removed.
type System struct{}

func (System) Run(command string) (string, error) {
	out, err := exec.Command("sh", "-c", command).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("%w: %s",
				err, strings.TrimSpace(string(exitErr.Stderr)))
		}

		return "", err
	}

	return strings.TrimRight(string(out), "\n"), nil
}
