package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"depspin/internal/ports"
	"depspin/internal/types"
)

const (
	LockFileName   = "deps.lock.yaml"
	EnsureFileName = "cipd.ensure"
)

type OutputFileAdapter struct {
	Dir string
}

func NewOutputFileAdapter(dir string) OutputFileAdapter {
	return OutputFileAdapter{Dir: dir}
}

func (a OutputFileAdapter) WriteLock(lock types.Lock) error {
	path, err := a.ensurePath(LockFileName)
	if err != nil {
		return err
	}
	ordered := lock
	ordered.Pins = sortedPins(lock.Pins)
	data, err := yaml.Marshal(ordered)
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to encode lock file").
			WithCause(err)
	}
	return writeFile(path, data)
}

// WriteEnsureFile renders pins in the CIPD ensure file format: one
// @Subdir directive per checkout path followed by "<package> <version>"
// lines.
func (a OutputFileAdapter) WriteEnsureFile(pins []types.Pin) error {
	path, err := a.ensurePath(EnsureFileName)
	if err != nil {
		return err
	}
	var lines []string
	lines = append(lines, "# Generated by depspin. Do not edit.")
	subdir := ""
	first := true
	for _, pin := range sortedPins(pins) {
		if first || pin.Subdir != subdir {
			lines = append(lines, "", fmt.Sprintf("@Subdir %s", pin.Subdir))
			subdir = pin.Subdir
			first = false
		}
		lines = append(lines, fmt.Sprintf("%s %s", pin.Package, pin.Version))
	}
	return writeFile(path, []byte(strings.Join(lines, "\n")+"\n"))
}

func sortedPins(pins []types.Pin) []types.Pin {
	ordered := append([]types.Pin(nil), pins...)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].Subdir != ordered[j].Subdir {
			return ordered[i].Subdir < ordered[j].Subdir
		}
		return ordered[i].Package < ordered[j].Package
	})
	return ordered
}

func (a OutputFileAdapter) ensurePath(filename string) (string, error) {
	if a.Dir == "" {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("output directory is empty")
	}
	if err := os.MkdirAll(a.Dir, 0755); err != nil {
		return "", errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create output directory").
			WithCause(err)
	}
	return filepath.Join(a.Dir, filename), nil
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg(fmt.Sprintf("failed to write %s", filepath.Base(path))).
			WithCause(err)
	}
	return nil
}

var _ ports.OutputPort = OutputFileAdapter{}
