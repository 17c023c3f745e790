package adapters

import (
	"os"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"gopkg.in/yaml.v3"

	"depspin/internal/ports"
	"depspin/internal/types"
)

type OutputReaderAdapter struct{}

func NewOutputReaderAdapter() OutputReaderAdapter {
	return OutputReaderAdapter{}
}

func (a OutputReaderAdapter) ReadLock(path string) (types.Lock, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return types.Lock{}, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("lock file not found").
			WithCause(err)
	}
	var lock types.Lock
	if err := yaml.Unmarshal(content, &lock); err != nil {
		return types.Lock{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("failed to parse lock file").
			WithCause(err)
	}
	if strings.TrimSpace(lock.Fingerprint) == "" {
		return types.Lock{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("lock file missing fingerprint")
	}
	generated, err := parseGeneratedAt(lock.GeneratedAt)
	if err != nil {
		return types.Lock{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("lock file has an invalid generated_at").
			WithCause(err)
	}
	if !generated.IsZero() {
		lock.GeneratedAt = generated.Format(time.RFC3339)
	}
	return lock, nil
}

func (a OutputReaderAdapter) ReadEnsureFile(path string) ([]types.Pin, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg("ensure file not found").
			WithCause(err)
	}
	var pins []types.Pin
	subdir := ""
	for _, line := range strings.Split(string(content), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		if strings.HasPrefix(trimmed, "@Subdir") {
			subdir = strings.TrimSpace(strings.TrimPrefix(trimmed, "@Subdir"))
			continue
		}
		if strings.HasPrefix(trimmed, "$") || strings.HasPrefix(trimmed, "@") {
			continue
		}
		parts := strings.Fields(trimmed)
		if len(parts) != 2 {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg("invalid ensure file format")
		}
		pins = append(pins, types.Pin{Subdir: subdir, Package: parts[0], Version: parts[1]})
	}
	return pins, nil
}

var _ ports.OutputReaderPort = OutputReaderAdapter{}
