package app

import (
	"time"

	"depspin/internal/adapters"
	"depspin/internal/ports"
)

type Service struct {
	Manifests     ports.ManifestPort
	Editor        ports.ManifestEditorPort
	Workspace     ports.WorkspacePort
	HistorySource ports.HistoryPort
	OutputReader  ports.OutputReaderPort
	Output        func(dir string) ports.OutputPort
	Clock         func() time.Time
}

func NewService() Service {
	manifests := adapters.NewDepsFileAdapter()
	return Service{
		Manifests:     manifests,
		Editor:        adapters.NewDepsEditorAdapter(),
		Workspace:     adapters.NewWorkspaceAdapter(),
		HistorySource: adapters.NewGitHistoryAdapter(manifests),
		OutputReader:  adapters.NewOutputReaderAdapter(),
		Output: func(dir string) ports.OutputPort {
			return adapters.NewOutputFileAdapter(dir)
		},
		Clock: time.Now,
	}
}
