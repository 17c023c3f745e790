package ports

import "depspin/internal/types"

type OutputReaderPort interface {
	ReadLock(path string) (types.Lock, error)
	ReadEnsureFile(path string) ([]types.Pin, error)
}
