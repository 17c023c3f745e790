package ports

import "depspin/internal/types"

type OutputPort interface {
	WriteLock(lock types.Lock) error
	WriteEnsureFile(pins []types.Pin) error
}
