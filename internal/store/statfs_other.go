//go:build !linux && !darwin

package store

import (
	"errors"
	"fmt"
	"runtime"
)

func statfs(string) (uint64, uint64, error) {
	return 0, 0, fmt.Errorf("statfs on %s: %w", runtime.GOOS, errors.ErrUnsupported)
}
