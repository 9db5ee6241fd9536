//go:build !unix && !windows

package store

import (
	"errors"
	"os"
)

var errLockUnsupported = errors.New("file locking is not supported on this platform")

func flockExclusive(*os.File) error {
	return errLockUnsupported
}

func funlock(*os.File) error {
	return nil
}
