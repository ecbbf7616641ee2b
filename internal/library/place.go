package library

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"syscall"

	"github.com/desertthunder/ymde/internal/shared"
)

// Place moves a staged file to dst without ever exposing a partial file at dst.
//
// A rename is tried first; across filesystems the data is copied to a temporary sibling
// and renamed into place. When dst already exists the staged file is discarded and the
// existing file is kept. Errors wrap [shared.ErrPlacement].
func Place(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPlacement, err)
	}

	if _, err := os.Stat(dst); err == nil {
		os.Remove(src)
		return nil
	}

	if err := os.Rename(src, dst); err == nil {
		return nil
	} else if !isCrossDevice(err) {
		return fmt.Errorf("%w: %v", shared.ErrPlacement, err)
	}

	if err := copyAtomic(src, dst); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrPlacement, err)
	}
	os.Remove(src)
	return nil
}

func copyAtomic(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".place-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, in); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}
