package batch

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
)

// moveFile renames source to target, falling back to copy-and-remove
// when the two sit on different filesystems. The target is created
// exclusively so an existing file is never clobbered, and the source is
// only removed once the copy is safely on disk.
func moveFile(source, target string) error {
	err := os.Rename(source, target)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return err
	}
	return copyThenRemove(source, target)
}

func copyThenRemove(source, target string) error {
	in, err := os.Open(source)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create target: %w", err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(target)
		return fmt.Errorf("copy to target: %w", err)
	}
	if err := out.Sync(); err != nil {
		out.Close()
		os.Remove(target)
		return fmt.Errorf("sync target: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(target)
		return fmt.Errorf("close target: %w", err)
	}
	if err := os.Remove(source); err != nil {
		return fmt.Errorf("remove source after copy: %w", err)
	}
	return nil
}
