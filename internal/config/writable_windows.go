//go:build windows

package config

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// Writable reports whether dir exists and is not marked read-only.
func Writable(dir string) error {
	p, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return err
	}
	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return fmt.Errorf("%s is not writable: %w", dir, err)
	}
	if attrs&windows.FILE_ATTRIBUTE_READONLY != 0 {
		return fmt.Errorf("%s is read-only", dir)
	}
	return nil
}
