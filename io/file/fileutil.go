// Package file provides the filesystem helpers used by the keystore and
// registry: path expansion, existence checks, and atomic writes for
// credential files.
package file

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const (
	// DirPermissions for directories containing credential files.
	DirPermissions = os.FileMode(0700)
	// FilePermissions for credential files themselves.
	FilePermissions = os.FileMode(0600)
)

// ExpandPath expands a leading tilde and environment variables in a
// file path and returns its absolute form.
func ExpandPath(p string) (string, error) {
	if strings.HasPrefix(p, "~/") || p == "~" {
		u, err := user.Current()
		if err != nil {
			return "", errors.Wrap(err, "could not determine home directory")
		}
		p = filepath.Join(u.HomeDir, strings.TrimPrefix(p, "~"))
	}
	return filepath.Abs(os.ExpandEnv(p))
}

// FileExists returns true if a regular file exists at the specified path.
func FileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// HasDir checks if a directory exists at the specified path.
func HasDir(dirPath string) (bool, error) {
	info, err := os.Stat(dirPath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

// MkdirAll creates a directory and all parents with restrictive permissions.
func MkdirAll(dirPath string) error {
	return os.MkdirAll(dirPath, DirPermissions)
}

// WriteFileAtomic writes data to a temporary file in the destination
// directory and renames it into place. A failed write never truncates
// an existing file at the destination path.
func WriteFileAtomic(filePath string, data []byte) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, DirPermissions); err != nil {
		return errors.Wrapf(err, "could not create directory %s", dir)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(filePath)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "could not create temporary file")
	}
	tmpName := tmp.Name()
	defer func() {
		// No-ops once the rename has succeeded.
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()
	if _, err := tmp.Write(data); err != nil {
		return errors.Wrap(err, "could not write temporary file")
	}
	if err := tmp.Chmod(FilePermissions); err != nil {
		return errors.Wrap(err, "could not set file permissions")
	}
	if err := tmp.Sync(); err != nil {
		return errors.Wrap(err, "could not sync temporary file")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "could not close temporary file")
	}
	if err := os.Rename(tmpName, filePath); err != nil {
		return errors.Wrapf(err, "could not move temporary file to %s", filePath)
	}
	return nil
}
