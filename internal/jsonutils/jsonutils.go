// Package jsonutils reads and writes the JSON files kept in the deployments directory.
package jsonutils

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// WriteFile marshals data into indented JSON and atomically replaces the file at path,
// creating parent directories as needed.
func WriteFile(path string, data any) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	if err = os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	tmp := path + ".tmp"
	if err = os.WriteFile(tmp, append(b, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}

	return os.Rename(tmp, path)
}

// LoadFromFS loads a JSON file from the filesystem, instantiates and unmarshals it into T.
// Numbers decoded into interface values are kept as json.Number so uint64 values survive.
func LoadFromFS[T any](fsys fs.FS, path string) (T, error) {
	var v T

	f, err := fs.ReadFile(fsys, path)
	if err != nil {
		return v, fmt.Errorf("failed to read %s: %w", path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(f))
	dec.UseNumber()
	if err = dec.Decode(&v); err != nil {
		return v, fmt.Errorf("failed to unmarshal JSON at path %s: %w", path, err)
	}

	return v, nil
}

// LoadFileOrZero is LoadFromFS on the OS filesystem that returns the zero T when path does
// not exist.
func LoadFileOrZero[T any](path string) (T, error) {
	v, err := LoadFromFS[T](os.DirFS(filepath.Dir(path)), filepath.Base(path))
	if errors.Is(err, fs.ErrNotExist) {
		var zero T
		return zero, nil
	}

	return v, err
}
