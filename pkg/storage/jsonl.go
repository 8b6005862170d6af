package storage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const maxLineSize = 1 << 20

// JSONLines is an append-only file holding one JSON record of type T per
// line. The parent directory is created on first append.
type JSONLines[T any] struct {
	mu   sync.RWMutex
	path string
}

func NewJSONLines[T any](path string) *JSONLines[T] {
	return &JSONLines[T]{path: path}
}

func (f *JSONLines[T]) Path() string { return f.path }

func (f *JSONLines[T]) Append(rec T) (err error) {
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	file, err := os.OpenFile(f.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(f.path), err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", filepath.Base(f.path), cerr)
		}
	}()

	_, err = file.Write(append(line, '\n'))
	return err
}

// ReadAll returns the records in write order. Lines that do not decode,
// such as a torn final line after a crash, are skipped. A missing file
// yields nil.
func (f *JSONLines[T]) ReadAll() ([]T, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", filepath.Base(f.path), err)
	}

	var out []T
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec T
		if json.Unmarshal(line, &rec) != nil {
			continue
		}
		out = append(out, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", filepath.Base(f.path), err)
	}
	return out, nil
}
