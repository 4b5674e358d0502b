package kv

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gofrs/flock"
)

const lockRetryDelay = 10 * time.Millisecond

// File is a Store backed by a single JSON object file.
//
// Every operation takes an exclusive lock on a sibling ".lock" file, so
// several processes can share the same state file. Writes go to a temporary
// file that is renamed over the original. A file that cannot be decoded
// is moved aside to a ".corrupt" sibling and the store starts empty.
type File struct {
	path   string
	lock   *flock.Flock
	logger *slog.Logger
}

// FileOption configures a File store.
type FileOption func(*File)

// WithFileLogger sets the logger used to report a discarded state file.
func WithFileLogger(logger *slog.Logger) FileOption {
	return func(f *File) {
		if logger != nil {
			f.logger = logger
		}
	}
}

// NewFile creates a file store at path. The file is created on first write.
func NewFile(path string, opts ...FileOption) *File {
	f := &File{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Path returns the location of the state file.
func (f *File) Path() string {
	return f.path
}

func (f *File) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := f.withLock(ctx, func() error {
		values, err := f.read()
		if err != nil {
			return err
		}
		value, found = values[key]
		return nil
	})
	return value, found, err
}

func (f *File) Set(ctx context.Context, key, value string) error {
	return f.withLock(ctx, func() error {
		values, err := f.read()
		if err != nil {
			return err
		}
		values[key] = value
		return f.write(values)
	})
}

func (f *File) Delete(ctx context.Context, key string) error {
	return f.withLock(ctx, func() error {
		values, err := f.read()
		if err != nil {
			return err
		}
		if _, ok := values[key]; !ok {
			return nil
		}
		delete(values, key)
		return f.write(values)
	})
}

func (f *File) withLock(ctx context.Context, fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return errors.Wrap(err, "failed to create state directory")
	}

	locked, err := f.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return errors.Wrap(err, "failed to acquire state lock")
	}
	if !locked {
		return errors.New("failed to acquire state lock")
	}
	defer f.lock.Unlock()

	return fn()
}

// read loads the state file. A missing or undecodable file is an empty
// store; the undecodable content is kept next to it for inspection.
func (f *File) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", f.path)
	}

	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		aside := f.path + ".corrupt"
		f.logger.Warn("discarding undecodable state file", "path", f.path, "moved_to", aside, "error", err)
		if err := os.Rename(f.path, aside); err != nil {
			f.logger.Warn("failed to move undecodable state file aside", "path", f.path, "error", err)
		}
		return map[string]string{}, nil
	}
	return values, nil
}

func (f *File) write(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode state")
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", tmp)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrapf(err, "failed to replace %s", f.path)
	}
	return nil
}
