package auth

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
)

// stateFile is the on-disk layout of the persisted client state.
type stateFile struct {
	Values map[string]string `toml:"values"`
}

// DefaultStatePath returns ~/.local/state/leadconsole/session.toml.
func DefaultStatePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "state", "leadconsole", "session.toml"), nil
}

// FileTokenStore persists values in a TOML file readable only by the owner.
// A missing file reads as empty.
type FileTokenStore struct {
	path string
	mu   sync.Mutex
}

// NewFileTokenStore returns a store backed by path. The file and its
// directory are created on first write.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Path returns the backing file location.
func (f *FileTokenStore) Path() string { return f.path }

func (f *FileTokenStore) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.load()
	if err != nil {
		return "", err
	}
	v, ok := st.Values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (f *FileTokenStore) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.load()
	if err != nil {
		return err
	}
	st.Values[key] = value
	return f.save(st)
}

func (f *FileTokenStore) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	st, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := st.Values[key]; !ok {
		return nil
	}
	delete(st.Values, key)
	return f.save(st)
}

func (f *FileTokenStore) load() (stateFile, error) {
	var st stateFile
	if _, err := toml.DecodeFile(f.path, &st); err != nil {
		if os.IsNotExist(err) {
			return stateFile{Values: map[string]string{}}, nil
		}
		return stateFile{}, fmt.Errorf("reading %s: %w", f.path, err)
	}
	if st.Values == nil {
		st.Values = map[string]string{}
	}
	return st, nil
}

func (f *FileTokenStore) save(st stateFile) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	fh, err := os.OpenFile(f.path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(fh).Encode(st); err != nil {
		fh.Close()
		return fmt.Errorf("writing %s: %w", f.path, err)
	}
	return fh.Close()
}
