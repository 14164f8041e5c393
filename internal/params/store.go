package params

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// FileName is the name of the parameters file inside the data directory.
const FileName = "parameters.txt"

// LoadStatus tells the caller where the Config returned by Load came from.
type LoadStatus int

const (
	// StatusLoaded means the file was read and parsed.
	StatusLoaded LoadStatus = iota
	// StatusCreated means the file did not exist and defaults were written.
	StatusCreated
	// StatusDefaults means defaults are in use and nothing was persisted.
	StatusDefaults
)

func (s LoadStatus) String() string {
	switch s {
	case StatusLoaded:
		return "loaded"
	case StatusCreated:
		return "created"
	case StatusDefaults:
		return "defaults"
	default:
		return "unknown"
	}
}

// IOError reports a parameters file that could not be read or written.
type IOError struct {
	Op   string // "read" or "write"
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("failed to %s parameters file %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Store reads and writes the parameters file.
//
// Store has no internal state besides the file location; the Config is
// always passed in and returned explicitly.
type Store struct {
	path   string
	logger *log.Logger
}

// NewStore returns a store backed by the file at path. When logger is
// non-nil, I/O failures are also written to it.
func NewStore(path string, logger *log.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Path returns the location of the parameters file.
func (s *Store) Path() string {
	return s.path
}

// Load reads the parameters file.
//
// The returned Config is always complete. A non-nil error is an *IOError
// describing why defaults are in use; it is never a reason to abort.
func (s *Store) Load() (Config, LoadStatus, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logf("Parameters file not found. Using default values.")
		cfg := Defaults()
		if err := s.Save(cfg); err != nil {
			return cfg, StatusDefaults, err
		}
		return cfg, StatusCreated, nil
	}
	if err != nil {
		ioErr := &IOError{Op: "read", Path: s.path, Err: err}
		s.logf("Error loading parameters: %v. Using default values.", err)
		return Defaults(), StatusDefaults, ioErr
	}
	defer f.Close()

	cfg, err := Parse(f)
	if err != nil {
		ioErr := &IOError{Op: "read", Path: s.path, Err: err}
		s.logf("Error loading parameters: %v. Using default values.", err)
		return Defaults(), StatusDefaults, ioErr
	}
	return cfg, StatusLoaded, nil
}

// Save writes every key of cfg as key=value, replacing the file.
func (s *Store) Save(cfg Config) error {
	var buf bytes.Buffer
	if err := Encode(&buf, cfg); err != nil {
		return &IOError{Op: "write", Path: s.path, Err: err}
	}

	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			s.logf("Error saving parameters: %v", err)
			return &IOError{Op: "write", Path: s.path, Err: err}
		}
	}
	if err := os.WriteFile(s.path, buf.Bytes(), 0o644); err != nil {
		s.logf("Error saving parameters: %v", err)
		return &IOError{Op: "write", Path: s.path, Err: err}
	}
	return nil
}

// Update sets one key on cfg and persists the whole config.
//
// The updated config is returned even when persisting fails, so the run
// can continue with the in-memory value. A *ValueError leaves cfg
// untouched and writes nothing.
func (s *Store) Update(cfg Config, key, value string) (Config, error) {
	next := cfg.clone()
	if err := next.Set(key, value); err != nil {
		return cfg, err
	}
	return next, s.Save(next)
}

// UpdateInt is Update for integer keys.
func (s *Store) UpdateInt(cfg Config, key string, value int) (Config, error) {
	return s.Update(cfg, key, strconv.Itoa(value))
}

func (s *Store) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

// Parse reads key=value lines from r.
//
// Each line containing '=' is split on the first '='. Lines without '='
// and integer keys whose value does not parse are skipped. Keys missing
// from the input keep their default values.
func Parse(r io.Reader) (Config, error) {
	cfg := Defaults()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if err := cfg.Set(key, value); err != nil {
			continue
		}
	}
	if err := scanner.Err(); err != nil {
		return Defaults(), err
	}
	return cfg, nil
}

// Encode writes cfg as key=value lines.
func Encode(w io.Writer, cfg Config) error {
	for _, key := range cfg.Keys() {
		value, _ := cfg.Get(key)
		if _, err := fmt.Fprintf(w, "%s=%s\n", key, value); err != nil {
			return err
		}
	}
	return nil
}
