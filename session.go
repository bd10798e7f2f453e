package filterio

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/tphakala/go-filter-io/internal/filetype"
)

// Operation names a persistence operation.
type Operation int

const (
	OpSaveState Operation = iota
	OpLoadState
	OpExport
	OpImport
)

func (op Operation) String() string {
	switch op {
	case OpSaveState:
		return "save"
	case OpLoadState:
		return "load"
	case OpExport:
		return "export"
	case OpImport:
		return "import"
	default:
		return fmt.Sprintf("Operation(%d)", int(op))
	}
}

func (op Operation) direction() Direction {
	switch op {
	case OpLoadState:
		return LoadState
	case OpExport:
		return ExportCoefficients
	case OpImport:
		return ImportCoefficients
	default:
		return SaveState
	}
}

// Event reports a successful operation on Path.
type Event struct {
	Op     Operation
	Format Format
	Path   string
}

// StateChanged reports whether the operation modified the filter state.
func (e Event) StateChanged() bool {
	return e.Op == OpLoadState || e.Op == OpImport
}

// Session owns the current filter state and the last-used directory, and
// runs every persistence operation against them.
//
// Operations are synchronous and a Session is not safe for concurrent use;
// hosts with several threads must serialize calls.
type Session struct {
	state    *State
	registry *Registry
	dir      string
	config   Config
	logger   *slog.Logger
}

// New creates a session operating on state. A nil state starts from
// DefaultState.
func New(state *State, config *Config) (*Session, error) {
	cfg := DefaultConfig()
	if config != nil {
		cfg = *config
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if state == nil {
		state = DefaultState()
	}

	caps := DetectCapabilities()
	if cfg.Capabilities != nil {
		caps = *cfg.Capabilities
	}

	return &Session{
		state:    state,
		registry: NewRegistry(caps),
		dir:      cfg.SaveDir,
		config:   cfg,
		logger:   cfg.Logger,
	}, nil
}

// State returns the current filter state.
func (s *Session) State() *State {
	return s.state
}

// Dir returns the last-used directory.
func (s *Session) Dir() string {
	return s.dir
}

// SetDir sets the last-used directory.
func (s *Session) SetDir(dir string) {
	s.dir = dir
}

// Registry returns the format registry of the session.
func (s *Session) Registry() *Registry {
	return s.registry
}

// Descriptor returns the file-type descriptor offered for dir given the
// current filter type.
func (s *Session) Descriptor(dir Direction) string {
	return s.registry.Descriptor(dir, s.state.FilterType())
}

// target resolves the format selected by chosen and rewrites path to carry
// its extension. An empty chosen text selects by the extension of path.
func (s *Session) target(path, chosen string, dir Direction) (string, Format, error) {
	if chosen == "" {
		chosen = filepath.Ext(path)
	}
	ext, ok := filetype.Resolve(s.Descriptor(dir), chosen)
	if !ok {
		return path, FormatUnknown, fmt.Errorf("%w: %q is not offered to %s", ErrUnsupportedFormat, chosen, dir)
	}
	f, err := s.registry.Dispatch(ext, dir)
	if err != nil {
		return path, FormatUnknown, err
	}
	return filetype.ReplaceExt(path, ext), f, nil
}

// run resolves the target and executes fn on it. An empty path is a
// cancelled selection and returns "" without error.
func (s *Session) run(op Operation, path, chosen string, fn func(target string, f Format) error) (string, error) {
	if path == "" {
		return "", nil
	}

	target, f, err := s.target(path, chosen, op.direction())
	if err == nil {
		err = fn(target, f)
	}
	if err != nil {
		s.logger.Error("filter file operation failed",
			"op", op.String(), "path", target, "error", err)
		return target, err
	}

	s.dir = filepath.Dir(target)
	s.logger.Info("filter file operation succeeded",
		"op", op.String(), "format", f.String(), "path", target)
	if s.config.OnEvent != nil {
		s.config.OnEvent(Event{Op: op, Format: f, Path: target})
	}
	return target, nil
}

// create opens path for writing and removes the file again when write fails.
func create(path string, write func(*os.File) error) (err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, filePerm)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrIO, cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()
	return write(f)
}

// open opens path for reading for the duration of read.
func open(path string, read func(*os.File) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer f.Close()
	return read(f)
}

// classify wraps codec errors that carry no taxonomy error yet.
func classify(kind, err error) error {
	if err == nil {
		return nil
	}
	for _, known := range []error{ErrUnsupportedFormat, ErrIO, ErrDecode, ErrEncode} {
		if errors.Is(err, known) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", kind, err)
}
