package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	filterio "github.com/tphakala/go-filter-io"
)

// options holds the parsed command-line flags.
type options struct {
	statePath  string
	chosen     string
	filterType string
	delimiter  string
	bitDepth   int
	verbose    bool
}

// config builds the session configuration from the flags.
func (o *options) config() *filterio.Config {
	cfg := filterio.DefaultConfig()
	if o.delimiter != "" {
		cfg.CSVDelimiter = o.delimiter
	}
	if o.bitDepth != 0 {
		cfg.ImpulseBitDepth = o.bitDepth
	}
	if o.verbose {
		cfg.Logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
	return &cfg
}

// printFormats lists the descriptor of every direction for filter type ft.
func printFormats(w io.Writer, ft string) error {
	reg := filterio.NewRegistry(filterio.DetectCapabilities())
	for _, dir := range []filterio.Direction{
		filterio.SaveState,
		filterio.LoadState,
		filterio.ExportCoefficients,
		filterio.ImportCoefficients,
	} {
		if _, err := fmt.Fprintf(w, "%-8s %s\n", dir, reg.Descriptor(dir, ft)); err != nil {
			return err
		}
	}
	return nil
}

// openSession creates a session, loading the -state file when given.
func openSession(o *options) (*filterio.Session, error) {
	s, err := filterio.New(nil, o.config())
	if err != nil {
		return nil, err
	}
	if o.statePath == "" {
		return s, nil
	}
	if _, err := s.LoadState(o.statePath, ""); err != nil {
		return nil, fmt.Errorf("failed to load state: %w", err)
	}
	return s, nil
}

// runFileCommand executes save, load, export or import on path.
func runFileCommand(cmd, path string, o *options) error {
	s, err := openSession(o)
	if err != nil {
		return err
	}

	var written string
	switch cmd {
	case cmdSave:
		written, err = s.SaveState(path, o.chosen)
	case cmdLoad:
		if _, err = s.LoadState(path, o.chosen); err == nil {
			err = printState(os.Stdout, s.State())
		}
	case cmdExport:
		written, err = s.ExportCoefficients(path, o.chosen)
	case cmdImport:
		if o.statePath == "" {
			return fmt.Errorf("%w: import needs -state", errUsage)
		}
		if _, err = s.ImportCoefficients(path, o.chosen); err == nil {
			written, err = s.SaveState(o.statePath, "")
		}
	}
	if err != nil {
		return err
	}

	if written != "" && o.verbose {
		log.Printf("Wrote %s from %s state", written, stateFileName(o))
	}
	return nil
}

// printState writes one "key: value" line per state entry.
func printState(w io.Writer, st *filterio.State) error {
	for _, k := range st.Keys() {
		v, _ := st.Get(k)
		if _, err := fmt.Fprintf(w, "%s: %v\n", k, v); err != nil {
			return err
		}
	}
	return nil
}

// stateFileName returns the base name of the -state file, or "default".
func stateFileName(o *options) string {
	if o.statePath == "" {
		return "default"
	}
	return filepath.Base(o.statePath)
}
