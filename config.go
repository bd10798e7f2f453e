package filterio

import (
	"fmt"
	"log/slog"
	"time"
)

// Config holds session configuration.
type Config struct {
	// SaveDir is the initial directory for file dialogs. It is replaced by
	// the directory of every successfully saved or loaded file.
	SaveDir string

	// Logger receives one event per operation. Defaults to a discarding logger.
	Logger *slog.Logger

	// OnEvent is called after every successful operation. Load and import
	// events mean the state changed and dependent views must refresh.
	OnEvent func(Event)

	// Capabilities overrides the detected optional codecs. Nil means
	// DetectCapabilities, evaluated once when the session is created.
	Capabilities *Capabilities

	// CSVDelimiter separates fields in CSV exports: ", " (default), ",",
	// ";", "\t" or "\n".
	CSVDelimiter string

	// ImpulseBitDepth is the PCM depth of WAV exports: 16, 24 (default) or 32.
	ImpulseBitDepth int

	// Product and ProductURL identify the generator in .coe headers.
	Product    string
	ProductURL string

	// Now returns the timestamp for file headers. Defaults to time.Now.
	Now func() time.Time
}

// DefaultConfig returns a configuration with every default filled in.
func DefaultConfig() Config {
	return Config{
		CSVDelimiter:    defaultCSVDelimiter,
		ImpulseBitDepth: defaultImpulseBitDepth,
		Product:         defaultProduct,
		ProductURL:      defaultProductURL,
	}
}

var csvDelimiters = map[string]bool{", ": true, ",": true, ";": true, "\t": true, "\n": true}

// Validate checks the configuration, filling in defaults for zero values.
func (c *Config) Validate() error {
	if c.CSVDelimiter == "" {
		c.CSVDelimiter = defaultCSVDelimiter
	}
	if !csvDelimiters[c.CSVDelimiter] {
		return fmt.Errorf("%w: unsupported CSV delimiter %q", ErrInvalidConfig, c.CSVDelimiter)
	}

	if c.ImpulseBitDepth == 0 {
		c.ImpulseBitDepth = defaultImpulseBitDepth
	}
	switch c.ImpulseBitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("%w: impulse bit depth must be 16, 24 or 32, got %d", ErrInvalidConfig, c.ImpulseBitDepth)
	}

	if c.Product == "" {
		c.Product = defaultProduct
	}
	if c.ProductURL == "" {
		c.ProductURL = defaultProductURL
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return nil
}
