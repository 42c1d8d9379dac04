package wire

import (
	"os"
	"strconv"
)

// DefaultMaxDepth bounds how deeply messages and sequences may nest.
const DefaultMaxDepth = 32

// Config controls decoder limits. The zero value is replaced by defaults.
type Config struct {
	// MaxDepth is the deepest nesting of messages and sequences a decoder
	// will follow. Every level costs at least two bytes of input, but the
	// limit keeps the recursion shallow regardless of input size.
	MaxDepth int
}

var config = Config{MaxDepth: DefaultMaxDepth}

// DefaultConfig returns the package-wide configuration.
func DefaultConfig() Config { return config }

// SetConfig replaces the package-wide configuration. Call it during
// initialization; decoders copy the configuration when they are created.
func SetConfig(c Config) { config = c.withDefaults() }

func (c Config) withDefaults() Config {
	if c.MaxDepth <= 0 {
		c.MaxDepth = DefaultMaxDepth
	}
	return c
}

func init() {
	// Optional env toggle for test harnesses; default remains unchanged if unset.
	if v := os.Getenv("VERILITE_MAX_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.MaxDepth = n
		}
	}
}
