package digest

import (
	"fmt"

	"github.com/arloliu/arrowhash/hasher"
	"github.com/arloliu/arrowhash/internal/options"
)

// config holds the settings shared by both digester kinds.
type config struct {
	family      hasher.Family
	parallelism int
}

// Option configures a digester at construction time.
type Option = options.Option[*config]

func newConfig(opts ...Option) (*config, error) {
	cfg := &config{
		family:      hasher.Default(),
		parallelism: 1,
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

// WithHasher selects the inner hash family.
//
// Every column digester and the top-level fold use fresh instances from the
// same family; digests produced under different families are unrelated.
// The default is hasher.SHA3256.
func WithHasher(family hasher.Family) Option {
	return options.New(func(cfg *config) error {
		if family == nil {
			return fmt.Errorf("hasher family must not be nil")
		}
		cfg.family = family

		return nil
	})
}

// WithParallelism bounds the number of goroutines a record digester may use
// to process leaf columns of a single record concurrently.
//
// Per-column byte streams are independent, so fanning out does not change the
// digest: the finalize fold still runs in schema traversal order. Values 0
// and 1 keep updates fully sequential, which is the default; negative values
// are rejected.
func WithParallelism(n int) Option {
	return options.New(func(cfg *config) error {
		if n < 0 {
			return fmt.Errorf("parallelism must not be negative, got %d", n)
		}
		if n == 0 {
			n = 1
		}
		cfg.parallelism = n

		return nil
	})
}
