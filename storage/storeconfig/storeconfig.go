// Package storeconfig opens a chain of storage backends described by a
// config file.
//
// Example (YAML; JSON and TOML work too):
//
//	backends:
//	  - name: localfs
//	    config:
//	      localfs-dir: /var/lib/aleph/mirror
//	  - name: node
//	    id: official
//	    config:
//	      node-url: https://api2.aleph.im
//
// Config keys are the backend's flag names. Callers still need to link the
// backends they want via blank imports.
package storeconfig

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/viper"

	"aleph.im/sdk/storage"
	"aleph.im/sdk/storage/registry"
)

type Config struct {
	Backends []BackendConfig `mapstructure:"backends"`
}

type BackendConfig struct {
	// Name is the registry backend name to open (e.g. "localfs", "grpc", "node").
	Name string `mapstructure:"name"`
	// ID is an optional stable alias reported by MultiSource.Locate.
	// If empty, Name is used.
	ID     string            `mapstructure:"id"`
	Config map[string]string `mapstructure:"config"`
}

func (b BackendConfig) id() string {
	if b.ID != "" {
		return b.ID
	}
	return b.Name
}

// LoadFile reads a config file; the format follows the file extension.
func LoadFile(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, errors.New("storeconfig: empty config path")
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return cfg, fmt.Errorf("storeconfig: %w", err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("storeconfig: %w", err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if len(c.Backends) == 0 {
		return errors.New("storeconfig: at least one backend is required")
	}
	seen := make(map[string]struct{}, len(c.Backends))
	for _, b := range c.Backends {
		if b.Name == "" {
			return errors.New("storeconfig: backend name is required")
		}
		id := b.id()
		if _, ok := seen[id]; ok {
			return fmt.Errorf("storeconfig: duplicate backend id %q", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Open opens every backend in order and chains them in a MultiSource.
//
// If preferred is non-empty, the backend with that name or id is moved to
// the front so it is tried first.
func (c Config) Open(ctx context.Context, usage registry.Usage, preferred string) (storage.MultiSource, func() error, error) {
	if err := c.Validate(); err != nil {
		return storage.MultiSource{}, nil, err
	}

	ordered := append([]BackendConfig(nil), c.Backends...)
	if preferred != "" {
		idx := -1
		for i := range ordered {
			if ordered[i].Name == preferred || ordered[i].ID == preferred {
				idx = i
				break
			}
		}
		if idx < 0 {
			return storage.MultiSource{}, nil, fmt.Errorf("storeconfig: preferred backend %q not found in config", preferred)
		}
		if idx != 0 {
			b := ordered[idx]
			copy(ordered[1:idx+1], ordered[0:idx])
			ordered[0] = b
		}
	}

	named := make([]storage.NamedSource, 0, len(ordered))
	closers := make([]func() error, 0, len(ordered))
	closeAll := func() error {
		var firstErr error
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil && firstErr == nil {
				firstErr = err
			}
		}
		return firstErr
	}

	for _, b := range ordered {
		src, closeFn, err := registry.OpenWithConfig(ctx, b.Name, usage, b.Config)
		if err != nil {
			_ = closeAll()
			return storage.MultiSource{}, nil, fmt.Errorf("storeconfig: %s: %w", b.id(), err)
		}
		named = append(named, storage.NamedSource{Name: b.id(), Source: src})
		if closeFn != nil {
			closers = append(closers, closeFn)
		}
	}
	return storage.MultiSource{Backends: named}, closeAll, nil
}
