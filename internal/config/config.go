// Package config resolves the worker's settings from defaults, an optional
// YAML file, environment variables and command-line flags, in increasing
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dreamware/ledgernode/internal/partition"
)

// BasePort is added to the worker id to derive the default listen port.
const BasePort = 9100

// Config is the fully resolved worker configuration.
type Config struct {
	WorkerID    int      `yaml:"worker_id"`
	Listen      string   `yaml:"listen"`
	Coordinator string   `yaml:"coordinator"`
	Partitions  []string `yaml:"partitions"`
	DataDir     string   `yaml:"data_dir"`

	LockTimeout time.Duration `yaml:"lock_timeout"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`

	AdminListen string `yaml:"admin_listen"`

	Env      string `yaml:"env"`
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	Ranges             []partition.Range     `yaml:"ranges"`
	Fallback           partition.Fallback    `yaml:"fallback"`
	DefaultAssignments partition.Assignments `yaml:"default_assignments"`
}

// Default returns the built-in configuration of worker 3.
func Default() Config {
	return Config{
		WorkerID:           3,
		DataDir:            "./data",
		LockTimeout:        500 * time.Millisecond,
		IdleTimeout:        60 * time.Second,
		Env:                "dev",
		Ranges:             partition.DefaultRanges(),
		Fallback:           partition.DefaultFallback(),
		DefaultAssignments: partition.DefaultAssignments(),
	}
}

// LoadFile overlays the YAML document at path onto cfg. Unknown keys are
// rejected.
func LoadFile(path string, cfg *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// ListenAddr returns Listen, or ":<BasePort+WorkerID>" when it is empty.
func (c Config) ListenAddr() string {
	if c.Listen != "" {
		return c.Listen
	}
	return ":" + strconv.Itoa(BasePort+c.WorkerID)
}

// PartitionMap builds the id-range map described by Ranges and Fallback.
func (c Config) PartitionMap() (*partition.Map, error) {
	return partition.NewMap(c.Ranges, c.Fallback)
}

// PartitionSet returns the explicit partition list, or the default
// assignment of WorkerID when none is given.
func (c Config) PartitionSet() partition.Set {
	return partition.Resolve(c.Partitions, c.WorkerID, c.DefaultAssignments)
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.WorkerID <= 0 {
		errs = append(errs, fmt.Errorf("worker_id must be positive, got %d", c.WorkerID))
	}
	if _, _, err := net.SplitHostPort(c.ListenAddr()); err != nil {
		errs = append(errs, fmt.Errorf("listen: %w", err))
	}
	if c.AdminListen != "" {
		if _, _, err := net.SplitHostPort(c.AdminListen); err != nil {
			errs = append(errs, fmt.Errorf("admin_listen: %w", err))
		}
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir must not be empty"))
	}
	if c.LockTimeout <= 0 {
		errs = append(errs, fmt.Errorf("lock_timeout must be positive, got %s", c.LockTimeout))
	}
	if c.IdleTimeout <= 0 {
		errs = append(errs, fmt.Errorf("idle_timeout must be positive, got %s", c.IdleTimeout))
	}
	if _, err := c.PartitionMap(); err != nil {
		errs = append(errs, fmt.Errorf("ranges: %w", err))
	}
	if c.PartitionSet().Len() == 0 {
		errs = append(errs, errors.New("no partitions assigned"))
	}
	return errors.Join(errs...)
}
