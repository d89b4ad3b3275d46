package client

import (
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"

	"github.com/bbengfort/fluidblob/pack"
	"github.com/bbengfort/fluidblob/selfencrypt"
)

// Config supplies the construction-time parameters of the blob storage
// pipeline (spec.md §5: "configuration (size limits, fan-out) is passed
// in at construction" — there is no global mutable state inside the
// core). Operations never consult it again once a Client is built; only
// LoadConfig below touches the filesystem, and only at construction time.
type Config struct {
	// ChunkFanout bounds the number of chunk gets/puts/deletes allowed in
	// flight for a single operation (spec.md §5).
	ChunkFanout int `yaml:"chunk_fanout,omitempty"`

	// ChunkTimeout bounds each individual chunk RPC (spec.md §5).
	ChunkTimeout time.Duration `yaml:"chunk_timeout,omitempty"`

	// MaxDataMapLevels bounds the Root->Child recursion a Pack/Unpack/
	// Delete may walk before treating the data map as corrupt (spec.md §9
	// Open Question: "recursion depth is in principle unbounded").
	MaxDataMapLevels int `yaml:"max_data_map_levels,omitempty"`

	// DeleteChargeRate gates whether delete_blob's account charges are
	// applied at all (spec.md §9 Open Question: "the exact relationship
	// between a delete's cost and a write's cost is left to the
	// implementation"). Any value greater than zero enables charging:
	// the outermost blob and every constituent chunk pack.Delete removes
	// are each charged once, the same way Accounting.ChargeDelete is
	// always called for a chunk write's deletion — Accounting carries no
	// per-call amount to scale a delete's cost against a write's, so this
	// is a gate rather than a continuous rate. Zero (or a negative value)
	// disables delete charging entirely, everywhere a delete reaches
	// accounting.
	DeleteChargeRate float64 `yaml:"delete_charge_rate,omitempty"`

	// LogLevel names the minimum level logged by the Client (see
	// internal/flog.LevelFromString for accepted values).
	LogLevel string `yaml:"log_level,omitempty"`
}

// Defaults returns a Config populated with the reference values named
// throughout spec.md §5 and §9.
func Defaults() Config {
	return Config{
		ChunkFanout:      selfencrypt.DefaultFanout,
		ChunkTimeout:     120 * time.Second,
		MaxDataMapLevels: pack.DefaultMaxLevels,
		DeleteChargeRate: 1.0,
		LogLevel:         "info",
	}
}

// Validate ensures the Config's settings are usable, filling in any zero
// field from Defaults() rather than rejecting it outright — a caller that
// only cares about overriding fan-out, say, should not have to restate
// every other field. DeleteChargeRate is the exception: zero is a valid
// setting that disables delete charging, so it is kept as is, and only a
// negative rate is rejected.
func (c *Config) Validate() error {
	d := Defaults()

	if c.ChunkFanout <= 0 {
		c.ChunkFanout = d.ChunkFanout
	}
	if c.ChunkTimeout <= 0 {
		c.ChunkTimeout = d.ChunkTimeout
	}
	if c.MaxDataMapLevels <= 0 {
		c.MaxDataMapLevels = d.MaxDataMapLevels
	}
	if c.DeleteChargeRate < 0 {
		return errors.New("fluidblob: delete charge rate must not be negative")
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}

	return nil
}

// LoadConfig reads a YAML configuration file from path, applying Defaults()
// for any field it omits, the way the teacher's fluid.LoadConfig layers a
// file on top of its own defaults.
func LoadConfig(path string) (Config, error) {
	conf := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "fluidblob: could not read config at %s", path)
	}

	if err := yaml.Unmarshal(data, &conf); err != nil {
		return Config{}, errors.Wrapf(err, "fluidblob: could not parse config at %s", path)
	}

	if err := conf.Validate(); err != nil {
		return Config{}, err
	}

	return conf, nil
}

// String returns a human readable summary of the configuration.
func (c Config) String() string {
	return fmt.Sprintf(
		"fanout=%d timeout=%s max_levels=%d delete_rate=%.2f log=%s",
		c.ChunkFanout, c.ChunkTimeout, c.MaxDataMapLevels, c.DeleteChargeRate, c.LogLevel,
	)
}
