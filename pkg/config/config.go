// Package config loads the pedigree TOML configuration file.
//
// Every section is optional; [Config.SetDefaults] fills the gaps:
//
//	[pedigree]
//	inheritance_pattern = "autosomal_recessive"
//	carrier_frequency = 0.01
//
//	[layout]
//	spacing = 140
//	rows = [150, 300, 450, 600, 750]
//
//	[store]
//	backend = "sqlite"
//	dsn = "/var/lib/pedigree/pedigree.db"
//
//	[cache]
//	backend = "redis"
//	addr = "localhost:6379"
//
//	[server]
//	addr = ":8080"
//
// The file is looked up at $XDG_CONFIG_HOME/pedigree/config.toml unless a
// path is given explicitly.
package config

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/pedigree/pkg/cache"
	"github.com/matzehuels/pedigree/pkg/errors"
	"github.com/matzehuels/pedigree/pkg/layout"
	"github.com/matzehuels/pedigree/pkg/pedigree"
	"github.com/matzehuels/pedigree/pkg/store"
)

const appName = "pedigree"

// Cache backends.
const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

// CacheBackends lists every cache backend name.
var CacheBackends = []string{CacheFile, CacheRedis, CacheNone}

// Config is the whole configuration file.
type Config struct {
	Pedigree PedigreeConfig `toml:"pedigree"`
	Layout   layout.Config  `toml:"layout"`
	Store    store.Config   `toml:"store"`
	Cache    CacheConfig    `toml:"cache"`
	Server   ServerConfig   `toml:"server"`
}

// PedigreeConfig holds the settings given to new documents.
type PedigreeConfig struct {
	InheritancePattern string  `toml:"inheritance_pattern"`
	CarrierFrequency   float64 `toml:"carrier_frequency"`
}

// CacheConfig selects the cache for derived layouts, risks and renders.
// The Redis fields apply to the redis backend only.
type CacheConfig struct {
	Backend string `toml:"backend"`
	Dir     string `toml:"dir"`
	cache.RedisConfig
}

// ServerConfig configures `pedigree serve`.
type ServerConfig struct {
	Addr            string        `toml:"addr"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`

	// Document is the store ID the server loads at startup and saves
	// after every change. Empty keeps the pedigree in memory only.
	Document string `toml:"document"`
}

// Default returns a config with every field defaulted.
func Default() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// SetDefaults fills zero fields with defaults.
func (c *Config) SetDefaults() {
	if c.Pedigree.InheritancePattern == "" {
		c.Pedigree.InheritancePattern = string(pedigree.DefaultPattern)
	}
	if c.Pedigree.CarrierFrequency == 0 {
		c.Pedigree.CarrierFrequency = pedigree.DefaultCarrierFrequency
	}
	c.Layout.SetDefaults()

	if c.Store.Backend == "" {
		c.Store.Backend = store.BackendFile
	}
	if c.Store.Backend == store.BackendFile && c.Store.Dir == "" {
		c.Store.Dir = filepath.Join(dataDir(), "documents")
	}
	if c.Store.Backend == store.BackendSQLite && c.Store.DSN == "" {
		c.Store.DSN = filepath.Join(dataDir(), "pedigree.db")
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheFile
	}
	if c.Cache.Backend == CacheFile && c.Cache.Dir == "" {
		c.Cache.Dir = CacheDir()
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
}

// Validate checks enum fields and ranges. Call it after SetDefaults.
func (c *Config) Validate() error {
	if _, err := pedigree.ParsePattern(c.Pedigree.InheritancePattern); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "pedigree.inheritance_pattern")
	}
	if err := errors.ValidateCarrierFrequency(c.Pedigree.CarrierFrequency); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "pedigree.carrier_frequency")
	}
	if err := c.Layout.Validate(); err != nil {
		return err
	}
	if !slices.Contains(store.Backends, c.Store.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig, "store.backend %q must be one of %s", c.Store.Backend, strings.Join(store.Backends, ", "))
	}
	if !slices.Contains(CacheBackends, c.Cache.Backend) {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.backend %q must be one of %s", c.Cache.Backend, strings.Join(CacheBackends, ", "))
	}
	if c.Cache.Backend == CacheRedis && c.Cache.Addr == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "cache.addr is required for the redis backend")
	}
	if c.Server.Document != "" {
		if err := errors.ValidateDocumentID(c.Server.Document); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "server.document")
		}
	}
	return nil
}

// NewPedigree returns an empty pedigree with the configured settings.
func (c *Config) NewPedigree() (*pedigree.Pedigree, error) {
	p := pedigree.New()
	pattern, err := pedigree.ParsePattern(c.Pedigree.InheritancePattern)
	if err != nil {
		return nil, err
	}
	if err := p.SetPattern(pattern); err != nil {
		return nil, err
	}
	if err := p.SetCarrierFrequency(c.Pedigree.CarrierFrequency); err != nil {
		return nil, err
	}
	return p, nil
}

// OpenStore opens the configured document store.
func (c *Config) OpenStore(ctx context.Context) (store.Store, error) {
	return store.Open(ctx, c.Store)
}

// OpenCache opens the configured cache.
func (c *Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Cache.Backend {
	case CacheNone:
		return cache.NewNullCache(), nil
	case CacheRedis:
		return cache.NewRedisCache(ctx, c.Cache.RedisConfig)
	}
	return cache.NewFileCache(c.Cache.Dir)
}

// Load reads the config file at path. An empty path means [DefaultPath],
// which may be absent; an explicit path must exist. Defaults are applied
// and the result validated.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) && !explicit {
		return Default(), nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "open config")
	}
	defer f.Close()

	c, err := Read(f)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "%s", path)
	}
	return c, nil
}

// Read decodes a config from r, rejecting unknown keys.
func Read(r io.Reader) (*Config, error) {
	c := &Config{}
	md, err := toml.NewDecoder(r).Decode(c)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config keys: %s", strings.Join(keys, ", "))
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Write encodes c as TOML.
func (c *Config) Write(w io.Writer) error {
	return toml.NewEncoder(w).Encode(c)
}

// DefaultPath returns $XDG_CONFIG_HOME/pedigree/config.toml, falling back
// to ~/.config.
func DefaultPath() string {
	return filepath.Join(xdg("XDG_CONFIG_HOME", ".config"), appName, "config.toml")
}

// CacheDir returns $XDG_CACHE_HOME/pedigree, falling back to ~/.cache.
func CacheDir() string {
	return filepath.Join(xdg("XDG_CACHE_HOME", ".cache"), appName)
}

func dataDir() string {
	return filepath.Join(xdg("XDG_DATA_HOME", filepath.Join(".local", "share")), appName)
}

func xdg(env, fallback string) string {
	if dir := os.Getenv(env); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return fallback
	}
	return filepath.Join(home, fallback)
}
