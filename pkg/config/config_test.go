package config

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/pedigree/pkg/cache"
	"github.com/matzehuels/pedigree/pkg/errors"
	"github.com/matzehuels/pedigree/pkg/pedigree"
	"github.com/matzehuels/pedigree/pkg/store"
)

func TestRead(t *testing.T) {
	src := `
[pedigree]
inheritance_pattern = "autosomal_recessive"
carrier_frequency = 0.02

[layout]
spacing = 200

[store]
backend = "sqlite"
dsn = "/tmp/p.db"

[cache]
backend = "redis"
addr = "localhost:6379"
timeout = "5s"

[server]
addr = ":9000"
document = "family-1"
`
	c, err := Read(strings.NewReader(src))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if c.Pedigree.InheritancePattern != "autosomal_recessive" || c.Pedigree.CarrierFrequency != 0.02 {
		t.Errorf("Pedigree = %+v", c.Pedigree)
	}
	if c.Layout.Spacing != 200 || len(c.Layout.Rows) != pedigree.MaxGeneration {
		t.Errorf("Layout = %+v, want spacing 200 and default rows", c.Layout)
	}
	if c.Store.Backend != store.BackendSQLite || c.Store.DSN != "/tmp/p.db" {
		t.Errorf("Store = %+v", c.Store)
	}
	if c.Cache.Backend != CacheRedis || c.Cache.Addr != "localhost:6379" || c.Cache.Timeout != 5*time.Second {
		t.Errorf("Cache = %+v", c.Cache)
	}
	if c.Server.Addr != ":9000" || c.Server.Document != "family-1" || c.Server.ReadTimeout == 0 {
		t.Errorf("Server = %+v", c.Server)
	}
}

func TestReadRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"syntax", "[pedigree"},
		{"unknown key", "[pedigree]\ncolour = \"red\""},
		{"pattern", "[pedigree]\ninheritance_pattern = \"mitochondrial\""},
		{"frequency", "[pedigree]\ncarrier_frequency = 1.5"},
		{"rows", "[layout]\nrows = [1, 2]"},
		{"store", "[store]\nbackend = \"floppy\""},
		{"cache", "[cache]\nbackend = \"memcached\""},
		{"redis addr", "[cache]\nbackend = \"redis\""},
		{"document", "[server]\ndocument = \"../x\""},
	}
	for _, tt := range tests {
		_, err := Read(strings.NewReader(tt.src))
		if !errors.Is(err, errors.ErrCodeInvalidConfig) {
			t.Errorf("%s: Read() code = %q, want %q (err %v)", tt.name, errors.GetCode(err), errors.ErrCodeInvalidConfig, err)
		}
	}
}

func TestDefaults(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/xdg/cache")
	t.Setenv("XDG_DATA_HOME", "/xdg/data")
	c := Default()
	if err := c.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if c.Pedigree.InheritancePattern != string(pedigree.DefaultPattern) {
		t.Errorf("pattern = %q, want %q", c.Pedigree.InheritancePattern, pedigree.DefaultPattern)
	}
	if c.Cache.Dir != filepath.Join("/xdg/cache", "pedigree") {
		t.Errorf("Cache.Dir = %q", c.Cache.Dir)
	}
	if c.Store.Dir != filepath.Join("/xdg/data", "pedigree", "documents") {
		t.Errorf("Store.Dir = %q", c.Store.Dir)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	// Missing default file: defaults.
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load(default, missing) = %v", err)
	}
	if c.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want :8080", c.Server.Addr)
	}

	// Missing explicit file: error.
	if _, err := Load(filepath.Join(dir, "nope.toml")); err == nil {
		t.Error("Load(explicit missing) should fail")
	}

	path := DefaultPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("[server]\naddr = \":7000\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err = Load("")
	if err != nil {
		t.Fatal(err)
	}
	if c.Server.Addr != ":7000" {
		t.Errorf("Server.Addr = %q, want :7000", c.Server.Addr)
	}
}

func TestWriteRoundTrip(t *testing.T) {
	c := Default()
	c.Pedigree.CarrierFrequency = 0.05
	var buf bytes.Buffer
	if err := c.Write(&buf); err != nil {
		t.Fatal(err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read(Write()) = %v\n%s", err, buf.String())
	}
	if got.Pedigree.CarrierFrequency != 0.05 || got.Server.WriteTimeout != c.Server.WriteTimeout {
		t.Errorf("round trip = %+v / %+v", got.Pedigree, got.Server)
	}
}

func TestNewPedigree(t *testing.T) {
	c := Default()
	c.Pedigree.InheritancePattern = string(pedigree.XLinkedRecessive)
	p, err := c.NewPedigree()
	if err != nil {
		t.Fatal(err)
	}
	if p.Pattern() != pedigree.XLinkedRecessive || p.Len() != 0 {
		t.Errorf("NewPedigree() pattern %s len %d", p.Pattern(), p.Len())
	}
}

func TestOpenBackends(t *testing.T) {
	ctx := context.Background()
	c := Default()
	c.Cache.Backend = CacheNone
	cc, err := c.OpenCache(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := cc.(cache.NullCache); !ok {
		t.Errorf("OpenCache(none) = %T, want cache.NullCache", cc)
	}

	c.Cache.Backend = CacheFile
	c.Cache.Dir = t.TempDir()
	if cc, err = c.OpenCache(ctx); err != nil {
		t.Fatal(err)
	}
	if _, ok := cc.(*cache.FileCache); !ok {
		t.Errorf("OpenCache(file) = %T, want *cache.FileCache", cc)
	}

	c.Store.Dir = t.TempDir()
	s, err := c.OpenStore(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if s.Backend() != store.BackendFile {
		t.Errorf("OpenStore().Backend() = %q, want file", s.Backend())
	}
}
