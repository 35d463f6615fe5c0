/*
	Package config reads the TOML configuration of agstore programs:

		[graph]
		chunk_size = 1024
		compression = "zstd"

		[logging]
		logfile = "agstore.log"
		max_log_size = 500 # MB
		max_log_age = 30   # days

		[store]
		engine = "badger"
		path = "data"

		[kafka]
		servers = ["localhost:9092"]
		topic = "graph-commits"

	The file is checked against an embedded JSON schema before it is decoded.
	Relative paths are taken relative to the directory of the file.
*/
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/janelia-flyem/agstore/agstore"
	"github.com/janelia-flyem/agstore/graph"
	"github.com/janelia-flyem/agstore/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaJSON string

var compiledSchema = jsonschema.MustCompileString("schema.json", schemaJSON)

// Config is the decoded configuration.
type Config struct {
	Graph   graph.Config        `toml:"graph"`
	Logging agstore.LogConfig   `toml:"logging"`
	Store   storage.Config      `toml:"store"`
	Kafka   storage.KafkaConfig `toml:"kafka"`

	location string
}

// Load reads, validates and decodes a TOML file.
func Load(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("no TOML configuration file provided")
	}
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(filename)
	if err != nil {
		return nil, err
	}
	c, err := Parse(string(data), filepath.Dir(abs))
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", filename, err)
	}
	c.location = abs
	return c, nil
}

// Parse validates and decodes TOML content.  Relative paths are resolved against dir.
func Parse(content, dir string) (*Config, error) {
	if err := Validate(content); err != nil {
		return nil, err
	}
	c := new(Config)
	if _, err := toml.Decode(content, c); err != nil {
		return nil, fmt.Errorf("could not decode TOML config: %v", err)
	}
	if err := c.convertPathsToAbsolute(dir); err != nil {
		return nil, fmt.Errorf("could not convert relative paths to absolute paths in TOML config: %v", err)
	}
	agstore.Debugf("tomlConfig: %+v\n", *c)
	return c, nil
}

// Validate checks TOML content against the configuration schema.
func Validate(content string) error {
	var raw map[string]interface{}
	if _, err := toml.Decode(content, &raw); err != nil {
		return fmt.Errorf("could not decode TOML config: %v", err)
	}
	if raw == nil {
		raw = map[string]interface{}{}
	}
	// Round trip through JSON so the validator sees JSON types.
	b, err := json.Marshal(raw)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return err
	}
	if err := compiledSchema.Validate(v); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// Location returns the absolute path of the file the config was loaded from.
func (c *Config) Location() string {
	return c.location
}

// ConvertToAbsolute returns path joined to dir unless it is already absolute.
func ConvertToAbsolute(path, dir string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	return filepath.Abs(filepath.Join(dir, path))
}

// Some settings can be given as relative paths.  This converts them in-place to
// absolute paths relative to dir.
func (c *Config) convertPathsToAbsolute(dir string) error {
	var err error

	// [logging].logfile
	if c.Logging.Logfile != "" {
		if c.Logging.Logfile, err = ConvertToAbsolute(c.Logging.Logfile, dir); err != nil {
			return fmt.Errorf("error converting logfile setting to absolute path")
		}
	}

	// [store].path
	if c.Store.Path != "" {
		if c.Store.Path, err = ConvertToAbsolute(c.Store.Path, dir); err != nil {
			return fmt.Errorf("error converting store path %q to absolute path", c.Store.Path)
		}
	}

	// [store].url for local directories
	if rest, ok := strings.CutPrefix(c.Store.URL, "file://"); ok && !filepath.IsAbs(rest) {
		abs, err := ConvertToAbsolute(rest, dir)
		if err != nil {
			return fmt.Errorf("error converting store url %q to absolute path", c.Store.URL)
		}
		c.Store.URL = "file://" + filepath.ToSlash(abs)
	}
	return nil
}

// SetLogger routes logging as configured.
func (c *Config) SetLogger() {
	c.Logging.SetLogger()
}

// OpenStore opens the configured store, monitored with collectors registered in
// the default Prometheus registry.  It returns nil without error if no store is
// configured.
func (c *Config) OpenStore() (storage.Store, error) {
	if c.Store.Engine == "" {
		return nil, nil
	}
	s, _, err := storage.Open(c.Store)
	if err != nil {
		return nil, err
	}
	return storage.Monitor(s, prometheus.DefaultRegisterer), nil
}

// GraphOptions returns the options that create a graph with this configuration.
// A non-nil store becomes the graph's persister.
func (c *Config) GraphOptions(store storage.Store) []graph.Option {
	opts := []graph.Option{graph.WithConfig(c.Graph)}
	if store != nil {
		opts = append(opts, graph.WithPersister(store))
	}
	return opts
}

// Publisher returns a kafka publisher for a graph, or nil if kafka is not configured.
func (c *Config) Publisher(graphID string) (*storage.KafkaPublisher, error) {
	if !c.Kafka.Enabled() {
		return nil, nil
	}
	return storage.NewKafkaPublisher(c.Kafka, graphID)
}
