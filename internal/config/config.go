package config

import (
	"errors"
	"fmt"
	"go/token"
	"os"
	"strconv"

	"hwids/internal/export"
	"hwids/internal/textutil"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Input      string `yaml:"input"`
	OffsetOut  string `yaml:"offset_out"`
	NestedOut  string `yaml:"nested_out"`
	Emit       string `yaml:"emit"`
	Encoding   string `yaml:"encoding"`
	StopVendor string `yaml:"stop_vendor"`
	GoPackage  string `yaml:"go_package"`
	Workers    int    `yaml:"workers"`

	DatabaseURL    string `yaml:"database_url"`
	Neo4jURI       string `yaml:"neo4j_uri"`
	Neo4jUser      string `yaml:"neo4j_user"`
	Neo4jPassword  string `yaml:"neo4j_password"`
	GraphBatchSize int    `yaml:"graph_batch_size"`
}

// Load reads .env, then the environment, then the YAML file at path if one
// is given. Later sources override earlier ones.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found, using environment variables")
	}

	cfg := &Config{
		Input:          getEnv("HWIDS_INPUT", "pci.ids"),
		OffsetOut:      getEnv("HWIDS_OFFSET_OUT", ""),
		NestedOut:      getEnv("HWIDS_NESTED_OUT", ""),
		Emit:           getEnv("HWIDS_EMIT", string(export.SelectBoth)),
		Encoding:       getEnv("HWIDS_ENCODING", string(export.EncodingJSON)),
		StopVendor:     getEnv("HWIDS_STOP_VENDOR", ""),
		GoPackage:      getEnv("HWIDS_GO_PACKAGE", "pciids"),
		Workers:        getEnvInt("HWIDS_WORKERS", 2),
		DatabaseURL:    getEnv("DATABASE_URL", "postgres://localhost:5432/hwids?sslmode=disable"),
		Neo4jURI:       getEnv("NEO4J_URI", "bolt://localhost:7687"),
		Neo4jUser:      getEnv("NEO4J_USER", "neo4j"),
		Neo4jPassword:  getEnv("NEO4J_PASSWORD", "password"),
		GraphBatchSize: getEnvInt("HWIDS_GRAPH_BATCH_SIZE", 500),
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// Keys absent from the file leave the current values alone.
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		log.Debug().Str("path", path).Msg("Applied config file")
	}

	return cfg, nil
}

// Validate checks the build settings.
func (c *Config) Validate() error {
	var errs []error
	if c.Input == "" {
		errs = append(errs, errors.New("input path is empty"))
	}
	if _, err := export.ParseSelection(c.Emit); err != nil {
		errs = append(errs, err)
	}
	if _, err := export.ParseEncoding(c.Encoding); err != nil {
		errs = append(errs, err)
	}
	if c.StopVendor != "" && !textutil.IsHexID(textutil.StripHexPrefix(c.StopVendor)) {
		errs = append(errs, fmt.Errorf("stop vendor %q is not a 4-digit hex ID", c.StopVendor))
	}
	if !token.IsIdentifier(c.GoPackage) {
		errs = append(errs, fmt.Errorf("go package %q is not an identifier", c.GoPackage))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	return errors.Join(errs...)
}

// Selection returns the parsed artifact selection.
func (c *Config) Selection() export.Selection {
	sel, _ := export.ParseSelection(c.Emit)
	return sel
}

// ExportEncoding returns the parsed artifact encoding.
func (c *Config) ExportEncoding() export.Encoding {
	enc, _ := export.ParseEncoding(c.Encoding)
	return enc
}

// OutputPath returns where the artifact of the given kind is written. An
// unset path defaults to the kind name with the encoding's extension.
func (c *Config) OutputPath(kind string) string {
	switch {
	case kind == export.KindOffsetTable && c.OffsetOut != "":
		return c.OffsetOut
	case kind == export.KindNestedTable && c.NestedOut != "":
		return c.NestedOut
	}
	return "pci_" + kind + "." + string(c.ExportEncoding())
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
