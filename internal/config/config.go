// Package config resolves the session configuration from an optional config
// file and command-line flags.
//
// Config files are YAML (.yaml, .yml) or CUE (.cue). Both are validated
// against the embedded #Config definition; flags set on the command line
// take precedence over file values, which take precedence over defaults.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/schemarepl/internal/diag"
	"github.com/roach88/schemarepl/internal/rpc"
)

//go:embed config.cue
var definitionSource string

// Config is the resolved session configuration.
type Config struct {
	SchemaPath     string
	Endpoint       rpc.Endpoint
	ConnectTimeout time.Duration
	CallTimeout    time.Duration
	JournalPath    string
	NoTTY          bool
	Verbose        bool
}

// File mirrors the config file. Nil fields were not set.
type File struct {
	Schema         *string  `yaml:"schema" json:"schema,omitempty"`
	RPC            *FileRPC `yaml:"rpc" json:"rpc,omitempty"`
	ConnectTimeout *string  `yaml:"connect_timeout" json:"connect_timeout,omitempty"`
	CallTimeout    *string  `yaml:"call_timeout" json:"call_timeout,omitempty"`
	Journal        *string  `yaml:"journal" json:"journal,omitempty"`
	NoTTY          *bool    `yaml:"no_tty" json:"no_tty,omitempty"`
	Verbose        *bool    `yaml:"verbose" json:"verbose,omitempty"`
}

// FileRPC is the rpc section of a config file.
type FileRPC struct {
	Host *string `yaml:"host" json:"host,omitempty"`
	Port *int    `yaml:"port" json:"port,omitempty"`
	Path *string `yaml:"path" json:"path,omitempty"`
}

// Overrides carries the flags that were explicitly set. Nil fields were not.
type Overrides struct {
	SchemaPath     *string
	Host           *string
	Port           *int
	Path           *string
	ConnectTimeout *time.Duration
	CallTimeout    *time.Duration
	JournalPath    *string
	NoTTY          *bool
	Verbose        *bool
}

// LoadFile reads and validates a config file.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, diag.Wrap(diag.CodeInvalidConfiguration, err, "cannot read config '%s': %v", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return parseYAML(path, data)
	case ".cue":
		return parseCUE(path, data)
	default:
		return nil, diag.New(diag.CodeInvalidConfiguration,
			"unsupported config format '%s': expected .yaml, .yml or .cue", filepath.Ext(path))
	}
}

// parseYAML decodes strictly with yaml.v3, then checks value constraints
// with the CUE definition.
func parseYAML(path string, data []byte) (*File, error) {
	var f File
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, diag.Wrap(diag.CodeInvalidConfiguration, err, "invalid config '%s': %v", path, err)
	}

	ctx := cuecontext.New()
	def, err := definition(ctx)
	if err != nil {
		return nil, err
	}
	v := def.Unify(ctx.Encode(f.toMap()))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, invalid(path, err)
	}
	return &f, nil
}

func parseCUE(path string, data []byte) (*File, error) {
	ctx := cuecontext.New()
	def, err := definition(ctx)
	if err != nil {
		return nil, err
	}

	v := ctx.CompileBytes(data, cue.Filename(path))
	if err := v.Err(); err != nil {
		return nil, invalid(path, err)
	}
	v = def.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, invalid(path, err)
	}

	var f File
	if err := v.Decode(&f); err != nil {
		return nil, invalid(path, err)
	}
	return &f, nil
}

func definition(ctx *cue.Context) (cue.Value, error) {
	schema := ctx.CompileString(definitionSource, cue.Filename("config.cue"))
	if err := schema.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("config definition: %w", err)
	}
	return schema.LookupPath(cue.ParsePath("#Config")), nil
}

func invalid(path string, err error) *diag.Error {
	msg := strings.ReplaceAll(err.Error(), "\n", "; ")
	return diag.Wrap(diag.CodeInvalidConfiguration, err, "invalid config '%s': %s", path, msg)
}

// toMap keeps only the fields that were set, so absent optional fields stay
// absent when the file is encoded as a CUE value.
func (f File) toMap() map[string]any {
	m := make(map[string]any)
	if f.Schema != nil {
		m["schema"] = *f.Schema
	}
	if f.RPC != nil {
		r := make(map[string]any)
		if f.RPC.Host != nil {
			r["host"] = *f.RPC.Host
		}
		if f.RPC.Port != nil {
			r["port"] = *f.RPC.Port
		}
		if f.RPC.Path != nil {
			r["path"] = *f.RPC.Path
		}
		m["rpc"] = r
	}
	if f.ConnectTimeout != nil {
		m["connect_timeout"] = *f.ConnectTimeout
	}
	if f.CallTimeout != nil {
		m["call_timeout"] = *f.CallTimeout
	}
	if f.Journal != nil {
		m["journal"] = *f.Journal
	}
	if f.NoTTY != nil {
		m["no_tty"] = *f.NoTTY
	}
	if f.Verbose != nil {
		m["verbose"] = *f.Verbose
	}
	return m
}

// Resolve merges defaults, the optional file and the flag overrides, then
// validates the result. The endpoint host is checked before its port so an
// unusable address is always reported as InvalidHost.
func Resolve(file *File, o Overrides) (Config, error) {
	cfg := Config{
		Endpoint:       rpc.Endpoint{Host: rpc.DefaultHost, Port: rpc.DefaultPort},
		ConnectTimeout: rpc.DefaultConnectTimeout,
		CallTimeout:    rpc.DefaultCallTimeout,
	}

	if file != nil {
		if err := cfg.applyFile(file); err != nil {
			return Config{}, err
		}
	}
	cfg.applyOverrides(o)

	if cfg.SchemaPath == "" {
		return Config{}, diag.New(diag.CodeInvalidArguments, "no schema path given: use --schema <path>")
	}
	if err := cfg.Endpoint.Validate(); err != nil {
		return Config{}, err
	}
	if cfg.ConnectTimeout <= 0 {
		return Config{}, diag.New(diag.CodeInvalidConfiguration, "connect timeout must be positive")
	}
	return cfg, nil
}

func (c *Config) applyFile(f *File) error {
	if f.Schema != nil {
		c.SchemaPath = *f.Schema
	}
	if f.RPC != nil {
		if f.RPC.Host != nil {
			c.Endpoint.Host = *f.RPC.Host
		}
		if f.RPC.Port != nil {
			c.Endpoint.Port = *f.RPC.Port
		}
		if f.RPC.Path != nil {
			c.Endpoint.Path = *f.RPC.Path
		}
	}
	if f.ConnectTimeout != nil {
		d, err := time.ParseDuration(*f.ConnectTimeout)
		if err != nil {
			return diag.Wrap(diag.CodeInvalidConfiguration, err, "invalid connect_timeout: %v", err)
		}
		c.ConnectTimeout = d
	}
	if f.CallTimeout != nil {
		d, err := time.ParseDuration(*f.CallTimeout)
		if err != nil {
			return diag.Wrap(diag.CodeInvalidConfiguration, err, "invalid call_timeout: %v", err)
		}
		c.CallTimeout = d
	}
	if f.Journal != nil {
		c.JournalPath = *f.Journal
	}
	if f.NoTTY != nil {
		c.NoTTY = *f.NoTTY
	}
	if f.Verbose != nil {
		c.Verbose = *f.Verbose
	}
	return nil
}

func (c *Config) applyOverrides(o Overrides) {
	if o.SchemaPath != nil {
		c.SchemaPath = *o.SchemaPath
	}
	if o.Host != nil {
		c.Endpoint.Host = *o.Host
	}
	if o.Port != nil {
		c.Endpoint.Port = *o.Port
	}
	if o.Path != nil {
		c.Endpoint.Path = *o.Path
	}
	if o.ConnectTimeout != nil {
		c.ConnectTimeout = *o.ConnectTimeout
	}
	if o.CallTimeout != nil {
		c.CallTimeout = *o.CallTimeout
	}
	if o.JournalPath != nil {
		c.JournalPath = *o.JournalPath
	}
	if o.NoTTY != nil {
		c.NoTTY = *o.NoTTY
	}
	if o.Verbose != nil {
		c.Verbose = *o.Verbose
	}
}
