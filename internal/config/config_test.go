package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/schemarepl/internal/diag"
	"github.com/roach88/schemarepl/internal/rpc"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func ptr[T any](v T) *T { return &v }

// =============================================================================
// Config files
// =============================================================================

func TestLoadFile_YAML(t *testing.T) {
	path := writeFile(t, "repl.yaml", `
schema: person.sc
rpc:
  host: vmedv.com
  port: 5050
  path: person
connect_timeout: 500ms
journal: journal.db
`)
	f, err := LoadFile(path)
	require.NoError(t, err)

	cfg, err := Resolve(f, Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "person.sc", cfg.SchemaPath)
	assert.Equal(t, rpc.Endpoint{Host: "vmedv.com", Port: 5050, Path: "person"}, cfg.Endpoint)
	assert.Equal(t, 500*time.Millisecond, cfg.ConnectTimeout)
	assert.Equal(t, rpc.DefaultCallTimeout, cfg.CallTimeout)
	assert.Equal(t, "journal.db", cfg.JournalPath)
}

func TestLoadFile_CUE(t *testing.T) {
	path := writeFile(t, "repl.cue", `
schema: "shop.sc"
rpc: {
	host: "localhost"
	port: 8080
}
no_tty: true
`)
	f, err := LoadFile(path)
	require.NoError(t, err)

	cfg, err := Resolve(f, Overrides{})
	require.NoError(t, err)
	assert.Equal(t, "shop.sc", cfg.SchemaPath)
	assert.Equal(t, 8080, cfg.Endpoint.Port)
	assert.True(t, cfg.NoTTY)
}

func TestLoadFile_EmptyYAML(t *testing.T) {
	f, err := LoadFile(writeFile(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Nil(t, f.Schema)
}

func TestLoadFile_Invalid(t *testing.T) {
	tests := map[string]string{
		"unknown.yaml":    "schema: a.sc\ncolour: blue\n",
		"port.yaml":       "rpc:\n  port: 70000\n",
		"zero-port.yaml":  "rpc:\n  port: 0\n",
		"timeout.yaml":    "connect_timeout: soon\n",
		"empty-host.yaml": "rpc:\n  host: \"\"\n",
		"wrong-type.yaml": "rpc:\n  port: abc\n",
		"unknown.cue":     "colour: \"blue\"\n",
		"port.cue":        "rpc: port: 70000\n",
		"syntax.cue":      "rpc: {\n",
		"config.toml":     "schema = 'a'\n",
	}
	for name, content := range tests {
		_, err := LoadFile(writeFile(t, name, content))
		require.Error(t, err, name)
		assert.Equal(t, diag.CodeInvalidConfiguration, diag.CodeOf(err), name)
		assert.True(t, diag.IsSessionFatal(err), name)
	}
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Equal(t, diag.CodeInvalidConfiguration, diag.CodeOf(err))
}

// =============================================================================
// Resolution
// =============================================================================

func TestResolve_Defaults(t *testing.T) {
	cfg, err := Resolve(nil, Overrides{SchemaPath: ptr("s.sc")})
	require.NoError(t, err)
	assert.Equal(t, rpc.Endpoint{Host: rpc.DefaultHost, Port: rpc.DefaultPort}, cfg.Endpoint)
	assert.Equal(t, rpc.DefaultConnectTimeout, cfg.ConnectTimeout)
	assert.False(t, cfg.Verbose)
}

func TestResolve_FlagsOverrideFile(t *testing.T) {
	f, err := LoadFile(writeFile(t, "repl.yaml", "schema: file.sc\nrpc:\n  host: filehost\n  port: 1000\n"))
	require.NoError(t, err)

	cfg, err := Resolve(f, Overrides{
		SchemaPath: ptr("flag.sc"),
		Port:       ptr(2000),
		Verbose:    ptr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "flag.sc", cfg.SchemaPath)
	assert.Equal(t, "filehost", cfg.Endpoint.Host)
	assert.Equal(t, 2000, cfg.Endpoint.Port)
	assert.True(t, cfg.Verbose)
}

func TestResolve_Errors(t *testing.T) {
	_, err := Resolve(nil, Overrides{})
	assert.Equal(t, diag.CodeInvalidArguments, diag.CodeOf(err))

	_, err = Resolve(nil, Overrides{SchemaPath: ptr("")})
	assert.Equal(t, diag.CodeInvalidArguments, diag.CodeOf(err))

	// Host is checked before the port.
	_, err = Resolve(nil, Overrides{SchemaPath: ptr("s.sc"), Host: ptr("255.0.256.257"), Port: ptr(0)})
	assert.Equal(t, diag.CodeInvalidHost, diag.CodeOf(err))

	_, err = Resolve(nil, Overrides{SchemaPath: ptr("s.sc"), Port: ptr(0)})
	assert.Equal(t, diag.CodeInvalidConfiguration, diag.CodeOf(err))

	_, err = Resolve(nil, Overrides{SchemaPath: ptr("s.sc"), ConnectTimeout: ptr(time.Duration(0))})
	assert.Equal(t, diag.CodeInvalidConfiguration, diag.CodeOf(err))
}
