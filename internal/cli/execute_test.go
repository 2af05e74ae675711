package cli

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/schemarepl/internal/rpc/rpctest"
	"github.com/roach88/schemarepl/internal/testutil"
)

type execResult struct {
	code   int
	stdout string
	stderr string
}

func execute(t *testing.T, stdin string, args ...string) execResult {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Execute(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return execResult{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func serverArgs(server *rpctest.Server, schemaPath, rpcPath string) []string {
	return []string{
		"--schema", schemaPath,
		"--rpc-host", server.Host(),
		"--rpc-port", strconv.Itoa(server.Port()),
		"--rpc-path", rpcPath,
		"--no-tty",
	}
}

// =============================================================================
// Sessions
// =============================================================================

func TestExecute_PersonSession(t *testing.T) {
	server := rpctest.NewServer(t)
	schemaPath := testutil.WriteSchema(t, testutil.PersonAndConcatSchema)

	res := execute(t, strings.Join([]string{
		`getId(person={id=225, name="Egor", email="cool@gmail.com"})`,
		`getName(person={email="cool@gmail.com", id=225, name="Egor"})`,
		`getId(person={id=225, name="Egor"})`,
		`concat(left="ab", right="cd")`,
	}, "\n")+"\n", serverArgs(server, schemaPath, "person")...)

	assert.Equal(t, ExitSuccess, res.code)
	assert.Empty(t, res.stderr)
	assert.Equal(t, strings.Join([]string{
		`225`,
		`"Egor"`,
		`Error: missing argument 'email' for struct 'Person'`,
		`"abcd"`,
	}, "\n")+"\n", res.stdout)

	reqs := server.Requests()
	require.Len(t, reqs, 3)
	assert.Equal(t, "/person", reqs[0].Path)
}

func TestExecute_ServerGoneIsPerQuery(t *testing.T) {
	server := rpctest.NewServer(t)
	schemaPath := testutil.WriteSchema(t, testutil.NumbersSchema)
	args := serverArgs(server, schemaPath, "numbers")
	server.Close()

	res := execute(t, "getSomeNumber()\nsquare(a=2)\n", args...)

	assert.Equal(t, ExitSuccess, res.code)
	assert.Empty(t, res.stderr)
	lines := strings.Split(strings.TrimSuffix(res.stdout, "\n"), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.True(t, strings.HasPrefix(line, "Error: connection error: rpc response was not received from http://"), line)
	}
}

func TestExecute_VerboseLogsToStderr(t *testing.T) {
	server := rpctest.NewServer(t)
	schemaPath := testutil.WriteSchema(t, testutil.NumbersSchema)

	res := execute(t, "getSomeNumber()\n", append(serverArgs(server, schemaPath, "numbers"), "-v")...)

	assert.Equal(t, ExitSuccess, res.code)
	assert.Equal(t, "42\n", res.stdout)
	assert.Contains(t, res.stderr, "level=DEBUG")
	assert.Contains(t, res.stderr, "msg=query")
}

func TestExecute_ConfigFile(t *testing.T) {
	server := rpctest.NewServer(t)
	schemaPath := testutil.WriteSchema(t, testutil.NumbersSchema)
	configPath := testutil.WriteFile(t, "schemarepl.yaml", strings.Join([]string{
		"schema: " + schemaPath,
		"rpc:",
		"  host: " + server.Host(),
		"  port: " + strconv.Itoa(server.Port()),
		"  path: numbers",
		"no_tty: true",
	}, "\n")+"\n")

	res := execute(t, "square(a=12)\n", "--config", configPath)

	assert.Equal(t, ExitSuccess, res.code)
	assert.Empty(t, res.stderr)
	assert.Equal(t, "144\n", res.stdout)
}

// =============================================================================
// Fatal errors
// =============================================================================

func TestExecute_FatalErrors(t *testing.T) {
	numbers := testutil.WriteSchema(t, testutil.NumbersSchema)

	tests := []struct {
		name   string
		args   []string
		code   int
		stderr string // exact line; empty means only the prefix is checked
	}{
		{
			name:   "no arguments",
			args:   []string{},
			code:   ExitCommandError,
			stderr: "Error: no schema path given: use --schema <path>\n",
		},
		{
			name: "schema flag without value",
			args: []string{"--schema"},
			code: ExitCommandError,
		},
		{
			name: "positional schema path",
			args: []string{numbers},
			code: ExitCommandError,
		},
		{
			name: "path before flag",
			args: []string{numbers, "--schema"},
			code: ExitCommandError,
		},
		{
			name: "misspelled flag",
			args: []string{"--schemaaa", numbers},
			code: ExitCommandError,
		},
		{
			name:   "invalid host",
			args:   []string{"--schema", numbers, "--rpc-host", "255.0.256.257"},
			code:   ExitFailure,
			stderr: "Error: invalid host '255.0.256.257'\n",
		},
		{
			name:   "invalid host wins over invalid port",
			args:   []string{"--schema", numbers, "--rpc-host", "bad_host!", "--rpc-port", "0"},
			code:   ExitFailure,
			stderr: "Error: invalid host 'bad_host!'\n",
		},
		{
			name: "recursive schema",
			args: []string{"--schema", testutil.WriteSchema(t, testutil.RecursiveSchema)},
			code: ExitFailure,
		},
		{
			name: "invalid keyword",
			args: []string{"--schema", testutil.WriteSchema(t, testutil.InvalidKeywordSchema)},
			code: ExitFailure,
		},
		{
			name: "missing config file",
			args: []string{"--config", "/nonexistent/schemarepl.yaml"},
			code: ExitFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execute(t, "getSomeNumber()\n", tt.args...)

			assert.Equal(t, tt.code, res.code)
			assert.Empty(t, res.stdout)
			if tt.stderr != "" {
				assert.Equal(t, tt.stderr, res.stderr)
				return
			}
			assert.True(t, strings.HasPrefix(res.stderr, "Error: "), res.stderr)
			assert.Equal(t, 1, strings.Count(res.stderr, "\n"), res.stderr)
		})
	}
}
