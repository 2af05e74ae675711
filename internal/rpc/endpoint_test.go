package rpc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/schemarepl/internal/diag"
)

func TestValidateHost(t *testing.T) {
	valid := []string{"localhost", "vmedv.com", "1.1.1.1", "127.0.0.1", "::1", "[::1]", "my-host.example.org.", "a1.b2"}
	for _, h := range valid {
		assert.NoError(t, ValidateHost(h), h)
	}

	invalid := []string{"", "255.0.256.257", "1.2.3", "-bad.com", "bad-.com", "under_score.com", "a..b", "sp ace", "[::1", "::1]", "[localhost]"}
	for _, h := range invalid {
		err := ValidateHost(h)
		assert.Equal(t, diag.CodeInvalidHost, diag.CodeOf(err), h)
	}
}

func TestValidatePort(t *testing.T) {
	assert.NoError(t, ValidatePort(1))
	assert.NoError(t, ValidatePort(65535))
	assert.Equal(t, diag.CodeInvalidConfiguration, diag.CodeOf(ValidatePort(0)))
	assert.Equal(t, diag.CodeInvalidConfiguration, diag.CodeOf(ValidatePort(65536)))
}

func TestEndpointURL(t *testing.T) {
	assert.Equal(t, "http://localhost:5050/person", Endpoint{Host: "localhost", Port: 5050, Path: "person"}.URL())
	assert.Equal(t, "http://localhost:5050/person", Endpoint{Host: "localhost", Port: 5050, Path: "/person"}.URL())
	assert.Equal(t, "http://localhost:5050/", Endpoint{Host: "localhost", Port: 5050}.URL())
	assert.Equal(t, "http://[::1]:80/x", Endpoint{Host: "::1", Port: 80, Path: "x"}.URL())
}

func TestEndpointURL_BracketedIPv6(t *testing.T) {
	e := Endpoint{Host: "[::1]", Port: 5050, Path: "p"}
	assert.NoError(t, e.Validate())
	assert.Equal(t, "http://[::1]:5050/p", e.URL())
}

func TestEndpointValidate(t *testing.T) {
	err := Endpoint{Host: "255.0.256.257", Port: 0}.Validate()
	assert.Equal(t, diag.CodeInvalidHost, diag.CodeOf(err))

	err = Endpoint{Host: "localhost", Port: 0}.Validate()
	assert.Equal(t, diag.CodeInvalidConfiguration, diag.CodeOf(err))
}
