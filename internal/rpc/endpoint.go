package rpc

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/roach88/schemarepl/internal/diag"
)

// Default endpoint values used when neither flags nor a config file set them.
const (
	DefaultHost = "localhost"
	DefaultPort = 5050
)

// Endpoint addresses the computation server.
type Endpoint struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
	Path string `json:"path" yaml:"path"`
}

// URL returns the address calls are posted to.
func (e Endpoint) URL() string {
	u := url.URL{
		Scheme: "http",
		Host:   net.JoinHostPort(unbracket(e.Host), strconv.Itoa(e.Port)),
		Path:   "/" + strings.TrimPrefix(e.Path, "/"),
	}
	return u.String()
}

func (e Endpoint) String() string {
	return e.URL()
}

// ValidateHost checks that host is an IP address or a syntactically valid
// DNS name. A name made only of numeric labels must be a valid IPv4 address,
// so "255.0.256.257" is rejected rather than sent to the resolver.
func ValidateHost(host string) error {
	if host == "" {
		return diag.New(diag.CodeInvalidHost, "invalid host: empty host")
	}
	if ip := net.ParseIP(unbracket(host)); ip != nil {
		return nil
	}

	name := strings.TrimSuffix(host, ".")
	if len(name) == 0 || len(name) > 253 {
		return invalidHost(host)
	}
	labels := strings.Split(name, ".")
	numeric := true
	for _, label := range labels {
		if !validLabel(label) {
			return invalidHost(host)
		}
		if !allDigits(label) {
			numeric = false
		}
	}
	if numeric {
		// Looks like a dotted quad but net.ParseIP rejected it.
		return invalidHost(host)
	}
	return nil
}

// unbracket strips the brackets of a literal IPv6 host such as "[::1]".
// JoinHostPort adds its own.
func unbracket(host string) string {
	if len(host) > 1 && host[0] == '[' && host[len(host)-1] == ']' {
		return host[1 : len(host)-1]
	}
	return host
}

func invalidHost(host string) *diag.Error {
	return diag.New(diag.CodeInvalidHost, "invalid host '%s'", host)
}

// validLabel implements the RFC 1123 label rule.
func validLabel(label string) bool {
	if len(label) == 0 || len(label) > 63 {
		return false
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return false
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-':
		default:
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ValidatePort checks the port is usable for an outgoing connection.
func ValidatePort(port int) error {
	if port < 1 || port > 65535 {
		return diag.New(diag.CodeInvalidConfiguration, "invalid port %d: must be in 1..65535", port)
	}
	return nil
}

// Validate checks host and port.
func (e Endpoint) Validate() error {
	if err := ValidateHost(e.Host); err != nil {
		return err
	}
	if err := ValidatePort(e.Port); err != nil {
		return fmt.Errorf("endpoint %s: %w", e.Host, err)
	}
	return nil
}
