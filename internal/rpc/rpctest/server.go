// Package rpctest provides an in-process computation server for tests. It
// speaks the call channel's wire format and implements the demo functions
// of the bundled fixture schemas.
package rpctest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/roach88/schemarepl/internal/ir"
)

// Handler computes one function. args has every JSON number converted to
// *big.Int. The result must be encodable by ir.MarshalCanonical.
type Handler func(args map[string]any) (any, error)

// StatusError makes a Handler reply with a specific status and body.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

// Failure is a computation failure reported with status 400.
func Failure(format string, args ...any) error {
	return &StatusError{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// Request is one call received by the server.
type Request struct {
	Path       string
	RequestID  string
	SchemaHash string
	Function   string
	Body       string
}

// Server is a running fake computation server.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]Handler
	requests []Request
}

// NewServer starts a server with the demo functions installed. It is closed
// when the test finishes.
func NewServer(t interface{ Cleanup(func()) }) *Server {
	s := &Server{handlers: DemoHandlers()}

	r := chi.NewRouter()
	r.Post("/", s.serveCall)
	r.Post("/*", s.serveCall)
	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Host returns the listening host.
func (s *Server) Host() string {
	host, _, _ := net.SplitHostPort(s.Listener.Addr().String())
	return host
}

// Port returns the listening port.
func (s *Server) Port() int {
	_, port, _ := net.SplitHostPort(s.Listener.Addr().String())
	n, _ := strconv.Atoi(port)
	return n
}

// Handle installs or replaces the handler for a function.
func (s *Server) Handle(function string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[function] = h
}

// Requests returns a copy of every call received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

type callEnvelope struct {
	Function string         `json:"function"`
	Args     map[string]any `json:"args"`
}

func (s *Server) serveCall(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r.Body); err != nil {
		http.Error(w, "cannot read request", http.StatusInternalServerError)
		return
	}

	dec := json.NewDecoder(bytes.NewReader(buf.Bytes()))
	dec.UseNumber()
	var env callEnvelope
	if err := dec.Decode(&env); err != nil {
		http.Error(w, "malformed request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Path:       r.URL.Path,
		RequestID:  r.Header.Get("X-Request-Id"),
		SchemaHash: r.Header.Get("X-Schema-Hash"),
		Function:   env.Function,
		Body:       buf.String(),
	})
	h, ok := s.handlers[env.Function]
	s.mu.Unlock()

	if !ok {
		http.Error(w, fmt.Sprintf("unknown function '%s'", env.Function), http.StatusNotFound)
		return
	}

	args, _ := bigNumbers(env.Args).(map[string]any)
	result, err := h(args)
	if err != nil {
		status := http.StatusInternalServerError
		if se, ok := err.(*StatusError); ok {
			status = se.Status
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(err.Error()))
		return
	}

	out, err := ir.MarshalCanonical(result)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(out)
}

// bigNumbers replaces every json.Number in a decoded tree with *big.Int.
func bigNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		n, ok := new(big.Int).SetString(t.String(), 10)
		if !ok {
			return t.String()
		}
		return n
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = bigNumbers(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = bigNumbers(e)
		}
		return out
	case nil:
		return map[string]any{}
	default:
		return v
	}
}

// DemoHandlers returns the functions declared by the fixture schemas.
func DemoHandlers() map[string]Handler {
	return map[string]Handler{
		"getId":   field("person", "id"),
		"getName": field("person", "name"),
		"concat": func(args map[string]any) (any, error) {
			left, _ := args["left"].(string)
			right, _ := args["right"].(string)
			return left + right, nil
		},
		"getProduct":  field("item", "product"),
		"getQuantity": field("item", "quantity"),
		"addItemsToOrder": func(args map[string]any) (any, error) {
			order, _ := args["order"].(map[string]any)
			item, _ := order["item"].(map[string]any)
			qty, _ := item["quantity"].(*big.Int)
			extra, _ := args["quantity"].(*big.Int)
			if order == nil || item == nil || qty == nil || extra == nil {
				return nil, Failure("malformed order")
			}
			sum := new(big.Int).Add(qty, extra)
			if sum.Cmp(big.NewInt(math.MaxInt32)) > 0 {
				return nil, Failure("quantity overflow")
			}
			return map[string]any{
				"id": order["id"],
				"item": map[string]any{
					"product":  item["product"],
					"quantity": sum,
				},
			}, nil
		},
		"getSomeNumber": func(map[string]any) (any, error) {
			return 42, nil
		},
		"square": func(args map[string]any) (any, error) {
			a, ok := args["a"].(*big.Int)
			if !ok {
				return nil, Failure("malformed argument 'a'")
			}
			sq := new(big.Int).Mul(a, a)
			if sq.Cmp(big.NewInt(math.MaxInt32)) > 0 {
				return nil, Failure("square overflow")
			}
			return sq, nil
		},
		"getX":        field("p", "x"),
		"getCarId":    field("car", "id"),
		"getCarPrice": field("car", "price"),
	}
}

// field returns a handler that echoes args[arg][name].
func field(arg, name string) Handler {
	return func(args map[string]any) (any, error) {
		obj, ok := args[arg].(map[string]any)
		if !ok {
			return nil, Failure("malformed argument '%s'", arg)
		}
		v, ok := obj[name]
		if !ok {
			return nil, Failure("missing field '%s.%s'", arg, name)
		}
		return v, nil
	}
}
