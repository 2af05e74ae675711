// Package testutil provides fixtures shared by package tests: the demo
// schemas, deterministic clocks and id generators.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/schemarepl/internal/ir"
)

// Demo schemas. Each one is served by the functions in rpc/rpctest.
const (
	PersonSchema = `
struct Person {
	int32 id;
	string name;
	string email;
}

fn getId -> int32 {
	Person person;
}

fn getName -> string {
	Person person;
}
`

	PersonAndConcatSchema = PersonSchema + `
fn concat -> string {
	string left;
	string right;
}
`

	ShopSchema = `
struct Product {
	int32 id;
}

struct OrderItem {
	Product product;
	int32 quantity;
}

struct Order {
	int32 id;
	OrderItem item;
}

fn getProduct -> Product {
	OrderItem item;
}

fn getQuantity -> int32 {
	OrderItem item;
}

fn addItemsToOrder -> Order {
	Order order;
	int32 quantity;
}
`

	NumbersSchema = `
fn getSomeNumber -> int32 {
}

fn square -> int32 {
	int32 a;
}
`

	PointSchema = `
struct Point {
	int64 x;
	int64 y;
}

fn getX -> int64 {
	Point p;
}
`

	CarSchema = `
struct Car {
	uint32 id;
	uint64 price;
}

fn getCarId -> uint32 {
	Car car;
}

fn getCarPrice -> uint64 {
	Car car;
}
`

	EmptySchema = ``

	RecursiveSchema = `
struct Node {
	int32 value;
	Node next;
}
`

	InvalidKeywordSchema = `
structure Person {
	int32 id;
}
`

	FunctionAsTypeSchema = `
fn getId -> int32 {
	int32 id;
}

struct Holder {
	getId value;
}
`
)

// Schemas maps fixture names, as used in scenario files, to their source.
var Schemas = map[string]string{
	"person":            PersonSchema,
	"person-and-concat": PersonAndConcatSchema,
	"shop":              ShopSchema,
	"numbers":           NumbersSchema,
	"point":             PointSchema,
	"car":               CarSchema,
	"empty":             EmptySchema,
	"bad-recursive":     RecursiveSchema,
	"bad-keyword":       InvalidKeywordSchema,
	"bad-fn-as-type":    FunctionAsTypeSchema,
}

// WriteSchema writes content to a schema file in a per-test temp dir and
// returns its path.
func WriteSchema(t testing.TB, content string) string {
	t.Helper()
	return WriteFile(t, "schema.sc", content)
}

// WriteFile writes content to name in a per-test temp dir and returns its path.
func WriteFile(t testing.TB, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// SchemaHash returns the schema hash of s, failing the test on error.
func SchemaHash(t testing.TB, s *ir.Schema) string {
	t.Helper()
	h, err := ir.SchemaHash(s)
	require.NoError(t, err)
	return h
}
