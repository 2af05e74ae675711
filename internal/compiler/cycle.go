package compiler

import (
	"strings"

	"github.com/roach88/schemarepl/internal/diag"
	"github.com/roach88/schemarepl/internal/ir"
)

// visitState is the per-struct DFS marker.
type visitState uint8

const (
	unvisited visitState = iota
	visiting
	visited
)

// dfsFrame is one entry of the explicit DFS stack: a struct and the index of
// the next field to explore.
type dfsFrame struct {
	name  string
	field int
}

// FindStructCycle detects a struct containment cycle.
//
// Structs are nodes and struct-typed fields are directed edges. The
// traversal is an iterative depth-first search with an explicit stack, so
// pathological nesting cannot exhaust the goroutine stack. A back edge to a
// struct still marked visiting closes a cycle.
//
// Returns the cycle path (first element repeated at the end, e.g.
// ["A", "B", "A"]) or nil for an acyclic schema. Traversal order follows
// declaration order so the reported cycle is deterministic.
func FindStructCycle(structs []ir.StructDecl) []string {
	graph := make(map[string][]string, len(structs))
	for _, s := range structs {
		edges := []string{}
		for _, f := range s.Fields {
			if f.Type.IsStruct() {
				edges = append(edges, f.Type.Name)
			}
		}
		graph[s.Name] = edges
	}

	state := make(map[string]visitState, len(structs))
	for _, root := range structs {
		if state[root.Name] != unvisited {
			continue
		}

		stack := []dfsFrame{{name: root.Name}}
		state[root.Name] = visiting

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			edges := graph[top.name]
			if top.field >= len(edges) {
				state[top.name] = visited
				stack = stack[:len(stack)-1]
				continue
			}

			next := edges[top.field]
			top.field++

			switch state[next] {
			case visiting:
				return cyclePath(stack, next)
			case unvisited:
				if _, declared := graph[next]; !declared {
					continue
				}
				state[next] = visiting
				stack = append(stack, dfsFrame{name: next})
			}
		}
	}

	return nil
}

// cyclePath extracts the cycle closed by a back edge to target.
func cyclePath(stack []dfsFrame, target string) []string {
	start := 0
	for i, frame := range stack {
		if frame.name == target {
			start = i
			break
		}
	}
	path := make([]string, 0, len(stack)-start+1)
	for _, frame := range stack[start:] {
		path = append(path, frame.name)
	}
	return append(path, target)
}

// checkRecursion reports a RecursiveStruct diagnostic for the first cycle.
func checkRecursion(structs []ir.StructDecl) error {
	path := FindStructCycle(structs)
	if path == nil {
		return nil
	}
	if len(path) == 2 {
		return diag.New(diag.CodeRecursiveStruct,
			"recursive struct: '%s' contains itself", path[0])
	}
	return diag.New(diag.CodeRecursiveStruct,
		"recursive struct: %s", strings.Join(path, " -> "))
}
