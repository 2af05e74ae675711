// Package query compiles one query line into an unresolved call tree.
//
// Grammar:
//
//	Call          := <name> ( <Args>? )
//	Args          := <Arg> (, <Arg>)*
//	Arg           := <name> = <Value>
//	Value         := <int literal> | <quoted string> | <StructLiteral>
//	StructLiteral := <TypeName>? { <Args>? }
//
// Whitespace between tokens is insignificant. The tree carries no type
// information; resolving it against a schema is the binder's job.
//
// SEALED INTERFACES:
//
// Literal is a sealed interface using the marker method pattern. Only
// IntLiteral, StringLiteral and StructLiteral implement it, which lets the
// binder switch over literals exhaustively.
package query
