// Package session drives a REPL session: the schema is compiled once, then
// every input line goes through the query compiler, the binder and the call
// channel, and exactly one line is written for it.
//
// Lifecycle:
//
//	Starting --started--> Ready --input-closed--> Terminated
//	    \                   \
//	     +------fatal--------+--fatal--> Terminated
//
// Each query line moves Received -> Compiled -> Bound -> Called -> Reported,
// jumping to Reported as soon as a step fails. Only startup failures are
// session-fatal; a failed query prints "Error: <message>" and the session
// continues with the next line.
package session
