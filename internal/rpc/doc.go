// Package rpc implements the call channel: it encodes a bound call, performs
// one synchronous HTTP round trip to the computation server and decodes the
// reply against the function's declared return type.
//
// Wire format:
//
//	POST http://<host>:<port>/<path>
//	Content-Type: application/json
//	X-Request-Id: <uuidv7>
//	X-Schema-Hash: <sha256 of the compiled schema>
//
//	{"args":{"person":{"email":"x","id":200,"name":"Egor"}},"function":"getId"}
//
// A 200 reply carries the JSON encoding of the return value. A 400 reply
// carries a plain-text server error that is surfaced verbatim. Any other
// status is reported as an unexpected server answer, and a missing reply as
// a connection error. None of these terminate the session.
package rpc
