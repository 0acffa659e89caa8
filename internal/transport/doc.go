// Package transport connects the engine to an MRQART server.
//
// Push reads notification frames from the server's websocket and hands
// them to a Sink, redialing after a fixed delay whenever the connection
// drops. HTTPPuller fetches the full state from the /state endpoint.
// Scripted answers pulls from a fixed list, for replay and tests.
//
// Transport failures are never fatal: Push logs them and redials until
// its context ends.
package transport
