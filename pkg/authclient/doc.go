// Package authclient is a typed Go client for the AgentDesk auth service
// HTTP API. Sessions are cookie-based; the client carries a cookie jar, so a
// successful Register, Login, or CompleteChallenge leaves the client
// authenticated for subsequent calls.
package authclient
