// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the lobby handler. These give clients
// a more specific reason for closure than the standard codes.
const (
	BadSubprotocolError    = 3000 // Client connected with an unsupported subprotocol.
	AlreadySubscribedError = 3002 // Connection attempted a second lobby subscription.
)
