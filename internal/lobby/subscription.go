// internal/lobby/subscription.go
package lobby

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/varchess/lobby/internal/identity"
)

// Subscription is a single connection's presence in the lobby. The transport
// layer creates one per websocket and drains OutChan from its write pump.
type Subscription struct {
	ConnID   uuid.UUID
	Identity identity.AuthIdentity
	Locale   string
	Cancel   context.CancelFunc
	OutChan  chan map[string]interface{}
}

// Write pushes a message onto the subscriber's OutChan non-blockingly. The
// coordinator must never stall on a slow client; a full queue drops the
// message and returns false.
func (s *Subscription) Write(msg map[string]interface{}) bool {
	select {
	case s.OutChan <- msg:
		return true
	default:
		action, _ := msg["action"].(string)
		log.Printf("Subscription Write WARNING: OutChan for conn %s full or closed. Dropped message action '%s'.", s.ConnID, action)
		return false
	}
}

// WriteError sends a printerror message, optionally addressed with a replyTo.
func (s *Subscription) WriteError(msg string, replyTo *uint32) {
	payload := map[string]interface{}{
		"action": "printerror",
		"value":  msg,
	}
	if replyTo != nil {
		payload["replyTo"] = *replyTo
	}
	s.Write(payload)
}

// WriteAck sends the empty acknowledgement used to unlock a client-side latch
// when the server has nothing else to say.
func (s *Subscription) WriteAck(replyTo uint32) {
	s.Write(map[string]interface{}{"replyTo": replyTo})
}
