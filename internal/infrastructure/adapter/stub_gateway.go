package adapter

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/barkshad/fuliza/internal/domain/port"
)

// StubPushGateway accepts every push and confirms it on the first status
// check. It is wired when no gateway key is configured.
type StubPushGateway struct {
	mu     sync.Mutex
	pushed map[string]bool
}

// NewStubPushGateway creates a StubPushGateway.
func NewStubPushGateway() *StubPushGateway {
	return &StubPushGateway{pushed: make(map[string]bool)}
}

func (g *StubPushGateway) Push(_ context.Context, _ port.PushRequest) (port.PushAck, error) {
	ack := port.PushAck{TransactionID: "stub-" + uuid.NewString(), CheckoutRequestID: "ws_CO_" + uuid.NewString()}
	g.mu.Lock()
	g.pushed[ack.TransactionID] = true
	g.mu.Unlock()
	return ack, nil
}

func (g *StubPushGateway) TransactionStatus(_ context.Context, transactionID string) (port.PushStatus, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.pushed[transactionID] {
		return port.PushSuccess, nil
	}
	return port.PushFailed, nil
}
