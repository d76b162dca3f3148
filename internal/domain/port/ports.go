package port

import (
	"context"
	"io"

	"github.com/shopspring/decimal"

	"github.com/barkshad/fuliza/internal/domain/event"
	"github.com/barkshad/fuliza/internal/domain/model"
	"github.com/barkshad/fuliza/internal/domain/valueobject"
)

// ---------------------------------------------------------------------------
// Repository ports (driven/secondary adapters)
// ---------------------------------------------------------------------------

// ProfileStore reads and writes profiles. Implementations may be tiered;
// callers never learn which tier answered.
type ProfileStore interface {
	Get(ctx context.Context, uid string) (model.Profile, error)
	Save(ctx context.Context, p model.Profile) error
	List(ctx context.Context) ([]model.Profile, error)
}

// ApplicationRepository is the append-only list of applications per user.
type ApplicationRepository interface {
	// Append stores app once. An application with the same id or checkout
	// request id already stored makes it a no-op.
	Append(ctx context.Context, app model.Application) error
	// ListByUser returns the user's applications newest first.
	ListByUser(ctx context.Context, uid string) ([]model.Application, error)
}

// CheckoutRepository persists checkouts. A stored checkout only changes
// through Transition or Settle, which write when its state is still from and
// report false when another writer moved it first.
type CheckoutRepository interface {
	// Save stores a new checkout.
	Save(ctx context.Context, c model.Checkout) error
	Transition(ctx context.Context, c model.Checkout, from valueobject.CheckoutState) (bool, error)
	// Settle stores a paid checkout and appends its application in one
	// transaction.
	Settle(ctx context.Context, c model.Checkout, from valueobject.CheckoutState, app model.Application) (bool, error)
	FindByID(ctx context.Context, id string) (model.Checkout, error)
	FindByCheckoutRequestID(ctx context.Context, checkoutRequestID string) (model.Checkout, error)
}

// ProjectionStore holds a projection between the limit check and the next
// step of the same session. Get returns (nil, nil) when nothing is held.
type ProjectionStore interface {
	Put(ctx context.Context, sessionID string, p model.LimitProjection) error
	Get(ctx context.Context, sessionID string) (*model.LimitProjection, error)
	Delete(ctx context.Context, sessionID string) error
}

// ---------------------------------------------------------------------------
// Event publisher port
// ---------------------------------------------------------------------------

// EventPublisher publishes domain events to external consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...event.DomainEvent) error
}

// ---------------------------------------------------------------------------
// External service ports
// ---------------------------------------------------------------------------

// ScoringClient asks a generative model for a credit score.
type ScoringClient interface {
	Score(ctx context.Context, prompt string) (model.ScoreReply, error)
}

// PushRequest asks the gateway to prompt a phone for payment.
type PushRequest struct {
	Phone       string // 2547XXXXXXXX or 2541XXXXXXXX
	Amount      decimal.Decimal
	Reference   string
	Description string
}

// PushAck is the gateway's acknowledgement of a push request.
type PushAck struct {
	TransactionID     string
	CheckoutRequestID string
}

// PushStatus is the out-of-band outcome of a push.
type PushStatus string

const (
	PushPending PushStatus = "pending"
	PushSuccess PushStatus = "success"
	PushFailed  PushStatus = "failed"
)

// PushPaymentGateway initiates mobile-money push payments.
type PushPaymentGateway interface {
	Push(ctx context.Context, req PushRequest) (PushAck, error)
	TransactionStatus(ctx context.Context, transactionID string) (PushStatus, error)
}

// Document is an upload destined for the document host.
type Document struct {
	Folder      string
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// DocumentHost stores documents and returns a URL to fetch them.
type DocumentHost interface {
	Upload(ctx context.Context, doc Document) (string, error)
}
