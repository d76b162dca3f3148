package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/barkshad/fuliza/internal/domain/event"
	"github.com/barkshad/fuliza/internal/domain/valueobject"
	"github.com/barkshad/fuliza/pkg/events"
)

// ErrCheckoutNotFound is returned by repositories for an unknown checkout id.
var ErrCheckoutNotFound = errors.New("checkout not found")

// Checkout drives the fee payment of one selected tier:
//
//	idle -> processing -> waiting -> success | failed | timeout
//	timeout -> success (late confirmation)
//
// failed and timeout may start again; success is final.
type Checkout struct {
	id                string
	userID            string
	tier              UpgradeTier
	phone             valueobject.PhoneNumber
	state             valueobject.CheckoutState
	transactionID     string
	checkoutRequestID string
	failureReason     string
	attempts          int
	deadline          time.Time
	createdAt         time.Time
	updatedAt         time.Time
	events            events.EventCollector
}

// NewCheckout opens an idle checkout for a tier.
func NewCheckout(userID string, tier UpgradeTier, phone valueobject.PhoneNumber, now time.Time) (Checkout, error) {
	if userID == "" {
		return Checkout{}, errors.New("user ID is required")
	}
	if tier.ID.IsZero() {
		return Checkout{}, valueobject.ErrInvalidTier
	}
	if phone.IsZero() {
		return Checkout{}, valueobject.ErrInvalidPhoneNumber
	}
	return Checkout{
		id:        uuid.NewString(),
		userID:    userID,
		tier:      tier,
		phone:     phone,
		state:     valueobject.CheckoutIdle,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// CheckoutSnapshot is the flat persisted form of a Checkout.
type CheckoutSnapshot struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	Tier              string          `json:"tier"`
	Limit             decimal.Decimal `json:"limit"`
	Fee               decimal.Decimal `json:"fee"`
	Phone             string          `json:"phone"`
	State             string          `json:"state"`
	TransactionID     string          `json:"transaction_id"`
	CheckoutRequestID string          `json:"checkout_request_id"`
	FailureReason     string          `json:"failure_reason"`
	Attempts          int             `json:"attempts"`
	Deadline          time.Time       `json:"deadline"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ReconstructCheckout rebuilds an aggregate from persistence.
func ReconstructCheckout(s CheckoutSnapshot) (Checkout, error) {
	tier, err := valueobject.NewTierID(s.Tier)
	if err != nil {
		return Checkout{}, err
	}
	state, err := valueobject.NewCheckoutState(s.State)
	if err != nil {
		return Checkout{}, err
	}
	phone, err := valueobject.NewPhoneNumber(s.Phone)
	if err != nil {
		return Checkout{}, err
	}
	return Checkout{
		id:                s.ID,
		userID:            s.UserID,
		tier:              UpgradeTier{ID: tier, Limit: s.Limit, Fee: s.Fee},
		phone:             phone,
		state:             state,
		transactionID:     s.TransactionID,
		checkoutRequestID: s.CheckoutRequestID,
		failureReason:     s.FailureReason,
		attempts:          s.Attempts,
		deadline:          s.Deadline,
		createdAt:         s.CreatedAt,
		updatedAt:         s.UpdatedAt,
	}, nil
}

// Snapshot flattens the aggregate for persistence.
func (c Checkout) Snapshot() CheckoutSnapshot {
	return CheckoutSnapshot{
		ID:                c.id,
		UserID:            c.userID,
		Tier:              c.tier.ID.String(),
		Limit:             c.tier.Limit,
		Fee:               c.tier.Fee,
		Phone:             c.phone.String(),
		State:             c.state.String(),
		TransactionID:     c.transactionID,
		CheckoutRequestID: c.checkoutRequestID,
		FailureReason:     c.failureReason,
		Attempts:          c.attempts,
		Deadline:          c.deadline,
		CreatedAt:         c.createdAt,
		UpdatedAt:         c.updatedAt,
	}
}

func (c Checkout) transition(to valueobject.CheckoutState, now time.Time) Checkout {
	n := c
	n.state = to
	n.updatedAt = now
	return n
}

func (c Checkout) invalid(action string) error {
	return fmt.Errorf("%w: cannot %s from %s", valueobject.ErrInvalidCheckoutTransition, action, c.state)
}

// Begin enters processing; allowed from idle, failed and timeout.
func (c Checkout) Begin(now time.Time) (Checkout, error) {
	if !c.state.CanStart() {
		return c, c.invalid("begin")
	}
	n := c.transition(valueobject.CheckoutProcessing, now)
	n.attempts++
	n.transactionID = ""
	n.checkoutRequestID = ""
	n.failureReason = ""
	n.deadline = time.Time{}
	return n, nil
}

// AwaitApproval records the gateway acknowledgement and starts the countdown.
func (c Checkout) AwaitApproval(transactionID, checkoutRequestID string, countdown time.Duration, now time.Time) (Checkout, error) {
	if c.state != valueobject.CheckoutProcessing {
		return c, c.invalid("await approval")
	}
	n := c.transition(valueobject.CheckoutWaiting, now)
	n.transactionID = transactionID
	n.checkoutRequestID = checkoutRequestID
	n.deadline = now.Add(countdown)
	n.events = n.events.Record(event.NewCheckoutInitiated(
		c.id, c.userID, c.tier.ID.String(), c.tier.Fee, checkoutRequestID, c.attempts,
	))
	return n, nil
}

// Succeed marks the fee as paid. A timed-out checkout can still succeed when
// the gateway confirms the payment late.
func (c Checkout) Succeed(now time.Time) (Checkout, error) {
	if c.state != valueobject.CheckoutWaiting && c.state != valueobject.CheckoutTimeout {
		return c, c.invalid("succeed")
	}
	n := c.transition(valueobject.CheckoutSuccess, now)
	n.events = n.events.Record(event.NewCheckoutSucceeded(c.id, c.userID, c.transactionID))
	return n, nil
}

// Fail ends processing or waiting with a retryable failure.
func (c Checkout) Fail(reason string, now time.Time) (Checkout, error) {
	if c.state != valueobject.CheckoutProcessing && c.state != valueobject.CheckoutWaiting {
		return c, c.invalid("fail")
	}
	n := c.transition(valueobject.CheckoutFailed, now)
	n.failureReason = reason
	n.events = n.events.Record(event.NewCheckoutFailed(c.id, c.userID, reason))
	return n, nil
}

// TimeOut ends waiting without a confirmation.
func (c Checkout) TimeOut(now time.Time) (Checkout, error) {
	if c.state != valueobject.CheckoutWaiting {
		return c, c.invalid("time out")
	}
	n := c.transition(valueobject.CheckoutTimeout, now)
	n.failureReason = "payment confirmation timed out"
	n.events = n.events.Record(event.NewCheckoutTimedOut(c.id, c.userID))
	return n, nil
}

// Expired reports whether the countdown of a waiting checkout has run out.
func (c Checkout) Expired(now time.Time) bool {
	return c.state == valueobject.CheckoutWaiting && !now.Before(c.deadline)
}

// Remaining is the countdown left, zero when not waiting.
func (c Checkout) Remaining(now time.Time) time.Duration {
	if c.state != valueobject.CheckoutWaiting || !now.Before(c.deadline) {
		return 0
	}
	return c.deadline.Sub(now)
}

func (c Checkout) ID() string                        { return c.id }
func (c Checkout) UserID() string                    { return c.userID }
func (c Checkout) Tier() UpgradeTier                 { return c.tier }
func (c Checkout) Phone() valueobject.PhoneNumber    { return c.phone }
func (c Checkout) State() valueobject.CheckoutState  { return c.state }
func (c Checkout) TransactionID() string             { return c.transactionID }
func (c Checkout) CheckoutRequestID() string         { return c.checkoutRequestID }
func (c Checkout) FailureReason() string             { return c.failureReason }
func (c Checkout) Attempts() int                     { return c.attempts }
func (c Checkout) Deadline() time.Time               { return c.deadline }
func (c Checkout) CreatedAt() time.Time              { return c.createdAt }
func (c Checkout) UpdatedAt() time.Time              { return c.updatedAt }
func (c Checkout) DomainEvents() []event.DomainEvent { return c.events.Events() }

// ClearEvents returns a copy with an empty event list (call after publishing).
func (c Checkout) ClearEvents() Checkout {
	n := c
	n.events = events.EventCollector{}
	return n
}
