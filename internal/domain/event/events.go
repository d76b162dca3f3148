package event

import (
	"github.com/shopspring/decimal"

	"github.com/barkshad/fuliza/pkg/events"
)

// DomainEvent is an alias for the shared pkg/events.DomainEvent interface.
type DomainEvent = events.DomainEvent

const (
	aggregateProjection = "LimitProjection"
	aggregateProfile    = "Profile"
	aggregateCheckout   = "Checkout"
	aggregateApp        = "Application"
)

// ---------------------------------------------------------------------------
// Eligibility
// ---------------------------------------------------------------------------

// LimitProjected is raised when a limit check produced a projection.
type LimitProjected struct {
	events.BaseEvent
	BaseLimit       decimal.Decimal `json:"base_limit"`
	ProjectedLimit  decimal.Decimal `json:"projected_limit"`
	IncreasePercent int             `json:"increase_percent"`
	Capped          bool            `json:"capped"`
}

func NewLimitProjected(sessionID string, base, projected decimal.Decimal, pct int, capped bool) LimitProjected {
	return LimitProjected{
		BaseEvent:       events.NewBaseEvent("boost.limit.projected", sessionID, aggregateProjection),
		BaseLimit:       base,
		ProjectedLimit:  projected,
		IncreasePercent: pct,
		Capped:          capped,
	}
}

// ---------------------------------------------------------------------------
// Profile
// ---------------------------------------------------------------------------

// ProfileRegistered is raised when a profile is created.
type ProfileRegistered struct {
	events.BaseEvent
	Status string `json:"status"`
}

func NewProfileRegistered(uid, status string) ProfileRegistered {
	return ProfileRegistered{
		BaseEvent: events.NewBaseEvent("boost.profile.registered", uid, aggregateProfile),
		Status:    status,
	}
}

// KYCVerified is raised when all three identity documents were stored.
type KYCVerified struct {
	events.BaseEvent
}

func NewKYCVerified(uid string) KYCVerified {
	return KYCVerified{BaseEvent: events.NewBaseEvent("boost.profile.kyc_verified", uid, aggregateProfile)}
}

// AssessmentCompleted is raised when an assessment result was merged into a profile.
type AssessmentCompleted struct {
	events.BaseEvent
	CreditScore   int             `json:"credit_score"`
	EligibleLimit decimal.Decimal `json:"eligible_limit"`
	Source        string          `json:"source"`
}

func NewAssessmentCompleted(uid string, score int, limit decimal.Decimal, source string) AssessmentCompleted {
	return AssessmentCompleted{
		BaseEvent:     events.NewBaseEvent("boost.profile.assessment_completed", uid, aggregateProfile),
		CreditScore:   score,
		EligibleLimit: limit,
		Source:        source,
	}
}

// ---------------------------------------------------------------------------
// Checkout
// ---------------------------------------------------------------------------

// CheckoutInitiated is raised when the gateway accepted a push request.
type CheckoutInitiated struct {
	events.BaseEvent
	UserID            string          `json:"user_id"`
	Tier              string          `json:"tier"`
	Fee               decimal.Decimal `json:"fee"`
	CheckoutRequestID string          `json:"checkout_request_id"`
	Attempt           int             `json:"attempt"`
}

func NewCheckoutInitiated(checkoutID, userID, tier string, fee decimal.Decimal, checkoutRequestID string, attempt int) CheckoutInitiated {
	return CheckoutInitiated{
		BaseEvent:         events.NewBaseEvent("boost.checkout.initiated", checkoutID, aggregateCheckout),
		UserID:            userID,
		Tier:              tier,
		Fee:               fee,
		CheckoutRequestID: checkoutRequestID,
		Attempt:           attempt,
	}
}

// CheckoutSucceeded is raised when the fee payment was confirmed.
type CheckoutSucceeded struct {
	events.BaseEvent
	UserID        string `json:"user_id"`
	TransactionID string `json:"transaction_id"`
}

func NewCheckoutSucceeded(checkoutID, userID, transactionID string) CheckoutSucceeded {
	return CheckoutSucceeded{
		BaseEvent:     events.NewBaseEvent("boost.checkout.succeeded", checkoutID, aggregateCheckout),
		UserID:        userID,
		TransactionID: transactionID,
	}
}

// CheckoutFailed is raised when initiation or approval failed.
type CheckoutFailed struct {
	events.BaseEvent
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
}

func NewCheckoutFailed(checkoutID, userID, reason string) CheckoutFailed {
	return CheckoutFailed{
		BaseEvent: events.NewBaseEvent("boost.checkout.failed", checkoutID, aggregateCheckout),
		UserID:    userID,
		Reason:    reason,
	}
}

// CheckoutTimedOut is raised when no confirmation arrived before the countdown ended.
type CheckoutTimedOut struct {
	events.BaseEvent
	UserID string `json:"user_id"`
}

func NewCheckoutTimedOut(checkoutID, userID string) CheckoutTimedOut {
	return CheckoutTimedOut{
		BaseEvent: events.NewBaseEvent("boost.checkout.timed_out", checkoutID, aggregateCheckout),
		UserID:    userID,
	}
}

// ---------------------------------------------------------------------------
// Application
// ---------------------------------------------------------------------------

// ApplicationSubmitted is raised when a paid tier was recorded for review.
type ApplicationSubmitted struct {
	events.BaseEvent
	UserID         string          `json:"user_id"`
	Tier           string          `json:"tier"`
	RequestedLimit decimal.Decimal `json:"requested_limit"`
	ServiceFee     decimal.Decimal `json:"service_fee"`
}

func NewApplicationSubmitted(appID, userID, tier string, limit, fee decimal.Decimal) ApplicationSubmitted {
	return ApplicationSubmitted{
		BaseEvent:      events.NewBaseEvent("boost.application.submitted", appID, aggregateApp),
		UserID:         userID,
		Tier:           tier,
		RequestedLimit: limit,
		ServiceFee:     fee,
	}
}
