package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/barkshad/fuliza/internal/domain/event"
	"github.com/barkshad/fuliza/internal/domain/valueobject"
	"github.com/barkshad/fuliza/pkg/events"
)

// Application is a paid upgrade request waiting for review. Immutable.
type Application struct {
	id                string
	userID            string
	tier              valueobject.TierID
	requestedLimit    decimal.Decimal
	serviceFee        decimal.Decimal
	transactionID     string
	checkoutRequestID string
	paymentStatus     valueobject.PaymentStatus
	status            valueobject.ApplicationStatus
	createdAt         time.Time
	events            events.EventCollector
}

// NewApplication records a tier whose fee was paid.
func NewApplication(userID string, tier UpgradeTier, transactionID, checkoutRequestID string, now time.Time) (Application, error) {
	if userID == "" {
		return Application{}, errors.New("user ID is required")
	}
	if tier.ID.IsZero() {
		return Application{}, valueobject.ErrInvalidTier
	}

	id := uuid.NewString()
	app := Application{
		id:                id,
		userID:            userID,
		tier:              tier.ID,
		requestedLimit:    tier.Limit,
		serviceFee:        tier.Fee,
		transactionID:     transactionID,
		checkoutRequestID: checkoutRequestID,
		paymentStatus:     valueobject.PaymentStatusSuccess,
		status:            valueobject.ApplicationStatusPending,
		createdAt:         now,
	}
	app.events = app.events.Record(
		event.NewApplicationSubmitted(id, userID, tier.ID.String(), tier.Limit, tier.Fee),
	)
	return app, nil
}

// ApplicationSnapshot is the flat persisted form of an Application.
type ApplicationSnapshot struct {
	ID                string          `json:"id"`
	UserID            string          `json:"user_id"`
	Tier              string          `json:"selected_package"`
	RequestedLimit    decimal.Decimal `json:"requested_limit"`
	ServiceFee        decimal.Decimal `json:"service_fee"`
	TransactionID     string          `json:"transaction_id"`
	CheckoutRequestID string          `json:"checkout_request_id"`
	PaymentStatus     string          `json:"payment_status"`
	Status            string          `json:"application_status"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ReconstructApplication rebuilds an aggregate from persistence.
func ReconstructApplication(s ApplicationSnapshot) (Application, error) {
	tier, err := valueobject.NewTierID(s.Tier)
	if err != nil {
		return Application{}, err
	}
	ps, err := valueobject.NewPaymentStatus(s.PaymentStatus)
	if err != nil {
		return Application{}, err
	}
	as, err := valueobject.NewApplicationStatus(s.Status)
	if err != nil {
		return Application{}, err
	}
	return Application{
		id:                s.ID,
		userID:            s.UserID,
		tier:              tier,
		requestedLimit:    s.RequestedLimit,
		serviceFee:        s.ServiceFee,
		transactionID:     s.TransactionID,
		checkoutRequestID: s.CheckoutRequestID,
		paymentStatus:     ps,
		status:            as,
		createdAt:         s.CreatedAt,
	}, nil
}

// Snapshot flattens the aggregate for persistence.
func (a Application) Snapshot() ApplicationSnapshot {
	return ApplicationSnapshot{
		ID:                a.id,
		UserID:            a.userID,
		Tier:              a.tier.String(),
		RequestedLimit:    a.requestedLimit,
		ServiceFee:        a.serviceFee,
		TransactionID:     a.transactionID,
		CheckoutRequestID: a.checkoutRequestID,
		PaymentStatus:     a.paymentStatus.String(),
		Status:            a.status.String(),
		CreatedAt:         a.createdAt,
	}
}

// IsPending is true while the application awaits payment or review.
func (a Application) IsPending() bool {
	return a.paymentStatus == valueobject.PaymentStatusPending || a.status == valueobject.ApplicationStatusPending
}

func (a Application) ID() string                               { return a.id }
func (a Application) UserID() string                           { return a.userID }
func (a Application) Tier() valueobject.TierID                 { return a.tier }
func (a Application) RequestedLimit() decimal.Decimal          { return a.requestedLimit }
func (a Application) ServiceFee() decimal.Decimal              { return a.serviceFee }
func (a Application) TransactionID() string                    { return a.transactionID }
func (a Application) CheckoutRequestID() string                { return a.checkoutRequestID }
func (a Application) PaymentStatus() valueobject.PaymentStatus { return a.paymentStatus }
func (a Application) Status() valueobject.ApplicationStatus    { return a.status }
func (a Application) CreatedAt() time.Time                     { return a.createdAt }
func (a Application) DomainEvents() []event.DomainEvent        { return a.events.Events() }
