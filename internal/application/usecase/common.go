package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/barkshad/fuliza/internal/application/dto"
	"github.com/barkshad/fuliza/internal/domain/event"
	"github.com/barkshad/fuliza/internal/domain/model"
	"github.com/barkshad/fuliza/internal/domain/port"
	"github.com/barkshad/fuliza/pkg/money"
)

var (
	// ErrProfileExists is returned when registering a uid twice.
	ErrProfileExists = errors.New("profile already exists")
	// ErrMissingIdentity is returned when a request carries no uid.
	ErrMissingIdentity = errors.New("uid is required")
)

// Metrics receives business counters. The Prometheus implementation lives in
// the infrastructure layer.
type Metrics interface {
	LimitProjected(increasePercent int, capped bool)
	AssessmentScored(source model.ScoreSource, took time.Duration)
	CheckoutResolved(state string)
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) LimitProjected(int, bool)                          {}
func (NopMetrics) AssessmentScored(model.ScoreSource, time.Duration) {}
func (NopMetrics) CheckoutResolved(string)                           {}

// publishEvents publishes and logs a failure. Events are notifications;
// losing one never fails the user's request.
func publishEvents(ctx context.Context, publisher port.EventPublisher, logger *slog.Logger, evts ...event.DomainEvent) {
	if len(evts) == 0 {
		return
	}
	if err := publisher.Publish(ctx, evts...); err != nil {
		logger.WarnContext(ctx, "publish domain events failed", "count", len(evts), "error", err)
	}
}

func now() time.Time { return time.Now().UTC() }

func toProfileResponse(p model.Profile) dto.ProfileResponse {
	docs := p.Documents()
	return dto.ProfileResponse{
		UID:             p.UID(),
		FullName:        p.FullName(),
		Email:           p.Email(),
		Phone:           p.Phone().String(),
		Status:          p.Status().String(),
		IDFrontURL:      docs.IDFrontURL,
		IDBackURL:       docs.IDBackURL,
		SelfieURL:       docs.SelfieURL,
		DeclaredLimit:   p.DeclaredLimit(),
		EligibleLimit:   p.EligibleLimit(),
		MonthlyIncome:   p.MonthlyIncome(),
		BusinessType:    string(p.BusinessType()),
		YearsInBusiness: p.YearsInBusiness(),
		CreditScore:     p.CreditScore(),
		Report:          p.Report(),
		CreatedAt:       p.CreatedAt(),
		UpdatedAt:       p.UpdatedAt(),
	}
}

func toTierResponse(t model.UpgradeTier) dto.TierResponse {
	return dto.TierResponse{
		ID:          t.ID.String(),
		DisplayName: t.DisplayName(),
		Limit:       t.Limit,
		Fee:         t.Fee,
		FeeLabel:    money.Shillings(t.Fee).String(),
	}
}

func toApplicationResponse(a model.Application) dto.ApplicationResponse {
	return dto.ApplicationResponse{
		ID:                a.ID(),
		Tier:              a.Tier().String(),
		RequestedLimit:    a.RequestedLimit(),
		ServiceFee:        a.ServiceFee(),
		TransactionID:     a.TransactionID(),
		PaymentStatus:     a.PaymentStatus().String(),
		ApplicationStatus: a.Status().String(),
		CreatedAt:         a.CreatedAt(),
	}
}

func toCheckoutResponse(c model.Checkout, at time.Time) dto.CheckoutResponse {
	return dto.CheckoutResponse{
		ID:                c.ID(),
		Tier:              toTierResponse(c.Tier()),
		State:             c.State().String(),
		Phone:             c.Phone().String(),
		CheckoutRequestID: c.CheckoutRequestID(),
		FailureReason:     c.FailureReason(),
		Attempts:          c.Attempts(),
		Remaining:         c.Remaining(at),
	}
}
