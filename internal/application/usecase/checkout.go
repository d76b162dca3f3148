package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/barkshad/fuliza/internal/application/dto"
	"github.com/barkshad/fuliza/internal/domain/event"
	"github.com/barkshad/fuliza/internal/domain/model"
	"github.com/barkshad/fuliza/internal/domain/port"
	"github.com/barkshad/fuliza/internal/domain/service"
	"github.com/barkshad/fuliza/internal/domain/valueobject"
)

const pushDescription = "Credit Limit Upgrade Fee"

// ConfirmationPolicy decides how a waiting checkout is resolved.
type ConfirmationPolicy string

const (
	// ConfirmPoll asks the gateway for the transaction status and times out
	// at the deadline.
	ConfirmPoll ConfirmationPolicy = "poll"
	// ConfirmOptimistic treats an unanswered push as paid at the deadline.
	ConfirmOptimistic ConfirmationPolicy = "optimistic"
)

// ParseConfirmationPolicy parses a configured policy name.
func ParseConfirmationPolicy(s string) (ConfirmationPolicy, error) {
	switch p := ConfirmationPolicy(s); p {
	case ConfirmPoll, ConfirmOptimistic:
		return p, nil
	default:
		return "", fmt.Errorf("unknown payment confirmation policy %q", s)
	}
}

// loadOwned returns the checkout id if it belongs to uid. A foreign checkout
// is reported as missing.
func loadOwned(ctx context.Context, repo port.CheckoutRepository, uid, id string) (model.Checkout, error) {
	if uid == "" {
		return model.Checkout{}, ErrMissingIdentity
	}
	c, err := repo.FindByID(ctx, id)
	if err != nil {
		return model.Checkout{}, fmt.Errorf("load checkout: %w", err)
	}
	if c.UserID() != uid {
		return model.Checkout{}, fmt.Errorf("load checkout: %w", model.ErrCheckoutNotFound)
	}
	return c, nil
}

// errCheckoutMoved reports a checkout changed by another writer between load
// and store.
var errCheckoutMoved = fmt.Errorf("%w: checkout changed concurrently", valueobject.ErrInvalidCheckoutTransition)

// ---------------------------------------------------------------------------
// checkoutFinisher – terminal transitions shared by await, read and callbacks
// ---------------------------------------------------------------------------

type checkoutFinisher struct {
	checkouts    port.CheckoutRepository
	applications port.ApplicationRepository
	profiles     port.ProfileStore
	publisher    port.EventPublisher
	metrics      Metrics
	logger       *slog.Logger
}

// succeed closes the checkout as paid together with its application and moves
// the profile under review. Only the first writer to settle a checkout
// records an application; later ones get the stored result.
func (f checkoutFinisher) succeed(ctx context.Context, c model.Checkout) (dto.CheckoutResponse, error) {
	ts := now()
	from := c.State()
	paid, err := c.Succeed(ts)
	if err != nil {
		return dto.CheckoutResponse{}, fmt.Errorf("confirm checkout: %w", err)
	}

	app, err := model.NewApplication(c.UserID(), c.Tier(), c.TransactionID(), c.CheckoutRequestID(), ts)
	if err != nil {
		return dto.CheckoutResponse{}, fmt.Errorf("create application: %w", err)
	}
	settled, err := f.checkouts.Settle(ctx, paid, from, app)
	if err != nil {
		return dto.CheckoutResponse{}, fmt.Errorf("settle checkout: %w", err)
	}
	if !settled {
		return f.current(ctx, c.ID())
	}

	f.markUnderReview(ctx, c.UserID(), ts)

	f.metrics.CheckoutResolved(paid.State().String())
	evts := append([]event.DomainEvent{}, paid.DomainEvents()...)
	evts = append(evts, app.DomainEvents()...)
	publishEvents(ctx, f.publisher, f.logger, evts...)

	resp := toCheckoutResponse(paid, ts)
	resp.ApplicationID = app.ID()
	return resp, nil
}

// markUnderReview runs after the payment is stored, so a failure is logged
// and not returned.
func (f checkoutFinisher) markUnderReview(ctx context.Context, uid string, ts time.Time) {
	profile, err := f.profiles.Get(ctx, uid)
	if err == nil {
		profile, err = profile.MarkUnderReview(ts)
	}
	if err == nil {
		err = f.profiles.Save(ctx, profile)
	}
	if err != nil {
		f.logger.ErrorContext(ctx, "failed to move profile under review", "uid", uid, "error", err)
	}
}

func (f checkoutFinisher) fail(ctx context.Context, c model.Checkout, reason string) (dto.CheckoutResponse, error) {
	ts := now()
	failed, err := c.Fail(reason, ts)
	if err != nil {
		return dto.CheckoutResponse{}, fmt.Errorf("fail checkout: %w", err)
	}
	return f.close(ctx, failed, c.State(), ts)
}

func (f checkoutFinisher) timeout(ctx context.Context, c model.Checkout) (dto.CheckoutResponse, error) {
	ts := now()
	expired, err := c.TimeOut(ts)
	if err != nil {
		return dto.CheckoutResponse{}, fmt.Errorf("time out checkout: %w", err)
	}
	return f.close(ctx, expired, c.State(), ts)
}

func (f checkoutFinisher) close(ctx context.Context, c model.Checkout, from valueobject.CheckoutState, ts time.Time) (dto.CheckoutResponse, error) {
	moved, err := f.checkouts.Transition(ctx, c, from)
	if err != nil {
		return dto.CheckoutResponse{}, fmt.Errorf("save checkout: %w", err)
	}
	if !moved {
		return f.current(ctx, c.ID())
	}
	f.metrics.CheckoutResolved(c.State().String())
	publishEvents(ctx, f.publisher, f.logger, c.DomainEvents()...)
	return toCheckoutResponse(c, ts), nil
}

// expire resolves a waiting checkout whose countdown ran out. Under the poll
// policy the gateway gets one last look before the checkout times out.
func (f checkoutFinisher) expire(ctx context.Context, c model.Checkout, policy ConfirmationPolicy, gateway port.PushPaymentGateway) (dto.CheckoutResponse, error) {
	if policy == ConfirmOptimistic {
		return f.succeed(ctx, c)
	}
	status, err := gateway.TransactionStatus(ctx, c.TransactionID())
	switch {
	case err != nil:
		f.logger.WarnContext(ctx, "transaction status check failed", "checkout_id", c.ID(), "error", err)
	case status == port.PushSuccess:
		return f.succeed(ctx, c)
	case status == port.PushFailed:
		return f.fail(ctx, c, "payment was declined")
	}
	return f.timeout(ctx, c)
}

// current returns the stored checkout after another writer resolved it.
func (f checkoutFinisher) current(ctx context.Context, id string) (dto.CheckoutResponse, error) {
	c, err := f.checkouts.FindByID(ctx, id)
	if err != nil {
		return dto.CheckoutResponse{}, fmt.Errorf("reload checkout: %w", err)
	}
	f.logger.DebugContext(ctx, "checkout resolved elsewhere", "checkout_id", id, "state", c.State().String())
	return f.describe(ctx, c)
}

// describe renders c and, once paid, the application it produced.
func (f checkoutFinisher) describe(ctx context.Context, c model.Checkout) (dto.CheckoutResponse, error) {
	resp := toCheckoutResponse(c, now())
	if !c.State().Equal(valueobject.CheckoutSuccess) {
		return resp, nil
	}
	apps, err := f.applications.ListByUser(ctx, c.UserID())
	if err != nil {
		return dto.CheckoutResponse{}, fmt.Errorf("list applications: %w", err)
	}
	for _, a := range apps {
		if a.CheckoutRequestID() == c.CheckoutRequestID() {
			resp.ApplicationID = a.ID()
			break
		}
	}
	return resp, nil
}

// ---------------------------------------------------------------------------
// StartCheckoutUseCase
// ---------------------------------------------------------------------------

// StartCheckoutUseCase opens or retries a checkout and pushes the fee to the
// user's phone.
type StartCheckoutUseCase struct {
	resolver  limitResolver
	checkouts port.CheckoutRepository
	gateway   port.PushPaymentGateway
	finisher  checkoutFinisher
	countdown time.Duration
	logger    *slog.Logger
}

// NewStartCheckoutUseCase wires dependencies. countdown bounds the waiting
// state.
func NewStartCheckoutUseCase(
	profiles port.ProfileStore,
	projections port.ProjectionStore,
	generator *service.TierGenerator,
	checkouts port.CheckoutRepository,
	applications port.ApplicationRepository,
	gateway port.PushPaymentGateway,
	publisher port.EventPublisher,
	metrics Metrics,
	countdown time.Duration,
	logger *slog.Logger,
) *StartCheckoutUseCase {
	return &StartCheckoutUseCase{
		resolver:  limitResolver{profiles: profiles, projections: projections, generator: generator},
		checkouts: checkouts,
		gateway:   gateway,
		finisher: checkoutFinisher{
			checkouts:    checkouts,
			applications: applications,
			profiles:     profiles,
			publisher:    publisher,
			metrics:      metrics,
			logger:       logger,
		},
		countdown: countdown,
		logger:    logger,
	}
}

// Execute starts a checkout, or retries req.CheckoutID when set. A rejected
// push is returned as a failed checkout, not as an error.
func (uc *StartCheckoutUseCase) Execute(ctx context.Context, req dto.StartCheckoutRequest) (dto.CheckoutResponse, error) {
	if req.UID == "" {
		return dto.CheckoutResponse{}, ErrMissingIdentity
	}

	// 1. Load the profile.
	profile, err := uc.finisher.profiles.Get(ctx, req.UID)
	if err != nil {
		return dto.CheckoutResponse{}, fmt.Errorf("load profile: %w", err)
	}

	// 2. Open a new checkout or pick up the one being retried.
	var (
		checkout model.Checkout
		retry    = req.CheckoutID != ""
	)
	if retry {
		if checkout, err = loadOwned(ctx, uc.checkouts, req.UID, req.CheckoutID); err != nil {
			return dto.CheckoutResponse{}, err
		}
	} else {
		if checkout, err = uc.open(ctx, req, profile); err != nil {
			return dto.CheckoutResponse{}, err
		}
	}

	// 3. Enter processing.
	ts := now()
	from := checkout.State()
	if checkout, err = checkout.Begin(ts); err != nil {
		return dto.CheckoutResponse{}, fmt.Errorf("begin checkout: %w", err)
	}
	if profile, err = profile.MarkPaymentPending(ts); err != nil {
		return dto.CheckoutResponse{}, fmt.Errorf("mark payment pending: %w", err)
	}
	if err := uc.finisher.profiles.Save(ctx, profile); err != nil {
		return dto.CheckoutResponse{}, fmt.Errorf("save profile: %w", err)
	}
	if err := uc.store(ctx, checkout, from, retry); err != nil {
		return dto.CheckoutResponse{}, err
	}

	// 4. Push the fee. One attempt; the user retries explicitly.
	ack, err := uc.gateway.Push(ctx, port.PushRequest{
		Phone:       checkout.Phone().String(),
		Amount:      checkout.Tier().Fee,
		Reference:   checkout.ID(),
		Description: pushDescription,
	})
	if err != nil {
		uc.logger.WarnContext(ctx, "payment push failed", "checkout_id", checkout.ID(), "attempt", checkout.Attempts(), "error", err)
		return uc.finisher.fail(ctx, checkout, err.Error())
	}

	// 5. Wait for the user's approval.
	if checkout, err = checkout.AwaitApproval(ack.TransactionID, ack.CheckoutRequestID, uc.countdown, now()); err != nil {
		return dto.CheckoutResponse{}, fmt.Errorf("await approval: %w", err)
	}
	if err := uc.store(ctx, checkout, valueobject.CheckoutProcessing, true); err != nil {
		return dto.CheckoutResponse{}, err
	}

	uc.logger.InfoContext(ctx, "payment push sent",
		"checkout_id", checkout.ID(),
		"tier", checkout.Tier().ID.String(),
		"checkout_request_id", ack.CheckoutRequestID,
	)
	publishEvents(ctx, uc.finisher.publisher, uc.logger, checkout.DomainEvents()...)
	return toCheckoutResponse(checkout, now()), nil
}

// store inserts a new checkout or moves a stored one on from from.
func (uc *StartCheckoutUseCase) store(ctx context.Context, c model.Checkout, from valueobject.CheckoutState, stored bool) error {
	if !stored {
		if err := uc.checkouts.Save(ctx, c); err != nil {
			return fmt.Errorf("save checkout: %w", err)
		}
		return nil
	}
	moved, err := uc.checkouts.Transition(ctx, c, from)
	if err != nil {
		return fmt.Errorf("save checkout: %w", err)
	}
	if !moved {
		return errCheckoutMoved
	}
	return nil
}

func (uc *StartCheckoutUseCase) open(ctx context.Context, req dto.StartCheckoutRequest, profile model.Profile) (model.Checkout, error) {
	tierID, err := valueobject.NewTierID(req.Tier)
	if err != nil {
		return model.Checkout{}, err
	}

	phone := profile.Phone()
	if req.Phone != "" {
		if phone, err = valueobject.NewPhoneNumber(req.Phone); err != nil {
			return model.Checkout{}, err
		}
	}

	maxLimit, _, err := uc.resolver.resolve(ctx, req.UID, req.SessionID)
	if err != nil {
		return model.Checkout{}, err
	}
	tier, err := uc.resolver.generator.Tier(maxLimit, tierID)
	if err != nil {
		return model.Checkout{}, err
	}

	checkout, err := model.NewCheckout(req.UID, tier, phone, now())
	if err != nil {
		return model.Checkout{}, fmt.Errorf("create checkout: %w", err)
	}
	return checkout, nil
}

// ---------------------------------------------------------------------------
// AwaitCheckoutUseCase
// ---------------------------------------------------------------------------

// AwaitCheckoutUseCase blocks until a waiting checkout is resolved.
type AwaitCheckoutUseCase struct {
	checkouts    port.CheckoutRepository
	gateway      port.PushPaymentGateway
	finisher     checkoutFinisher
	policy       ConfirmationPolicy
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewAwaitCheckoutUseCase wires dependencies.
func NewAwaitCheckoutUseCase(
	checkouts port.CheckoutRepository,
	applications port.ApplicationRepository,
	profiles port.ProfileStore,
	gateway port.PushPaymentGateway,
	publisher port.EventPublisher,
	metrics Metrics,
	policy ConfirmationPolicy,
	pollInterval time.Duration,
	logger *slog.Logger,
) *AwaitCheckoutUseCase {
	return &AwaitCheckoutUseCase{
		checkouts: checkouts,
		gateway:   gateway,
		finisher: checkoutFinisher{
			checkouts:    checkouts,
			applications: applications,
			profiles:     profiles,
			publisher:    publisher,
			metrics:      metrics,
			logger:       logger,
		},
		policy:       policy,
		pollInterval: pollInterval,
		logger:       logger,
	}
}

// Execute waits for the checkout to leave the waiting state. Checkouts in any
// other state are returned as they are.
func (uc *AwaitCheckoutUseCase) Execute(ctx context.Context, ref dto.CheckoutRef) (dto.CheckoutResponse, error) {
	checkout, err := loadOwned(ctx, uc.checkouts, ref.UID, ref.CheckoutID)
	if err != nil {
		return dto.CheckoutResponse{}, err
	}

	ticker := time.NewTicker(uc.pollInterval)
	defer ticker.Stop()

	for {
		if !checkout.State().Equal(valueobject.CheckoutWaiting) {
			return toCheckoutResponse(checkout, now()), nil
		}
		if checkout.Expired(now()) {
			return uc.finisher.expire(ctx, checkout, uc.policy, uc.gateway)
		}

		select {
		case <-ctx.Done():
			return dto.CheckoutResponse{}, fmt.Errorf("await checkout: %w", ctx.Err())
		case <-ticker.C:
		}

		// A gateway callback may have resolved it meanwhile.
		if checkout, err = uc.checkouts.FindByID(ctx, checkout.ID()); err != nil {
			return dto.CheckoutResponse{}, fmt.Errorf("reload checkout: %w", err)
		}
		if uc.policy != ConfirmPoll || !checkout.State().Equal(valueobject.CheckoutWaiting) {
			continue
		}

		status, err := uc.gateway.TransactionStatus(ctx, checkout.TransactionID())
		if err != nil {
			uc.logger.WarnContext(ctx, "transaction status check failed", "checkout_id", checkout.ID(), "error", err)
			continue
		}
		switch status {
		case port.PushSuccess:
			return uc.finisher.succeed(ctx, checkout)
		case port.PushFailed:
			return uc.finisher.fail(ctx, checkout, "payment was declined")
		}
	}
}

// ---------------------------------------------------------------------------
// ConfirmCheckoutUseCase
// ---------------------------------------------------------------------------

// ConfirmCheckoutUseCase applies an out-of-band payment result from the
// gateway.
type ConfirmCheckoutUseCase struct {
	checkouts port.CheckoutRepository
	finisher  checkoutFinisher
	logger    *slog.Logger
}

// NewConfirmCheckoutUseCase wires dependencies.
func NewConfirmCheckoutUseCase(
	checkouts port.CheckoutRepository,
	applications port.ApplicationRepository,
	profiles port.ProfileStore,
	publisher port.EventPublisher,
	metrics Metrics,
	logger *slog.Logger,
) *ConfirmCheckoutUseCase {
	return &ConfirmCheckoutUseCase{
		checkouts: checkouts,
		finisher: checkoutFinisher{
			checkouts:    checkouts,
			applications: applications,
			profiles:     profiles,
			publisher:    publisher,
			metrics:      metrics,
			logger:       logger,
		},
		logger: logger,
	}
}

// Execute resolves the checkout matching cb. A success settles a waiting or
// timed-out checkout; a failure only ends a waiting one. Anything else is
// ignored so redeliveries are harmless.
func (uc *ConfirmCheckoutUseCase) Execute(ctx context.Context, cb dto.PaymentCallback) error {
	checkout, err := uc.checkouts.FindByCheckoutRequestID(ctx, cb.CheckoutRequestID)
	if errors.Is(err, model.ErrCheckoutNotFound) {
		uc.logger.WarnContext(ctx, "callback for unknown checkout", "checkout_request_id", cb.CheckoutRequestID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("load checkout: %w", err)
	}

	state, status := checkout.State(), port.PushStatus(cb.Status)
	switch {
	case status == port.PushSuccess && state.Equal(valueobject.CheckoutTimeout):
		uc.logger.InfoContext(ctx, "late payment confirmation", "checkout_id", checkout.ID())
		_, err = uc.finisher.succeed(ctx, checkout)
	case status == port.PushSuccess && state.Equal(valueobject.CheckoutWaiting):
		_, err = uc.finisher.succeed(ctx, checkout)
	case status == port.PushFailed && state.Equal(valueobject.CheckoutWaiting):
		reason := cb.Reason
		if reason == "" {
			reason = "payment was declined"
		}
		_, err = uc.finisher.fail(ctx, checkout, reason)
	default:
		uc.logger.DebugContext(ctx, "callback ignored", "checkout_id", checkout.ID(), "state", state.String(), "status", cb.Status)
		return nil
	}
	return err
}

// ---------------------------------------------------------------------------
// GetCheckoutUseCase
// ---------------------------------------------------------------------------

// GetCheckoutUseCase reads a checkout. A waiting checkout whose countdown ran
// out is resolved on read, so it never outlives its deadline when nobody
// awaits it.
type GetCheckoutUseCase struct {
	checkouts port.CheckoutRepository
	gateway   port.PushPaymentGateway
	finisher  checkoutFinisher
	policy    ConfirmationPolicy
}

// NewGetCheckoutUseCase wires dependencies.
func NewGetCheckoutUseCase(
	checkouts port.CheckoutRepository,
	applications port.ApplicationRepository,
	profiles port.ProfileStore,
	gateway port.PushPaymentGateway,
	publisher port.EventPublisher,
	metrics Metrics,
	policy ConfirmationPolicy,
	logger *slog.Logger,
) *GetCheckoutUseCase {
	return &GetCheckoutUseCase{
		checkouts: checkouts,
		gateway:   gateway,
		finisher: checkoutFinisher{
			checkouts:    checkouts,
			applications: applications,
			profiles:     profiles,
			publisher:    publisher,
			metrics:      metrics,
			logger:       logger,
		},
		policy: policy,
	}
}

// Execute returns the checkout and, once paid, the application it produced.
func (uc *GetCheckoutUseCase) Execute(ctx context.Context, ref dto.CheckoutRef) (dto.CheckoutResponse, error) {
	checkout, err := loadOwned(ctx, uc.checkouts, ref.UID, ref.CheckoutID)
	if err != nil {
		return dto.CheckoutResponse{}, err
	}
	if checkout.Expired(now()) {
		return uc.finisher.expire(ctx, checkout, uc.policy, uc.gateway)
	}
	return uc.finisher.describe(ctx, checkout)
}
