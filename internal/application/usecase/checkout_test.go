package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barkshad/fuliza/internal/application/dto"
	"github.com/barkshad/fuliza/internal/application/usecase"
	"github.com/barkshad/fuliza/internal/domain/model"
	"github.com/barkshad/fuliza/internal/domain/port"
	"github.com/barkshad/fuliza/internal/domain/service"
	"github.com/barkshad/fuliza/internal/domain/valueobject"
)

func mustTier(t *testing.T, id string) valueobject.TierID {
	t.Helper()
	tier, err := valueobject.NewTierID(id)
	require.NoError(t, err)
	return tier
}

func assessedProfile(t *testing.T, uid string) model.Profile {
	t.Helper()
	now := time.Now().UTC()
	p, err := model.ReconstructProfile(model.ProfileSnapshot{
		UID:           uid,
		FullName:      "Achieng Wafula",
		Phone:         "254712345678",
		Status:        "assessment_complete",
		EligibleLimit: decimal.NewFromInt(12500),
		CreditScore:   700,
		Version:       3,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	require.NoError(t, err)
	return p
}

func goldTier(t *testing.T) model.UpgradeTier {
	return model.UpgradeTier{ID: mustTier(t, "gold"), Limit: decimal.NewFromInt(12500), Fee: decimal.NewFromInt(1250)}
}

func waitingCheckout(t *testing.T, uid string, countdown time.Duration) model.Checkout {
	t.Helper()
	phone, err := valueobject.NewPhoneNumber("254712345678")
	require.NoError(t, err)
	now := time.Now().UTC()
	c, err := model.NewCheckout(uid, goldTier(t), phone, now)
	require.NoError(t, err)
	c, err = c.Begin(now)
	require.NoError(t, err)
	c, err = c.AwaitApproval("tx-9", "ws_CO_9", countdown, now)
	require.NoError(t, err)
	return c.ClearEvents()
}

type checkoutFixture struct {
	profiles     *mockProfileStore
	projections  *mockProjectionStore
	checkouts    *mockCheckoutRepository
	applications *mockApplicationRepository
	gateway      *mockPushGateway
	publisher    *mockEventPublisher
	metrics      *recordingMetrics
}

func newCheckoutFixture(t *testing.T, checkouts ...model.Checkout) *checkoutFixture {
	apps := &mockApplicationRepository{}
	return &checkoutFixture{
		profiles:     newProfileStore(assessedProfile(t, "user-1")),
		projections:  newProjectionStore(),
		checkouts:    newCheckoutRepository(apps, checkouts...),
		applications: apps,
		gateway:      &mockPushGateway{},
		publisher:    &mockEventPublisher{},
		metrics:      &recordingMetrics{},
	}
}

func (f *checkoutFixture) start(t *testing.T) *usecase.StartCheckoutUseCase {
	generator, err := service.NewTierGenerator(service.DefaultTierPolicy())
	require.NoError(t, err)
	return usecase.NewStartCheckoutUseCase(
		f.profiles, f.projections, generator, f.checkouts, f.applications,
		f.gateway, f.publisher, f.metrics, 15*time.Second, discardLogger(),
	)
}

func (f *checkoutFixture) await(policy usecase.ConfirmationPolicy) *usecase.AwaitCheckoutUseCase {
	return usecase.NewAwaitCheckoutUseCase(
		f.checkouts, f.applications, f.profiles, f.gateway, f.publisher, f.metrics,
		policy, 5*time.Millisecond, discardLogger(),
	)
}

func (f *checkoutFixture) confirm() *usecase.ConfirmCheckoutUseCase {
	return usecase.NewConfirmCheckoutUseCase(f.checkouts, f.applications, f.profiles, f.publisher, f.metrics, discardLogger())
}

func (f *checkoutFixture) get(policy usecase.ConfirmationPolicy) *usecase.GetCheckoutUseCase {
	return usecase.NewGetCheckoutUseCase(
		f.checkouts, f.applications, f.profiles, f.gateway, f.publisher, f.metrics, policy, discardLogger(),
	)
}

func (f *checkoutFixture) profileStatus(t *testing.T) string {
	t.Helper()
	p, err := f.profiles.Get(context.Background(), "user-1")
	require.NoError(t, err)
	return p.Status().String()
}

func TestStartCheckout_Execute(t *testing.T) {
	t.Run("pushes the fee and waits for approval", func(t *testing.T) {
		f := newCheckoutFixture(t)

		resp, err := f.start(t).Execute(context.Background(), dto.StartCheckoutRequest{UID: "user-1", Tier: "gold"})

		require.NoError(t, err)
		assert.Equal(t, "waiting", resp.State)
		assert.Equal(t, "ws_CO_1", resp.CheckoutRequestID)
		assert.Equal(t, 1, resp.Attempts)
		assert.Greater(t, resp.Remaining, 14*time.Second)
		assert.True(t, decimal.NewFromInt(12500).Equal(resp.Tier.Limit))

		require.Len(t, f.gateway.pushes, 1)
		push := f.gateway.pushes[0]
		assert.Equal(t, "254712345678", push.Phone)
		assert.True(t, decimal.NewFromInt(1250).Equal(push.Amount))
		assert.Equal(t, resp.ID, push.Reference)
		assert.Equal(t, "Credit Limit Upgrade Fee", push.Description)

		profile, err := f.profiles.Get(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Equal(t, "payment_pending", profile.Status().String())
		assert.Equal(t, []string{"boost.checkout.initiated"}, f.publisher.types())
	})

	t.Run("uses a phone override", func(t *testing.T) {
		f := newCheckoutFixture(t)

		resp, err := f.start(t).Execute(context.Background(), dto.StartCheckoutRequest{UID: "user-1", Tier: "bronze", Phone: "0111222333"})

		require.NoError(t, err)
		assert.Equal(t, "254111222333", resp.Phone)
		assert.True(t, decimal.NewFromInt(620).Equal(f.gateway.pushes[0].Amount))
	})

	t.Run("rejected push leaves a retryable failed checkout", func(t *testing.T) {
		f := newCheckoutFixture(t)
		f.gateway.pushFunc = func(context.Context, port.PushRequest) (port.PushAck, error) {
			return port.PushAck{}, errors.New("insufficient float")
		}

		resp, err := f.start(t).Execute(context.Background(), dto.StartCheckoutRequest{UID: "user-1", Tier: "silver"})

		require.NoError(t, err)
		assert.Equal(t, "failed", resp.State)
		assert.Equal(t, "insufficient float", resp.FailureReason)
		assert.Equal(t, []string{"failed"}, f.metrics.resolved)
		assert.Equal(t, []string{"boost.checkout.failed"}, f.publisher.types())

		f.gateway.pushFunc = nil
		retried, err := f.start(t).Execute(context.Background(), dto.StartCheckoutRequest{UID: "user-1", CheckoutID: resp.ID})

		require.NoError(t, err)
		assert.Equal(t, resp.ID, retried.ID)
		assert.Equal(t, "waiting", retried.State)
		assert.Equal(t, 2, retried.Attempts)
		assert.Empty(t, retried.FailureReason)
	})

	t.Run("cannot restart a waiting checkout", func(t *testing.T) {
		c := waitingCheckout(t, "user-1", time.Minute)
		f := newCheckoutFixture(t, c)

		_, err := f.start(t).Execute(context.Background(), dto.StartCheckoutRequest{UID: "user-1", CheckoutID: c.ID()})

		require.ErrorIs(t, err, valueobject.ErrInvalidCheckoutTransition)
		assert.Empty(t, f.gateway.pushes)
	})

	t.Run("foreign checkout is not found", func(t *testing.T) {
		c := waitingCheckout(t, "user-2", time.Minute)
		f := newCheckoutFixture(t, c)

		_, err := f.start(t).Execute(context.Background(), dto.StartCheckoutRequest{UID: "user-1", CheckoutID: c.ID()})

		require.ErrorIs(t, err, model.ErrCheckoutNotFound)
	})

	t.Run("unknown tier", func(t *testing.T) {
		f := newCheckoutFixture(t)

		_, err := f.start(t).Execute(context.Background(), dto.StartCheckoutRequest{UID: "user-1", Tier: "platinum"})

		require.ErrorIs(t, err, valueobject.ErrInvalidTier)
	})
}

func TestAwaitCheckout_Execute(t *testing.T) {
	t.Run("poll policy succeeds when the gateway confirms", func(t *testing.T) {
		c := waitingCheckout(t, "user-1", time.Minute)
		f := newCheckoutFixture(t, c)
		f.gateway.statusFunc = func(_ context.Context, txID string) (port.PushStatus, error) {
			assert.Equal(t, "tx-9", txID)
			return port.PushSuccess, nil
		}

		resp, err := f.await(usecase.ConfirmPoll).Execute(context.Background(), dto.CheckoutRef{UID: "user-1", CheckoutID: c.ID()})

		require.NoError(t, err)
		assert.Equal(t, "success", resp.State)
		assert.NotEmpty(t, resp.ApplicationID)

		require.Len(t, f.applications.apps, 1)
		app := f.applications.apps[0]
		assert.Equal(t, "gold", app.Tier().String())
		assert.Equal(t, "success", app.PaymentStatus().String())
		assert.Equal(t, "pending", app.Status().String())

		profile, err := f.profiles.Get(context.Background(), "user-1")
		require.NoError(t, err)
		assert.Equal(t, "under_review", profile.Status().String())
		assert.Equal(t, []string{"boost.checkout.succeeded", "boost.application.submitted"}, f.publisher.types())
		assert.Equal(t, []string{"success"}, f.metrics.resolved)
	})

	t.Run("poll policy fails on a declined payment", func(t *testing.T) {
		c := waitingCheckout(t, "user-1", time.Minute)
		f := newCheckoutFixture(t, c)
		f.gateway.statusFunc = func(context.Context, string) (port.PushStatus, error) { return port.PushFailed, nil }

		resp, err := f.await(usecase.ConfirmPoll).Execute(context.Background(), dto.CheckoutRef{UID: "user-1", CheckoutID: c.ID()})

		require.NoError(t, err)
		assert.Equal(t, "failed", resp.State)
		assert.Empty(t, f.applications.apps)
	})

	t.Run("poll policy times out at the deadline", func(t *testing.T) {
		c := waitingCheckout(t, "user-1", 30*time.Millisecond)
		f := newCheckoutFixture(t, c)
		f.gateway.statusFunc = func(context.Context, string) (port.PushStatus, error) {
			return "", errors.New("gateway unreachable")
		}

		resp, err := f.await(usecase.ConfirmPoll).Execute(context.Background(), dto.CheckoutRef{UID: "user-1", CheckoutID: c.ID()})

		require.NoError(t, err)
		assert.Equal(t, "timeout", resp.State)
		assert.Equal(t, []string{"timeout"}, f.metrics.resolved)
		assert.Equal(t, "timeout", f.checkouts.last().State().String())
	})

	t.Run("optimistic policy succeeds at the deadline", func(t *testing.T) {
		c := waitingCheckout(t, "user-1", 20*time.Millisecond)
		f := newCheckoutFixture(t, c)

		resp, err := f.await(usecase.ConfirmOptimistic).Execute(context.Background(), dto.CheckoutRef{UID: "user-1", CheckoutID: c.ID()})

		require.NoError(t, err)
		assert.Equal(t, "success", resp.State)
		assert.Len(t, f.applications.apps, 1)
	})

	t.Run("resolved checkout is returned as is", func(t *testing.T) {
		c := waitingCheckout(t, "user-1", time.Minute)
		c, err := c.Fail("cancelled by user", time.Now())
		require.NoError(t, err)
		f := newCheckoutFixture(t, c)

		resp, err := f.await(usecase.ConfirmPoll).Execute(context.Background(), dto.CheckoutRef{UID: "user-1", CheckoutID: c.ID()})

		require.NoError(t, err)
		assert.Equal(t, "failed", resp.State)
		assert.Empty(t, f.checkouts.saved)
	})

	t.Run("stops when the caller gives up", func(t *testing.T) {
		c := waitingCheckout(t, "user-1", time.Minute)
		f := newCheckoutFixture(t, c)
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := f.await(usecase.ConfirmPoll).Execute(ctx, dto.CheckoutRef{UID: "user-1", CheckoutID: c.ID()})

		require.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestConfirmCheckout_Execute(t *testing.T) {
	t.Run("success callback settles the checkout once", func(t *testing.T) {
		c := waitingCheckout(t, "user-1", time.Minute)
		f := newCheckoutFixture(t, c)
		cb := dto.PaymentCallback{CheckoutRequestID: "ws_CO_9", TransactionID: "tx-9", Status: "success"}

		require.NoError(t, f.confirm().Execute(context.Background(), cb))
		require.NoError(t, f.confirm().Execute(context.Background(), cb))

		assert.Len(t, f.applications.apps, 1)
		assert.Equal(t, "success", f.checkouts.last().State().String())
	})

	t.Run("concurrent success callbacks record one application", func(t *testing.T) {
		c := waitingCheckout(t, "user-1", time.Minute)
		f := newCheckoutFixture(t, c)
		var loaded sync.WaitGroup
		loaded.Add(2)
		f.checkouts.loaded = func() {
			loaded.Done()
			loaded.Wait()
		}
		cb := dto.PaymentCallback{CheckoutRequestID: "ws_CO_9", TransactionID: "tx-9", Status: "success"}

		errs := make([]error, 2)
		var wg sync.WaitGroup
		for i := range errs {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = f.confirm().Execute(context.Background(), cb)
			}(i)
		}
		wg.Wait()

		for _, err := range errs {
			require.NoError(t, err)
		}
		assert.Equal(t, 1, f.applications.count())
		assert.Equal(t, []string{"success"}, f.metrics.resolved)
		assert.Equal(t, []string{"boost.checkout.succeeded", "boost.application.submitted"}, f.publisher.types())
		assert.Equal(t, "under_review", f.profileStatus(t))
	})

	t.Run("late success settles a timed-out checkout", func(t *testing.T) {
		c := waitingCheckout(t, "user-1", time.Minute)
		c, err := c.TimeOut(time.Now().UTC())
		require.NoError(t, err)
		f := newCheckoutFixture(t, c.ClearEvents())

		err = f.confirm().Execute(context.Background(), dto.PaymentCallback{CheckoutRequestID: "ws_CO_9", Status: "success"})

		require.NoError(t, err)
		assert.Equal(t, "success", f.checkouts.last().State().String())
		assert.Equal(t, 1, f.applications.count())
		assert.Equal(t, "under_review", f.profileStatus(t))
	})

	t.Run("late failure leaves a timed-out checkout alone", func(t *testing.T) {
		c := waitingCheckout(t, "user-1", time.Minute)
		c, err := c.TimeOut(time.Now().UTC())
		require.NoError(t, err)
		f := newCheckoutFixture(t, c.ClearEvents())

		err = f.confirm().Execute(context.Background(), dto.PaymentCallback{CheckoutRequestID: "ws_CO_9", Status: "failed"})

		require.NoError(t, err)
		assert.Empty(t, f.checkouts.saved)
	})

	t.Run("failure callback keeps the reason", func(t *testing.T) {
		c := waitingCheckout(t, "user-1", time.Minute)
		f := newCheckoutFixture(t, c)

		err := f.confirm().Execute(context.Background(), dto.PaymentCallback{CheckoutRequestID: "ws_CO_9", Status: "failed", Reason: "wrong PIN"})

		require.NoError(t, err)
		assert.Equal(t, "wrong PIN", f.checkouts.last().FailureReason())
	})

	t.Run("unknown checkout is ignored", func(t *testing.T) {
		f := newCheckoutFixture(t)

		err := f.confirm().Execute(context.Background(), dto.PaymentCallback{CheckoutRequestID: "nope", Status: "success"})

		require.NoError(t, err)
		assert.Empty(t, f.checkouts.saved)
	})
}

func TestGetCheckout_Execute(t *testing.T) {
	t.Run("paid checkout carries its application", func(t *testing.T) {
		c := waitingCheckout(t, "user-1", time.Minute)
		f := newCheckoutFixture(t, c)
		require.NoError(t, f.confirm().Execute(context.Background(), dto.PaymentCallback{CheckoutRequestID: "ws_CO_9", Status: "success"}))

		resp, err := f.get(usecase.ConfirmPoll).Execute(context.Background(), dto.CheckoutRef{UID: "user-1", CheckoutID: c.ID()})

		require.NoError(t, err)
		assert.Equal(t, "success", resp.State)
		assert.Equal(t, f.applications.apps[0].ID(), resp.ApplicationID)

		_, err = f.get(usecase.ConfirmPoll).Execute(context.Background(), dto.CheckoutRef{UID: "user-2", CheckoutID: c.ID()})
		require.ErrorIs(t, err, model.ErrCheckoutNotFound)
	})

	t.Run("waiting checkout within its countdown is left waiting", func(t *testing.T) {
		c := waitingCheckout(t, "user-1", time.Minute)
		f := newCheckoutFixture(t, c)

		resp, err := f.get(usecase.ConfirmPoll).Execute(context.Background(), dto.CheckoutRef{UID: "user-1", CheckoutID: c.ID()})

		require.NoError(t, err)
		assert.Equal(t, "waiting", resp.State)
		assert.Empty(t, f.checkouts.saved)
	})

	t.Run("expired checkout times out under the poll policy", func(t *testing.T) {
		c := waitingCheckout(t, "user-1", 0)
		f := newCheckoutFixture(t, c)

		resp, err := f.get(usecase.ConfirmPoll).Execute(context.Background(), dto.CheckoutRef{UID: "user-1", CheckoutID: c.ID()})

		require.NoError(t, err)
		assert.Equal(t, "timeout", resp.State)
		assert.Equal(t, "timeout", f.checkouts.last().State().String())
		assert.Equal(t, []string{"timeout"}, f.metrics.resolved)
	})

	t.Run("expired checkout confirmed by the gateway succeeds", func(t *testing.T) {
		c := waitingCheckout(t, "user-1", 0)
		f := newCheckoutFixture(t, c)
		f.gateway.statusFunc = func(context.Context, string) (port.PushStatus, error) { return port.PushSuccess, nil }

		resp, err := f.get(usecase.ConfirmPoll).Execute(context.Background(), dto.CheckoutRef{UID: "user-1", CheckoutID: c.ID()})

		require.NoError(t, err)
		assert.Equal(t, "success", resp.State)
		assert.NotEmpty(t, resp.ApplicationID)
		assert.Equal(t, "under_review", f.profileStatus(t))
	})

	t.Run("expired checkout succeeds under the optimistic policy", func(t *testing.T) {
		c := waitingCheckout(t, "user-1", 0)
		f := newCheckoutFixture(t, c)

		resp, err := f.get(usecase.ConfirmOptimistic).Execute(context.Background(), dto.CheckoutRef{UID: "user-1", CheckoutID: c.ID()})

		require.NoError(t, err)
		assert.Equal(t, "success", resp.State)
		assert.Equal(t, 1, f.applications.count())
	})
}

func TestParseConfirmationPolicy(t *testing.T) {
	p, err := usecase.ParseConfirmationPolicy("optimistic")
	require.NoError(t, err)
	assert.Equal(t, usecase.ConfirmOptimistic, p)

	_, err = usecase.ParseConfirmationPolicy("hope")
	require.Error(t, err)
}
