package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barkshad/fuliza/internal/domain/model"
	"github.com/barkshad/fuliza/pkg/testutil"
)

type mockStore struct {
	profiles map[string]model.Profile
	err      error
	saves    int
}

func newMockStore() *mockStore { return &mockStore{profiles: map[string]model.Profile{}} }

func (m *mockStore) Get(_ context.Context, uid string) (model.Profile, error) {
	if m.err != nil {
		return model.Profile{}, m.err
	}
	p, ok := m.profiles[uid]
	if !ok {
		return model.Profile{}, model.ErrProfileNotFound
	}
	return p, nil
}

func (m *mockStore) Save(_ context.Context, p model.Profile) error {
	if m.err != nil {
		return m.err
	}
	m.saves++
	m.profiles[p.UID()] = p
	return nil
}

func (m *mockStore) List(_ context.Context) ([]model.Profile, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []model.Profile
	for _, p := range m.profiles {
		out = append(out, p)
	}
	return out, nil
}

var errDown = errors.New("connection refused")

func profile(t *testing.T) model.Profile {
	t.Helper()
	p, err := model.NewProfile(testutil.TestUserID, "Njeri Mwangi", "n@example.com", testutil.TestPhone, time.Now())
	require.NoError(t, err)
	return p
}

func newStore(primary, local *mockStore) *TieredProfileStore {
	return NewTieredProfileStore(primary, local, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestTieredProfileStore_Save(t *testing.T) {
	t.Run("writes through to the local tier", func(t *testing.T) {
		primary, local := newMockStore(), newMockStore()
		require.NoError(t, newStore(primary, local).Save(context.Background(), profile(t)))
		assert.Equal(t, 1, primary.saves)
		assert.Equal(t, 1, local.saves)
	})

	t.Run("primary failure saves to the local tier", func(t *testing.T) {
		primary, local := newMockStore(), newMockStore()
		primary.err = errDown
		require.NoError(t, newStore(primary, local).Save(context.Background(), profile(t)))
		assert.Equal(t, 1, local.saves)
		assert.Contains(t, local.profiles, testutil.TestUserID)
	})

	t.Run("both tiers failing fails the save", func(t *testing.T) {
		primary, local := newMockStore(), newMockStore()
		primary.err = errDown
		local.err = errors.New("redis: connection pool timeout")
		err := newStore(primary, local).Save(context.Background(), profile(t))
		require.ErrorIs(t, err, errDown)
		require.ErrorIs(t, err, local.err)
	})

	t.Run("cancelled save is not diverted", func(t *testing.T) {
		primary, local := newMockStore(), newMockStore()
		primary.err = context.Canceled
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := newStore(primary, local).Save(ctx, profile(t))
		require.ErrorIs(t, err, context.Canceled)
		assert.Zero(t, local.saves)
	})

	t.Run("no local tier", func(t *testing.T) {
		primary := newMockStore()
		s := NewTieredProfileStore(primary, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
		require.NoError(t, s.Save(context.Background(), profile(t)))

		primary.err = errDown
		require.ErrorIs(t, s.Save(context.Background(), profile(t)), errDown)
	})

	t.Run("local failure is tolerated", func(t *testing.T) {
		primary, local := newMockStore(), newMockStore()
		local.err = errDown
		require.NoError(t, newStore(primary, local).Save(context.Background(), profile(t)))
		assert.Equal(t, 1, primary.saves)
	})

}

func TestTieredProfileStore_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("primary hit refreshes local", func(t *testing.T) {
		primary, local := newMockStore(), newMockStore()
		primary.profiles[testutil.TestUserID] = profile(t)
		got, err := newStore(primary, local).Get(ctx, testutil.TestUserID)
		require.NoError(t, err)
		assert.Equal(t, testutil.TestUserID, got.UID())
		assert.Contains(t, local.profiles, testutil.TestUserID)
	})

	t.Run("missing in both tiers is not found", func(t *testing.T) {
		primary, local := newMockStore(), newMockStore()
		_, err := newStore(primary, local).Get(ctx, testutil.TestUserID)
		require.ErrorIs(t, err, model.ErrProfileNotFound)
	})

	t.Run("local-only profile is written back", func(t *testing.T) {
		primary, local := newMockStore(), newMockStore()
		local.profiles[testutil.TestUserID] = profile(t)
		got, err := newStore(primary, local).Get(ctx, testutil.TestUserID)
		require.NoError(t, err)
		assert.Equal(t, testutil.TestUserID, got.UID())
		assert.Contains(t, primary.profiles, testutil.TestUserID)
	})

	t.Run("newer local copy wins and repairs the primary", func(t *testing.T) {
		primary, local := newMockStore(), newMockStore()
		stale := profile(t)
		fresh, err := stale.MarkPaymentPending(time.Now())
		require.NoError(t, err)
		primary.profiles[testutil.TestUserID] = stale
		local.profiles[testutil.TestUserID] = fresh

		got, err := newStore(primary, local).Get(ctx, testutil.TestUserID)
		require.NoError(t, err)
		assert.Equal(t, "payment_pending", got.Status().String())
		assert.Equal(t, fresh.Version(), primary.profiles[testutil.TestUserID].Version())
	})

	t.Run("primary down falls back to local", func(t *testing.T) {
		primary, local := newMockStore(), newMockStore()
		primary.err = errDown
		local.profiles[testutil.TestUserID] = profile(t)
		got, err := newStore(primary, local).Get(ctx, testutil.TestUserID)
		require.NoError(t, err)
		assert.Equal(t, "Njeri Mwangi", got.FullName())
	})

	t.Run("both tiers miss", func(t *testing.T) {
		primary, local := newMockStore(), newMockStore()
		primary.err = errDown
		_, err := newStore(primary, local).Get(ctx, testutil.TestUserID)
		require.ErrorIs(t, err, errDown)
	})
}

func TestTieredProfileStore_List(t *testing.T) {
	ctx := context.Background()
	primary, local := newMockStore(), newMockStore()
	local.profiles[testutil.TestUserID] = profile(t)

	all, err := newStore(primary, local).List(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	primary.err = errDown
	all, err = newStore(primary, local).List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	local.err = errDown
	_, err = newStore(primary, local).List(ctx)
	require.ErrorIs(t, err, errDown)
}
