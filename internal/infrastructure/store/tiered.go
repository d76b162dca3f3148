// Package store joins the durable profile repository and its cache into one
// port.ProfileStore.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/barkshad/fuliza/internal/domain/model"
	"github.com/barkshad/fuliza/internal/domain/port"
)

// TieredProfileStore reads and writes the primary store and keeps the local
// tier in step. Reads and writes fall back to the local tier when the primary
// is unreachable. A profile written to the local tier alone is either missing
// from the primary or newer than its primary copy, and is written back on the
// next read.
type TieredProfileStore struct {
	primary port.ProfileStore
	local   port.ProfileStore
	logger  *slog.Logger
}

// NewTieredProfileStore creates a TieredProfileStore. local may be nil.
func NewTieredProfileStore(primary, local port.ProfileStore, logger *slog.Logger) *TieredProfileStore {
	return &TieredProfileStore{primary: primary, local: local, logger: logger}
}

func (s *TieredProfileStore) Get(ctx context.Context, uid string) (model.Profile, error) {
	p, err := s.primary.Get(ctx, uid)
	switch {
	case err == nil:
		return s.reconcile(ctx, p), nil
	case s.local == nil:
		return model.Profile{}, err
	case errors.Is(err, model.ErrProfileNotFound):
		cached, cerr := s.local.Get(ctx, uid)
		if cerr != nil {
			return model.Profile{}, err
		}
		s.writeBack(ctx, cached)
		return cached, nil
	}

	s.logger.WarnContext(ctx, "primary profile store unavailable, reading local tier",
		"uid", uid, "error", err)
	cached, cerr := s.local.Get(ctx, uid)
	if cerr != nil {
		return model.Profile{}, fmt.Errorf("get profile %s: %w", uid, err)
	}
	return cached, nil
}

// Save writes the primary and refreshes the local tier. When the primary
// write fails the profile is kept in the local tier alone; the save fails
// only when neither tier took it or ctx is done.
func (s *TieredProfileStore) Save(ctx context.Context, p model.Profile) error {
	err := s.primary.Save(ctx, p)
	if err == nil {
		s.refresh(ctx, p)
		return nil
	}
	if s.local == nil || ctx.Err() != nil {
		return fmt.Errorf("save profile %s: %w", p.UID(), err)
	}

	s.logger.WarnContext(ctx, "primary profile store unavailable, saving to local tier",
		"uid", p.UID(), "error", err)
	if lerr := s.local.Save(ctx, p); lerr != nil {
		return fmt.Errorf("save profile %s: %w", p.UID(), errors.Join(err, lerr))
	}
	return nil
}

// reconcile returns the newer of the primary copy and the local one, writing
// a newer local copy back to the primary.
func (s *TieredProfileStore) reconcile(ctx context.Context, p model.Profile) model.Profile {
	if s.local == nil {
		return p
	}
	cached, err := s.local.Get(ctx, p.UID())
	if err != nil || cached.Version() <= p.Version() {
		s.refresh(ctx, p)
		return p
	}
	s.writeBack(ctx, cached)
	return cached
}

func (s *TieredProfileStore) writeBack(ctx context.Context, p model.Profile) {
	if err := s.primary.Save(ctx, p); err != nil {
		s.logger.WarnContext(ctx, "failed to write back local profile", "uid", p.UID(), "error", err)
	}
}

func (s *TieredProfileStore) List(ctx context.Context) ([]model.Profile, error) {
	all, err := s.primary.List(ctx)
	if err == nil {
		return all, nil
	}
	if s.local == nil {
		return nil, err
	}

	s.logger.WarnContext(ctx, "primary profile store unavailable, listing local tier", "error", err)
	cached, cerr := s.local.List(ctx)
	if cerr != nil {
		return nil, fmt.Errorf("list profiles: %w", errors.Join(err, cerr))
	}
	return cached, nil
}

func (s *TieredProfileStore) refresh(ctx context.Context, p model.Profile) {
	if s.local == nil {
		return
	}
	if err := s.local.Save(ctx, p); err != nil {
		s.logger.WarnContext(ctx, "failed to refresh local profile tier", "uid", p.UID(), "error", err)
	}
}
