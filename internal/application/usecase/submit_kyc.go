package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"

	"golang.org/x/sync/errgroup"

	"github.com/barkshad/fuliza/internal/application/dto"
	"github.com/barkshad/fuliza/internal/domain/model"
	"github.com/barkshad/fuliza/internal/domain/port"
)

const kycFolder = "user_docs"

// ErrMissingDocument is returned when one of the three KYC files is absent.
var ErrMissingDocument = errors.New("id front, id back and selfie are all required")

// SubmitKYCUseCase uploads the identity documents and verifies the profile.
type SubmitKYCUseCase struct {
	profiles  port.ProfileStore
	host      port.DocumentHost
	publisher port.EventPublisher
	logger    *slog.Logger
}

// NewSubmitKYCUseCase wires dependencies.
func NewSubmitKYCUseCase(profiles port.ProfileStore, host port.DocumentHost, publisher port.EventPublisher, logger *slog.Logger) *SubmitKYCUseCase {
	return &SubmitKYCUseCase{profiles: profiles, host: host, publisher: publisher, logger: logger}
}

// Execute uploads the three documents concurrently. Any failed upload fails
// the step and the profile is left untouched.
func (uc *SubmitKYCUseCase) Execute(ctx context.Context, req dto.SubmitKYCRequest) (dto.ProfileResponse, error) {
	if req.UID == "" {
		return dto.ProfileResponse{}, ErrMissingIdentity
	}
	for _, u := range []dto.Upload{req.IDFront, req.IDBack, req.Selfie} {
		if u.Body == nil {
			return dto.ProfileResponse{}, ErrMissingDocument
		}
	}

	// 1. The profile must exist before anything is uploaded.
	profile, err := uc.profiles.Get(ctx, req.UID)
	if err != nil {
		return dto.ProfileResponse{}, fmt.Errorf("load profile: %w", err)
	}

	// 2. Upload.
	var docs model.KYCDocuments
	g, gctx := errgroup.WithContext(ctx)
	upload := func(kind string, u dto.Upload, dst *string) {
		g.Go(func() error {
			url, err := uc.host.Upload(gctx, port.Document{
				Folder:      kycFolder,
				Name:        req.UID + "_" + kind + path.Ext(u.Name),
				ContentType: u.ContentType,
				Size:        u.Size,
				Body:        u.Body,
			})
			if err != nil {
				return fmt.Errorf("upload %s: %w", kind, err)
			}
			*dst = url
			return nil
		})
	}
	upload("id_front", req.IDFront, &docs.IDFrontURL)
	upload("id_back", req.IDBack, &docs.IDBackURL)
	upload("selfie", req.Selfie, &docs.SelfieURL)
	if err := g.Wait(); err != nil {
		return dto.ProfileResponse{}, err
	}

	// 3. Verify.
	profile, err = profile.AttachDocuments(docs, now())
	if err != nil {
		return dto.ProfileResponse{}, fmt.Errorf("attach documents: %w", err)
	}
	if err := uc.profiles.Save(ctx, profile); err != nil {
		return dto.ProfileResponse{}, fmt.Errorf("save profile: %w", err)
	}

	publishEvents(ctx, uc.publisher, uc.logger, profile.DomainEvents()...)
	return toProfileResponse(profile), nil
}
