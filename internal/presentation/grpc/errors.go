package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/barkshad/fuliza/internal/application/usecase"
	"github.com/barkshad/fuliza/internal/domain/model"
	"github.com/barkshad/fuliza/internal/domain/service"
	"github.com/barkshad/fuliza/internal/domain/valueobject"
)

// toStatus maps use-case errors onto gRPC codes. Anything unrecognized is
// reported as Internal without leaking the cause.
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, service.ErrInvalidBaseLimit),
		errors.Is(err, model.ErrInvalidAssessmentInput),
		errors.Is(err, valueobject.ErrInvalidPhoneNumber),
		errors.Is(err, valueobject.ErrInvalidTier),
		errors.Is(err, usecase.ErrMissingIdentity),
		errors.Is(err, usecase.ErrMissingDocument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, valueobject.ErrInvalidStatusTransition),
		errors.Is(err, valueobject.ErrInvalidCheckoutTransition):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, model.ErrProfileNotFound),
		errors.Is(err, model.ErrCheckoutNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, usecase.ErrProfileExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "deadline exceeded")
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request canceled")
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
