package grpc

import (
	"context"

	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/barkshad/fuliza/internal/application/dto"
	"github.com/barkshad/fuliza/pkg/auth"
)

// UseCase is the shape shared by every application use case.
type UseCase[Req, Resp any] interface {
	Execute(ctx context.Context, req Req) (Resp, error)
}

// UseCases groups what the handler dispatches to.
type UseCases struct {
	ProjectLimit    UseCase[dto.ProjectLimitRequest, dto.ProjectionResponse]
	RegisterProfile UseCase[dto.RegisterProfileRequest, dto.ProfileResponse]
	GetProfile      UseCase[string, dto.ProfileResponse]
	GetDashboard    UseCase[string, dto.DashboardResponse]
	RunAssessment   UseCase[dto.RunAssessmentRequest, dto.AssessmentResponse]
	ListPackages    UseCase[dto.ListPackagesRequest, dto.PackagesResponse]
	StartCheckout   UseCase[dto.StartCheckoutRequest, dto.CheckoutResponse]
	AwaitCheckout   UseCase[dto.CheckoutRef, dto.CheckoutResponse]
	GetCheckout     UseCase[dto.CheckoutRef, dto.CheckoutResponse]
	Export          interface {
		Execute(ctx context.Context) (dto.ExportResponse, error)
	}
}

var _ BoostServiceServer = (*BoostHandler)(nil)

// BoostHandler implements BoostServiceServer on top of the use cases. The
// caller's uid always comes from the validated token.
type BoostHandler struct {
	UnimplementedBoostServiceServer
	uc UseCases
}

// NewBoostHandler creates a BoostHandler.
func NewBoostHandler(uc UseCases) *BoostHandler {
	return &BoostHandler{uc: uc}
}

// callerID returns the uid of an authenticated caller.
func callerID(ctx context.Context) (string, error) {
	claims, ok := auth.ClaimsFromContext(ctx)
	if !ok || claims.UserID == "" {
		return "", status.Error(codes.Unauthenticated, "authentication required")
	}
	return claims.UserID, nil
}

// optionalCallerID is empty for anonymous calls to public methods.
func optionalCallerID(ctx context.Context) string {
	if claims, ok := auth.ClaimsFromContext(ctx); ok {
		return claims.UserID
	}
	return ""
}

func (h *BoostHandler) ProjectLimit(ctx context.Context, req *ProjectLimitRequest) (*dto.ProjectionResponse, error) {
	base, err := decimal.NewFromString(req.BaseLimit)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid base_limit: %v", err)
	}
	resp, err := h.uc.ProjectLimit.Execute(ctx, dto.ProjectLimitRequest{
		SessionID:    req.SessionID,
		BaseLimit:    base,
		PayFast:      req.PayFast,
		FrequentUser: req.FrequentUser,
		HighInflow:   req.HighInflow,
		Stagnant:     req.Stagnant,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &resp, nil
}

func (h *BoostHandler) RegisterProfile(ctx context.Context, req *RegisterProfileRequest) (*dto.ProfileResponse, error) {
	uid, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if req.FullName == "" {
		return nil, status.Error(codes.InvalidArgument, "full_name is required")
	}
	resp, err := h.uc.RegisterProfile.Execute(ctx, dto.RegisterProfileRequest{
		UID:       uid,
		FullName:  req.FullName,
		Email:     req.Email,
		Phone:     req.Phone,
		SessionID: req.SessionID,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &resp, nil
}

func (h *BoostHandler) GetProfile(ctx context.Context, _ *Empty) (*dto.ProfileResponse, error) {
	uid, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := h.uc.GetProfile.Execute(ctx, uid)
	if err != nil {
		return nil, toStatus(err)
	}
	return &resp, nil
}

func (h *BoostHandler) GetDashboard(ctx context.Context, _ *Empty) (*dto.DashboardResponse, error) {
	uid, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := h.uc.GetDashboard.Execute(ctx, uid)
	if err != nil {
		return nil, toStatus(err)
	}
	return &resp, nil
}

func (h *BoostHandler) RunAssessment(ctx context.Context, req *RunAssessmentRequest) (*dto.AssessmentResponse, error) {
	uid, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	income, err := decimal.NewFromString(req.MonthlyIncome)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid monthly_income: %v", err)
	}
	resp, err := h.uc.RunAssessment.Execute(ctx, dto.RunAssessmentRequest{
		UID:             uid,
		MonthlyIncome:   income,
		BusinessType:    req.BusinessType,
		YearsInBusiness: int(req.YearsInBusiness),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &resp, nil
}

// ListPackages is public so a visitor can price packages from a session
// projection before signing up.
func (h *BoostHandler) ListPackages(ctx context.Context, req *ListPackagesRequest) (*dto.PackagesResponse, error) {
	resp, err := h.uc.ListPackages.Execute(ctx, dto.ListPackagesRequest{
		UID:       optionalCallerID(ctx),
		SessionID: req.SessionID,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &resp, nil
}

func (h *BoostHandler) StartCheckout(ctx context.Context, req *StartCheckoutRequest) (*dto.CheckoutResponse, error) {
	uid, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	resp, err := h.uc.StartCheckout.Execute(ctx, dto.StartCheckoutRequest{
		UID:        uid,
		SessionID:  req.SessionID,
		Tier:       req.Tier,
		Phone:      req.Phone,
		CheckoutID: req.CheckoutID,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &resp, nil
}

func (h *BoostHandler) AwaitCheckout(ctx context.Context, req *CheckoutRequest) (*dto.CheckoutResponse, error) {
	return h.checkout(ctx, h.uc.AwaitCheckout, req)
}

func (h *BoostHandler) GetCheckout(ctx context.Context, req *CheckoutRequest) (*dto.CheckoutResponse, error) {
	return h.checkout(ctx, h.uc.GetCheckout, req)
}

func (h *BoostHandler) checkout(ctx context.Context, uc UseCase[dto.CheckoutRef, dto.CheckoutResponse], req *CheckoutRequest) (*dto.CheckoutResponse, error) {
	uid, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	if req.CheckoutID == "" {
		return nil, status.Error(codes.InvalidArgument, "checkout_id is required")
	}
	resp, err := uc.Execute(ctx, dto.CheckoutRef{UID: uid, CheckoutID: req.CheckoutID})
	if err != nil {
		return nil, toStatus(err)
	}
	return &resp, nil
}

// ExportMasterRecord is gated to the admin role by the auth policy.
func (h *BoostHandler) ExportMasterRecord(ctx context.Context, _ *Empty) (*dto.ExportResponse, error) {
	resp, err := h.uc.Export.Execute(ctx)
	if err != nil {
		return nil, toStatus(err)
	}
	return &resp, nil
}
