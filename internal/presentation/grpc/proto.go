package grpc

// Hand-written service definition for boost.v1.BoostService. Messages travel
// through the JSON codec, so requests are plain structs and responses reuse
// the application DTOs.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/barkshad/fuliza/internal/application/dto"
)

const serviceName = "boost.v1.BoostService"

// Full method names, used by the auth policy.
const (
	MethodProjectLimit       = "/" + serviceName + "/ProjectLimit"
	MethodRegisterProfile    = "/" + serviceName + "/RegisterProfile"
	MethodGetProfile         = "/" + serviceName + "/GetProfile"
	MethodGetDashboard       = "/" + serviceName + "/GetDashboard"
	MethodRunAssessment      = "/" + serviceName + "/RunAssessment"
	MethodListPackages       = "/" + serviceName + "/ListPackages"
	MethodStartCheckout      = "/" + serviceName + "/StartCheckout"
	MethodAwaitCheckout      = "/" + serviceName + "/AwaitCheckout"
	MethodGetCheckout        = "/" + serviceName + "/GetCheckout"
	MethodExportMasterRecord = "/" + serviceName + "/ExportMasterRecord"
)

// Empty is the request of methods that only need the caller's identity.
type Empty struct{}

type ProjectLimitRequest struct {
	SessionID    string `json:"session_id"`
	BaseLimit    string `json:"base_limit"`
	PayFast      bool   `json:"pay_fast"`
	FrequentUser bool   `json:"frequent_user"`
	HighInflow   bool   `json:"high_inflow"`
	Stagnant     bool   `json:"stagnant"`
}

type RegisterProfileRequest struct {
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	SessionID string `json:"session_id"`
}

type RunAssessmentRequest struct {
	MonthlyIncome   string `json:"monthly_income"`
	BusinessType    string `json:"business_type"`
	YearsInBusiness int32  `json:"years_in_business"`
}

type ListPackagesRequest struct {
	SessionID string `json:"session_id"`
}

type StartCheckoutRequest struct {
	SessionID  string `json:"session_id"`
	Tier       string `json:"tier"`
	Phone      string `json:"phone"`
	CheckoutID string `json:"checkout_id"`
}

type CheckoutRequest struct {
	CheckoutID string `json:"checkout_id"`
}

// BoostServiceServer is the server API for BoostService.
type BoostServiceServer interface {
	ProjectLimit(context.Context, *ProjectLimitRequest) (*dto.ProjectionResponse, error)
	RegisterProfile(context.Context, *RegisterProfileRequest) (*dto.ProfileResponse, error)
	GetProfile(context.Context, *Empty) (*dto.ProfileResponse, error)
	GetDashboard(context.Context, *Empty) (*dto.DashboardResponse, error)
	RunAssessment(context.Context, *RunAssessmentRequest) (*dto.AssessmentResponse, error)
	ListPackages(context.Context, *ListPackagesRequest) (*dto.PackagesResponse, error)
	StartCheckout(context.Context, *StartCheckoutRequest) (*dto.CheckoutResponse, error)
	AwaitCheckout(context.Context, *CheckoutRequest) (*dto.CheckoutResponse, error)
	GetCheckout(context.Context, *CheckoutRequest) (*dto.CheckoutResponse, error)
	ExportMasterRecord(context.Context, *Empty) (*dto.ExportResponse, error)
	mustEmbedUnimplementedBoostServiceServer()
}

// UnimplementedBoostServiceServer provides forward-compatible default implementations.
type UnimplementedBoostServiceServer struct{}

func (UnimplementedBoostServiceServer) ProjectLimit(context.Context, *ProjectLimitRequest) (*dto.ProjectionResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ProjectLimit not implemented")
}
func (UnimplementedBoostServiceServer) RegisterProfile(context.Context, *RegisterProfileRequest) (*dto.ProfileResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RegisterProfile not implemented")
}
func (UnimplementedBoostServiceServer) GetProfile(context.Context, *Empty) (*dto.ProfileResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetProfile not implemented")
}
func (UnimplementedBoostServiceServer) GetDashboard(context.Context, *Empty) (*dto.DashboardResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetDashboard not implemented")
}
func (UnimplementedBoostServiceServer) RunAssessment(context.Context, *RunAssessmentRequest) (*dto.AssessmentResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method RunAssessment not implemented")
}
func (UnimplementedBoostServiceServer) ListPackages(context.Context, *ListPackagesRequest) (*dto.PackagesResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ListPackages not implemented")
}
func (UnimplementedBoostServiceServer) StartCheckout(context.Context, *StartCheckoutRequest) (*dto.CheckoutResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method StartCheckout not implemented")
}
func (UnimplementedBoostServiceServer) AwaitCheckout(context.Context, *CheckoutRequest) (*dto.CheckoutResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method AwaitCheckout not implemented")
}
func (UnimplementedBoostServiceServer) GetCheckout(context.Context, *CheckoutRequest) (*dto.CheckoutResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method GetCheckout not implemented")
}
func (UnimplementedBoostServiceServer) ExportMasterRecord(context.Context, *Empty) (*dto.ExportResponse, error) {
	return nil, status.Error(codes.Unimplemented, "method ExportMasterRecord not implemented")
}
func (UnimplementedBoostServiceServer) mustEmbedUnimplementedBoostServiceServer() {}

// RegisterBoostServiceServer registers srv with s.
func RegisterBoostServiceServer(s grpclib.ServiceRegistrar, srv BoostServiceServer) {
	s.RegisterService(&boostServiceDesc, srv)
}

var boostServiceDesc = grpclib.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*BoostServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		unary("ProjectLimit", BoostServiceServer.ProjectLimit),
		unary("RegisterProfile", BoostServiceServer.RegisterProfile),
		unary("GetProfile", BoostServiceServer.GetProfile),
		unary("GetDashboard", BoostServiceServer.GetDashboard),
		unary("RunAssessment", BoostServiceServer.RunAssessment),
		unary("ListPackages", BoostServiceServer.ListPackages),
		unary("StartCheckout", BoostServiceServer.StartCheckout),
		unary("AwaitCheckout", BoostServiceServer.AwaitCheckout),
		unary("GetCheckout", BoostServiceServer.GetCheckout),
		unary("ExportMasterRecord", BoostServiceServer.ExportMasterRecord),
	},
	Streams: []grpclib.StreamDesc{},
}

// unary builds the method descriptor that generated code would contain for a
// single request/response call.
func unary[Req, Resp any](name string, call func(BoostServiceServer, context.Context, *Req) (*Resp, error)) grpclib.MethodDesc {
	fullMethod := "/" + serviceName + "/" + name
	return grpclib.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpclib.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(BoostServiceServer), ctx, in)
			}
			info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(BoostServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}
