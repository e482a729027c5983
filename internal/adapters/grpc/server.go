package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/vowsmarket/settlement-service/internal/application"
	"github.com/vowsmarket/settlement-service/internal/domain"
)

// SettlementInternalService is the service-to-service query surface. Other
// marketplace services (booking, invoicing) read payment and hold state
// through it instead of the public HTTP API. Requests and responses are
// structpb documents so no generated contract code is required here.
type SettlementInternalService interface {
	GetPayment(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetHold(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type SettlementInternalServer struct {
	service *application.Service
}

func NewSettlementInternalServer(service *application.Service) *SettlementInternalServer {
	return &SettlementInternalServer{service: service}
}

func Register(server grpc.ServiceRegistrar, svc SettlementInternalService) {
	server.RegisterService(&grpc.ServiceDesc{
		ServiceName: "vowsmarket.settlement.v1.SettlementInternalService",
		HandlerType: (*SettlementInternalService)(nil),
		Methods: []grpc.MethodDesc{
			{
				MethodName: "GetPayment",
				Handler:    unaryHandler("GetPayment", SettlementInternalService.GetPayment),
			},
			{
				MethodName: "GetHold",
				Handler:    unaryHandler("GetHold", SettlementInternalService.GetHold),
			},
		},
		Streams:  []grpc.StreamDesc{},
		Metadata: "vowsmarket/settlement/v1/settlement_internal.proto",
	}, svc)
}

func (s *SettlementInternalServer) GetPayment(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	paymentID := req.GetFields()["payment_id"].GetStringValue()
	if paymentID == "" {
		return nil, status.Error(codes.InvalidArgument, "missing payment_id")
	}
	payment, err := s.service.GetPaymentStatus(ctx, paymentID)
	if err != nil {
		return nil, rpcError(err, "payment")
	}
	resp, err := structpb.NewStruct(map[string]any{
		"payment_id":      payment.PaymentID,
		"invoice_id":      payment.InvoiceID,
		"vendor_id":       payment.VendorID,
		"amount":          payment.Amount,
		"currency":        payment.Currency,
		"status":          string(payment.Status),
		"refunded_amount": payment.RefundedAmount,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

func (s *SettlementInternalServer) GetHold(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	holdID := req.GetFields()["hold_id"].GetStringValue()
	if holdID == "" {
		return nil, status.Error(codes.InvalidArgument, "missing hold_id")
	}
	hold, err := s.service.GetHold(ctx, application.Actor{Role: application.RoleSystem}, holdID)
	if err != nil {
		return nil, rpcError(err, "hold")
	}
	resp, err := structpb.NewStruct(map[string]any{
		"hold_id":        hold.HoldID,
		"payment_id":     hold.PaymentID,
		"vendor_id":      hold.VendorID,
		"amount":         hold.Amount,
		"currency":       hold.Currency,
		"status":         string(hold.Status),
		"work_completed": hold.WorkCompleted,
	})
	if err != nil {
		return nil, status.Errorf(codes.Internal, "build response: %v", err)
	}
	return resp, nil
}

// rpcError keeps store failures distinguishable from absent records without
// echoing internal error detail to callers.
func rpcError(err error, entity string) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, entity+" not found")
	case errors.Is(err, domain.ErrInvalidInput):
		return status.Error(codes.InvalidArgument, "invalid "+entity+" reference")
	default:
		return status.Error(codes.Internal, entity+" lookup failed")
	}
}

func unaryHandler(method string, call func(SettlementInternalService, context.Context, *structpb.Struct) (*structpb.Struct, error)) func(any, context.Context, func(any) error, grpc.UnaryServerInterceptor) (any, error) {
	fullMethod := "/vowsmarket.settlement.v1.SettlementInternalService/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := &structpb.Struct{}
		if err := dec(req); err != nil {
			return nil, err
		}
		svc, ok := srv.(SettlementInternalService)
		if !ok {
			return nil, status.Error(codes.Internal, "invalid service binding")
		}
		if interceptor == nil {
			return call(svc, ctx, req)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			typed, ok := req.(*structpb.Struct)
			if !ok {
				return nil, status.Error(codes.InvalidArgument, "invalid request type")
			}
			return call(svc, ctx, typed)
		}
		return interceptor(ctx, req, info, handler)
	}
}
