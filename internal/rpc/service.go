package rpc

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/wellness-risk/internal/api"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "wellness.RiskService"

const (
	methodGetRiskScore  = "/" + ServiceName + "/GetRiskScore"
	methodCalculateRisk = "/" + ServiceName + "/CalculateRisk"
)

// #region service-desc
// RiskServer is the server side of wellness.RiskService. Requests and
// responses carry the same JSON shape as the HTTP endpoints.
type RiskServer interface {
	GetRiskScore(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
	CalculateRisk(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error)
}

// ServiceDesc describes wellness.RiskService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RiskServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetRiskScore", Handler: unaryHandler(methodGetRiskScore, RiskServer.GetRiskScore)},
		{MethodName: "CalculateRisk", Handler: unaryHandler(methodCalculateRisk, RiskServer.CalculateRisk)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "wellness/risk.proto",
}

type unaryMethod func(RiskServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RiskServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(RiskServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// #endregion service-desc

// #region codec
func toStruct(resp api.RiskResponse) (*structpb.Struct, error) {
	b, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	out := new(structpb.Struct)
	if err := out.UnmarshalJSON(b); err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return out, nil
}

func fromStruct(s *structpb.Struct) (api.RiskResponse, error) {
	var resp api.RiskResponse
	b, err := s.MarshalJSON()
	if err != nil {
		return resp, fmt.Errorf("decode response: %w", err)
	}
	if err := json.Unmarshal(b, &resp); err != nil {
		return resp, fmt.Errorf("decode response: %w", err)
	}
	return resp, nil
}

func userIDOf(in *structpb.Struct) string {
	if in == nil {
		return ""
	}
	return in.GetFields()["userId"].GetStringValue()
}

// #endregion codec
