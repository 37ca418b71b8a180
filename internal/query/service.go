// Package query exposes the simulation engine over gRPC. Messages are
// google.protobuf.Struct values carrying the JSON form of the request and
// response types in this package, so no generated code is involved.
package query

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "fleetsim.query.v1.QueryService"

// Method names.
const (
	MethodRunScenario      = "RunScenario"
	MethodGetSeries        = "GetSeries"
	MethodDetectCrossover  = "DetectCrossover"
	MethodGenerateForecast = "GenerateForecast"
	MethodValidate         = "Validate"
)

// QueryServer is the server API of the query service.
type QueryServer interface {
	RunScenario(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSeries(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DetectCrossover(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GenerateForecast(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Validate(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(QueryServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// ServiceDesc describes the query service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*QueryServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(MethodRunScenario, QueryServer.RunScenario),
		unaryMethod(MethodGetSeries, QueryServer.GetSeries),
		unaryMethod(MethodDetectCrossover, QueryServer.DetectCrossover),
		unaryMethod(MethodGenerateForecast, QueryServer.GenerateForecast),
		unaryMethod(MethodValidate, QueryServer.Validate),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "fleetsim/query/v1/query.proto",
}

// RegisterQueryServer registers srv on s.
func RegisterQueryServer(s grpc.ServiceRegistrar, srv QueryServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// FullMethod returns the "/service/method" path of a query method.
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unaryMethod(name string, call unaryCall) grpc.MethodDesc {
	fullMethod := FullMethod(name)
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(QueryServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(QueryServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// Client is a thin client for the query service.
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient wraps a client connection.
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call invokes method with req encoded as a Struct and decodes the response
// into resp. resp may be nil when the caller ignores the reply.
func (c *Client) Call(ctx context.Context, method string, req, resp any, opts ...grpc.CallOption) error {
	in, err := encode(req)
	if err != nil {
		return err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return err
	}
	if resp == nil {
		return nil
	}
	return decodeLenient(out, resp)
}

// RunScenario runs a scenario on the server.
func (c *Client) RunScenario(ctx context.Context, req RunScenarioRequest, opts ...grpc.CallOption) (RunScenarioResponse, error) {
	var resp RunScenarioResponse
	err := c.Call(ctx, MethodRunScenario, req, &resp, opts...)
	return resp, err
}

// GetSeries fetches a stored metric series.
func (c *Client) GetSeries(ctx context.Context, req GetSeriesRequest, opts ...grpc.CallOption) (GetSeriesResponse, error) {
	var resp GetSeriesResponse
	err := c.Call(ctx, MethodGetSeries, req, &resp, opts...)
	return resp, err
}

// DetectCrossover runs crossover detection over a stored scenario.
func (c *Client) DetectCrossover(ctx context.Context, req DetectCrossoverRequest, opts ...grpc.CallOption) (DetectCrossoverResponse, error) {
	var resp DetectCrossoverResponse
	err := c.Call(ctx, MethodDetectCrossover, req, &resp, opts...)
	return resp, err
}

// GenerateForecast computes forecast bands.
func (c *Client) GenerateForecast(ctx context.Context, req GenerateForecastRequest, opts ...grpc.CallOption) (GenerateForecastResponse, error) {
	var resp GenerateForecastResponse
	err := c.Call(ctx, MethodGenerateForecast, req, &resp, opts...)
	return resp, err
}

// Validate re-validates a stored scenario.
func (c *Client) Validate(ctx context.Context, req ValidateRequest, opts ...grpc.CallOption) (ValidateResponse, error) {
	var resp ValidateResponse
	err := c.Call(ctx, MethodValidate, req, &resp, opts...)
	return resp, err
}
