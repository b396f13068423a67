package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

/*
 * Service descriptor.
 *
 * Messages are google.protobuf.Struct documents, so the service needs no
 * generated code: the descriptor below is what protoc-gen-go-grpc would emit
 * for a service whose every method is
 *
 *	rpc Method(google.protobuf.Struct) returns (google.protobuf.Struct);
 *
 * Document shapes are the JSON forms in messages.go.
 */

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "formconditions.v1.ConditionsService"

// ConditionsServer is the server API for ConditionsService.
type ConditionsServer interface {
	Render(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Operators(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RegisterField(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SaveCondition(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCondition(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListConditions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteCondition(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RenameCondition(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(ConditionsServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func methodDesc(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ConditionsServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(ConditionsServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes ConditionsService for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ConditionsServer)(nil),
	Methods: []grpc.MethodDesc{
		methodDesc("Render", ConditionsServer.Render),
		methodDesc("Operators", ConditionsServer.Operators),
		methodDesc("RegisterField", ConditionsServer.RegisterField),
		methodDesc("SaveCondition", ConditionsServer.SaveCondition),
		methodDesc("GetCondition", ConditionsServer.GetCondition),
		methodDesc("ListConditions", ConditionsServer.ListConditions),
		methodDesc("DeleteCondition", ConditionsServer.DeleteCondition),
		methodDesc("RenameCondition", ConditionsServer.RenameCondition),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "formconditions/v1/conditions.proto",
}

// RegisterConditionsServer registers srv with s.
func RegisterConditionsServer(s grpc.ServiceRegistrar, srv ConditionsServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// ConditionsClient calls ConditionsService over a client connection.
type ConditionsClient struct {
	cc grpc.ClientConnInterface
}

// NewConditionsClient creates a client over cc.
func NewConditionsClient(cc grpc.ClientConnInterface) *ConditionsClient {
	return &ConditionsClient{cc: cc}
}

// Call invokes method with in and returns the response document.
func (c *ConditionsClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
