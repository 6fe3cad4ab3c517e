package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "tenantgov.AccountGovernance"

// AccountGovernanceServer is the server API of the governance service.
// Requests and responses are google.protobuf.Struct documents.
type AccountGovernanceServer interface {
	AccountStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Login(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResetPassword(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetPassword(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ResolveProperty(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(AccountGovernanceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(name string, call unaryMethod) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		s := srv.(AccountGovernanceServer)
		if interceptor == nil {
			return call(s, ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(name),
		}
		return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
			return call(s, ctx, req.(*structpb.Struct))
		})
	}
}

// FullMethod returns the gRPC path of a service method.
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AccountGovernanceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AccountStatus", Handler: unaryHandler("AccountStatus", AccountGovernanceServer.AccountStatus)},
		{MethodName: "Login", Handler: unaryHandler("Login", AccountGovernanceServer.Login)},
		{MethodName: "ResetPassword", Handler: unaryHandler("ResetPassword", AccountGovernanceServer.ResetPassword)},
		{MethodName: "SetPassword", Handler: unaryHandler("SetPassword", AccountGovernanceServer.SetPassword)},
		{MethodName: "ResolveProperty", Handler: unaryHandler("ResolveProperty", AccountGovernanceServer.ResolveProperty)},
	},
	Streams: []grpc.StreamDesc{},
}
