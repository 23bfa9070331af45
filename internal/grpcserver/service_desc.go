package grpcserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// Messages are google.protobuf.Struct and BoolValue so no generated code is
// needed on either side.

// ChatAuthorizationServer is the server API for toothmatch.v1.ChatAuthorization.
type ChatAuthorizationServer interface {
	CanMessage(context.Context, *structpb.Struct) (*wrapperspb.BoolValue, error)
	NotifyMessage(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterChatAuthorizationServer registers srv on s.
func RegisterChatAuthorizationServer(s grpc.ServiceRegistrar, srv ChatAuthorizationServer) {
	s.RegisterService(&chatAuthorizationDesc, srv)
}

var chatAuthorizationDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*ChatAuthorizationServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CanMessage", Handler: canMessageHandler},
		{MethodName: "NotifyMessage", Handler: notifyMessageHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "toothmatch/v1/chat_authorization.proto",
}

func canMessageHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ChatAuthorizationServer).CanMessage(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/CanMessage"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ChatAuthorizationServer).CanMessage(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func notifyMessageHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ChatAuthorizationServer).NotifyMessage(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + ServiceName + "/NotifyMessage"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(ChatAuthorizationServer).NotifyMessage(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ChatAuthorizationClient calls toothmatch.v1.ChatAuthorization.
type ChatAuthorizationClient struct {
	cc grpc.ClientConnInterface
}

// NewChatAuthorizationClient returns a client on cc.
func NewChatAuthorizationClient(cc grpc.ClientConnInterface) *ChatAuthorizationClient {
	return &ChatAuthorizationClient{cc: cc}
}

func (c *ChatAuthorizationClient) CanMessage(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	out := new(wrapperspb.BoolValue)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/CanMessage", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ChatAuthorizationClient) NotifyMessage(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/NotifyMessage", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
