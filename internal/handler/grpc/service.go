package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// 不依赖 protoc 生成代码，请求和响应都使用 protobuf 内置类型，走默认 proto 编解码
const serviceName = "proposal.v1.ProposalService"

// ProposalServiceServer gRPC 服务端接口
type ProposalServiceServer interface {
	CreateProposal(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetProposal(context.Context, *wrapperspb.UInt64Value) (*structpb.Struct, error)
	ListActiveProposals(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	SweepExpired(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetContractInfo(context.Context, *emptypb.Empty) (*structpb.Struct, error)
}

// RegisterProposalServiceServer 注册到 gRPC Server
func RegisterProposalServiceServer(s *grpc.Server, srv ProposalServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}

func handlerCreateProposal(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(structpb.Struct)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProposalServiceServer).CreateProposal(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("CreateProposal")}
	return interceptor(ctx, req, info, func(ctx context.Context, req any) (any, error) {
		return srv.(ProposalServiceServer).CreateProposal(ctx, req.(*structpb.Struct))
	})
}

func handlerGetProposal(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	req := new(wrapperspb.UInt64Value)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProposalServiceServer).GetProposal(ctx, req)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod("GetProposal")}
	return interceptor(ctx, req, info, func(ctx context.Context, req any) (any, error) {
		return srv.(ProposalServiceServer).GetProposal(ctx, req.(*wrapperspb.UInt64Value))
	})
}

// emptyHandler 三个无参方法共用
func emptyHandler(method string, call func(ProposalServiceServer, context.Context, *emptypb.Empty) (*structpb.Struct, error)) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		req := new(emptypb.Empty)
		if err := dec(req); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(ProposalServiceServer), ctx, req)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(method)}
		return interceptor(ctx, req, info, func(ctx context.Context, req any) (any, error) {
			return call(srv.(ProposalServiceServer), ctx, req.(*emptypb.Empty))
		})
	}
}

func fullMethod(method string) string {
	return "/" + serviceName + "/" + method
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ProposalServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateProposal", Handler: handlerCreateProposal},
		{MethodName: "GetProposal", Handler: handlerGetProposal},
		{MethodName: "ListActiveProposals", Handler: emptyHandler("ListActiveProposals", ProposalServiceServer.ListActiveProposals)},
		{MethodName: "SweepExpired", Handler: emptyHandler("SweepExpired", ProposalServiceServer.SweepExpired)},
		{MethodName: "GetContractInfo", Handler: emptyHandler("GetContractInfo", ProposalServiceServer.GetContractInfo)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "proposal/v1/proposal.proto",
}

// ProposalServiceClient 客户端，grpc-client-test 与 CLI 使用
type ProposalServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewProposalServiceClient(cc grpc.ClientConnInterface) *ProposalServiceClient {
	return &ProposalServiceClient{cc: cc}
}

func (c *ProposalServiceClient) CreateProposal(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("CreateProposal"), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ProposalServiceClient) GetProposal(ctx context.Context, in *wrapperspb.UInt64Value, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod("GetProposal"), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ProposalServiceClient) ListActiveProposals(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invokeEmpty(ctx, "ListActiveProposals", opts...)
}

func (c *ProposalServiceClient) SweepExpired(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invokeEmpty(ctx, "SweepExpired", opts...)
}

func (c *ProposalServiceClient) GetContractInfo(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invokeEmpty(ctx, "GetContractInfo", opts...)
}

func (c *ProposalServiceClient) invokeEmpty(ctx context.Context, method string, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, fullMethod(method), &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
