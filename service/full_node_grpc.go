package service

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const serviceName = "ledger.FullNodeService"

// FullNodeServiceClient is the client API for the ledger node service.
type FullNodeServiceClient interface {
	SubmitTransaction(ctx context.Context, in *SubmitTransactionRequest, opts ...grpc.CallOption) (*SubmitTransactionResponse, error)
	Mine(ctx context.Context, in *MineRequest, opts ...grpc.CallOption) (*MineResponse, error)
	GetChain(ctx context.Context, in *GetChainRequest, opts ...grpc.CallOption) (*GetChainResponse, error)
	RegisterPeer(ctx context.Context, in *RegisterPeerRequest, opts ...grpc.CallOption) (*RegisterPeerResponse, error)
	AddBlock(ctx context.Context, in *AddBlockRequest, opts ...grpc.CallOption) (*AddBlockResponse, error)
	SyncChain(ctx context.Context, in *SyncChainRequest, opts ...grpc.CallOption) (*SyncChainResponse, error)
	GetPending(ctx context.Context, in *GetPendingRequest, opts ...grpc.CallOption) (*GetPendingResponse, error)
	RegisterWith(ctx context.Context, in *RegisterWithRequest, opts ...grpc.CallOption) (*RegisterWithResponse, error)
}

type fullNodeServiceClient struct {
	cc grpc.ClientConnInterface
}

func NewFullNodeServiceClient(cc grpc.ClientConnInterface) FullNodeServiceClient {
	return &fullNodeServiceClient{cc}
}

func (c *fullNodeServiceClient) invoke(ctx context.Context, method string, in, out interface{}, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, opts...)
}

func (c *fullNodeServiceClient) SubmitTransaction(ctx context.Context, in *SubmitTransactionRequest, opts ...grpc.CallOption) (*SubmitTransactionResponse, error) {
	out := new(SubmitTransactionResponse)
	if err := c.invoke(ctx, "SubmitTransaction", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fullNodeServiceClient) Mine(ctx context.Context, in *MineRequest, opts ...grpc.CallOption) (*MineResponse, error) {
	out := new(MineResponse)
	if err := c.invoke(ctx, "Mine", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fullNodeServiceClient) GetChain(ctx context.Context, in *GetChainRequest, opts ...grpc.CallOption) (*GetChainResponse, error) {
	out := new(GetChainResponse)
	if err := c.invoke(ctx, "GetChain", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fullNodeServiceClient) RegisterPeer(ctx context.Context, in *RegisterPeerRequest, opts ...grpc.CallOption) (*RegisterPeerResponse, error) {
	out := new(RegisterPeerResponse)
	if err := c.invoke(ctx, "RegisterPeer", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fullNodeServiceClient) AddBlock(ctx context.Context, in *AddBlockRequest, opts ...grpc.CallOption) (*AddBlockResponse, error) {
	out := new(AddBlockResponse)
	if err := c.invoke(ctx, "AddBlock", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fullNodeServiceClient) SyncChain(ctx context.Context, in *SyncChainRequest, opts ...grpc.CallOption) (*SyncChainResponse, error) {
	out := new(SyncChainResponse)
	if err := c.invoke(ctx, "SyncChain", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fullNodeServiceClient) GetPending(ctx context.Context, in *GetPendingRequest, opts ...grpc.CallOption) (*GetPendingResponse, error) {
	out := new(GetPendingResponse)
	if err := c.invoke(ctx, "GetPending", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *fullNodeServiceClient) RegisterWith(ctx context.Context, in *RegisterWithRequest, opts ...grpc.CallOption) (*RegisterWithResponse, error) {
	out := new(RegisterWithResponse)
	if err := c.invoke(ctx, "RegisterWith", in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

// FullNodeServiceServer is the server API for the ledger node service.
type FullNodeServiceServer interface {
	SubmitTransaction(context.Context, *SubmitTransactionRequest) (*SubmitTransactionResponse, error)
	Mine(context.Context, *MineRequest) (*MineResponse, error)
	GetChain(context.Context, *GetChainRequest) (*GetChainResponse, error)
	RegisterPeer(context.Context, *RegisterPeerRequest) (*RegisterPeerResponse, error)
	AddBlock(context.Context, *AddBlockRequest) (*AddBlockResponse, error)
	SyncChain(context.Context, *SyncChainRequest) (*SyncChainResponse, error)
	GetPending(context.Context, *GetPendingRequest) (*GetPendingResponse, error)
	RegisterWith(context.Context, *RegisterWithRequest) (*RegisterWithResponse, error)
}

// UnimplementedFullNodeServiceServer can be embedded to have forward compatible implementations.
type UnimplementedFullNodeServiceServer struct{}

func (UnimplementedFullNodeServiceServer) SubmitTransaction(context.Context, *SubmitTransactionRequest) (*SubmitTransactionResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SubmitTransaction not implemented")
}
func (UnimplementedFullNodeServiceServer) Mine(context.Context, *MineRequest) (*MineResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method Mine not implemented")
}
func (UnimplementedFullNodeServiceServer) GetChain(context.Context, *GetChainRequest) (*GetChainResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetChain not implemented")
}
func (UnimplementedFullNodeServiceServer) RegisterPeer(context.Context, *RegisterPeerRequest) (*RegisterPeerResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RegisterPeer not implemented")
}
func (UnimplementedFullNodeServiceServer) AddBlock(context.Context, *AddBlockRequest) (*AddBlockResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method AddBlock not implemented")
}
func (UnimplementedFullNodeServiceServer) SyncChain(context.Context, *SyncChainRequest) (*SyncChainResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method SyncChain not implemented")
}
func (UnimplementedFullNodeServiceServer) GetPending(context.Context, *GetPendingRequest) (*GetPendingResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetPending not implemented")
}
func (UnimplementedFullNodeServiceServer) RegisterWith(context.Context, *RegisterWithRequest) (*RegisterWithResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RegisterWith not implemented")
}

func RegisterFullNodeServiceServer(s grpc.ServiceRegistrar, srv FullNodeServiceServer) {
	s.RegisterService(&FullNodeService_ServiceDesc, srv)
}

type methodHandler = func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error)

// unaryHandler adapts a typed server method to the handler signature grpc.MethodDesc expects.
func unaryHandler[Req any, Resp any](method string, call func(FullNodeServiceServer, context.Context, *Req) (*Resp, error)) methodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(FullNodeServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + serviceName + "/" + method,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(FullNodeServiceServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// FullNodeService_ServiceDesc is the grpc.ServiceDesc for the ledger node service.
var FullNodeService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*FullNodeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SubmitTransaction", Handler: unaryHandler("SubmitTransaction", FullNodeServiceServer.SubmitTransaction)},
		{MethodName: "Mine", Handler: unaryHandler("Mine", FullNodeServiceServer.Mine)},
		{MethodName: "GetChain", Handler: unaryHandler("GetChain", FullNodeServiceServer.GetChain)},
		{MethodName: "RegisterPeer", Handler: unaryHandler("RegisterPeer", FullNodeServiceServer.RegisterPeer)},
		{MethodName: "AddBlock", Handler: unaryHandler("AddBlock", FullNodeServiceServer.AddBlock)},
		{MethodName: "SyncChain", Handler: unaryHandler("SyncChain", FullNodeServiceServer.SyncChain)},
		{MethodName: "GetPending", Handler: unaryHandler("GetPending", FullNodeServiceServer.GetPending)},
		{MethodName: "RegisterWith", Handler: unaryHandler("RegisterWith", FullNodeServiceServer.RegisterWith)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "ledger/full_node.json",
}
