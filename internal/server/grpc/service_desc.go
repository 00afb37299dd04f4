package grpc

import (
	"context"

	"github.com/dmitrijs2005/sharedtodo/internal/api"
	"google.golang.org/grpc"
)

// SharedListServer is the handler set behind SharedListServiceDesc.
type SharedListServer interface {
	Ping(context.Context, *api.PingRequest) (*api.PingResponse, error)
	AddItem(context.Context, *api.AddItemRequest) (*api.ItemResponse, error)
	GetItem(context.Context, *api.ItemRequest) (*api.ItemResponse, error)
	ListItems(context.Context, *api.ListItemsRequest) (*api.ListItemsResponse, error)
	ToggleCompletion(context.Context, *api.ItemRequest) (*api.ItemResponse, error)
	ToggleDeletion(context.Context, *api.ItemRequest) (*api.ToggleDeletionResponse, error)
	EditItem(context.Context, *api.EditItemRequest) (*api.ItemResponse, error)
	YearGrid(context.Context, *api.YearGridRequest) (*api.YearGridResponse, error)
	ScanAndReset(context.Context, *api.ScanAndResetRequest) (*api.ScanAndResetResponse, error)
	ExportHistory(context.Context, *api.ExportHistoryRequest) (*api.ExportHistoryResponse, error)
	Subscribe(*api.SubscribeRequest, SnapshotStream) error
}

// SnapshotStream is the server side of a Subscribe call.
type SnapshotStream interface {
	Send(*api.Snapshot) error
	Context() context.Context
}

var _ SharedListServer = (*GRPCServer)(nil)

// SharedListServiceDesc describes the SharedList service for grpc.Server.
var SharedListServiceDesc = grpc.ServiceDesc{
	ServiceName: api.ServiceName,
	HandlerType: (*SharedListServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(api.MethodPing, SharedListServer.Ping),
		unary(api.MethodAddItem, SharedListServer.AddItem),
		unary(api.MethodGetItem, SharedListServer.GetItem),
		unary(api.MethodListItems, SharedListServer.ListItems),
		unary(api.MethodToggleCompletion, SharedListServer.ToggleCompletion),
		unary(api.MethodToggleDeletion, SharedListServer.ToggleDeletion),
		unary(api.MethodEditItem, SharedListServer.EditItem),
		unary(api.MethodYearGrid, SharedListServer.YearGrid),
		unary(api.MethodScanAndReset, SharedListServer.ScanAndReset),
		unary(api.MethodExportHistory, SharedListServer.ExportHistory),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    api.MethodSubscribe,
			Handler:       subscribeHandler,
			ServerStreams: true,
		},
	},
	Metadata: "sharedtodo/v1/sharedlist",
}

// unary builds the method descriptor of a request/response handler.
func unary[Req, Resp any](name string, call func(SharedListServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(SharedListServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: api.FullMethod(name),
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(SharedListServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

func subscribeHandler(srv any, stream grpc.ServerStream) error {
	in := new(api.SubscribeRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(SharedListServer).Subscribe(in, &snapshotStream{stream})
}

type snapshotStream struct {
	grpc.ServerStream
}

func (x *snapshotStream) Send(m *api.Snapshot) error {
	return x.ServerStream.SendMsg(m)
}
