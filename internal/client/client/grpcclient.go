package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/sharedtodo/internal/api"
	"github.com/dmitrijs2005/sharedtodo/internal/common"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

var subscribeDesc = &grpc.StreamDesc{StreamName: api.MethodSubscribe, ServerStreams: true}

type GRPCClient struct {
	endpointURL string
	conn        grpc.ClientConnInterface
	closer      io.Closer
	accessToken string
	timeout     time.Duration
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Delete(common.AccessTokenHeaderName)
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if s.accessToken != "" {
		ctx = withAccessToken(ctx, s.accessToken)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

func (s *GRPCClient) accessTokenStreamInterceptor(
	ctx context.Context,
	desc *grpc.StreamDesc,
	cc *grpc.ClientConn,
	method string,
	streamer grpc.Streamer,
	opts ...grpc.CallOption,
) (grpc.ClientStream, error) {
	if s.accessToken != "" {
		ctx = withAccessToken(ctx, s.accessToken)
	}
	return streamer(ctx, desc, cc, method, opts...)
}

// NewSharedListClient dials endpointURL. Calls carry accessToken and are
// bounded by timeout, except Subscribe which lives as long as its context.
func NewSharedListClient(endpointURL, accessToken string, timeout time.Duration) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, accessToken: accessToken, timeout: timeout}
	if err := c.InitGRPCClient(); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *GRPCClient) InitGRPCClient() error {
	conn, err := grpc.NewClient(s.endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(api.CodecName)),
		grpc.WithUnaryInterceptor(s.accessTokenInterceptor),
		grpc.WithStreamInterceptor(s.accessTokenStreamInterceptor),
	)
	if err != nil {
		return err
	}
	s.conn = conn
	s.closer = conn
	return nil
}

func (s *GRPCClient) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// invoke performs one unary call under the configured timeout.
func (s *GRPCClient) invoke(ctx context.Context, method string, req, resp any) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	if err := s.conn.Invoke(ctx, api.FullMethod(method), req, resp, grpc.CallContentSubtype(api.CodecName)); err != nil {
		return s.mapError(err)
	}
	return nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	resp := &api.PingResponse{}
	if err := s.invoke(ctx, api.MethodPing, &api.PingRequest{}, resp); err != nil {
		return err
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) AddItem(ctx context.Context, spaceID, text string, rec *api.Recurrence) (*api.Item, error) {
	req := &api.AddItemRequest{SpaceID: spaceID, Text: text}
	if rec != nil {
		req.Recurrence = *rec
	}
	resp := &api.ItemResponse{}
	if err := s.invoke(ctx, api.MethodAddItem, req, resp); err != nil {
		return nil, err
	}
	return resp.Item, nil
}

func (s *GRPCClient) GetItem(ctx context.Context, itemID string) (*api.Item, error) {
	resp := &api.ItemResponse{}
	if err := s.invoke(ctx, api.MethodGetItem, &api.ItemRequest{ItemID: itemID}, resp); err != nil {
		return nil, err
	}
	return resp.Item, nil
}

func (s *GRPCClient) ListItems(ctx context.Context, spaceID string) ([]*api.Item, error) {
	resp := &api.ListItemsResponse{}
	if err := s.invoke(ctx, api.MethodListItems, &api.ListItemsRequest{SpaceID: spaceID}, resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (s *GRPCClient) ToggleCompletion(ctx context.Context, itemID string) (*api.Item, error) {
	resp := &api.ItemResponse{}
	if err := s.invoke(ctx, api.MethodToggleCompletion, &api.ItemRequest{ItemID: itemID}, resp); err != nil {
		return nil, err
	}
	return resp.Item, nil
}

func (s *GRPCClient) ToggleDeletion(ctx context.Context, itemID string) (*api.ToggleDeletionResponse, error) {
	resp := &api.ToggleDeletionResponse{}
	if err := s.invoke(ctx, api.MethodToggleDeletion, &api.ItemRequest{ItemID: itemID}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *GRPCClient) EditItem(ctx context.Context, itemID, text string, rec *api.Recurrence) (*api.Item, error) {
	resp := &api.ItemResponse{}
	req := &api.EditItemRequest{ItemID: itemID, Text: text, Recurrence: rec}
	if err := s.invoke(ctx, api.MethodEditItem, req, resp); err != nil {
		return nil, err
	}
	return resp.Item, nil
}

func (s *GRPCClient) YearGrid(ctx context.Context, itemID string, year int, creatorID string) (*api.YearGridResponse, error) {
	resp := &api.YearGridResponse{}
	req := &api.YearGridRequest{ItemID: itemID, Year: year, CreatorID: creatorID}
	if err := s.invoke(ctx, api.MethodYearGrid, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *GRPCClient) ScanAndReset(ctx context.Context, spaceID string) (*api.ScanAndResetResponse, error) {
	resp := &api.ScanAndResetResponse{}
	if err := s.invoke(ctx, api.MethodScanAndReset, &api.ScanAndResetRequest{SpaceID: spaceID}, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *GRPCClient) ExportHistory(ctx context.Context, itemID string, year int, creatorID string) (*api.ExportHistoryResponse, error) {
	resp := &api.ExportHistoryResponse{}
	req := &api.ExportHistoryRequest{ItemID: itemID, Year: year, CreatorID: creatorID}
	if err := s.invoke(ctx, api.MethodExportHistory, req, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// Subscribe calls fn with every snapshot the server pushes for spaceID until
// ctx is cancelled, the server ends the stream or fn fails.
func (s *GRPCClient) Subscribe(ctx context.Context, spaceID string, fn func(*api.Snapshot) error) error {
	stream, err := s.conn.NewStream(ctx, subscribeDesc, api.FullMethod(api.MethodSubscribe), grpc.CallContentSubtype(api.CodecName))
	if err != nil {
		return s.mapError(err)
	}
	if err := stream.SendMsg(&api.SubscribeRequest{SpaceID: spaceID}); err != nil {
		return s.mapError(err)
	}
	if err := stream.CloseSend(); err != nil {
		return s.mapError(err)
	}

	for {
		snap := &api.Snapshot{}
		if err := stream.RecvMsg(snap); err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return nil
			}
			return s.mapError(err)
		}
		if err := fn(snap); err != nil {
			return err
		}
	}
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.NotFound:
		return ErrNotFound
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidRequest, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
