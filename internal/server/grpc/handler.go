package grpc

import (
	"context"

	"github.com/dmitrijs2005/sharedtodo/internal/api"
	"github.com/dmitrijs2005/sharedtodo/internal/common"
	"github.com/dmitrijs2005/sharedtodo/internal/server/models"
	"github.com/dmitrijs2005/sharedtodo/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) Ping(ctx context.Context, req *api.PingRequest) (*api.PingResponse, error) {
	return &api.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) AddItem(ctx context.Context, req *api.AddItemRequest) (*api.ItemResponse, error) {
	memberID, err := requireMember(ctx)
	if err != nil {
		return nil, err
	}

	item, err := s.items.AddItem(ctx, req.SpaceID, memberID, req.Text, recurrenceFromAPI(req.Recurrence))
	if err != nil {
		return nil, s.fail(ctx, "add item", err)
	}

	return &api.ItemResponse{Item: itemToAPI(item)}, nil
}

func (s *GRPCServer) GetItem(ctx context.Context, req *api.ItemRequest) (*api.ItemResponse, error) {
	item, err := s.items.GetItem(ctx, req.ItemID)
	if err != nil {
		return nil, s.fail(ctx, "get item", err)
	}
	return &api.ItemResponse{Item: itemToAPI(item)}, nil
}

func (s *GRPCServer) ListItems(ctx context.Context, req *api.ListItemsRequest) (*api.ListItemsResponse, error) {
	items, err := s.items.ListItems(ctx, req.SpaceID)
	if err != nil {
		return nil, s.fail(ctx, "list items", err)
	}
	return &api.ListItemsResponse{Items: itemsToAPI(items)}, nil
}

func (s *GRPCServer) ToggleCompletion(ctx context.Context, req *api.ItemRequest) (*api.ItemResponse, error) {
	memberID, err := requireMember(ctx)
	if err != nil {
		return nil, err
	}

	item, err := s.items.ToggleCompletion(ctx, req.ItemID, memberID)
	if err != nil {
		return nil, s.fail(ctx, "toggle completion", err)
	}
	return &api.ItemResponse{Item: itemToAPI(item)}, nil
}

func (s *GRPCServer) ToggleDeletion(ctx context.Context, req *api.ItemRequest) (*api.ToggleDeletionResponse, error) {
	memberID, err := requireMember(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.items.ToggleDeletion(ctx, req.ItemID, memberID)
	if err != nil {
		return nil, s.fail(ctx, "toggle deletion", err)
	}
	return &api.ToggleDeletionResponse{Removed: res.Removed, Item: itemToAPI(res.Item)}, nil
}

func (s *GRPCServer) EditItem(ctx context.Context, req *api.EditItemRequest) (*api.ItemResponse, error) {
	var rec *models.Recurrence
	if req.Recurrence != nil {
		r := recurrenceFromAPI(*req.Recurrence)
		rec = &r
	}

	item, err := s.items.EditItem(ctx, req.ItemID, req.Text, rec)
	if err != nil {
		return nil, s.fail(ctx, "edit item", err)
	}
	return &api.ItemResponse{Item: itemToAPI(item)}, nil
}

func (s *GRPCServer) YearGrid(ctx context.Context, req *api.YearGridRequest) (*api.YearGridResponse, error) {
	report, err := s.exports.BuildReport(ctx, req.ItemID, s.year(req.Year), req.CreatorID)
	if err != nil {
		return nil, s.fail(ctx, "year grid", err)
	}
	return &api.YearGridResponse{
		Days:       daysToAPI(report.Days),
		Statistics: statisticsToAPI(report.Statistics),
	}, nil
}

func (s *GRPCServer) ScanAndReset(ctx context.Context, req *api.ScanAndResetRequest) (*api.ScanAndResetResponse, error) {
	report, err := s.scheduler.ScanAndReset(ctx, req.SpaceID)
	if err != nil {
		return nil, s.fail(ctx, "scan and reset", err)
	}
	return &api.ScanAndResetResponse{
		Candidates: report.Candidates,
		Reset:      report.Reset,
		Skipped:    report.Skipped,
		Failed:     report.Failed,
	}, nil
}

func (s *GRPCServer) ExportHistory(ctx context.Context, req *api.ExportHistoryRequest) (*api.ExportHistoryResponse, error) {
	res, err := s.exports.ExportHistory(ctx, req.ItemID, s.year(req.Year), req.CreatorID)
	if err != nil {
		return nil, s.fail(ctx, "export history", err)
	}
	return &api.ExportHistoryResponse{
		Key:       res.Key,
		URL:       res.URL,
		ExpiresAt: s.now().Add(services.ExportLinkValidity),
	}, nil
}

func (s *GRPCServer) Subscribe(req *api.SubscribeRequest, stream SnapshotStream) error {
	if req.SpaceID == "" {
		return status.Error(codes.InvalidArgument, "space id must not be empty")
	}

	ctx, cancel := context.WithCancel(stream.Context())
	defer cancel()
	defer context.AfterFunc(s.shutdown, cancel)()

	s.logger.Debug(ctx, "subscriber attached", "space_id", req.SpaceID)

	err := s.items.Subscribe(ctx, req.SpaceID, func(items []*models.Item) error {
		return stream.Send(&api.Snapshot{SpaceID: req.SpaceID, Items: itemsToAPI(items)})
	})
	if s.shutdown.Err() != nil {
		return status.Error(codes.Unavailable, "server is shutting down")
	}
	if err != nil {
		return s.fail(ctx, "subscribe", err)
	}
	return nil
}

// year defaults a zero year to the current one in the space location.
func (s *GRPCServer) year(y int) int {
	if y == 0 {
		return s.now().In(s.location).Year()
	}
	return y
}

// fail logs err unless it is a plain caller mistake and converts it to a
// gRPC status.
func (s *GRPCServer) fail(ctx context.Context, op string, err error) error {
	st := toStatus(err)
	switch status.Code(st) {
	case codes.InvalidArgument, codes.NotFound, codes.Canceled:
		s.logger.Debug(ctx, op+" rejected", "error", err)
	default:
		s.logger.Error(ctx, op+" failed", "error", err)
	}
	return st
}

func requireMember(ctx context.Context) (string, error) {
	memberID, ok := CurrentMemberID(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, common.ErrorUnauthorized.Error())
	}
	return memberID, nil
}
