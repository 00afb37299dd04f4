// Package grpc exposes the shared list services over gRPC. Messages are the
// JSON structs of internal/api; the service descriptor is declared by hand.
package grpc

import (
	"context"
	"net"
	"time"

	"github.com/dmitrijs2005/sharedtodo/internal/logging"
	"github.com/dmitrijs2005/sharedtodo/internal/server/models"
	"github.com/dmitrijs2005/sharedtodo/internal/server/services"
	"google.golang.org/grpc"
)

// ItemService is the part of services.ItemService the handlers use.
type ItemService interface {
	AddItem(ctx context.Context, spaceID, memberID, text string, rec models.Recurrence) (*models.Item, error)
	GetItem(ctx context.Context, itemID string) (*models.Item, error)
	ListItems(ctx context.Context, spaceID string) ([]*models.Item, error)
	ToggleCompletion(ctx context.Context, itemID, memberID string) (*models.Item, error)
	ToggleDeletion(ctx context.Context, itemID, memberID string) (*services.DeletionResult, error)
	EditItem(ctx context.Context, itemID, text string, rec *models.Recurrence) (*models.Item, error)
	Subscribe(ctx context.Context, spaceID string, send func([]*models.Item) error) error
}

// ResetScanner runs an on-demand reset pass over one space.
type ResetScanner interface {
	ScanAndReset(ctx context.Context, spaceID string) (services.ResetReport, error)
}

// HistoryExporter builds and uploads year reports.
type HistoryExporter interface {
	BuildReport(ctx context.Context, itemID string, year int, creatorID string) (*services.HistoryReport, error)
	ExportHistory(ctx context.Context, itemID string, year int, creatorID string) (*services.ExportResult, error)
}

// DefaultStopTimeout is how long Run waits for in-flight calls to drain
// before closing the remaining connections.
const DefaultStopTimeout = 10 * time.Second

type GRPCServer struct {
	address   string
	items     ItemService
	scheduler ResetScanner
	exports   HistoryExporter
	logger    logging.Logger
	jwtSecret []byte
	location  *time.Location
	now       func() time.Time

	// shutdown ends when Run's context does; open Subscribe streams follow it.
	shutdown    context.Context
	stop        context.CancelFunc
	stopTimeout time.Duration
}

// NewGRPCServer wires the services behind the SharedList handlers. loc is
// the space location used to pick the default report year; nil means local.
func NewGRPCServer(a string, l logging.Logger, items ItemService, scheduler ResetScanner, exports HistoryExporter, secretKey string, loc *time.Location) (*GRPCServer, error) {
	if loc == nil {
		loc = time.Local
	}
	shutdown, stop := context.WithCancel(context.Background())
	return &GRPCServer{
		address:     a,
		logger:      l.With("module", "grpc_server"),
		items:       items,
		scheduler:   scheduler,
		exports:     exports,
		jwtSecret:   []byte(secretKey),
		location:    loc,
		now:         time.Now,
		shutdown:    shutdown,
		stop:        stop,
		stopTimeout: DefaultStopTimeout,
	}, nil
}

// NewServer returns a grpc.Server with the SharedList service and the
// access token interceptors registered.
func (s *GRPCServer) NewServer(opts ...grpc.ServerOption) *grpc.Server {
	opts = append(opts,
		grpc.ChainUnaryInterceptor(s.loggingInterceptor, s.accessTokenInterceptor),
		grpc.ChainStreamInterceptor(s.accessTokenStreamInterceptor),
	)
	srv := grpc.NewServer(opts...)
	srv.RegisterService(&SharedListServiceDesc, s)
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "Starting gRPC server", "address", s.address)
	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx ends, then ends open Subscribe
// streams and stops the server. It returns once every call has finished or
// been cut off.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.NewServer()

	stopped := make(chan struct{})
	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.stop()
		s.gracefulStop(ctx, srv)
		close(stopped)
	}()

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	<-stopped
	return nil
}

// gracefulStop drains in-flight calls, and closes whatever is still open
// once stopTimeout passes.
func (s *GRPCServer) gracefulStop(ctx context.Context, srv *grpc.Server) {
	drained := make(chan struct{})
	go func() {
		srv.GracefulStop()
		close(drained)
	}()

	select {
	case <-drained:
	case <-time.After(s.stopTimeout):
		s.logger.Warn(ctx, "gRPC calls still open after stop timeout, closing", "timeout", s.stopTimeout)
		srv.Stop()
		<-drained
	}
}
