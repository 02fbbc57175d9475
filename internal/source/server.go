package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/runger/searchpick/internal/search"
)

// Server exposes a search.Fetcher as an item service on a unix socket.
type Server struct {
	fetcher    search.Fetcher
	socketPath string
	logger     *slog.Logger

	grpcServer *grpc.Server
	listener   net.Listener

	startTime    time.Time
	served       atomic.Int64
	shutdownOnce sync.Once
}

// ServerConfig contains configuration options for the item server.
type ServerConfig struct {
	// Fetcher answers FetchItems calls (required)
	Fetcher search.Fetcher

	// SocketPath is the unix socket to listen on (required)
	SocketPath string

	// Logger is the structured logger (optional, uses default if nil)
	Logger *slog.Logger
}

// NewServer creates an item server with the given configuration.
func NewServer(cfg *ServerConfig) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.SocketPath == "" {
		return nil, fmt.Errorf("socket path is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Server{
		fetcher:    cfg.Fetcher,
		socketPath: cfg.SocketPath,
		logger:     logger,
	}, nil
}

// Listen creates the unix socket listener, replacing any stale socket file.
func (s *Server) Listen() error {
	if err := os.MkdirAll(filepath.Dir(s.socketPath), 0755); err != nil {
		return fmt.Errorf("failed to create socket directory: %w", err)
	}

	// Clean up stale socket
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("failed to remove stale socket", "path", s.socketPath, "error", err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}

	// Readable/writable by owner only
	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	s.listener = listener
	s.grpcServer = grpc.NewServer()
	s.grpcServer.RegisterService(&itemServiceDesc, s)
	return nil
}

// Serve answers requests until ctx is cancelled or the server fails.
// Listen must have succeeded first.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return fmt.Errorf("server is not listening")
	}

	s.startTime = time.Now()
	s.logger.Info("item server starting", "socket", s.socketPath, "pid", os.Getpid())

	errChan := make(chan error, 1)
	go func() {
		if err := s.grpcServer.Serve(s.listener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			errChan <- fmt.Errorf("gRPC server error: %w", err)
		} else {
			errChan <- nil
		}
	}()

	select {
	case <-ctx.Done():
		s.Shutdown()
		<-errChan
		return nil
	case err := <-errChan:
		return err
	}
}

// Start listens on the socket and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Shutdown gracefully stops the server and removes the socket.
// It is safe to call Shutdown multiple times.
func (s *Server) Shutdown() {
	s.shutdownOnce.Do(func() {
		s.logger.Info("item server shutting down")

		if s.grpcServer != nil {
			s.grpcServer.GracefulStop()
		}
		if s.listener != nil {
			s.listener.Close()
		}
		if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn("failed to remove socket", "path", s.socketPath, "error", err)
		}

		s.logger.Info("item server stopped", "served", s.served.Load())
	})
}

// Served reports how many FetchItems calls have been answered.
func (s *Server) Served() int64 {
	return s.served.Load()
}

// FetchItems implements the item service.
func (s *Server) FetchItems(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	offset, limit, err := decodeRequest(req)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	items, err := s.fetcher.Fetch(ctx, offset, limit)
	if err != nil {
		s.logger.Warn("fetch failed", "offset", offset, "limit", limit, "error", err)
		return nil, status.Errorf(codes.Internal, "fetch items: %v", err)
	}

	s.served.Add(1)
	s.logger.Debug("fetch served", "offset", offset, "limit", limit, "items", len(items))
	return encodePage(items, len(items) < limit), nil
}
