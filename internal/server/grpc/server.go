// Package grpc runs the gRPC listener of the auth server. Every call passes
// through the same token resolution as the HTTP gate; the standard health
// service is registered and open to anonymous callers.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/catalogauth/internal/logging"
	"github.com/dmitrijs2005/catalogauth/internal/server/access"
	"github.com/dmitrijs2005/catalogauth/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Resolver turns a bearer token into a principal.
type Resolver interface {
	Resolve(ctx context.Context, token string) (models.Principal, error)
}

// Options tunes the gRPC server.
type Options struct {
	// Methods maps full method names ("/pkg.Service/Method") to what the
	// caller needs. Unlisted methods require an authenticated caller, health
	// checks excepted.
	Methods map[string]access.Requirement
	// Register adds application services to the server.
	Register func(s *grpc.Server)
}

type GRPCServer struct {
	address  string
	resolver Resolver
	logger   logging.Logger
	methods  map[string]access.Requirement
	register func(s *grpc.Server)
	health   *health.Server
}

func NewGRPCServer(a string, l logging.Logger, r Resolver, opts Options) *GRPCServer {
	if l == nil {
		l = logging.Nop{}
	}
	return &GRPCServer{
		address:  a,
		logger:   l.With("module", "grpc_server"),
		resolver: r,
		methods:  opts.Methods,
		register: opts.Register,
		health:   health.NewServer(),
	}
}

// newServer builds the grpc.Server with interceptors and services attached.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.authUnaryInterceptor),
		grpc.ChainStreamInterceptor(s.authStreamInterceptor),
	)

	healthpb.RegisterHealthServer(srv, s.health)
	if s.register != nil {
		s.register(srv)
	}
	return srv
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve is Run on an existing listener.
func (s *GRPCServer) Serve(ctx context.Context, listen net.Listener) error {
	srv := s.newServer()
	s.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		s.health.Shutdown()
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", listen.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(listen); err != nil {
		return err
	}

	return nil
}
