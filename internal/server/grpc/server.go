package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/tenantgov/internal/logging"
	"google.golang.org/grpc"
)

type GRPCServer struct {
	address   string
	accounts  AccountService
	logger    logging.Logger
	jwtSecret []byte
}

// NewGRPCServer builds the endpoint. Administrative calls need an HS256
// token signed with jwtSecret; with an empty secret they are all refused.
func NewGRPCServer(a string, l logging.Logger, accounts AccountService, jwtSecret string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		accounts:  accounts,
		jwtSecret: []byte(jwtSecret),
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.requestIDInterceptor, s.loggingInterceptor, s.adminInterceptor))
	srv.RegisterService(&ServiceDesc, s)
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

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
