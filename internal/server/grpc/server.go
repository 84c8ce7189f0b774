// Package grpc exposes the file services over gRPC. Every call except
// Register and Ping must carry an access token in the "access_token"
// metadata key.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/classdocs/internal/logging"
	"github.com/dmitrijs2005/classdocs/internal/server/services"
	"google.golang.org/grpc"
)

// Services bundles what the transport calls into.
type Services struct {
	Users      *services.UserService
	Classrooms *services.ClassroomService
	Files      *services.FileService
	Access     *services.AccessPolicy
}

type GRPCServer struct {
	address    string
	users      *services.UserService
	classrooms *services.ClassroomService
	files      *services.FileService
	access     *services.AccessPolicy
	logger     logging.Logger
	jwtSecret  []byte
	maxMsgSize int
}

// NewGRPCServer builds the server. maxUpload sizes the inbound message
// limit; file content travels base64 encoded, so the limit is set well
// above it and the service enforces the real cap.
func NewGRPCServer(a string, l logging.Logger, svc Services, secretKey string, maxUpload int64) *GRPCServer {
	return &GRPCServer{
		address:    a,
		logger:     l.With("module", "grpc_server"),
		users:      svc.Users,
		classrooms: svc.Classrooms,
		files:      svc.Files,
		access:     svc.Access,
		jwtSecret:  []byte(secretKey),
		maxMsgSize: int(maxUpload)*2 + 1<<20,
	}
}

func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(s.accessTokenInterceptor),
		grpc.MaxRecvMsgSize(s.maxMsgSize),
	)
	srv.RegisterService(&serviceDesc, s)
	return srv
}

// Run listens on the configured address until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve accepts connections on l until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, l net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", l.Addr().String())

	return srv.Serve(l)
}
