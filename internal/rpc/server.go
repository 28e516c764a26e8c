package rpc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/danielpatrickdp/wellness-risk/internal/api"
	"github.com/danielpatrickdp/wellness-risk/internal/assessor"
)

// Service is the assessment backend.
type Service interface {
	Calculate(ctx context.Context, userID string) (assessor.Result, error)
	Latest(ctx context.Context, userID string) (assessor.Result, bool, error)
}

// #region server
// Server implements RiskServer on top of an assessment service.
type Server struct {
	svc    Service
	logger *zap.Logger
}

// NewServer creates a Server. logger may be nil.
func NewServer(svc Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{svc: svc, logger: logger.Named("grpc")}
}

// Register attaches the service to gs.
func (s *Server) Register(gs *grpc.Server) {
	gs.RegisterService(&ServiceDesc, s)
}

// Serve listens on addr until ctx is done, then stops gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("grpc listen %s: %w", addr, err)
	}
	gs := grpc.NewServer(grpc.UnaryInterceptor(s.logUnary))
	s.Register(gs)

	errc := make(chan error, 1)
	go func() { errc <- gs.Serve(lis) }()
	s.logger.Info("listening", zap.String("addr", addr))

	select {
	case err := <-errc:
		return fmt.Errorf("grpc serve %s: %w", addr, err)
	case <-ctx.Done():
	}
	gs.GracefulStop()
	if err := <-errc; err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("grpc serve %s: %w", addr, err)
	}
	return nil
}

func (s *Server) logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug("call",
		zap.String("method", info.FullMethod),
		zap.String("code", status.Code(err).String()),
		zap.Duration("took", time.Since(start)),
	)
	return resp, err
}

// #endregion server

// #region methods
// GetRiskScore returns the latest assessment, defaulting to the demo user.
func (s *Server) GetRiskScore(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID := userIDOf(in)
	if userID == "" {
		userID = api.DefaultUserID
	}
	res, ok, err := s.svc.Latest(ctx, userID)
	if err != nil {
		s.logger.Error("latest assessment", zap.String("user", userID), zap.Error(err))
		return nil, status.Error(codes.Internal, err.Error())
	}
	if !ok {
		return toStruct(api.NoAssessment())
	}
	return toStruct(api.FromResult(res))
}

// CalculateRisk scores the user now.
func (s *Server) CalculateRisk(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	userID := userIDOf(in)
	if userID == "" {
		return nil, status.Error(codes.InvalidArgument, "userId is required")
	}
	res, err := s.svc.Calculate(ctx, userID)
	if errors.Is(err, assessor.ErrMissingUser) {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err != nil {
		s.logger.Error("calculate risk", zap.String("user", userID), zap.Error(err))
		return nil, status.Error(codes.Internal, err.Error())
	}
	resp := api.FromResult(res)
	resp.Message = api.CompletedMessage
	return toStruct(resp)
}

// #endregion methods
