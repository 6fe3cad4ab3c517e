package grpc

import (
	"context"
	"time"

	"github.com/dmitrijs2005/tenantgov/internal/common"
	"github.com/dmitrijs2005/tenantgov/internal/server/auth"
	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

type ctxKey string

const (
	requestIDKey ctxKey = "requestID"
	actorKey     ctxKey = "actor"
)

// RequestIDFromContext returns the id assigned by requestIDInterceptor.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// requestIDInterceptor reuses the caller's request id or assigns a new one,
// and echoes it in the response header.
func (s *GRPCServer) requestIDInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {

	var id string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.RequestIDHeaderName); len(values) > 0 {
			id = values[0]
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	ctx = context.WithValue(ctx, requestIDKey, id)
	if err := grpc.SetHeader(ctx, metadata.Pairs(common.RequestIDHeaderName, id)); err != nil {
		s.logger.Debug(ctx, "request id header not set", "error", err)
	}

	return handler(ctx, req)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	args := []any{
		"method", info.FullMethod,
		"request_id", RequestIDFromContext(ctx),
		"code", status.Code(err).String(),
		"duration", time.Since(start),
	}
	if err != nil {
		s.logger.Warn(ctx, "request failed", append(args, "error", err)...)
	} else {
		s.logger.Info(ctx, "request handled", args...)
	}
	return resp, err
}

// ActorFromContext returns the admin token subject set by adminInterceptor.
func ActorFromContext(ctx context.Context) string {
	actor, _ := ctx.Value(actorKey).(string)
	return actor
}

// requiresAdmin reports whether the call is administrative: every
// ResetPassword, and SetPassword without old_password.
func requiresAdmin(fullMethod string, req any) bool {
	switch fullMethod {
	case FullMethod("ResetPassword"):
		return true
	case FullMethod("SetPassword"):
		in, ok := req.(*structpb.Struct)
		if !ok {
			return true
		}
		_, self := in.GetFields()["old_password"]
		return !self
	}
	return false
}

func (s *GRPCServer) adminInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if !requiresAdmin(info.FullMethod, req) {
		return handler(ctx, req)
	}

	var accessToken string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(common.AccessTokenHeaderName); len(values) > 0 {
			accessToken = values[0]
		}
	}
	if accessToken == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	actor, err := auth.ActorFromToken(accessToken, s.jwtSecret)
	if err != nil {
		s.logger.Warn(ctx, "admin token rejected", "method", info.FullMethod, "error", err)
		return nil, status.Error(codes.Unauthenticated, "invalid token")
	}

	return handler(context.WithValue(ctx, actorKey, actor), req)
}
