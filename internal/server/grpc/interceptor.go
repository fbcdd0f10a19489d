package grpc

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/catalogauth/internal/common"
	"github.com/dmitrijs2005/catalogauth/internal/logging"
	"github.com/dmitrijs2005/catalogauth/internal/server/access"
	"github.com/dmitrijs2005/catalogauth/internal/server/auth"
	"github.com/dmitrijs2005/catalogauth/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const (
	authorizationMetadataKey = "authorization"
	healthServicePrefix      = "/grpc.health.v1.Health/"
)

func (s *GRPCServer) requirement(fullMethod string) access.Requirement {
	if r, ok := s.methods[fullMethod]; ok {
		return r
	}
	if strings.HasPrefix(fullMethod, healthServicePrefix) {
		return access.PermitAll()
	}
	return access.RequireAuthenticated()
}

func bearerFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(authorizationMetadataKey)
	if len(values) == 0 {
		return ""
	}
	return common.BearerToken(values[0])
}

// authenticate resolves the caller of fullMethod and applies its
// requirement. The returned context carries the principal when there is one.
func (s *GRPCServer) authenticate(ctx context.Context, fullMethod string) (context.Context, error) {
	req := s.requirement(fullMethod)
	log := logging.FromContext(ctx, s.logger)

	var (
		principal models.Principal
		ok        bool
	)
	if token := bearerFromMetadata(ctx); token != "" {
		p, err := s.resolver.Resolve(ctx, token)
		switch {
		case err == nil:
			principal, ok = p, true
			ctx = auth.WithPrincipal(ctx, p)
		case req.Kind == access.Public:
			log.Debug(ctx, "ignoring rejected token on public method", "method", fullMethod, "reason", err)
		default:
			log.Debug(ctx, "token rejected", "method", fullMethod, "reason", err)
			return nil, status.Error(codes.Unauthenticated, "unauthenticated")
		}
	}

	if err := req.Check(principal, ok); err != nil {
		if errors.Is(err, common.ErrorForbidden) {
			return nil, status.Error(codes.PermissionDenied, "permission denied")
		}
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}
	return ctx, nil
}

func (s *GRPCServer) authUnaryInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	ctx, err := s.authenticate(ctx, info.FullMethod)
	if err != nil {
		return nil, err
	}
	return handler(ctx, req)
}

type authedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authedStream) Context() context.Context { return s.ctx }

func (s *GRPCServer) authStreamInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	ctx, err := s.authenticate(ss.Context(), info.FullMethod)
	if err != nil {
		return err
	}
	return handler(srv, &authedStream{ServerStream: ss, ctx: ctx})
}
