package grpc

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/catalogauth/internal/common"
	"github.com/dmitrijs2005/catalogauth/internal/server/access"
	"github.com/dmitrijs2005/catalogauth/internal/server/auth"
	"github.com/dmitrijs2005/catalogauth/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type fakeResolver struct {
	err error
}

func (f fakeResolver) Resolve(_ context.Context, token string) (models.Principal, error) {
	if f.err != nil {
		return models.Principal{}, f.err
	}
	if token != "good" {
		return models.Principal{}, common.ErrTokenSignatureInvalid
	}
	return models.NewPrincipal("bob", "u-2", []string{models.RoleBuyer}), nil
}

func newTestServer(r Resolver) *GRPCServer {
	return NewGRPCServer("", nopLogger{}, r, Options{Methods: map[string]access.Requirement{
		"/catalog.Products/Create": access.RequireRole(models.RoleSeller),
		"/catalog.Products/List":   access.PermitAll(),
	}})
}

func withToken(token string) context.Context {
	return metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))
}

func callUnary(t *testing.T, s *GRPCServer, ctx context.Context, method string) (string, error) {
	t.Helper()
	info := &grpc.UnaryServerInfo{FullMethod: method}
	h := func(ctx context.Context, req any) (any, error) {
		if p, ok := auth.PrincipalFromContext(ctx); ok {
			return p.Subject(), nil
		}
		return "anonymous", nil
	}
	resp, err := s.authUnaryInterceptor(ctx, nil, info, h)
	if err != nil {
		return "", err
	}
	return resp.(string), nil
}

func TestInterceptor_Unary(t *testing.T) {
	s := newTestServer(fakeResolver{})

	tests := []struct {
		name     string
		ctx      context.Context
		method   string
		want     string
		wantCode codes.Code
	}{
		{"health anonymous", context.Background(), "/grpc.health.v1.Health/Check", "anonymous", codes.OK},
		{"health bad token", withToken("bad"), "/grpc.health.v1.Health/Check", "anonymous", codes.OK},
		{"public method with token", withToken("good"), "/catalog.Products/List", "bob", codes.OK},
		{"default anonymous", context.Background(), "/catalog.Orders/List", "", codes.Unauthenticated},
		{"default bad token", withToken("bad"), "/catalog.Orders/List", "", codes.Unauthenticated},
		{"default good token", withToken("good"), "/catalog.Orders/List", "bob", codes.OK},
		{"role missing", withToken("good"), "/catalog.Products/Create", "", codes.PermissionDenied},
		{"role anonymous", context.Background(), "/catalog.Products/Create", "", codes.Unauthenticated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := callUnary(t, s, tt.ctx, tt.method)
			if status.Code(err) != tt.wantCode {
				t.Fatalf("code = %v, want %v (err %v)", status.Code(err), tt.wantCode, err)
			}
			if got != tt.want {
				t.Fatalf("principal = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInterceptor_StoreFailureIsUnauthenticated(t *testing.T) {
	s := newTestServer(fakeResolver{err: common.ErrStoreUnavailable})

	_, err := callUnary(t, s, withToken("good"), "/catalog.Orders/List")
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("want Unauthenticated, got %v", err)
	}
	if st, _ := status.FromError(err); st.Message() != "unauthenticated" {
		t.Fatalf("store details leaked: %q", st.Message())
	}
}

type fakeStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (f *fakeStream) Context() context.Context { return f.ctx }

func TestInterceptor_Stream(t *testing.T) {
	s := newTestServer(fakeResolver{})
	info := &grpc.StreamServerInfo{FullMethod: "/catalog.Orders/Watch", IsServerStream: true}

	var subject string
	handler := func(srv any, ss grpc.ServerStream) error {
		p, ok := auth.PrincipalFromContext(ss.Context())
		if ok {
			subject = p.Subject()
		}
		return nil
	}

	if err := s.authStreamInterceptor(nil, &fakeStream{ctx: withToken("good")}, info, handler); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject != "bob" {
		t.Fatalf("principal not propagated to stream, got %q", subject)
	}

	err := s.authStreamInterceptor(nil, &fakeStream{ctx: context.Background()}, info, handler)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("want Unauthenticated, got %v", err)
	}
}
