package grpc

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/classdocs/internal/common"
	"github.com/dmitrijs2005/classdocs/internal/logging"
	"github.com/dmitrijs2005/classdocs/internal/server/auth"
	"github.com/dmitrijs2005/classdocs/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newInterceptorServer(secret string) *GRPCServer {
	return &GRPCServer{logger: logging.Discard(), jwtSecret: []byte(secret)}
}

func TestInterceptor_PublicMethodWithoutToken(t *testing.T) {
	s := newInterceptorServer("secret")
	info := &grpc.UnaryServerInfo{FullMethod: FullMethod(MethodRegister)}

	called := false
	h := func(ctx context.Context, req any) (any, error) {
		called = true
		return "ok", nil
	}

	resp, err := s.accessTokenInterceptor(context.Background(), nil, info, h)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called || resp != "ok" {
		t.Fatalf("handler not called or bad resp: %v", resp)
	}
}

func TestInterceptor_MissingToken(t *testing.T) {
	s := newInterceptorServer("secret")
	info := &grpc.UnaryServerInfo{FullMethod: FullMethod(MethodListFiles)}

	h := func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler should not be called when token missing")
		return nil, nil
	}

	_, err := s.accessTokenInterceptor(context.Background(), nil, info, h)
	if status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", status.Code(err))
	}
	if status.Convert(err).Message() != "missing token" {
		t.Fatalf("expected 'missing token', got %q", status.Convert(err).Message())
	}
}

func TestInterceptor_ExpiredToken(t *testing.T) {
	s := newInterceptorServer("secret")
	token, err := auth.GenerateToken("u1", models.RoleStudent, []byte("secret"), -time.Second)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.New(map[string]string{
		common.AccessTokenHeaderName: token,
	}))
	info := &grpc.UnaryServerInfo{FullMethod: FullMethod(MethodListFiles)}

	_, err = s.accessTokenInterceptor(ctx, nil, info, func(ctx context.Context, req any) (any, error) {
		t.Fatal("handler should not be called for expired token")
		return nil, nil
	})
	if status.Convert(err).Message() != "token expired" {
		t.Fatalf("expected 'token expired', got %v", err)
	}
}

func TestInterceptor_ValidTokenSetsClaims(t *testing.T) {
	secret := "super-secret"
	s := newInterceptorServer(secret)

	token, err := auth.GenerateToken("user-123", models.RoleTeacher, []byte(secret), time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}

	ctx := metadata.NewIncomingContext(context.Background(), metadata.New(map[string]string{
		common.AccessTokenHeaderName: token,
	}))
	info := &grpc.UnaryServerInfo{FullMethod: FullMethod(MethodUploadFile)}

	var got *auth.Claims
	h := func(ctx context.Context, req any) (any, error) {
		c, err := callerFromContext(ctx)
		got = c
		return "ok", err
	}

	if _, err := s.accessTokenInterceptor(ctx, nil, info, h); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || got.UserID != "user-123" || got.Role != models.RoleTeacher {
		t.Fatalf("claims not propagated: %+v", got)
	}
}

func TestCallerFromContext_Missing(t *testing.T) {
	if _, err := callerFromContext(context.Background()); status.Code(err) != codes.Unauthenticated {
		t.Fatalf("expected Unauthenticated, got %v", err)
	}
}
