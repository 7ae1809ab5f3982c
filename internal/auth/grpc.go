package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc"

	"libraryCatalog/internal/apperr"
)

// NewUnaryAuthInterceptor returns a gRPC unary interceptor that extracts and validates
// a Bearer JWT from incoming metadata and injects the Principal into the context.
// Methods listed in allowUnauthenticated may be called without a token; a token that
// is sent anyway is still verified.
func NewUnaryAuthInterceptor(a *Authenticator, allowUnauthenticated ...string) grpc.UnaryServerInterceptor {
	allow := make(map[string]struct{}, len(allowUnauthenticated))
	for _, m := range allowUnauthenticated {
		allow[strings.TrimSpace(m)] = struct{}{}
	}
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		_, public := allow[info.FullMethod]
		tok, err := BearerFromMD(ctx)
		if err != nil {
			if public {
				return handler(ctx, req)
			}
			return nil, apperr.Wrap(apperr.KindUnauthenticated, "Not authenticated", err)
		}
		p, err := a.Authenticate(ctx, tok)
		if err != nil {
			return nil, err
		}
		return handler(WithPrincipal(ctx, p), req)
	}
}

// RequirePrincipal ensures a principal is present in context.
func RequirePrincipal(ctx context.Context) (*Principal, error) {
	p, ok := FromContext(ctx)
	if !ok {
		return nil, apperr.Unauthenticated("Not authenticated")
	}
	return p, nil
}
