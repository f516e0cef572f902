package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/pitabwire/lingo/localization"
)

func requestLanguages(ctx context.Context, manager localization.Manager) []string {
	l := localization.ExtractLanguageFromGrpcRequest(ctx)
	if manager != nil {
		l = localization.Negotiate(manager, l)
	}
	return l
}

// LanguageUnaryInterceptor extracts the languages supplied via accept-language metadata.
func LanguageUnaryInterceptor(manager localization.Manager) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any,
		_ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		l := requestLanguages(ctx, manager)
		if len(l) > 0 {
			ctx = localization.ToContext(ctx, l)
		}

		return handler(ctx, req)
	}
}

// LanguageStreamInterceptor is the streaming counterpart of LanguageUnaryInterceptor.
func LanguageStreamInterceptor(manager localization.Manager) grpc.StreamServerInterceptor {
	return func(srv any, ss grpc.ServerStream, _ *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		ctx := ss.Context()
		l := requestLanguages(ctx, manager)
		if len(l) == 0 {
			return handler(srv, ss)
		}

		return handler(srv, &serverStreamWrapper{localization.ToContext(ctx, l), ss})
	}
}

// serverStreamWrapper replaces the stream context with one carrying the languages.
type serverStreamWrapper struct {
	ctx context.Context
	grpc.ServerStream
}

func (s *serverStreamWrapper) Context() context.Context {
	return s.ctx
}
