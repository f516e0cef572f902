package connect

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	"connectrpc.com/otelconnect"

	"github.com/pitabwire/lingo/localization"
)

// LanguageInterceptor implements connect.Interceptor, placing the requested languages in the context.
type LanguageInterceptor struct {
	manager localization.Manager
}

// NewLanguageInterceptor creates the interceptor, manager is optional and enables negotiation.
func NewLanguageInterceptor(manager localization.Manager) *LanguageInterceptor {
	return &LanguageInterceptor{manager: manager}
}

// Interceptors returns the tracing interceptor followed by the language interceptor.
func Interceptors(manager localization.Manager, opts ...otelconnect.Option) ([]connect.Interceptor, error) {
	otelInterceptor, err := otelconnect.NewInterceptor(opts...)
	if err != nil {
		return nil, err
	}

	return []connect.Interceptor{otelInterceptor, NewLanguageInterceptor(manager)}, nil
}

func (l *LanguageInterceptor) withLanguages(ctx context.Context, header http.Header) context.Context {
	languages := localization.ExtractLanguageFromHTTPHeader(header)
	if l.manager != nil {
		languages = localization.Negotiate(l.manager, languages)
	}
	if len(languages) == 0 {
		return ctx
	}
	return localization.ToContext(ctx, languages)
}

func (l *LanguageInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return next(l.withLanguages(ctx, req.Header()), req)
	}
}

// WrapStreamingClient passes client streams through untouched.
func (l *LanguageInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return next
}

func (l *LanguageInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return func(ctx context.Context, conn connect.StreamingHandlerConn) error {
		return next(l.withLanguages(ctx, conn.RequestHeader()), conn)
	}
}
