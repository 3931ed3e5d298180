package service

import "context"

// RequestMeta — сведения о клиенте, записываемые в журнал аудита.
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

type requestMetaKey struct{}

// WithRequestMeta помещает сведения о клиенте в контекст.
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFromContext извлекает сведения о клиенте из контекста.
func RequestMetaFromContext(ctx context.Context) (RequestMeta, bool) {
	meta, ok := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta, ok
}
