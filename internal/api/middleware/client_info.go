// client_info.go — сведения о клиенте (IP, User-Agent) для журнала аудита.
package middleware

import (
	"net"
	"net/http"

	"github.com/Aryan-dev-enth/certificate-manager/internal/service"
)

// ClientInfo помещает IP и User-Agent клиента в контекст запроса.
// IP берётся из RemoteAddr (после chi RealIP).
func ClientInfo() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := service.WithRequestMeta(r.Context(), service.RequestMeta{
				IPAddress: clientIP(r.RemoteAddr),
				UserAgent: r.UserAgent(),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// clientIP отбрасывает порт из адреса.
func clientIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}
