package interceptors

import (
	"net"
	"net/http"
	"strings"
	"time"

	restful "github.com/emicklei/go-restful/v3"
	"go.uber.org/zap"
)

// HTTPLogging logs every request once it has been handled.
func HTTPLogging(logger *zap.Logger) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		startTime := time.Now()

		chain.ProcessFilter(req, resp)

		logger.Info("Request",
			zap.String("client_ip", clientIP(req.Request)),
			zap.String("method", req.Request.Method),
			zap.Int("status_code", resp.StatusCode()),
			zap.Duration("latency", time.Since(startTime)),
			zap.String("user_agent", req.Request.UserAgent()),
			zap.String("path", req.Request.URL.Path),
		)
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ReadinessGate answers 503 until ready reports true. Requests whose path starts with
// one of the exempt prefixes always pass.
func ReadinessGate(ready func() bool, exempt ...string) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		if !ready() {
			path := req.Request.URL.Path
			for _, prefix := range exempt {
				if strings.HasPrefix(path, prefix) {
					chain.ProcessFilter(req, resp)
					return
				}
			}
			resp.AddHeader("Retry-After", "1")
			_ = resp.WriteHeaderAndJson(http.StatusServiceUnavailable,
				map[string]string{"message": "Service is waiting for the database"}, restful.MIME_JSON)
			return
		}
		chain.ProcessFilter(req, resp)
	}
}
