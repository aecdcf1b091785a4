package interceptor

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
)

// NewProxy serves origin through transport, so pages loaded from the proxy
// get the same offline behaviour as direct requests.
func NewProxy(origin *url.URL, transport http.RoundTripper, logger *slog.Logger) *httputil.ReverseProxy {
	return &httputil.ReverseProxy{
		Rewrite: func(r *httputil.ProxyRequest) {
			r.SetURL(origin)
			r.Out.Host = origin.Host
		},
		Transport: transport,
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			if logger != nil {
				logger.Error("proxy request failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
			}
			http.Error(w, OfflineText, http.StatusBadGateway)
		},
	}
}
