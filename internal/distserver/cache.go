package distserver

import (
	"net/http"
	"path"
)

// Cache-Control values.
const (
	LongCache  = "public, max-age=31536000"
	ShortCache = "public, max-age=600"
)

// isRootPage reports whether the request resolves to <dir>/index.html.
func isRootPage(urlPath string) bool {
	p := path.Clean("/" + urlPath)
	return p == "/" || p == "/index.html"
}

// cacheControl sets the cache policy before the file is served. Requests for
// /index.html are served as "/" so the page is returned directly instead of
// http.FileServer's redirect.
func cacheControl(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !isRootPage(r.URL.Path) {
			w.Header().Set("Cache-Control", LongCache)
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Cache-Control", ShortCache)
		if path.Clean("/"+r.URL.Path) == "/index.html" {
			r2 := r.Clone(r.Context())
			r2.URL.Path = "/"
			r2.URL.RawPath = ""
			r = r2
		}
		next.ServeHTTP(w, r)
	})
}
