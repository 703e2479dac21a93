package security

import (
	"net/http"
	"strings"
)

// CORS allows browser calls from the listed origins. A single "*" allows
// any origin, without credentials.
type CORS struct {
	origins map[string]bool
	any     bool
}

// NewCORS parses a comma-separated origin list such as
// "http://localhost:3000,https://app.example.com".
func NewCORS(allowed string) *CORS {
	c := &CORS{origins: make(map[string]bool)}
	for _, o := range strings.Split(allowed, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch o {
		case "":
		case "*":
			c.any = true
		default:
			c.origins[o] = true
		}
	}
	return c
}

// Middleware sets the CORS response headers and answers preflight requests
// with 204.
func (c *CORS) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		h := w.Header()
		h.Add("Vary", "Origin")

		if origin != "" {
			switch {
			case c.origins[origin]:
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
			case c.any:
				h.Set("Access-Control-Allow-Origin", "*")
			}
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			h.Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
			h.Set("Access-Control-Max-Age", "600")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
