// Package httpserver constructs the process's http.Server so timeout policy
// lives in one place instead of in main.
package httpserver

import (
	"net/http"
	"time"
)

const readHeaderTimeout = 5 * time.Second

// New returns a server for addr. The header-read timeout keeps slow or
// stalled clients from pinning connections before routing even starts.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}
