package webdav

import "net/http"

const (
	MethodPropfind  = "PROPFIND"
	MethodProppatch = "PROPPATCH"
	MethodMkcol     = "MKCOL"
	MethodCopy      = "COPY"
	MethodMove      = "MOVE"
)

var AllowMethods = []string{
	http.MethodOptions,
	http.MethodGet,
	http.MethodHead,
	http.MethodPut,
	http.MethodDelete,
	MethodMkcol,
	MethodCopy,
	MethodMove,
	MethodPropfind,
	MethodProppatch,
}
