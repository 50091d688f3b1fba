package middleware

import (
	"context"
	"net/http"
)

// requestInfo is shared by the outer middlewares and the auth middleware,
// which runs inside the mux on a derived request
type requestInfo struct {
	userID string
}

type requestInfoKey struct{}

// withRequestInfo returns r carrying a requestInfo, reusing an existing one
// so the request is only copied once
func withRequestInfo(r *http.Request) (*http.Request, *requestInfo) {
	if info := requestInfoFrom(r.Context()); info != nil {
		return r, info
	}
	info := &requestInfo{}
	return r.WithContext(context.WithValue(r.Context(), requestInfoKey{}, info)), info
}

func requestInfoFrom(ctx context.Context) *requestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(*requestInfo)
	return info
}
