package http

import (
	"net/http"
	"runtime/debug"

	"http-sniffer/infrastructure/logging"
)

// maxStackLen 日志中保留的堆栈长度
const maxStackLen = 500

// RecoveryMiddleware 捕获 handler 中的 panic，记录日志并返回 500
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				if err == http.ErrAbortHandler {
					panic(err)
				}
				stack := string(debug.Stack())
				if len(stack) > maxStackLen {
					stack = stack[:maxStackLen] + "..."
				}
				logging.SystemSugar.Errorw("Panic recovered",
					"method", r.Method,
					"url", r.URL.String(),
					"remote", r.RemoteAddr,
					"error", err,
					"stack", stack,
				)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
