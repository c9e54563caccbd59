package api

import (
	"fmt"
	"net/http"
	"time"

	"secretbox/logger"
	"secretbox/render"

	"github.com/go-chi/chi/v5/middleware"
)

// accessLog records one line per request. Client address, user agent and referer are
// left out on purpose: nothing about the sender is ever written down.
func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		logger.Info("http request",
			logger.FieldKV("request_id", middleware.GetReqID(r.Context())),
			logger.FieldKV("method", r.Method),
			logger.FieldKV("path", r.URL.Path),
			logger.FieldKV("status", status),
			logger.FieldKV("bytes", ww.BytesWritten()),
			logger.FieldKV("duration_ms", time.Since(start).Milliseconds()))
	})
}

// recoverer turns a handler panic into the styled failure page.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			logger.Error("handler panic", fmt.Errorf("%v", rec),
				logger.FieldKV("request_id", middleware.GetReqID(r.Context())),
				logger.FieldKV("path", r.URL.Path))
			writePage(w, http.StatusInternalServerError, render.Failure())
		}()
		next.ServeHTTP(w, r)
	})
}
