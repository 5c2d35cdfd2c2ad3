// Copyright (c) 2025 The homewired developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package server

import (
	"net/http"
	"runtime/debug"

	"github.com/homewired/pamauth/util"
)

type middleware struct {
	reqBodySizeLimit int64 // In bytes
}

// closeBodyMiddleware closes the request body once the request has been
// served.
func closeBodyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		r.Body.Close()
	})
}

// reqBodySizeLimitMiddleware applies a size limit to the request body.
func (m *middleware) reqBodySizeLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Tracef("Applying a max body size of %v bytes to the "+
			"request body", m.reqBodySizeLimit)

		r.Body = http.MaxBytesReader(w, r.Body, m.reqBodySizeLimit)
		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs all incoming requests. Request bodies are never
// logged; they can contain credentials.
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Infof("%v %v %v %v", util.RemoteAddr(r), r.Method,
			r.URL, r.Proto)
		next.ServeHTTP(w, r)
	})
}

// recoverMiddleware recovers from any panics by logging the panic and
// returning a 500 response.
func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Defer the function so that it gets executed when the request
		// is being closed out, not when it's being opened.
		defer func() {
			if err := recover(); err != nil {
				log.Criticalf("%v %v %v %v Internal error (panic): %v",
					util.RemoteAddr(r), r.Method, r.URL, r.Proto, err)
				log.Criticalf("Stacktrace (THIS IS A PANIC): %s",
					debug.Stack())

				http.Error(w, http.StatusText(http.StatusInternalServerError),
					http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}
