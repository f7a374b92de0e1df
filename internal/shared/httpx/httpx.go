// Package httpx holds the JSON request/response helpers and the server
// lifecycle shared by the HTTP services.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"git.platform.alem.school/amibragim/shop-events/internal/shared/logger"

	"github.com/google/uuid"
)

const maxBodyBytes = 1 << 20 // 1 MiB

// ErrUnsupportedMediaType is returned by DecodeJSON for non-JSON bodies.
var ErrUnsupportedMediaType = errors.New("Content-Type must be application/json")

type errBody struct {
	Error string `json:"error"`
}

// JSON encodes data and writes it with status.
func JSON(ctx context.Context, log *logger.Logger, w http.ResponseWriter, status int, data any) {
	// encode to buffer first so we can control status on failure
	buf := []byte("{}")
	if data != nil {
		var err error
		buf, err = json.Marshal(data)
		if err != nil {
			log.Error(ctx, "response_encode_failed", "failed to encode response", err)
			http.Error(w, `{"error":"failed to encode response"}`, http.StatusInternalServerError)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(buf)
}

// Error logs err under an action derived from status and writes {"error": msg}.
func Error(ctx context.Context, log *logger.Logger, w http.ResponseWriter, status int, msg string, err error) {
	// map status -> action
	action := "request_failed"
	switch {
	case status >= 500:
		action = "http_internal_error"
	case status == http.StatusBadRequest:
		action = "validation_failed"
	case status == http.StatusNotFound:
		action = "not_found"
	case status == http.StatusUnsupportedMediaType:
		action = "unsupported_media_type"
	}

	if status >= 500 {
		log.Error(ctx, action, msg, err)
	} else {
		log.Debug(ctx, action, msg, map[string]any{"status": status, "error": errString(err)})
	}

	JSON(ctx, log, w, status, errBody{Error: msg})
}

// DecodeJSON reads a size-limited JSON body into dst, rejecting unknown fields.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return ErrUnsupportedMediaType
	}

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// WithRequestID tags every request context with the X-Request-ID header, or a
// fresh UUID, and echoes it back.
func WithRequestID(log *logger.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(log.WithRequestID(r.Context(), reqID)))
	})
}

// WithConcurrencyLimit wraps an http.Handler with a semaphore-based limiter.
// It blocks until capacity is available.
func WithConcurrencyLimit(n int, next http.Handler) http.Handler {
	if n <= 0 {
		return next
	}
	sem := make(chan struct{}, n)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sem <- struct{}{}        // acquire
		defer func() { <-sem }() // release
		next.ServeHTTP(w, r)
	})
}

// NewServer builds an http.Server with the timeouts used by every service.
func NewServer(ctx context.Context, port int, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

// Serve runs srv until ctx is cancelled, then drains in-flight requests.
// It returns the server's terminal error, or nil on a clean shutdown.
func Serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		// http.ErrServerClosed is returned on Shutdown; treat that as clean exit
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shCtx)
	case err := <-errCh:
		return err
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
