package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"helmetledger/internal/core/apperror"
	appctx "helmetledger/internal/core/context"
	"helmetledger/internal/infrastructure/storage/postgres"
	"helmetledger/pkg/logger"
)

const HeaderIdempotencyKey = "X-Idempotency-Key"

const (
	maxIdempotencyBodyBytes = 1 << 20 // 1 MiB
	maxIdempotencyKeyLength = 255
)

// IdempotencyStore records the outcome of keyed requests.
type IdempotencyStore interface {
	AcquireKey(ctx context.Context, key, ownerID, operation, requestHash string) (*postgres.IdempotencyReplay, error)
	CompleteKey(ctx context.Context, key, ownerID string, statusCode int, contentType string, body []byte) error
	FailKey(ctx context.Context, key, ownerID string, statusCode int, contentType string, body []byte) error
	ReleaseKey(ctx context.Context, key, ownerID string) error
}

var _ IdempotencyStore = (*postgres.IdempotencyStore)(nil)

// Idempotency middleware replays the stored response of a repeated
// X-Idempotency-Key. Successful and client-error responses are stored;
// server errors release the key so the client may retry.
func Idempotency(store IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !isMutating(c.Request.Method) {
			c.Next()
			return
		}

		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLength {
			_ = c.Error(apperror.NewValidation("idempotency key too long").WithDetail("max_length", maxIdempotencyKeyLength))
			c.Abort()
			return
		}

		ctx := c.Request.Context()

		body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxIdempotencyBodyBytes+1))
		if err != nil {
			_ = c.Error(apperror.NewValidation("unreadable request body"))
			c.Abort()
			return
		}
		if len(body) > maxIdempotencyBodyBytes {
			appErr := apperror.NewValidation("request body too large for idempotency")
			appErr.HTTPStatus = http.StatusRequestEntityTooLarge
			_ = c.Error(appErr.WithDetail("max_bytes", maxIdempotencyBodyBytes))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		operation := c.Request.Method + " " + c.Request.URL.Path
		ownerID := appctx.GetOwnerID(ctx)
		replay, err := store.AcquireKey(ctx, key, ownerID, operation, requestHash(c.Request.Method, c.Request.URL.Path, body))
		if err != nil {
			if _, ok := apperror.AsAppError(err); !ok {
				err = apperror.NewInternal(err).WithDetail("component", "idempotency")
			}
			_ = c.Error(err)
			c.Abort()
			return
		}
		if replay != nil {
			c.Header("Idempotent-Replayed", "true")
			c.Data(replay.StatusCode, replay.ContentType, replay.Body)
			c.Abort()
			return
		}

		rec := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = rec

		c.Next()

		if len(c.Errors) > 0 && !rec.Written() {
			WriteError(c, c.Errors.Last().Err)
		}

		finishCtx := context.WithoutCancel(ctx)
		status := rec.Status()
		contentType := rec.Header().Get("Content-Type")

		var finishErr error
		switch {
		case status >= http.StatusInternalServerError:
			finishErr = store.ReleaseKey(finishCtx, key, ownerID)
		case status >= http.StatusBadRequest:
			finishErr = store.FailKey(finishCtx, key, ownerID, status, contentType, rec.body.Bytes())
		default:
			finishErr = store.CompleteKey(finishCtx, key, ownerID, status, contentType, rec.body.Bytes())
		}
		if finishErr != nil {
			logger.Warn(ctx, "idempotency key not finalized",
				"idempotency_key", key,
				"status", status,
				"error", finishErr,
			)
		}
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func requestHash(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte{0})
	h.Write([]byte(path))
	h.Write([]byte{0})
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

// bodyRecorder keeps a copy of the response body for replay.
type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (r *bodyRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *bodyRecorder) WriteString(s string) (int, error) {
	r.body.WriteString(s)
	return r.ResponseWriter.WriteString(s)
}
