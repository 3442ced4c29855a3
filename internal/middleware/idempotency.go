// Package middleware holds fiber middleware shared by the storefront routes.
package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	pkgredis "github.com/fairyhunter13/sneaker-checkout/pkg/redis"
)

const (
	// HeaderIdempotencyKey is the client supplied request key.
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderIdempotentReplay is set on responses served from the store.
	HeaderIdempotentReplay = "Idempotent-Replayed"

	// KindIdempotencyKeyReused is returned when a key is sent again with a different body.
	KindIdempotencyKeyReused = "IDEMPOTENCY_KEY_REUSED"
	// KindIdempotencyInProgress is returned while the first request for a key is still running.
	KindIdempotencyInProgress = "IDEMPOTENCY_REQUEST_IN_PROGRESS"

	DefaultIdempotencyTTL = 24 * time.Hour

	// inProgressTTL bounds how long a crashed request can hold its key.
	inProgressTTL = time.Minute

	maxKeyLength = 255
)

// IdempotencyStore persists responses keyed by scope and client key.
// Get must return pkgredis.ErrNotFound for missing keys.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

type idempotencyRecord struct {
	InProgress  bool   `json:"in_progress,omitempty"`
	Status      int    `json:"status,omitempty"`
	Body        string `json:"body,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	RequestHash string `json:"request_hash"`
}

// Idempotency replays the stored response when a request repeats an Idempotency-Key
// with the same body, and rejects the key when the body differs.
// The key is claimed with an in-progress marker before the handler runs, so a
// concurrent duplicate gets 409 instead of running the handler a second time.
// Requests without the header pass through. A nil store disables the middleware.
// Server errors are not stored so the client can retry them.
func Idempotency(store IdempotencyStore, ttl time.Duration) fiber.Handler {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	markerTTL := min(inProgressTTL, ttl)

	return func(c *fiber.Ctx) error {
		if store == nil {
			return c.Next()
		}

		id := strings.TrimSpace(c.Get(HeaderIdempotencyKey))
		if id == "" {
			return c.Next()
		}
		if len(id) > maxKeyLength {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "invalid request: Idempotency-Key exceeds maximum length of 255",
				"kind":  "INVALID_REQUEST",
			})
		}

		ctx := c.UserContext()
		requestHash := hashBody(c.Body())
		key := store.IdempotencyKey(c.Method()+"|"+c.Path(), id)

		stored, err := store.Get(ctx, key)
		switch {
		case err == nil:
			return respondExisting(c, key, stored, requestHash)
		case !errors.Is(err, pkgredis.ErrNotFound):
			logStoreFailure(c, err, "idempotency lookup failed")
			return storeUnavailable(c)
		}

		marker, err := json.Marshal(idempotencyRecord{InProgress: true, RequestHash: requestHash})
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal idempotency marker")
			return storeUnavailable(c)
		}
		claimed, err := store.SetNX(ctx, key, string(marker), markerTTL)
		if err != nil {
			logStoreFailure(c, err, "idempotency claim failed")
			return storeUnavailable(c)
		}
		if !claimed {
			// Lost the claim to a concurrent request with the same key.
			stored, err := store.Get(ctx, key)
			if err != nil {
				if errors.Is(err, pkgredis.ErrNotFound) {
					return inProgress(c)
				}
				logStoreFailure(c, err, "idempotency lookup failed")
				return storeUnavailable(c)
			}
			return respondExisting(c, key, stored, requestHash)
		}

		if err := c.Next(); err != nil {
			release(ctx, store, key)
			return err
		}

		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			release(ctx, store, key)
			return nil
		}

		record := idempotencyRecord{
			Status:      status,
			Body:        base64.StdEncoding.EncodeToString(c.Response().Body()),
			ContentType: c.GetRespHeader(fiber.HeaderContentType),
			RequestHash: requestHash,
		}
		payload, err := json.Marshal(record)
		if err != nil {
			log.Error().Err(err).Msg("failed to marshal idempotency record")
			release(ctx, store, key)
			return nil
		}
		if err := store.Set(ctx, key, string(payload), ttl); err != nil {
			log.Error().Err(err).Str("key", key).Msg("failed to persist idempotency record")
			release(ctx, store, key)
		}
		return nil
	}
}

// respondExisting answers a request whose key already has a marker or a stored response.
func respondExisting(c *fiber.Ctx, key, stored, requestHash string) error {
	record, err := decodeRecord(stored)
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to decode idempotency record")
		return storeUnavailable(c)
	}
	if record.RequestHash != requestHash {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "idempotency key reused with different request body",
			"kind":  KindIdempotencyKeyReused,
		})
	}
	if record.InProgress {
		return inProgress(c)
	}
	return writeStoredResponse(c, record)
}

// release drops the in-progress marker so the client may retry with the same key.
func release(ctx context.Context, store IdempotencyStore, key string) {
	if err := store.Del(ctx, key); err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to release idempotency key")
	}
}

func inProgress(c *fiber.Ctx) error {
	return c.Status(fiber.StatusConflict).JSON(fiber.Map{
		"error": "a request with this idempotency key is still being processed, please retry shortly",
		"kind":  KindIdempotencyInProgress,
	})
}

func logStoreFailure(c *fiber.Ctx, err error, msg string) {
	log.Error().
		Err(err).
		Str("request_id", c.GetRespHeader(fiber.HeaderXRequestID)).
		Str("path", c.Path()).
		Msg(msg)
}

func storeUnavailable(c *fiber.Ctx) error {
	return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
		"error": "idempotency store unavailable, please retry",
		"kind":  "SERVER_ERROR",
	})
}

func decodeRecord(payload string) (*idempotencyRecord, error) {
	var record idempotencyRecord
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func writeStoredResponse(c *fiber.Ctx, record *idempotencyRecord) error {
	body, err := base64.StdEncoding.DecodeString(record.Body)
	if err != nil {
		return storeUnavailable(c)
	}
	if record.ContentType != "" {
		c.Set(fiber.HeaderContentType, record.ContentType)
	}
	c.Set(HeaderIdempotentReplay, "true")
	return c.Status(record.Status).Send(body)
}

func hashBody(payload []byte) string {
	sum := sha256.Sum256(payload)
	return base64.StdEncoding.EncodeToString(sum[:])
}
