package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/congo-pay/datatopup/internal/session"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	idempotencyPrefix    = "idempotency:v2:"
	inProgressMarker     = "__in_progress__"
	idempotencyTimeout   = 2 * time.Second
)

// replay is the response remembered for an idempotency key. Route pins the
// key to the request it was first used with.
type replay struct {
	Route       string `json:"route"`
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Body        []byte `json:"body"`
}

// Idempotency replays the remembered response when a mutating request repeats
// its Idempotency-Key header. Keys are scoped to the signed-in user and pinned
// to the first method and path they were used with. Requests without the
// header pass through. Server errors are not remembered so the caller can
// retry with the same key.
func Idempotency(cache *redis.Client, ttl time.Duration, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodGet, fiber.MethodHead, fiber.MethodOptions:
			return c.Next()
		}
		key := c.Get(idempotencyKeyHeader)
		if key == "" {
			return c.Next()
		}

		owner := "anonymous"
		if s, ok := session.FromContext(c); ok {
			owner = s.User.ID
		}
		cacheKey := idempotencyPrefix + owner + ":" + key
		route := c.Method() + " " + c.Path()
		log := logger.With(slog.String("idempotency_key", key), slog.String("route", route))

		ctx, cancel := context.WithTimeout(c.UserContext(), idempotencyTimeout)
		defer cancel()

		reserved, err := cache.SetNX(ctx, cacheKey, inProgressMarker, ttl).Result()
		if err != nil {
			log.Error("idempotency reservation failed", slog.Any("error", err))
			return fiber.NewError(fiber.StatusServiceUnavailable, "idempotency store unavailable")
		}
		if !reserved {
			return replayStored(ctx, c, cache, cacheKey, route, log)
		}

		release := func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), idempotencyTimeout)
			defer cancel()
			if err := cache.Del(releaseCtx, cacheKey).Err(); err != nil {
				log.Warn("idempotency release failed", slog.Any("error", err))
			}
		}

		if err := c.Next(); err != nil {
			release()
			return err
		}

		status := c.Response().StatusCode()
		if status >= fiber.StatusInternalServerError {
			release()
			return nil
		}

		payload, err := json.Marshal(replay{
			Route:       route,
			Status:      status,
			ContentType: string(c.Response().Header.ContentType()),
			Body:        append([]byte(nil), c.Response().Body()...),
		})
		if err == nil {
			saveCtx, cancel := context.WithTimeout(context.Background(), idempotencyTimeout)
			defer cancel()
			err = cache.Set(saveCtx, cacheKey, payload, ttl).Err()
		}
		if err != nil {
			// The handler already ran; the caller still gets its response.
			log.Error("idempotency persistence failed", slog.Any("error", err))
			release()
		}
		return nil
	}
}

func replayStored(ctx context.Context, c *fiber.Ctx, cache *redis.Client, cacheKey, route string, log *slog.Logger) error {
	raw, err := cache.Get(ctx, cacheKey).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		// Released between SetNX and Get; treat as still running.
		return fiber.NewError(fiber.StatusConflict, "duplicate request currently processing")
	case err != nil:
		log.Error("idempotency lookup failed", slog.Any("error", err))
		return fiber.NewError(fiber.StatusServiceUnavailable, "idempotency store unavailable")
	case string(raw) == inProgressMarker:
		return fiber.NewError(fiber.StatusConflict, "duplicate request currently processing")
	}

	var stored replay
	if err := json.Unmarshal(raw, &stored); err != nil {
		log.Warn("stored idempotent response unreadable", slog.Any("error", err))
		return fiber.NewError(fiber.StatusConflict, "duplicate request")
	}
	if stored.Route != route {
		return fiber.NewError(fiber.StatusUnprocessableEntity, "idempotency key reused for a different request")
	}

	if stored.ContentType != "" {
		c.Set(fiber.HeaderContentType, stored.ContentType)
	}
	c.Set("Idempotent-Replayed", "true")
	return c.Status(stored.Status).Send(stored.Body)
}
