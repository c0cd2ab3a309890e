package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"

	"mediadl-server/internal/models"
)

const (
	historyKey = "mediadl:history"
	entryTTL   = 24 * time.Hour
)

// Store mirrors terminal job outcomes to Redis so history survives restarts.
// It is strictly best-effort: a nil *Store is valid and every method is a
// no-op on it, which is what New returns when Redis is unreachable.
type Store struct {
	client *redis.Client
	logger *slog.Logger
}

// New connects to Redis at addr. An empty addr or a failed ping disables the
// mirror and the server runs purely in-memory.
func New(ctx context.Context, addr string, logger *slog.Logger) *Store {
	if addr == "" {
		return nil
	}
	if logger == nil {
		logger = slog.Default()
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, history mirror disabled", "addr", addr, "err", err)
		_ = client.Close()
		return nil
	}

	logger.Info("redis connected, history mirror enabled", "addr", addr)
	return &Store{client: client, logger: logger.With("component", "store")}
}

// SaveEntry mirrors one terminal outcome: a per-job key with TTL plus a
// bounded list for boot-time warmup.
func (s *Store) SaveEntry(ctx context.Context, e models.HistoryEntry, limit int) {
	if s == nil {
		return
	}

	data, err := json.Marshal(e)
	if err != nil {
		s.logger.Error("marshal history entry", "id", e.DownloadID, "err", err)
		return
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, fmt.Sprintf("mediadl:job:%s", e.DownloadID), data, entryTTL)
	pipe.LPush(ctx, historyKey, data)
	if limit > 0 {
		pipe.LTrim(ctx, historyKey, 0, int64(limit-1))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn("mirror history entry", "id", e.DownloadID, "err", err)
	}
}

// LoadHistory returns up to limit mirrored entries in chronological order,
// oldest first. Nil on any failure; the in-memory ring simply starts empty.
func (s *Store) LoadHistory(ctx context.Context, limit int) []models.HistoryEntry {
	if s == nil {
		return nil
	}

	end := int64(-1)
	if limit > 0 {
		end = int64(limit - 1)
	}
	raw, err := s.client.LRange(ctx, historyKey, 0, end).Result()
	if err != nil {
		s.logger.Warn("load mirrored history", "err", err)
		return nil
	}

	// LPUSH stores newest first; reverse into chronological order.
	out := make([]models.HistoryEntry, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var e models.HistoryEntry
		if err := json.Unmarshal([]byte(raw[i]), &e); err != nil {
			continue
		}
		out = append(out, e)
	}
	return out
}

// ClearHistory drops the mirrored list.
func (s *Store) ClearHistory(ctx context.Context) {
	if s == nil {
		return
	}
	if err := s.client.Del(ctx, historyKey).Err(); err != nil {
		s.logger.Warn("clear mirrored history", "err", err)
	}
}

// Close releases the client connection.
func (s *Store) Close() {
	if s == nil {
		return
	}
	_ = s.client.Close()
}
