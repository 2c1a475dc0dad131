// Package fallback supplies gift listings when the sheet cannot be read.
package fallback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"casamento-presentes/internal/models"
)

const (
	PolicyStatic        = "static"
	PolicyLastKnownGood = "last-known-good"
)

// Static always serves the same list.
type Static struct {
	gifts []models.GiftRecord
}

func NewStatic(gifts []models.GiftRecord) *Static {
	return &Static{gifts: publicCopy(gifts)}
}

// LoadFile reads a JSON array of gift records.
func LoadFile(path string) ([]models.GiftRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var gifts []models.GiftRecord
	if err := json.Unmarshal(data, &gifts); err != nil {
		return nil, fmt.Errorf("fallback file %s: %w", path, err)
	}
	return gifts, nil
}

func (s *Static) Name() string { return PolicyStatic }

func (s *Static) Remember(context.Context, []models.GiftRecord) error { return nil }

func (s *Static) Recall(context.Context) ([]models.GiftRecord, error) {
	return publicCopy(s.gifts), nil
}

// Cache stores the last good listing.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// LastKnownGood serves the most recent successful listing, and the static list when
// nothing was remembered yet.
type LastKnownGood struct {
	cache  Cache
	static *Static
	key    string
	ttl    time.Duration
}

func NewLastKnownGood(cache Cache, static *Static, ttl time.Duration) *LastKnownGood {
	return &LastKnownGood{cache: cache, static: static, key: "gifts:last-known-good", ttl: ttl}
}

func (l *LastKnownGood) Name() string { return PolicyLastKnownGood }

func (l *LastKnownGood) Remember(ctx context.Context, gifts []models.GiftRecord) error {
	data, err := json.Marshal(publicCopy(gifts))
	if err != nil {
		return err
	}
	return l.cache.Set(ctx, l.key, data, l.ttl)
}

func (l *LastKnownGood) Recall(ctx context.Context) ([]models.GiftRecord, error) {
	data, ok, err := l.cache.Get(ctx, l.key)
	if err != nil || !ok {
		static, serr := l.static.Recall(ctx)
		return static, errors.Join(err, serr)
	}

	var gifts []models.GiftRecord
	if err := json.Unmarshal(data, &gifts); err != nil {
		static, _ := l.static.Recall(ctx)
		return static, fmt.Errorf("decoding cached gifts: %w", err)
	}
	return gifts, nil
}

func publicCopy(gifts []models.GiftRecord) []models.GiftRecord {
	out := make([]models.GiftRecord, len(gifts))
	for i, g := range gifts {
		out[i] = g.Public()
	}
	return out
}
