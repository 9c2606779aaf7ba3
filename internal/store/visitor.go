package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/skinstric/onboarding/internal/demographics"
	"github.com/skinstric/onboarding/internal/logging"
	"github.com/skinstric/onboarding/internal/validation"
)

// Well-known keys.
const (
	KeyPhaseOne     = "skinstric.phase1"       // long-lived
	KeyImage        = "skinstric:image_base64" // short-lived
	KeyDemographics = "skinstric:demographics" // short-lived
)

// Store hands out per-visitor views of a Backend.
type Store struct {
	backend    Backend
	sessionTTL time.Duration
	logger     *zap.Logger
}

// New wraps backend. Short-lived keys expire after sessionTTL.
func New(backend Backend, sessionTTL time.Duration, logger *zap.Logger) *Store {
	return &Store{
		backend:    backend,
		sessionTTL: sessionTTL,
		logger:     logging.OrNop(logger),
	}
}

// Backend returns the underlying backend.
func (s *Store) Backend() Backend {
	return s.backend
}

// Visitor returns the typed view for one visitor.
func (s *Store) Visitor(id string) *Visitor {
	return &Visitor{store: s, id: id}
}

// Visitor reads and writes the values of a single visitor.
type Visitor struct {
	store *Store
	id    string
}

// ID returns the visitor id.
func (v *Visitor) ID() string {
	return v.id
}

// getJSON decodes key into target. Absent or unreadable values return false.
func (v *Visitor) getJSON(ctx context.Context, key string, target any) bool {
	raw, err := v.store.backend.Get(ctx, v.id, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			v.store.logger.Warn("Failed to read from store",
				zap.String("visitor", v.id), zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, target); err != nil {
		v.store.logger.Warn("Discarding unreadable stored value",
			zap.String("visitor", v.id), zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// putJSON serializes and stores value.
func (v *Visitor) putJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := v.store.backend.Put(ctx, v.id, key, raw, ttl); err != nil {
		return fmt.Errorf("store %s: %w", key, err)
	}
	return nil
}

// SaveJSON serializes and stores value, logging and swallowing any failure.
// Storage problems never block the flow.
func (v *Visitor) SaveJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	if err := v.putJSON(ctx, key, value, ttl); err != nil {
		v.store.logger.Warn("Failed to save to store",
			zap.String("visitor", v.id), zap.String("key", key), zap.Error(err))
	}
}

// PhaseOne returns the persisted name and location, zero when absent.
func (v *Visitor) PhaseOne(ctx context.Context) validation.FormData {
	var data validation.FormData
	v.getJSON(ctx, KeyPhaseOne, &data)
	return data
}

// SavePhaseOne persists the form without expiry. Failures are logged only.
func (v *Visitor) SavePhaseOne(ctx context.Context, data validation.FormData) {
	v.SaveJSON(ctx, KeyPhaseOne, data, 0)
}

// Image returns the base64 image payload captured for analysis.
func (v *Visitor) Image(ctx context.Context) (string, bool) {
	var image string
	if !v.getJSON(ctx, KeyImage, &image) || image == "" {
		return "", false
	}
	return image, true
}

// SaveImage stores the base64 image payload for the rest of the session.
func (v *Visitor) SaveImage(ctx context.Context, imageBase64 string) error {
	return v.putJSON(ctx, KeyImage, imageBase64, v.store.sessionTTL)
}

// Demographics returns the confirmed picks.
func (v *Visitor) Demographics(ctx context.Context) (demographics.Picks, bool) {
	var picks demographics.Picks
	ok := v.getJSON(ctx, KeyDemographics, &picks)
	return picks, ok
}

// SaveDemographics stores the confirmed picks for the rest of the session.
func (v *Visitor) SaveDemographics(ctx context.Context, picks demographics.Picks) error {
	return v.putJSON(ctx, KeyDemographics, picks, v.store.sessionTTL)
}
