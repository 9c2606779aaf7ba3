package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/skinstric/onboarding/internal/config"
	"github.com/skinstric/onboarding/internal/demographics"
	"github.com/skinstric/onboarding/internal/validation"
)

func testStoreConfig() config.StoreConfig {
	return config.StoreConfig{MaxOpenConns: 2, MaxIdleConns: 1, SessionTTL: time.Hour}
}

// failingBackend fails every write.
type failingBackend struct {
	*Memory
}

func (failingBackend) Put(context.Context, string, string, []byte, time.Duration) error {
	return errors.New("quota exceeded")
}

func TestVisitor_PhaseOne(t *testing.T) {
	ctx := context.Background()
	v := New(NewMemory(), time.Hour, nil).Visitor("visitor-1")

	if got := v.PhaseOne(ctx); got != (validation.FormData{}) {
		t.Errorf("PhaseOne() on empty store = %+v", got)
	}

	want := validation.FormData{Name: "Ada", Location: "London"}
	v.SavePhaseOne(ctx, want)
	if got := v.PhaseOne(ctx); got != want {
		t.Errorf("PhaseOne() = %+v, want %+v", got, want)
	}
}

func TestVisitor_SaveSwallowsErrors(t *testing.T) {
	ctx := context.Background()
	v := New(failingBackend{NewMemory()}, time.Hour, nil).Visitor("visitor-1")

	// Must not panic or surface the error.
	v.SavePhaseOne(ctx, validation.FormData{Name: "Ada"})

	if got := v.PhaseOne(ctx); got != (validation.FormData{}) {
		t.Errorf("PhaseOne() = %+v, want zero", got)
	}
	if err := v.SaveImage(ctx, "abc"); err == nil {
		t.Error("SaveImage() should report backend errors")
	}
}

func TestVisitor_CorruptValueReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Put(ctx, "visitor-1", KeyPhaseOne, []byte("{not json"), 0)

	v := New(m, time.Hour, nil).Visitor("visitor-1")
	if got := v.PhaseOne(ctx); got != (validation.FormData{}) {
		t.Errorf("PhaseOne() = %+v, want zero", got)
	}
}

func TestVisitor_ShortLivedKeys(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := NewMemory()
	m.now = c.now
	v := New(m, time.Hour, nil).Visitor("visitor-1")

	if _, ok := v.Image(ctx); ok {
		t.Error("Image() should be absent initially")
	}
	if err := v.SaveImage(ctx, "aGVsbG8="); err != nil {
		t.Fatalf("SaveImage() error = %v", err)
	}
	picks := demographics.Picks{Race: demographics.Pick{Label: "White", Value: 10}}
	if err := v.SaveDemographics(ctx, picks); err != nil {
		t.Fatalf("SaveDemographics() error = %v", err)
	}
	v.SavePhaseOne(ctx, validation.FormData{Name: "Ada", Location: "London"})

	if img, ok := v.Image(ctx); !ok || img != "aGVsbG8=" {
		t.Errorf("Image() = %q, %v", img, ok)
	}
	if got, ok := v.Demographics(ctx); !ok || got != picks {
		t.Errorf("Demographics() = %+v, %v", got, ok)
	}

	c.t = c.t.Add(2 * time.Hour)
	if _, ok := v.Image(ctx); ok {
		t.Error("Image() should expire with the session")
	}
	if _, ok := v.Demographics(ctx); ok {
		t.Error("Demographics() should expire with the session")
	}
	if v.PhaseOne(ctx).Name != "Ada" {
		t.Error("PhaseOne() should outlive the session")
	}
}
