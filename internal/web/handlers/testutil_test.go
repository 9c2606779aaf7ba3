package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/skinstric/onboarding/internal/config"
	"github.com/skinstric/onboarding/internal/skinstric"
	"github.com/skinstric/onboarding/internal/store"
	"github.com/skinstric/onboarding/internal/validation"
	"github.com/skinstric/onboarding/internal/web/middleware"
)

const testVisitor = "6f1c2a0e-3b7d-4c8e-9a51-0d2f4e6b8c10"

// testConfig creates a minimal config for testing
func testConfig() *config.Config {
	return &config.Config{
		Store: config.StoreConfig{SessionTTL: time.Hour},
		Flow: config.FlowConfig{
			MaxImageSize:   64,
			MaxUploadBytes: 1 << 20,
		},
		Content: config.LoadContent(),
	}
}

// fakeRemote stands in for the Skinstric endpoints.
type fakeRemote struct {
	mu         sync.Mutex
	submitted  []validation.FormData
	result     skinstric.Result
	analyzed   int
	lastImage  string
	analysis   *skinstric.PhaseTwoResponse
	analyzeErr error
}

func (f *fakeRemote) SubmitPhaseOne(ctx context.Context, data validation.FormData) skinstric.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitted = append(f.submitted, data)
	return f.result
}

func (f *fakeRemote) AnalyzeImage(ctx context.Context, imageBase64 string) (*skinstric.PhaseTwoResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.analyzed++
	f.lastImage = imageBase64
	return f.analysis, f.analyzeErr
}

func sampleAnalysis() *skinstric.PhaseTwoResponse {
	return &skinstric.PhaseTwoResponse{
		Message: "ok",
		Data: skinstric.Demographics{
			Race:   skinstric.Weights{{Key: "white", Weight: 0.2}, {Key: "east_asian", Weight: 0.7}, {Key: "black", Weight: 0.1}},
			Age:    skinstric.Weights{{Key: "20-29", Weight: 0.6}, {Key: "30-39", Weight: 0.4}},
			Gender: skinstric.Weights{{Key: "female", Weight: 0.9}, {Key: "male", Weight: 0.1}},
		},
	}
}

// newTestDeps wires handlers to an in-memory store and a fake remote.
func newTestDeps(t *testing.T) (*Deps, *fakeRemote) {
	t.Helper()
	remote := &fakeRemote{
		result:   skinstric.Result{Success: true, Data: []byte(`{"success":true}`)},
		analysis: sampleAnalysis(),
	}
	d := &Deps{
		Config:    testConfig(),
		Store:     store.New(store.NewMemory(), time.Hour, nil),
		Submitter: remote,
		Analyzer:  remote,
		Flows:     NewFlows(),
		Logger:    zap.NewNop(),
	}
	t.Cleanup(d.Flows.Wait)
	return d, remote
}

// asVisitor returns r carrying the test visitor id.
func asVisitor(r *http.Request) *http.Request {
	return r.WithContext(middleware.SetVisitorInContext(r.Context(), testVisitor))
}

// formRequest builds a urlencoded POST for the test visitor.
func formRequest(path string, values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return asVisitor(req)
}

// jsonRequest builds a JSON POST for the test visitor.
func jsonRequest(path, body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return asVisitor(req)
}

func getRequest(path string) *http.Request {
	return asVisitor(httptest.NewRequest(http.MethodGet, path, nil))
}

func serve(h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h(rec, r)
	return rec
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: 200, G: uint8(y), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func pngBase64(t *testing.T, w, h int) string {
	return base64.StdEncoding.EncodeToString(pngBytes(t, w, h))
}

func body(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	b, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return string(b)
}
