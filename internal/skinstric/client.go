// Package skinstric is the client for the two remote Skinstric inference
// endpoints: phase one (name and location) and phase two (image demographics).
package skinstric

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/microcosm-cc/bluemonday"
	"github.com/tidwall/gjson"

	"github.com/skinstric/onboarding/internal/config"
	"github.com/skinstric/onboarding/internal/validation"
)

// networkErrorMessage is shown when a request never produced a response.
const networkErrorMessage = "Network error occurred"

// Client calls the Skinstric cloud functions.
type Client struct {
	phaseOneURL string
	phaseTwoURL string
	httpClient  *http.Client
	captureDir  string
	sanitizer   *bluemonday.Policy
}

// NewClient creates a client from configuration.
func NewClient(cfg config.APIConfig) (*Client, error) {
	for _, raw := range []string{cfg.PhaseOneURL, cfg.PhaseTwoURL} {
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid endpoint URL %q: %w", raw, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return nil, fmt.Errorf("invalid endpoint URL %q: scheme must be http or https", raw)
		}
	}

	c := &Client{
		phaseOneURL: cfg.PhaseOneURL,
		phaseTwoURL: cfg.PhaseTwoURL,
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		sanitizer:   bluemonday.StrictPolicy(),
	}
	if err := c.SetCaptureDir(cfg.CaptureDir); err != nil {
		return nil, err
	}
	return c, nil
}

// SubmitPhaseOne posts the name and location. Failures are reported in the
// returned Result, never as a panic or error value.
func (c *Client) SubmitPhaseOne(ctx context.Context, data validation.FormData) Result {
	body, err := c.postJSON(ctx, "phase_one", c.phaseOneURL, phaseOneRequest{
		Name:     data.Name,
		Location: data.Location,
	})
	if err != nil {
		return Result{Error: failureMessage(err), Err: err}
	}

	if !json.Valid(body) {
		err := errors.New("response body is not valid JSON")
		return Result{Error: "Unexpected response from server", Err: err}
	}

	return Result{Success: true, Data: json.RawMessage(body)}
}

// failureMessage maps a request error to the text shown to users.
func failureMessage(err error) string {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Error()
	}
	return networkErrorMessage
}

// AnalyzeImage posts a base64 encoded image and returns the inferred
// distributions. Every error wraps ErrAnalysisFailed.
func (c *Client) AnalyzeImage(ctx context.Context, imageBase64 string) (*PhaseTwoResponse, error) {
	if imageBase64 == "" {
		return nil, fmt.Errorf("%w: image is empty", ErrAnalysisFailed)
	}

	body, err := c.postJSON(ctx, "phase_two", c.phaseTwoURL, phaseTwoRequest{Image: imageBase64})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}

	resp, err := ParsePhaseTwo(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysisFailed, err)
	}
	return resp, nil
}

// ParsePhaseTwo decodes a phase two body, keeping the key order of every
// category so that equal weights keep their response order later on.
func ParsePhaseTwo(body []byte) (*PhaseTwoResponse, error) {
	if !gjson.ValidBytes(body) {
		return nil, errors.New("response body is not valid JSON")
	}

	root := gjson.ParseBytes(body)
	data := root.Get("data")
	if !data.IsObject() {
		return nil, errors.New("response has no data object")
	}

	resp := &PhaseTwoResponse{Message: root.Get("message").String()}
	for _, field := range []struct {
		name   string
		target *Weights
	}{
		{"race", &resp.Data.Race},
		{"age", &resp.Data.Age},
		{"gender", &resp.Data.Gender},
	} {
		weights, err := parseWeights(data.Get(field.name))
		if err != nil {
			return nil, fmt.Errorf("data.%s: %w", field.name, err)
		}
		*field.target = weights
	}
	return resp, nil
}

func parseWeights(obj gjson.Result) (Weights, error) {
	if !obj.Exists() {
		return nil, nil
	}
	if !obj.IsObject() {
		return nil, errors.New("expected an object of weights")
	}

	var (
		weights Weights
		err     error
	)
	obj.ForEach(func(key, value gjson.Result) bool {
		if value.Type != gjson.Number {
			err = fmt.Errorf("weight for %q is not a number", key.String())
			return false
		}
		weights = append(weights, Weight{Key: key.String(), Weight: value.Float()})
		return true
	})
	if err != nil {
		return nil, err
	}
	return weights, nil
}
