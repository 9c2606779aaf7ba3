package config

import (
	_ "embed"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

//go:embed content.yaml
var contentYAML []byte

type Config struct {
	API     APIConfig
	Store   StoreConfig
	Web     WebConfig
	Flow    FlowConfig
	Content Content
}

type APIConfig struct {
	PhaseOneURL string        `env:"SKINSTRIC_PHASE_ONE_URL" envDefault:"https://us-central1-api-skinstric-ai.cloudfunctions.net/skinstricPhaseOne"`
	PhaseTwoURL string        `env:"SKINSTRIC_PHASE_TWO_URL" envDefault:"https://us-central1-frontend-simplified.cloudfunctions.net/skinstricPhaseTwo"`
	Timeout     time.Duration `env:"SKINSTRIC_HTTP_TIMEOUT"  envDefault:"30s"`
	CaptureDir  string        // set from the --capture flag
}

type StoreConfig struct {
	URL          string        `env:"SKINSTRIC_STORE_URL"            envDefault:"memory:"`
	MaxOpenConns int           `env:"SKINSTRIC_STORE_MAX_OPEN_CONNS" envDefault:"10"`
	MaxIdleConns int           `env:"SKINSTRIC_STORE_MAX_IDLE_CONNS" envDefault:"2"`
	SessionTTL   time.Duration `env:"SKINSTRIC_SESSION_TTL"          envDefault:"2h"` // lifetime of short-lived keys
	SweepEvery   time.Duration `env:"SKINSTRIC_STORE_SWEEP_INTERVAL" envDefault:"10m"`
}

type WebConfig struct {
	Host           string        `env:"WEB_HOST"            envDefault:"0.0.0.0"`
	Port           int           `env:"WEB_PORT"            envDefault:"8080"`
	SessionSecret  string        `env:"WEB_SESSION_SECRET"`
	SecureCookies  bool          `env:"WEB_SECURE_COOKIES"`
	VisitorMaxAge  time.Duration `env:"WEB_VISITOR_MAX_AGE" envDefault:"8760h"` // visitor cookie lifetime, outlives SessionTTL
	AllowedOrigins []string      `env:"WEB_ALLOWED_ORIGINS" envSeparator:","`
}

type FlowConfig struct {
	FeedbackDelay      time.Duration `env:"SKINSTRIC_FEEDBACK_DELAY"       envDefault:"1500ms"`
	CameraPrepareDelay time.Duration `env:"SKINSTRIC_CAMERA_PREPARE_DELAY" envDefault:"300ms"`
	AnalyzingDelay     time.Duration `env:"SKINSTRIC_ANALYZING_DELAY"      envDefault:"2s"`
	MaxImageSize       int           `env:"SKINSTRIC_MAX_IMAGE_SIZE"       envDefault:"1024"`
	MaxUploadBytes     int64         `env:"SKINSTRIC_MAX_UPLOAD_BYTES"     envDefault:"10485760"`
}

// Content is the page copy embedded from content.yaml.
type Content struct {
	Steps []StepContent          `yaml:"steps"`
	Pages map[string]PageContent `yaml:"pages"`
}

type StepContent struct {
	Key         string `yaml:"key"`
	Placeholder string `yaml:"placeholder"`
}

// PageContent maps copy keys (title, kicker, ...) to text.
type PageContent map[string]string

// Page returns the copy for a page, never nil.
func (c Content) Page(name string) PageContent {
	if p, ok := c.Pages[name]; ok {
		return p
	}
	return PageContent{}
}

// Placeholder returns the placeholder text for the given step key.
func (c Content) Placeholder(key string) string {
	for _, s := range c.Steps {
		if s.Key == key {
			return s.Placeholder
		}
	}
	return ""
}

// LoadContent parses the embedded page copy.
func LoadContent() Content {
	var content Content
	if err := yaml.Unmarshal(contentYAML, &content); err != nil {
		// Embedded file; a failure here is a build defect.
		panic("failed to unmarshal embedded content.yaml: " + err.Error())
	}
	return content
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{Content: LoadContent()}
	for _, target := range []any{&cfg.API, &cfg.Store, &cfg.Web, &cfg.Flow} {
		if err := env.Parse(target); err != nil {
			return nil, fmt.Errorf("parse env: %w", err)
		}
	}
	return cfg, nil
}

// Addr returns host:port for the web server.
func (w WebConfig) Addr() string {
	return fmt.Sprintf("%s:%d", w.Host, w.Port)
}
