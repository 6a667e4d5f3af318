// Package config loads the explorer's YAML configuration.
//
// The file is decoded with yaml.v3, environment overrides are applied, and
// the result is unified with an embedded CUE schema that supplies defaults
// and rejects unknown or malformed settings.
package config

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"gopkg.in/yaml.v3"

	"github.com/roach88/dxexplorer/internal/client"
	"github.com/roach88/dxexplorer/internal/logging"
)

//go:embed schema.cue
var schemaCUE string

// DefaultPath is the config file read when no path is given.
const DefaultPath = "dx_api_explorer_config.yaml"

// Environment variables that override file settings.
const (
	EnvServer       = "DX_SERVER"
	EnvClientSecret = "DX_CLIENT_SECRET"
	EnvPassword     = "DX_PASSWORD"
)

// Config is the validated explorer configuration.
type Config struct {
	Server    string `json:"server" yaml:"server"`
	DXAPIPath string `json:"dx_api_path" yaml:"dx_api_path"`
	OAuth2    OAuth2 `json:"oauth2" yaml:"oauth2"`
	Journal   string `json:"journal,omitempty" yaml:"journal,omitempty"`
	LogMode   string `json:"log_mode" yaml:"log_mode"`
	Timeout   string `json:"timeout" yaml:"timeout"`
	MaxCalls  int    `json:"max_calls" yaml:"max_calls"`
}

// OAuth2 holds the client registration and user credentials.
type OAuth2 struct {
	TokenEndpoint         string `json:"token_endpoint" yaml:"token_endpoint"`
	AuthorizationEndpoint string `json:"authorization_endpoint,omitempty" yaml:"authorization_endpoint,omitempty"`
	ClientID              string `json:"client_id" yaml:"client_id"`
	ClientSecret          string `json:"client_secret" yaml:"client_secret"`
	UserID                string `json:"user_id" yaml:"user_id"`
	Password              string `json:"password" yaml:"password"`
	GrantType             string `json:"grant_type" yaml:"grant_type"`
	RedirectURI           string `json:"redirect_uri" yaml:"redirect_uri"`
}

// Load reads and validates the config file at path, applying environment
// overrides from os.Getenv.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data, os.Getenv)
}

// Parse validates YAML config data. getenv supplies environment overrides;
// nil disables them.
func Parse(data []byte, getenv func(string) string) (*Config, error) {
	raw := map[string]any{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, &ValidationError{Field: "yaml", Message: err.Error()}
	}
	if raw == nil {
		raw = map[string]any{}
	}
	if getenv != nil {
		applyEnv(raw, getenv)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile config schema: %w", err)
	}

	v := schema.LookupPath(cue.ParsePath("#Config")).Unify(ctx.Encode(raw))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var cfg Config
	if err := v.Decode(&cfg); err != nil {
		return nil, formatCUEError(err)
	}
	if _, err := time.ParseDuration(cfg.Timeout); err != nil {
		return nil, &ValidationError{Field: "timeout", Message: err.Error()}
	}
	return &cfg, nil
}

// applyEnv overlays environment overrides onto the decoded YAML.
func applyEnv(raw map[string]any, getenv func(string) string) {
	if v := getenv(EnvServer); v != "" {
		raw["server"] = v
	}
	oauth, _ := raw["oauth2"].(map[string]any)
	set := func(key, env string) {
		if v := getenv(env); v != "" {
			if oauth == nil {
				oauth = map[string]any{}
				raw["oauth2"] = oauth
			}
			oauth[key] = v
		}
	}
	set("client_secret", EnvClientSecret)
	set("password", EnvPassword)
}

// TimeoutDuration returns the parsed request timeout.
func (c *Config) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return client.DefaultTimeout
	}
	return d
}

// ClientOptions returns the transport settings for this config.
func (c *Config) ClientOptions(logger *logging.Logger) client.Options {
	return client.Options{
		Server:        c.Server,
		APIPath:       c.DXAPIPath,
		TokenEndpoint: c.OAuth2.TokenEndpoint,
		ClientID:      c.OAuth2.ClientID,
		ClientSecret:  c.OAuth2.ClientSecret,
		UserID:        c.OAuth2.UserID,
		Password:      c.OAuth2.Password,
		Timeout:       c.TimeoutDuration(),
		Logger:        logger,
	}
}

// Redacted returns a copy safe to print.
func (c *Config) Redacted() Config {
	out := *c
	if out.OAuth2.ClientSecret != "" {
		out.OAuth2.ClientSecret = "[REDACTED]"
	}
	if out.OAuth2.Password != "" {
		out.OAuth2.Password = "[REDACTED]"
	}
	return out
}
