package pbadmin

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/vcslav-v/pb-admin/lib/configutil"
	"github.com/vcslav-v/pb-admin/lib/nova"
)

type BasicAuth struct {
	User     string `json:"user" env:"PB_BASIC_USER"`
	Password string `json:"password" env:"PB_BASIC_PASSWORD"`
}

// Config is the shape of pbadmin.json5. Every credential can also come from
// the environment, which takes precedence over the file.
type Config struct {
	SiteURL   string    `json:"site_url" env:"SITE_URL"`
	Login     string    `json:"login" env:"PB_LOGIN"`
	Password  string    `json:"password" env:"PB_PASSWORD"`
	BasicAuth BasicAuth `json:"basic_auth"`

	// EditMode allows state-changing operations.
	EditMode bool `json:"edit_mode" env:"PB_EDIT_MODE"`

	// AttachDelayMs paces consecutive attach requests. Unset means
	// nova.DefaultAttachDelay, 0 disables pacing.
	AttachDelayMs *int `json:"attach_delay_ms"`

	TimeoutSeconds   int    `json:"timeout_seconds"`
	UserAgent        string `json:"user_agent"`
	CloudflareBypass bool   `json:"cloudflare_bypass"`
}

// LoadConfig reads path (and its .local override) when it exists and then
// applies the environment. An empty path reads the environment only.
func LoadConfig(path string) (Config, error) {
	var cfg Config
	if path != "" {
		var err error
		cfg, err = configutil.ReadConfig[Config](path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, err
		}
	}
	err := configutil.ApplyEnv(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read environment: %w", err)
	}
	return cfg, nil
}

func (c Config) AttachDelay() time.Duration {
	if c.AttachDelayMs == nil {
		return nova.DefaultAttachDelay
	}
	return time.Duration(*c.AttachDelayMs) * time.Millisecond
}

func (c Config) Validate() error {
	if c.SiteURL == "" {
		return &nova.ValidationError{Resource: "config", Reason: "site_url is required"}
	}
	if c.Login == "" || c.Password == "" {
		return &nova.ValidationError{Resource: "config", Reason: "login and password are required"}
	}
	if c.AttachDelayMs != nil && *c.AttachDelayMs < 0 {
		return &nova.ValidationError{Resource: "config", Reason: "attach_delay_ms must not be negative"}
	}
	return nil
}

func (c Config) Options() nova.Options {
	return nova.Options{
		BaseURL:           c.SiteURL,
		Login:             c.Login,
		Password:          c.Password,
		BasicAuthUser:     c.BasicAuth.User,
		BasicAuthPassword: c.BasicAuth.Password,
		WriteMode:         c.EditMode,
		AttachDelay:       c.AttachDelay(),
		Timeout:           time.Duration(c.TimeoutSeconds) * time.Second,
		UserAgent:         c.UserAgent,
		CloudflareBypass:  c.CloudflareBypass,
	}
}
