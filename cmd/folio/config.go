package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/eringen/folio"
)

// configKeys lists every SiteConfig key with the legacy environment variables
// it also answers to. FOLIO_<KEY> always wins.
var configKeys = []struct {
	key    string
	legacy []string
}{
	{"name", []string{"SITE_NAME"}},
	{"url", []string{"SITE_URL"}},
	{"description", []string{"SITE_DESCRIPTION"}},
	{"author", []string{"SITE_AUTHOR"}},
	{"addr", nil},
	{"database_path", []string{"DATABASE_PATH"}},
	{"log_level", nil},
	{"admin_password", []string{"ADMIN_PASSWORD"}},
	{"session_secret", []string{"ADMIN_SESSION_SECRET"}},
	{"cookie_secure", []string{"COOKIE_SECURE"}},
	{"content_dir", nil},
	{"media_dir", nil},
	{"media_base_url", nil},
	{"inline_media", nil},
	{"strict_images", nil},
	{"sanitize_html", nil},
	{"posts_per_topic", nil},
	{"default_topic", nil},
	{"cache_ttl", nil},
	{"render_cache_size", nil},
}

// loadConfig reads the optional config file, then the environment. An
// explicit path that cannot be read is an error; a missing ./folio.yaml is
// not.
func loadConfig(path string) (folio.SiteConfig, error) {
	v := viper.New()

	v.SetDefault("addr", ":3000")
	v.SetDefault("database_path", "data/folio.db")
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("FOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	for _, k := range configKeys {
		names := append([]string{k.key, "FOLIO_" + strings.ToUpper(k.key)}, k.legacy...)
		if err := v.BindEnv(names...); err != nil {
			return folio.SiteConfig{}, err
		}
	}

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("folio")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return folio.SiteConfig{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg folio.SiteConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return folio.SiteConfig{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.URL = strings.TrimSuffix(cfg.URL, "/")
	return cfg, nil
}
