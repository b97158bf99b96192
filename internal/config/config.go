package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Env              string        `mapstructure:"ENV"`
	Port             string        `mapstructure:"PORT"`
	DatabaseURL      string        `mapstructure:"DATABASE_URL"`
	AdminKey         string        `mapstructure:"ADMIN_KEY"`
	OllamaURL        string        `mapstructure:"OLLAMA_URL"`
	OllamaModel      string        `mapstructure:"OLLAMA_MODEL"`
	OllamaTimeout    time.Duration `mapstructure:"OLLAMA_TIMEOUT"`
	SMTPHost         string        `mapstructure:"SMTP_HOST"`
	SMTPPort         int           `mapstructure:"SMTP_PORT"`
	SMTPUser         string        `mapstructure:"SMTP_USER"`
	SMTPPassword     string        `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom         string        `mapstructure:"SMTP_FROM"`
	ReportRecipients string        `mapstructure:"REPORT_RECIPIENTS"`
	ReportCron       string        `mapstructure:"REPORT_CRON"`
	CORSAllowed      string        `mapstructure:"CORS_ALLOWED_ORIGINS"`
	RequestTimeout   time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	LogLevel         string        `mapstructure:"LOG_LEVEL"`
}

func Load() (Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	_ = v.ReadInConfig()

	v.SetDefault("ENV", "dev")
	v.SetDefault("PORT", "8080")
	v.SetDefault("OLLAMA_MODEL", "llama3")
	v.SetDefault("OLLAMA_TIMEOUT", "45s")
	v.SetDefault("SMTP_PORT", 587)
	// Monday 08:00, matching the weekly review meeting cadence.
	v.SetDefault("REPORT_CRON", "0 8 * * 1")
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CORS_ALLOWED_ORIGINS", "*")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Recipients splits REPORT_RECIPIENTS into trimmed, non-empty addresses.
func (c Config) Recipients() []string {
	parts := strings.Split(c.ReportRecipients, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
