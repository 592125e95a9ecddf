package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Delivery modes supported by the mailer.
const (
	ModeSMTP  = "smtp"
	ModeRelay = "relay"
	ModeAPI   = "api"
	ModeLog   = "log"
)

const (
	defaultSMTPHost  = "smtp.gmail.com"
	defaultRelayHost = "smtp-relay.brevo.com"
	defaultBrevoURL  = "https://api.brevo.com/v3/smtp/email"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName         string
	AppEnv          string
	AppPort         string
	LogLevel        string
	AllowedOrigins  []string
	RedisURL        string
	DedupeTTL       time.Duration
	HealthInterval  time.Duration
	HealthThreshold int
	PublicURL       string
	SelfPingEvery   time.Duration
	Delivery        DeliveryConfig
}

// DeliveryConfig describes how outbound mail leaves the service. It is read-only after Load.
type DeliveryConfig struct {
	Mode             string
	Host             string
	Port             int
	Username         string
	Password         string
	APIKey           string
	APIURL           string
	SenderAddress    string
	SenderName       string
	RecipientAddress string
	RecipientName    string
	Acknowledge      bool
	Timeout          time.Duration
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// LocalURL is the loopback base URL used by the self-supervision probe.
func (c Config) LocalURL() string {
	return "http://127.0.0.1" + c.HTTPAddress()
}

// Missing lists the environment variables the selected mode needs but did not receive.
func (d DeliveryConfig) Missing() []string {
	var missing []string
	switch d.Mode {
	case ModeSMTP, ModeRelay:
		if d.Username == "" {
			missing = append(missing, "SMTP_USERNAME")
		}
		if d.Password == "" {
			missing = append(missing, "SMTP_PASSWORD")
		}
		if d.Host == "" {
			missing = append(missing, "SMTP_HOST")
		}
	case ModeAPI:
		if d.APIKey == "" {
			missing = append(missing, "BREVO_API_KEY")
		}
		if d.SenderAddress == "" {
			missing = append(missing, "MAIL_FROM")
		}
	}
	if d.RecipientAddress == "" && d.Mode != ModeLog {
		missing = append(missing, "RECIPIENT_EMAIL")
	}
	return missing
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Aliases keep the variable names of older deployments working.
	bindings := map[string][]string{
		"app.name":            {"APP_NAME"},
		"app.env":             {"APP_ENV"},
		"app.port":            {"PORT", "APP_PORT"},
		"log.level":           {"LOG_LEVEL"},
		"cors.origins":        {"CORS_ALLOWED_ORIGINS"},
		"redis.url":           {"REDIS_URL"},
		"dedupe.ttl":          {"CONTACT_DEDUPE_TTL"},
		"health.interval":     {"HEALTH_INTERVAL"},
		"health.threshold":    {"HEALTH_FAILURE_THRESHOLD"},
		"public.url":          {"PUBLIC_URL"},
		"self_ping.interval":  {"SELF_PING_INTERVAL"},
		"mail.mode":           {"MAIL_MODE"},
		"smtp.host":           {"SMTP_HOST"},
		"smtp.port":           {"SMTP_PORT"},
		"smtp.username":       {"SMTP_USERNAME", "EMAIL_USER", "BREVO_EMAIL"},
		"smtp.password":       {"SMTP_PASSWORD", "EMAIL_PASSWORD", "BREVO_SMTP_KEY"},
		"brevo.api_key":       {"BREVO_API_KEY"},
		"brevo.api_url":       {"BREVO_API_URL"},
		"mail.from":           {"MAIL_FROM"},
		"mail.from_name":      {"MAIL_FROM_NAME"},
		"mail.recipient":      {"RECIPIENT_EMAIL", "CONTACT_RECEIVER"},
		"mail.recipient_name": {"RECIPIENT_NAME"},
		"mail.acknowledge":    {"MAIL_ACKNOWLEDGE"},
		"mail.timeout":        {"MAIL_TIMEOUT"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	v.SetDefault("app.name", "Contact Relay")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "5000")
	v.SetDefault("log.level", "info")
	v.SetDefault("cors.origins", "https://hrishith30.github.io,http://localhost:3000,http://localhost:3001")
	v.SetDefault("dedupe.ttl", "5m")
	v.SetDefault("health.interval", "30s")
	v.SetDefault("health.threshold", 3)
	v.SetDefault("self_ping.interval", "30s")
	v.SetDefault("mail.mode", ModeSMTP)
	v.SetDefault("smtp.port", 587)
	v.SetDefault("brevo.api_url", defaultBrevoURL)
	v.SetDefault("mail.from_name", "Portfolio Contact")
	v.SetDefault("mail.recipient_name", "Site Owner")
	v.SetDefault("mail.acknowledge", false)
	v.SetDefault("mail.timeout", "15s")

	dedupeTTL, err := parseDuration(v, "dedupe.ttl")
	if err != nil {
		return Config{}, err
	}
	healthInterval, err := parseDuration(v, "health.interval")
	if err != nil {
		return Config{}, err
	}
	pingInterval, err := parseDuration(v, "self_ping.interval")
	if err != nil {
		return Config{}, err
	}
	mailTimeout, err := parseDuration(v, "mail.timeout")
	if err != nil {
		return Config{}, err
	}

	mode := strings.ToLower(strings.TrimSpace(v.GetString("mail.mode")))
	switch mode {
	case ModeSMTP, ModeRelay, ModeAPI, ModeLog:
	default:
		return Config{}, fmt.Errorf("unsupported mail mode %q", mode)
	}

	port := v.GetInt("smtp.port")
	if port <= 0 || port > 65535 {
		return Config{}, fmt.Errorf("invalid smtp port %q", v.GetString("smtp.port"))
	}

	delivery := DeliveryConfig{
		Mode:             mode,
		Host:             strings.TrimSpace(v.GetString("smtp.host")),
		Port:             port,
		Username:         strings.TrimSpace(v.GetString("smtp.username")),
		Password:         v.GetString("smtp.password"),
		APIKey:           strings.TrimSpace(v.GetString("brevo.api_key")),
		APIURL:           strings.TrimSpace(v.GetString("brevo.api_url")),
		SenderAddress:    strings.TrimSpace(v.GetString("mail.from")),
		SenderName:       strings.TrimSpace(v.GetString("mail.from_name")),
		RecipientAddress: strings.TrimSpace(v.GetString("mail.recipient")),
		RecipientName:    strings.TrimSpace(v.GetString("mail.recipient_name")),
		Acknowledge:      v.GetBool("mail.acknowledge"),
		Timeout:          mailTimeout,
	}

	if delivery.Host == "" {
		switch mode {
		case ModeSMTP:
			delivery.Host = defaultSMTPHost
		case ModeRelay:
			delivery.Host = defaultRelayHost
		}
	}
	// SMTP providers send as the login unless a verified sender is configured.
	if delivery.SenderAddress == "" && (mode == ModeSMTP || mode == ModeRelay) {
		delivery.SenderAddress = delivery.Username
	}
	if delivery.RecipientAddress == "" && (mode == ModeSMTP || mode == ModeRelay) {
		delivery.RecipientAddress = delivery.SenderAddress
	}

	threshold := v.GetInt("health.threshold")
	if threshold <= 0 {
		threshold = 3
	}

	cfg := Config{
		AppName:         v.GetString("app.name"),
		AppEnv:          v.GetString("app.env"),
		AppPort:         v.GetString("app.port"),
		LogLevel:        strings.ToLower(v.GetString("log.level")),
		AllowedOrigins:  splitOrigins(v.GetString("cors.origins")),
		RedisURL:        strings.TrimSpace(v.GetString("redis.url")),
		DedupeTTL:       dedupeTTL,
		HealthInterval:  healthInterval,
		HealthThreshold: threshold,
		PublicURL:       strings.TrimRight(strings.TrimSpace(v.GetString("public.url")), "/"),
		SelfPingEvery:   pingInterval,
		Delivery:        delivery,
	}

	return cfg, nil
}

func parseDuration(v *viper.Viper, key string) (time.Duration, error) {
	raw := strings.TrimSpace(v.GetString(key))
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid %s: must be positive", key)
	}
	return d, nil
}

func splitOrigins(input string) []string {
	parts := strings.Split(input, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimRight(strings.TrimSpace(part), "/")
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
