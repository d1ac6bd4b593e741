package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Addr string `env:"ADDR" envDefault:":8000"`

	AssistantURL     string        `env:"ASSISTANT_URL" envDefault:"http://127.0.0.1:5000/ask"`
	AssistantTimeout time.Duration `env:"ASSISTANT_TIMEOUT" envDefault:"120s"`

	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	OAuthRedirectURL   string `env:"OAUTH_REDIRECT_URL" envDefault:"http://localhost:8000/auth/callback"`

	JWTSecret         string        `env:"JWT_SECRET"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	Formatter         string        `env:"FORMATTER" envDefault:"markdown"`
	SendRatePerMinute int           `env:"SEND_RATE_PER_MINUTE" envDefault:"30"`
	LogDir            string        `env:"LOG_DIR" envDefault:"./logs"`
	Telemetry         bool          `env:"TELEMETRY" envDefault:"false"`
	SiteConfig        string        `env:"SITE_CONFIG"`

	DBUser     string `env:"DB_USER"`
	DBPassword string `env:"DB_PASSWORD"`
	DBHost     string `env:"DB_HOST"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBName     string `env:"DB_NAME"`

	MinIOEndpoint  string `env:"MINIO_ENDPOINT"`
	MinIOAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinIOSecretKey string `env:"MINIO_SECRET_KEY"`
	MinIOBucket    string `env:"MINIO_BUCKET" envDefault:"feedback-crg"`
	MinIOSecure    bool   `env:"MINIO_SECURE" envDefault:"false"`

	Site Site `env:"-"`
}

// Site holds the copy shown on the chat page.
type Site struct {
	Title              string   `yaml:"title"`
	Greeting           string   `yaml:"greeting"`
	SuggestedQuestions []string `yaml:"suggested_questions"`
}

func DefaultSite() Site {
	return Site{
		Title:    "Community Resource Bot",
		Greeting: "Hello! I'm your Community Resources Guide bot. I can help you find information about community organizations, volunteer opportunities, fundraisers, and more in Durham, NC. How can I assist you today?",
		SuggestedQuestions: []string{
			"Can you suggest some volunteer opportunities in the Durham area?",
			"Are there any ongoing fundraisers for local nonprofits in Durham?",
			"What resources are available for job seekers in Durham?",
			"Can you help me find mental health services in Durham?",
		},
	}
}

func (c Config) DBEnabled() bool    { return c.DBHost != "" }
func (c Config) MinIOEnabled() bool { return c.MinIOEndpoint != "" }
func (c Config) OAuthEnabled() bool { return c.GoogleClientID != "" }

// LoadConfig reads .env (if present), then the process environment, then the site file.
func LoadConfig() (Config, error) {
	cfg, err := LoadClientConfig()
	if err != nil {
		return Config{}, err
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET must be set")
	}
	return cfg, nil
}

// LoadClientConfig is LoadConfig without the server-only JWT_SECRET requirement.
func LoadClientConfig() (Config, error) {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.Site = DefaultSite()
	if cfg.SiteConfig != "" {
		site, err := LoadSite(cfg.SiteConfig)
		if err != nil {
			return Config{}, err
		}
		cfg.Site = site
	}
	return cfg, nil
}

// LoadSite reads a YAML site file; fields it leaves empty keep their defaults.
func LoadSite(path string) (Site, error) {
	site := DefaultSite()
	data, err := os.ReadFile(path)
	if err != nil {
		return site, fmt.Errorf("read site config: %w", err)
	}
	var override Site
	if err := yaml.Unmarshal(data, &override); err != nil {
		return site, fmt.Errorf("parse site config %s: %w", path, err)
	}
	if override.Title != "" {
		site.Title = override.Title
	}
	if override.Greeting != "" {
		site.Greeting = override.Greeting
	}
	if len(override.SuggestedQuestions) > 0 {
		site.SuggestedQuestions = override.SuggestedQuestions
	}
	return site, nil
}
