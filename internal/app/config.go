package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete terminal configuration, loadable from environment
// variables (AGRIPOS_ prefix), flags, or YAML config files.
type Config struct {
	Addr           string        `default:"0.0.0.0:8080" usage:"Terminal server listen address"`
	BackofficeURL  string        `usage:"Back-office server root URL (AGRIPOS_BACKOFFICE_URL)" flag:"backoffice-url"`
	APIToken       string        `usage:"Bearer token for back-office API calls" flag:"api-token"`
	RequestTimeout time.Duration `default:"30s" usage:"Per-request timeout for back-office calls" flag:"request-timeout"`
	QRWindow       time.Duration `default:"10m" usage:"How long an issued payment QR stays confirmable" flag:"qr-window"`
	CORS           CORSConfig
	Graceful       GracefulConfig
}

// CORSConfig controls cross-origin access for browser-based POS clients.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables and YAML config
// files, then applies platform defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "AGRIPOS",
		Files:     []string{"config.yaml", "/etc/agripos/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.BackofficeURL == "" {
		return nil, errors.New("back-office URL is required: set AGRIPOS_BACKOFFICE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that use
// standard names like PORT to the AGRIPOS_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
