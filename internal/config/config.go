package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultPort           = "8080"
	defaultSiteURL        = "http://localhost:8080"
	defaultDatabaseURL    = "streamapi.db"
	defaultStorageDriver  = StorageLocal
	defaultUploadRoot     = "./uploads"
	defaultUploadMaxMB    = "32"
	defaultUploadMemoryMB = "8"
	defaultSMTPPort       = "587"
	defaultSMTPTLS        = TLSStartTLS
	defaultMailFromName   = "Stream API"
	defaultMailTimeout    = "30s"
	defaultBcryptCost     = "10"
)

const (
	StorageLocal = "local"
	StorageS3    = "s3"

	TLSStartTLS = "starttls"
	TLSImplicit = "ssl"
	TLSNone     = "none"
)

type Config struct {
	AppEnv             string
	Port               string
	APIPrefix          string
	SiteURL            string
	DatabaseURL        string
	CORSAllowedOrigins []string
	BcryptCost         int
	Storage            StorageConfig
	Mail               MailConfig
}

type StorageConfig struct {
	Driver            string
	Root              string
	PublicURL         string
	MaxUploadBytes    int64
	MaxMemoryBytes    int64
	BlockedExtensions []string
	S3                S3Config
}

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	TLS      string
	From     string
	FromName string
	Timeout  time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.Port = strings.TrimSpace(getEnv("PORT", defaultPort))
	cfg.APIPrefix = strings.TrimRight(strings.TrimSpace(os.Getenv("API_PREFIX")), "/")
	cfg.SiteURL = strings.TrimRight(strings.TrimSpace(getEnv("SITE_URL", defaultSiteURL)), "/")
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.CORSAllowedOrigins = splitList(os.Getenv("CORS_ALLOWED_ORIGINS"))

	var err error
	cfg.BcryptCost, err = parseIntEnv("BCRYPT_COST", defaultBcryptCost)
	if err != nil {
		return nil, err
	}

	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(getEnv("STORAGE_DRIVER", defaultStorageDriver)))
	cfg.Storage.Root = strings.TrimSpace(getEnv("UPLOAD_ROOT", defaultUploadRoot))
	cfg.Storage.PublicURL = strings.TrimRight(strings.TrimSpace(os.Getenv("UPLOAD_PUBLIC_URL")), "/")
	if cfg.Storage.PublicURL == "" && cfg.Storage.Driver == StorageLocal {
		// Local uploads are served by this process; S3 falls back to <endpoint>/<bucket>.
		cfg.Storage.PublicURL = cfg.SiteURL + "/uploads"
	}
	cfg.Storage.BlockedExtensions = splitList(strings.ToLower(os.Getenv("UPLOAD_BLOCKED_EXTENSIONS")))

	maxMB, err := parseIntEnv("UPLOAD_MAX_SIZE_MB", defaultUploadMaxMB)
	if err != nil {
		return nil, err
	}
	cfg.Storage.MaxUploadBytes = int64(maxMB) << 20

	memMB, err := parseIntEnv("UPLOAD_MEMORY_MB", defaultUploadMemoryMB)
	if err != nil {
		return nil, err
	}
	cfg.Storage.MaxMemoryBytes = int64(memMB) << 20

	cfg.Storage.S3 = S3Config{
		Endpoint:  strings.TrimRight(strings.TrimSpace(os.Getenv("S3_ENDPOINT")), "/"),
		Region:    strings.TrimSpace(getEnv("S3_REGION", "us-east-1")),
		Bucket:    strings.TrimSpace(os.Getenv("S3_BUCKET")),
		AccessKey: strings.TrimSpace(os.Getenv("S3_ACCESS_KEY")),
		SecretKey: strings.TrimSpace(os.Getenv("S3_SECRET_KEY")),
	}

	cfg.Mail.Host = strings.TrimSpace(os.Getenv("SMTP_HOST"))
	cfg.Mail.Port, err = parseIntEnv("SMTP_PORT", defaultSMTPPort)
	if err != nil {
		return nil, err
	}
	cfg.Mail.Username = os.Getenv("SMTP_USERNAME")
	cfg.Mail.Password = os.Getenv("SMTP_PASSWORD")
	cfg.Mail.TLS = strings.ToLower(strings.TrimSpace(getEnv("SMTP_TLS", defaultSMTPTLS)))
	cfg.Mail.FromName = strings.TrimSpace(getEnv("MAIL_FROM_NAME", defaultMailFromName))
	cfg.Mail.From = strings.TrimSpace(os.Getenv("MAIL_FROM"))
	cfg.Mail.Timeout, err = parseDurationEnv("MAIL_TIMEOUT", defaultMailTimeout)
	if err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	if cfg.Mail.From == "" {
		cfg.Mail.From = "noreply@" + cfg.SiteHost()
	}

	log.Printf("config loaded: env=%s storage=%s site=%s smtp_host=%q", cfg.AppEnv, cfg.Storage.Driver, cfg.SiteURL, cfg.Mail.Host)

	return cfg, nil
}

// SiteHost returns the host part of SiteURL without port.
func (c *Config) SiteHost() string {
	u, err := url.Parse(c.SiteURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Hostname())
}

func validateConfig(cfg *Config) error {
	site, err := url.Parse(cfg.SiteURL)
	if err != nil || site.Hostname() == "" {
		return fmt.Errorf("SITE_URL must be an absolute URL, got %q", cfg.SiteURL)
	}
	if cfg.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if cfg.Storage.MaxUploadBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_SIZE_MB must be > 0")
	}
	if cfg.Storage.MaxMemoryBytes <= 0 {
		return fmt.Errorf("UPLOAD_MEMORY_MB must be > 0")
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return fmt.Errorf("BCRYPT_COST must be between 4 and 31")
	}
	if cfg.Mail.Timeout <= 0 {
		return fmt.Errorf("MAIL_TIMEOUT must be > 0")
	}

	switch cfg.Storage.Driver {
	case StorageLocal:
		if cfg.Storage.Root == "" {
			return fmt.Errorf("UPLOAD_ROOT must not be empty")
		}
	case StorageS3:
		if cfg.Storage.S3.Endpoint == "" || cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("S3_ENDPOINT and S3_BUCKET are required when STORAGE_DRIVER=s3")
		}
	default:
		return fmt.Errorf("STORAGE_DRIVER must be one of: local, s3")
	}

	switch cfg.Mail.TLS {
	case TLSStartTLS, TLSImplicit, TLSNone:
	default:
		return fmt.Errorf("SMTP_TLS must be one of: starttls, ssl, none")
	}

	if isProdLike(cfg.AppEnv) {
		if site.Scheme != "https" {
			return fmt.Errorf("in prod/release SITE_URL must use https")
		}
		if cfg.Storage.Driver == StorageS3 && (cfg.Storage.S3.AccessKey == "" || cfg.Storage.S3.SecretKey == "") {
			return fmt.Errorf("in prod/release S3_ACCESS_KEY and S3_SECRET_KEY must be set")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, v := range strings.Split(raw, ",") {
		v = strings.TrimSpace(v)
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
