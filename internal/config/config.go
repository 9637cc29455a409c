package config

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"

	"github.com/sethvargo/go-envconfig"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverSQLite   = "sqlite"

	// maxCandidateLimit is the people-search API page cap.
	maxCandidateLimit = 30
)

type Config struct {
	Server     ServerConfig     `env:",prefix=SERVER_"`
	Storage    StorageConfig    `env:",prefix=STORAGE_"`
	Postgres   PostgresConfig   `env:",prefix=POSTGRES_"`
	SQLite     SQLiteConfig     `env:",prefix=SQLITE_"`
	Redis      RedisConfig      `env:",prefix=REDIS_"`
	JWT        JWTConfig        `env:",prefix=JWT_"`
	Google     GoogleConfig     `env:",prefix=GOOGLE_"`
	Gemini     GeminiConfig     `env:",prefix=GEMINI_"`
	Linkd      LinkdConfig      `env:",prefix=LINKD_"`
	WebSearch  WebSearchConfig  `env:",prefix=WEBSEARCH_"`
	Automation AutomationConfig `env:",prefix=AUTOMATION_"`
	PDF        PDFConfig        `env:",prefix=PDF_"`
	Outreach   OutreachConfig   `env:",prefix=OUTREACH_"`
	MCP        MCPConfig        `env:",prefix=MCP_"`
	Security   SecurityConfig   `env:",prefix="`
	CORS       CORSConfig       `env:",prefix=CORS_"`
	Env        string           `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=3m"`
}

type StorageConfig struct {
	Driver string `env:"DRIVER,default=postgres"`
	// AutoMigrate applies pending migrations when the server starts
	AutoMigrate bool `env:"AUTO_MIGRATE,default=false"`
}

type PostgresConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=5432"`
	User     string `env:"USER,default=outreach"`
	Password string `env:"PASSWORD,default=outreach_password"`
	DBName   string `env:"DB,default=outreach_db"`
	SSLMode  string `env:"SSLMODE,default=disable"`
}

type SQLiteConfig struct {
	Path string `env:"PATH,default=outreach.db"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

type JWTConfig struct {
	Secret        string   `env:"SECRET,required"`
	SessionExpiry Duration `env:"SESSION_EXPIRY,default=7d"`
	StateExpiry   Duration `env:"STATE_EXPIRY,default=10m"`
}

// GoogleConfig holds the OAuth client registered for delegated mailbox access.
type GoogleConfig struct {
	ClientID     string   `env:"CLIENT_ID"`
	ClientSecret string   `env:"CLIENT_SECRET"`
	RedirectURL  string   `env:"REDIRECT_URL,default=http://localhost:8080/api/v1/auth/google/callback"`
	TokenURI     string   `env:"TOKEN_URI,default=https://oauth2.googleapis.com/token"`
	Timeout      Duration `env:"TIMEOUT,default=30s"`
}

type GeminiConfig struct {
	APIKey  string   `env:"API_KEY"`
	Model   string   `env:"MODEL,default=gemini-1.5-flash"`
	BaseURL string   `env:"BASE_URL,default=https://generativelanguage.googleapis.com/v1beta"`
	Timeout Duration `env:"TIMEOUT,default=60s"`
}

type LinkdConfig struct {
	APIKey  string   `env:"API_KEY"`
	BaseURL string   `env:"BASE_URL,default=https://search.linkd.inc/api"`
	Timeout Duration `env:"TIMEOUT,default=30s"`
}

type WebSearchConfig struct {
	APIKey   string   `env:"API_KEY"`
	EngineID string   `env:"ENGINE_ID"`
	Results  int      `env:"RESULTS,default=5"`
	Timeout  Duration `env:"TIMEOUT,default=15s"`
}

type AutomationConfig struct {
	BaseURL string   `env:"BASE_URL,default=http://localhost:8000"`
	Timeout Duration `env:"TIMEOUT,default=10m"`
}

type PDFConfig struct {
	PdftotextPath string `env:"PDFTOTEXT_PATH,default=pdftotext"`
	MaxUploadMB   int64  `env:"MAX_UPLOAD_MB,default=10"`
}

type OutreachConfig struct {
	CandidateLimit int      `env:"CANDIDATE_LIMIT,default=5"`
	Timeout        Duration `env:"TIMEOUT,default=2m"`
	Concurrency    int      `env:"CONCURRENCY,default=1"`
	SubjectMaxLen  int      `env:"SUBJECT_MAX_LEN,default=60"`
}

type MCPConfig struct {
	APIKey string `env:"API_KEY"`
}

type SecurityConfig struct {
	TokenEncryptionKey string   `env:"TOKEN_ENCRYPTION_KEY,required"`
	RateLimitRequests  int      `env:"RATE_LIMIT_REQUESTS,default=10"`
	RateLimitWindow    Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// DatabaseDSN returns the connection string for the selected storage driver
func (c *Config) DatabaseDSN() string {
	if c.Storage.Driver == StorageDriverSQLite {
		return c.SQLite.Path
	}
	return c.Postgres.DSN()
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// EncryptionKey decodes TOKEN_ENCRYPTION_KEY, accepting hex or standard base64.
func (s SecurityConfig) EncryptionKey() ([]byte, error) {
	if key, err := hex.DecodeString(s.TokenEncryptionKey); err == nil && len(key) == 32 {
		return key, nil
	}
	if key, err := base64.StdEncoding.DecodeString(s.TokenEncryptionKey); err == nil && len(key) == 32 {
		return key, nil
	}
	return nil, fmt.Errorf("TOKEN_ENCRYPTION_KEY must decode to 32 bytes (hex or base64)")
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if len(c.JWT.Secret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters long")
	}

	if _, err := c.Security.EncryptionKey(); err != nil {
		return err
	}

	switch c.Storage.Driver {
	case StorageDriverPostgres, StorageDriverSQLite:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageDriverPostgres, StorageDriverSQLite, c.Storage.Driver)
	}

	if c.Outreach.CandidateLimit < 1 || c.Outreach.CandidateLimit > maxCandidateLimit {
		return fmt.Errorf("OUTREACH_CANDIDATE_LIMIT must be between 1 and %d", maxCandidateLimit)
	}

	if c.Outreach.Concurrency < 1 {
		return fmt.Errorf("OUTREACH_CONCURRENCY must be at least 1")
	}

	return nil
}
