package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	DatabaseURL string

	ProjectStorePath string

	LLM      LLMConfig
	Auth     AuthConfig
	Snapshot SnapshotConfig
}

type LLMConfig struct {
	GeminiAPIKey string
	Model        string
	UseFake      bool
	CallTimeout  time.Duration
	RPS          float64
	Burst        int
	MaxRetries   int
}

type AuthConfig struct {
	Delay     time.Duration
	StorePath string
}

type SnapshotConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8081", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port:             *port,
		Env:              env,
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		ProjectStorePath: firstNonEmpty(strings.TrimSpace(os.Getenv("PROJECT_STORE_PATH")), "tmp/projects.json"),
		LLM:              loadLLMConfig(),
		Auth: AuthConfig{
			Delay:     envDuration("AUTH_DELAY", 800*time.Millisecond),
			StorePath: firstNonEmpty(strings.TrimSpace(os.Getenv("AUTH_STORE_PATH")), "tmp/users.json"),
		},
		Snapshot:         loadSnapshotConfig(env),
	}, nil
}

func loadLLMConfig() LLMConfig {
	apiKey := strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
	return LLMConfig{
		GeminiAPIKey: apiKey,
		Model:        firstNonEmpty(strings.TrimSpace(os.Getenv("GEMINI_MODEL")), "gemini-2.5-flash"),
		UseFake:      envBool("USE_FAKE_LLM", apiKey == ""),
		CallTimeout:  envDuration("LLM_CALL_TIMEOUT", 120*time.Second),
		RPS:          envFloat("LLM_RPS", 1),
		Burst:        envInt("LLM_BURST", 2),
		MaxRetries:   envInt("LLM_MAX_RETRIES", 3),
	}
}

func loadSnapshotConfig(env string) SnapshotConfig {
	endpoint := resolveSnapshotEndpoint(env)
	return SnapshotConfig{
		Enabled:   endpoint != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("SNAPSHOT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("SNAPSHOT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("SNAPSHOT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("SNAPSHOT_S3_BUCKET")), "cursoronline-snapshots"),
		UseSSL:    resolveSnapshotUseSSL(env),
	}
}

// CanUseS3 reports whether the S3 credentials are complete.
func (c SnapshotConfig) CanUseS3() bool {
	return c.Endpoint != "" && c.AccessKey != "" && c.SecretKey != "" && c.Bucket != ""
}

func resolveSnapshotEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return strings.TrimSpace(os.Getenv("SNAPSHOT_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("SNAPSHOT_S3_ENDPOINT"))
}

func resolveSnapshotUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("SNAPSHOT_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func envBool(key string, def bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func envFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}

func envDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return v
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
