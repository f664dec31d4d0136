// Package config resolves runtime configuration from the environment
// and from an optional sectors file.
package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// Config carries every runtime setting of the service. Zero values are
// never used directly, FromEnv fills in defaults.
type Config struct {
	ListenAddr string
	ServerURL  string

	RedisAddr     string
	RedisUsername string
	RedisPassword string
	RedisDB       int

	QdrantHost string
	QdrantPort int

	Bucket string
	Table  string

	EmbedProvider   string
	EmbedModel      string
	EmbedDimensions int

	DefaultStrategy string
	ChunkSize       int
	ChunkOverlap    int

	WorkerConcurrency int

	SectorNames []string
	SectorsFile string
}

// FromEnv builds a Config from environment variables, falling back to
// defaults suitable for local development.
func FromEnv() *Config {
	return &Config{
		ListenAddr: envString("DIP_LISTEN_ADDR", ":8080"),
		ServerURL:  envString("DIP_SERVER_URL", "http://localhost:8080"),

		RedisAddr:     envString("REDIS_ADDR", "localhost:6379"),
		RedisUsername: envString("REDIS_USERNAME", ""),
		RedisPassword: envString("REDIS_PASSWORD", ""),
		RedisDB:       envInt("REDIS_DB", 0),

		QdrantHost: envString("QDRANT_HOST", "localhost"),
		QdrantPort: envInt("QDRANT_PORT", 6334),

		Bucket: envString("BUCKET_NAME", "your-document-bucket"),
		Table:  envString("DOCUMENTS_TABLE", "documents"),

		EmbedProvider:   envString("EMBED_PROVIDER", "gemini"),
		EmbedModel:      envString("EMBED_MODEL", ""),
		EmbedDimensions: envInt("EMBED_DIMENSIONS", DefaultDimensions),

		DefaultStrategy: envString("CHUNK_STRATEGY", "fixed_size"),
		ChunkSize:       envInt("CHUNK_SIZE", 512),
		ChunkOverlap:    envInt("CHUNK_OVERLAP", 128),

		WorkerConcurrency: envInt("DIP_WORKER_CONCURRENCY", 10),

		SectorNames: envList("SECTORS", defaultSectorNames),
		SectorsFile: envString("SECTORS_FILE", ""),
	}
}

// Sectors resolves the sector map, preferring the sectors file when
// one is configured.
func (c *Config) Sectors() (SectorMap, error) {
	if c.SectorsFile != "" {
		return LoadSectors(c.SectorsFile)
	}
	return DefaultSectors(c.SectorNames, uint64(c.EmbedDimensions)), nil
}

func envString(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", v, "default", fallback)
		return fallback
	}
	return n
}

// envList splits a comma or whitespace separated variable.
func envList(key string, fallback []string) []string {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	items := strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(items) == 0 {
		return fallback
	}
	return items
}
