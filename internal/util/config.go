package util

import (
	"log"
	"os"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

//nolint:gochecknoglobals // here its ok
var once sync.Once

func init() {
	once.Do(func() {
		if err := godotenv.Load(".env"); err != nil {
			log.Printf("Warning: could not load .env file: %v", err)
		}
	})
}

const (
	defaultServerAddr      = "localhost:8080"
	defaultWriteTimeout    = 10 * time.Second
	defaultReadTimeout     = 10 * time.Second
	defaultIdleTimeout     = 30 * time.Second
	defaultGracefulTimeout = 5 * time.Second

	defaultAccessTTL  = 10 * time.Minute
	defaultRefreshTTL = 30 * 24 * time.Hour

	defaultKeysDir = "keys"

	defaultHashMemoryKiB = 32 * 1024
	defaultHashTime      = 2
	defaultHashThreads   = 1
	defaultHashSaltLen   = 16
	defaultHashKeyLen    = 32

	defaultLocationTTL = 24 * time.Hour

	JWTLeeWay = 5 * time.Second
)

type ServerConfig struct {
	ServerAddr      string
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	IdleTimeout     time.Duration
	GracefulTimeout time.Duration
}

func NewServerConfig() *ServerConfig {
	addr := os.Getenv("SERVER_ADDRESS")
	if addr == "" {
		addr = defaultServerAddr
	}

	return &ServerConfig{
		ServerAddr:      addr,
		WriteTimeout:    parseDurationOrDefault("WRITE_TIMEOUT", defaultWriteTimeout),
		ReadTimeout:     parseDurationOrDefault("READ_TIMEOUT", defaultReadTimeout),
		IdleTimeout:     parseDurationOrDefault("IDLE_TIMEOUT", defaultIdleTimeout),
		GracefulTimeout: parseDurationOrDefault("GRACEFUL_TIMEOUT", defaultGracefulTimeout),
	}
}

type TokenConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func NewTokenConfig() *TokenConfig {
	return &TokenConfig{
		AccessTTL:  parseDurationOrDefault("ACCESS_TOKEN_TTL", defaultAccessTTL),
		RefreshTTL: parseDurationOrDefault("REFRESH_TOKEN_TTL", defaultRefreshTTL),
	}
}

// KeysConfig points at the directory holding the RSA signing key pair.
// The directory itself must exist before startup.
type KeysConfig struct {
	Dir string
}

func NewKeysConfig() *KeysConfig {
	dir := os.Getenv("KEYS_DIR")
	if dir == "" {
		dir = defaultKeysDir
	}
	return &KeysConfig{Dir: dir}
}

// HasherConfig carries the Argon2id cost parameters. The defaults
// (32 MiB, 2 iterations, 1 thread, 32-byte key) follow the OWASP
// recommended configuration and are embedded into every produced hash,
// so they can change between releases without invalidating old hashes.
type HasherConfig struct {
	MemoryKiB uint32
	Time      uint32
	Threads   uint8
	SaltLen   uint32
	KeyLen    uint32
	// Workers bounds the number of concurrent hash derivations.
	Workers int64
}

func NewHasherConfig() *HasherConfig {
	return &HasherConfig{
		MemoryKiB: uint32(parseIntOrDefault("HASH_MEMORY_KIB", defaultHashMemoryKiB)),
		Time:      uint32(parseIntOrDefault("HASH_TIME", defaultHashTime)),
		Threads:   uint8(parseIntOrDefault("HASH_THREADS", defaultHashThreads)),
		SaltLen:   defaultHashSaltLen,
		KeyLen:    defaultHashKeyLen,
		Workers:   int64(parseIntOrDefault("HASH_WORKERS", runtime.GOMAXPROCS(0))),
	}
}

// LocationConfig configures the ip-geolocation provider.
type LocationConfig struct {
	APIURL   string
	CacheTTL time.Duration
}

func NewLocationConfig() *LocationConfig {
	url := os.Getenv("LOCATION_API_URL")
	if url == "" {
		url = "http://ip-api.com/json"
	}
	return &LocationConfig{
		APIURL:   url,
		CacheTTL: parseDurationOrDefault("LOCATION_CACHE_TTL", defaultLocationTTL),
	}
}

func parseDurationOrDefault(varName string, def time.Duration) time.Duration {
	if v := os.Getenv(varName); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("Invalid duration in %s: %s, using default %s", varName, v, def)
	}
	return def
}

func parseIntOrDefault(varName string, def int) int {
	if v := os.Getenv(varName); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("Invalid number in %s: %s, using default %d", varName, v, def)
	}
	return def
}
