package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application's configuration values.
type Config struct {
	HostIP             string // Host IP for the server
	RESTPort           int    // Port for the REST API and the stream endpoint
	GinMode            string // Mode for the Gin framework (e.g., release, debug, test)
	DailySeedSalt      string // Salt mixed with the day number to derive the seed of the day
	RedisAddr          string // Address of the redis presence index; empty keeps presence in memory
	RedisPassword      string // Password for redis
	RedisDB            int    // Redis logical database
	PresenceTTLSeconds int    // Expiration of the presence index key
	WSSendBuffer       int    // Outbound messages buffered per stream member
	WSWriteTimeoutMS   int    // Deadline for a single websocket write
	WSPongTimeoutMS    int    // Time allowed between pongs before a connection is dropped
}

// Envs holds the application's configuration loaded from environment variables.
var Envs = initConfig()

// initConfig initializes and returns the application configuration.
// It loads environment variables from a .env file.
func initConfig() Config {
	// Load .env file if available
	if err := godotenv.Load(); err != nil {
		log.Printf("[APP] [INFO] .env file not found or could not be loaded: %v", err)
	}

	return Config{
		HostIP:             getEnvWithDefault("HOST_IP", "0.0.0.0"),
		RESTPort:           getEnvAsIntWithDefault("REST_PORT", 8000),
		GinMode:            getEnvWithDefault("GIN_MODE", "release"),
		DailySeedSalt:      getEnvWithDefault("DAILY_SEED_SALT", "061662bdbd2e9ba6"),
		RedisAddr:          getEnvWithDefault("REDIS_ADDR", ""),
		RedisPassword:      getEnvWithDefault("REDIS_PASSWORD", ""),
		RedisDB:            getEnvAsIntWithDefault("REDIS_DB", 0),
		PresenceTTLSeconds: getEnvAsIntWithDefault("PRESENCE_TTL_SECONDS", 3600),
		WSSendBuffer:       getEnvAsIntWithDefault("WS_SEND_BUFFER", 32),
		WSWriteTimeoutMS:   getEnvAsIntWithDefault("WS_WRITE_TIMEOUT_MS", 2000),
		WSPongTimeoutMS:    getEnvAsIntWithDefault("WS_PONG_TIMEOUT_MS", 60000),
	}
}

// getEnvAsIntWithDefault retrieves the value of an environment variable as an integer,
// or returns the default if it is not set. A value that cannot be parsed is fatal.
func getEnvAsIntWithDefault(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Fatalf("[APP] [FATAL] Environment variable %s must be an integer: %v", key, err)
	}
	return value
}

// getEnvWithDefault retrieves the value of an environment variable or returns a default value if not set.
func getEnvWithDefault(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
