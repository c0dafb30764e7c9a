package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration.
type Config struct {
	DatabaseURL string        `mapstructure:"DATABASE_URL"`
	JWTSecret   string        `mapstructure:"JWT_SECRET"`
	JWTTTL      time.Duration `mapstructure:"JWT_TTL"`
	Port        string        `mapstructure:"PORT"`

	// Store selects the persistence backend: "postgres" or "memory".
	Store string `mapstructure:"STORE"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	FriendRequestRateLimit  int           `mapstructure:"FRIEND_REQUEST_RATE_LIMIT"`
	FriendRequestRateWindow time.Duration `mapstructure:"FRIEND_REQUEST_RATE_WINDOW"`

	AutoAcceptReverseRequests bool `mapstructure:"AUTO_ACCEPT_REVERSE_REQUESTS"`
}

var AppConfig *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("JWT_TTL", 7*24*time.Hour)
	v.SetDefault("PORT", "8080")
	v.SetDefault("STORE", "postgres")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("FRIEND_REQUEST_RATE_LIMIT", 20)
	v.SetDefault("FRIEND_REQUEST_RATE_WINDOW", time.Hour)
	v.SetDefault("AUTO_ACCEPT_REVERSE_REQUESTS", true)

	// AutomaticEnv only resolves keys viper already knows about.
	for _, key := range []string{"DATABASE_URL", "JWT_SECRET", "REDIS_ADDR", "REDIS_PASSWORD"} {
		v.SetDefault(key, "")
	}
}

// LoadConfig loads the configuration from a .env file and environment variables.
func LoadConfig() {
	viper.AddConfigPath(".")
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	setDefaults(viper.GetViper())
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Println("Warning: .env file not found, loading from environment variables")
	}

	err := viper.Unmarshal(&AppConfig)
	if err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
}
