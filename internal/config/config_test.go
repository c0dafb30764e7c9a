package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "postgres", cfg.Store)
	assert.Equal(t, 20, cfg.FriendRequestRateLimit)
	assert.Equal(t, time.Hour, cfg.FriendRequestRateWindow)
	assert.Equal(t, 168*time.Hour, cfg.JWTTTL)
	assert.True(t, cfg.AutoAcceptReverseRequests)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("STORE", "memory")
	t.Setenv("FRIEND_REQUEST_RATE_WINDOW", "5m")
	t.Setenv("AUTO_ACCEPT_REVERSE_REQUESTS", "false")

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config
	require.NoError(t, v.Unmarshal(&cfg))
	assert.Equal(t, "memory", cfg.Store)
	assert.Equal(t, 5*time.Minute, cfg.FriendRequestRateWindow)
	assert.False(t, cfg.AutoAcceptReverseRequests)
}
