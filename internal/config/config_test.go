package config

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	cfg := &Config{}
	var got *Config
	cmd := NewCommand(cfg, func(_ context.Context, c *Config) error {
		got = c
		return nil
	})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return got, err
}

func TestDefaults(t *testing.T) {
	cfg, err := execute(t)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "0.0.0.0", cfg.Bind)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "/ws", cfg.WsPath)
	assert.Equal(t, 8, cfg.MaxPlayers)
	assert.Equal(t, 2*time.Hour, cfg.RoomTTL)
	assert.Equal(t, 60*time.Second, cfg.SweepInterval)
	assert.Equal(t, 25*time.Second, cfg.PingInterval)
	assert.Zero(t, cfg.RoundTimeLimit)
	assert.Empty(t, cfg.DatabaseURL)
	assert.Equal(t, "0.0.0.0:8080", cfg.Addr())
}

func TestFlags(t *testing.T) {
	cfg, err := execute(t, "--port", "9000", "--max-players", "4", "--round-time-limit", "30s", "-v")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 4, cfg.MaxPlayers)
	assert.Equal(t, 30*time.Second, cfg.RoundTimeLimit)
	assert.True(t, cfg.Verbose)
}

func TestEnvironment(t *testing.T) {
	t.Setenv("QUIZROOM_PORT", "7000")
	t.Setenv("QUIZROOM_ROOM_TTL", "30m")
	t.Setenv("QUIZROOM_DATABASE_URL", "postgres://quiz@localhost/quiz")

	cfg, err := execute(t)
	require.NoError(t, err)

	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, 30*time.Minute, cfg.RoomTTL)
	assert.Equal(t, "postgres://quiz@localhost/quiz", cfg.DatabaseURL)
}

func TestFlagBeatsEnvironment(t *testing.T) {
	t.Setenv("QUIZROOM_PORT", "7000")

	cfg, err := execute(t, "--port", "7100")
	require.NoError(t, err)
	assert.Equal(t, 7100, cfg.Port)
}

func TestBadEnvironmentValue(t *testing.T) {
	t.Setenv("QUIZROOM_PING_INTERVAL", "often")

	_, err := execute(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QUIZROOM_PING_INTERVAL")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Bind:          "127.0.0.1",
			Port:          8080,
			WsPath:        "/ws",
			MaxPlayers:    8,
			RoomTTL:       time.Hour,
			SweepInterval: time.Minute,
			PingInterval:  time.Second,
		}
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Port = 0 }},
		{"port too high", func(c *Config) { c.Port = 70000 }},
		{"relative ws path", func(c *Config) { c.WsPath = "ws" }},
		{"one player", func(c *Config) { c.MaxPlayers = 1 }},
		{"nine players", func(c *Config) { c.MaxPlayers = 9 }},
		{"zero ttl", func(c *Config) { c.RoomTTL = 0 }},
		{"zero sweep", func(c *Config) { c.SweepInterval = 0 }},
		{"zero ping", func(c *Config) { c.PingInterval = 0 }},
		{"negative round limit", func(c *Config) { c.RoundTimeLimit = -time.Second }},
		{"huge round limit", func(c *Config) { c.RoundTimeLimit = time.Hour }},
	}

	base := valid()
	require.NoError(t, base.Validate())

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
