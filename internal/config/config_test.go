package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("RESET_TIMEZONE", "Europe/Berlin")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, 72*time.Hour, cfg.JWTTTL)
	assert.Equal(t, "0 0 * * *", cfg.ResetCron)
	assert.Equal(t, 10, cfg.LeaderboardLimit)
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			StoreDriver:      DriverPostgres,
			JWTSecret:        "secret",
			JWTTTL:           time.Hour,
			DBMaxIdleConns:   10,
			DBMaxOpenConns:   100,
			LeaderboardLimit: 10,
			LogLevel:         "info",
			LogFormat:        "json",
			ResetTimezone:    "UTC",
		}
	}

	tt := []struct {
		name   string
		modify func(c *Config)
		ok     bool
	}{
		{name: "valid", modify: func(c *Config) {}, ok: true},
		{name: "empty secret", modify: func(c *Config) { c.JWTSecret = "" }},
		{name: "unknown driver", modify: func(c *Config) { c.StoreDriver = "sqlite" }},
		{name: "idle above open", modify: func(c *Config) { c.DBMaxIdleConns = 200 }},
		{name: "zero leaderboard", modify: func(c *Config) { c.LeaderboardLimit = 0 }},
		{name: "bad level", modify: func(c *Config) { c.LogLevel = "loud" }},
		{name: "bad format", modify: func(c *Config) { c.LogFormat = "xml" }},
		{name: "bad timezone", modify: func(c *Config) { c.ResetTimezone = "Mars/Olympus" }},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.modify(&c)
			if tc.ok {
				require.NoError(t, c.Validate())
			} else {
				require.Error(t, c.Validate())
			}
		})
	}
}

func TestMigrateURL(t *testing.T) {
	c := Config{DBHost: "db", DBPort: 5432, DBUser: "u", DBPassword: "p@ss", DBName: "insight", DBSSLMode: "disable"}
	assert.Equal(t, "pgx5://u:p%40ss@db:5432/insight?sslmode=disable", c.MigrateURL())
}
