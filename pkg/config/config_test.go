package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 30*time.Minute, cfg.Timetable.ProposalTTL)
	assert.Equal(t, 10*time.Minute, cfg.Timetable.CacheTTL)
	assert.Equal(t, 1, cfg.Exports.WorkerConcurrency)
	assert.Nil(t, cfg.CORS.AllowedOrigins)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("SCHEDULER_PROPOSAL_TTL", "5m")
	v.Set("TIMETABLE_CACHE_TTL", "not-a-duration")
	v.Set("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg := fromViper(v)
	assert.Equal(t, 5*time.Minute, cfg.Timetable.ProposalTTL)
	assert.Equal(t, 10*time.Minute, cfg.Timetable.CacheTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestDatabaseURL(t *testing.T) {
	cfg := DatabaseConfig{Host: "db", Port: 5432, User: "app", Password: "p@ss", Name: "sma", SSLMode: "disable"}
	assert.Equal(t, "postgres://app:p%40ss@db:5432/sma?sslmode=disable", cfg.URL())
	assert.Equal(t, "host=db port=5432 user=app password=p@ss dbname=sma sslmode=disable", cfg.DSN())
}

func TestValidateRejectsDevSecretsInProduction(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	cfg := fromViper(v)
	assert.NoError(t, cfg.Validate())

	cfg.Env = EnvProduction
	err := cfg.Validate()
	assert.ErrorContains(t, err, "JWT_SECRET must be set in production")
	assert.ErrorContains(t, err, "EXPORTS_SIGNED_URL_SECRET")

	cfg.JWT.Secret = "prod-secret"
	cfg.Exports.Enabled = false
	assert.NoError(t, cfg.Validate())

	cfg.APIPrefix = "api"
	assert.Error(t, cfg.Validate())
}
