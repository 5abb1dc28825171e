package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	f := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(f, []byte(content), 0644))
	return f
}

func TestParseDefault(t *testing.T) {
	f := writeConfig(t, `{"api_url":"http://api", "idp_url":"http://idp"}`)
	c, err := Parse(f)
	require.NoError(t, err)
	assert.Equal(t, ":8082", c.Bind)
	assert.Equal(t, "http://api", c.APIURL)
	assert.Equal(t, int64(5), c.Session.RefreshInterval)
	assert.Equal(t, int64(60), c.Session.RefreshAhead)
	assert.Equal(t, 10000, c.Session.MaxSessions)
	assert.True(t, c.EnableMetrics)
	assert.Equal(t, "info", c.LogInfo.Level)
	assert.EqualValues(t, 5, c.LogInfo.FileCount)
	assert.EqualValues(t, 100*1024*1024, c.LogInfo.FileSize)
	assert.EqualValues(t, 7, c.LogInfo.KeepDays)
	assert.True(t, c.LogInfo.Console)
}

func TestParseLogOverride(t *testing.T) {
	f := writeConfig(t, `{"api_url":"http://api","idp_url":"http://idp","log_info":{"level":"debug","console":false}}`)
	c, err := Parse(f)
	require.NoError(t, err)
	assert.Equal(t, "debug", c.LogInfo.Level)
	assert.False(t, c.LogInfo.Console)
	assert.EqualValues(t, 7, c.LogInfo.KeepDays)
}

func TestParseOverride(t *testing.T) {
	f := writeConfig(t, `{"bind":":9000","api_url":"http://api","idp_url":"http://idp","prefix":"/dav","session":{"refresh_interval":1,"max_sessions":3}}`)
	c, err := Parse(f)
	require.NoError(t, err)
	assert.Equal(t, ":9000", c.Bind)
	assert.Equal(t, "/dav", c.Prefix)
	assert.Equal(t, int64(1), c.Session.RefreshInterval)
	assert.Equal(t, 3, c.Session.MaxSessions)
}

func TestParseEnv(t *testing.T) {
	t.Setenv(envAPIURL, "http://env-api")
	t.Setenv(envBind, ":7000")
	f := writeConfig(t, `{"api_url":"http://api", "idp_url":"http://idp"}`)
	c, err := Parse(f)
	require.NoError(t, err)
	assert.Equal(t, "http://env-api", c.APIURL)
	assert.Equal(t, ":7000", c.Bind)
	assert.Equal(t, "http://idp", c.IdPURL)
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse(writeConfig(t, `{"idp_url":"http://idp"}`))
	assert.Error(t, err)
	_, err = Parse(writeConfig(t, `{"api_url":"http://api"}`))
	assert.Error(t, err)
	_, err = Parse(writeConfig(t, `{bad json`))
	assert.Error(t, err)
	_, err = Parse(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
