package config

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/tsproto/ingest/srt"
)

func validTestConfig() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Inspect: InspectConfig{Shards: 2, Output: "text"},
		SRT:     SRTConfig{Listen: ":6000"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	v := viper.New()
	Init(v, "", t.TempDir())
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, runtime.NumCPU(), cfg.Inspect.Shards)
	assert.Equal(t, "text", cfg.Inspect.Output)
	assert.False(t, cfg.Inspect.Events)
	assert.Equal(t, ":6000", cfg.SRT.Listen)
	assert.Equal(t, srt.DefaultDialTimeout, cfg.SRT.DialTimeout)
	assert.Empty(t, cfg.SRT.Pulls)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tsprobe.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
logging:
  level: WARNING
  format: json
inspect:
  shards: 3
  output: yaml
  events: true
srt:
  listen: 127.0.0.1:7000
  dial_timeout: 3s
  pulls:
    - address: 10.0.0.1:9000
      stream_key: cam1
      stream_id: live/cam1
`), 0o600))

	v := viper.New()
	Init(v, path, "")
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 3, cfg.Inspect.Shards)
	assert.Equal(t, "yaml", cfg.Inspect.Output)
	assert.True(t, cfg.Inspect.Events)
	assert.Equal(t, "127.0.0.1:7000", cfg.SRT.Listen)
	assert.Equal(t, 3*time.Second, cfg.SRT.DialTimeout)
	assert.Equal(t, []srt.PullRequest{{Address: "10.0.0.1:9000", StreamKey: "cam1", StreamID: "live/cam1"}}, cfg.SRT.Pulls)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("TSPROBE_INSPECT_SHARDS", "5")
	t.Setenv("TSPROBE_LOGGING_FORMAT", "json")
	t.Setenv("TSPROBE_SRT_LISTEN", ":9999")

	v := viper.New()
	Init(v, "", t.TempDir())
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Inspect.Shards)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, ":9999", cfg.SRT.Listen)
}

func TestLoad_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging: [unclosed"), 0o600))

	v := viper.New()
	Init(v, path, "")
	_, err := Load(v)
	require.ErrorContains(t, err, "reading config file")
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("TSPROBE_INSPECT_OUTPUT", "xml")

	v := viper.New()
	Init(v, "", t.TempDir())
	_, err := Load(v)
	require.ErrorContains(t, err, "inspect.output")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{name: "valid", modify: func(*Config) {}},
		{name: "bad level", modify: func(c *Config) { c.Logging.Level = "trace" }, wantErr: "logging.level"},
		{name: "bad format", modify: func(c *Config) { c.Logging.Format = "xml" }, wantErr: "logging.format"},
		{name: "negative shards", modify: func(c *Config) { c.Inspect.Shards = -1 }, wantErr: "inspect.shards"},
		{name: "zero shards", modify: func(c *Config) { c.Inspect.Shards = 0 }},
		{name: "bad output", modify: func(c *Config) { c.Inspect.Output = "csv" }, wantErr: "inspect.output"},
		{name: "no listen", modify: func(c *Config) { c.SRT.Listen = "" }, wantErr: "srt.listen"},
		{name: "pull without key", modify: func(c *Config) {
			c.SRT.Pulls = []srt.PullRequest{{Address: "a:1"}}
		}, wantErr: "srt.pulls[0]"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := validTestConfig()
			tc.modify(cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := LoggingConfig{Level: "warn", Format: "json"}.NewLogger(&buf)
	log.Info("hidden")
	log.Warn("shown", "pid", 256)
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"pid":256`)

	buf.Reset()
	log = LoggingConfig{Level: "debug", Format: "text"}.NewLogger(&buf)
	log.Debug("detail")
	assert.Contains(t, buf.String(), "msg=detail")
}
