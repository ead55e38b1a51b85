package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name      string
		env       map[string]string
		check     func(t *testing.T, cfg Config)
		wantWarns int
	}{
		{
			name: "unset leaves defaults",
			env:  map[string]string{},
			check: func(t *testing.T, cfg Config) {
				require.Equal(t, Default(), cfg)
			},
		},
		{
			name: "blank values are ignored",
			env:  map[string]string{EnvListen: "  ", EnvLogLevel: ""},
			check: func(t *testing.T, cfg Config) {
				require.Equal(t, "127.0.0.1:8787", cfg.HTTP.Listen)
				require.Equal(t, "info", cfg.Debug.LogLevel)
			},
		},
		{
			name: "archive dir keeps configured backend",
			env:  map[string]string{EnvArchiveDir: "/srv/interviews"},
			check: func(t *testing.T, cfg Config) {
				require.Equal(t, "dir", cfg.Archive.Backend)
				require.Equal(t, "/srv/interviews", cfg.Archive.Dir)
			},
		},
		{
			name: "offline accepts strconv booleans",
			env:  map[string]string{EnvOffline: "1"},
			check: func(t *testing.T, cfg Config) {
				require.True(t, cfg.Interview.Offline)
			},
		},
		{
			name: "invalid offline warns",
			env:  map[string]string{EnvOffline: "sometimes"},
			check: func(t *testing.T, cfg Config) {
				require.False(t, cfg.Interview.Offline)
			},
			wantWarns: 1,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			warnings := applyEnv(&cfg, func(key string) (string, bool) {
				value, ok := tc.env[key]
				return value, ok
			})
			require.Len(t, warnings, tc.wantWarns)
			tc.check(t, cfg)
		})
	}
}

func TestParseValidatesDecodedConfig(t *testing.T) {
	_, _, err := Parse(`{"interview": {"questions": 0}}`, Default())
	require.ErrorContains(t, err, "interview.questions must be > 0")

	cfg, warnings, err := Parse(`{"speech": {"enable": false}}`, Default())
	require.NoError(t, err)
	require.False(t, cfg.Speech.Enable)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "real_time_transcription")
}
