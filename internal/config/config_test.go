package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func flagSetFrom(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(flags)
	require.NoError(t, flags.Parse(args))
	return flags
}

func TestLoad_Defaults(t *testing.T) {
	flags := flagSetFrom(t,
		"--service-id", "example",
	)

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "example", cfg.ServiceID)
	assert.Contains(t, cfg.FeedURL, "wss://push.planetside2.com")
	assert.Equal(t, []int16{1, 10, 13, 17, 40}, cfg.Worlds)
	assert.Equal(t, "127.0.0.1:9100", cfg.MetricsAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spyglass.yaml")
	content := `
service_id: fromfile
worlds: [17]
metrics_addr: "0.0.0.0:9200"
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "fromfile", cfg.ServiceID)
	assert.Equal(t, []int16{17}, cfg.Worlds)
	assert.Equal(t, "0.0.0.0:9200", cfg.MetricsAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	// Untouched keys keep their defaults.
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spyglass.yaml")
	content := `
service_id: fromfile
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	flags := flagSetFrom(t,
		"--service-id", "fromflag",
		"--world", "1",
		"--world", "13",
	)

	cfg, err := Load(path, flags)
	require.NoError(t, err)

	assert.Equal(t, "fromflag", cfg.ServiceID)
	assert.Equal(t, []int16{1, 13}, cfg.Worlds)
	// File values not overridden by flags survive.
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_MissingFileIsSkipped(t *testing.T) {
	flags := flagSetFrom(t, "--service-id", "example")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), flags)
	require.NoError(t, err)
	assert.Equal(t, "example", cfg.ServiceID)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "spyglass.yaml")
	require.NoError(t, os.WriteFile(path, []byte("worlds: [1,"), 0o600))

	_, err := Load(path, nil)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid",
			cfg: Config{
				ServiceID:   "example",
				DatabaseURL: "postgres://localhost/spyglass",
				Worlds:      []int16{1},
			},
		},
		{
			name: "missing service id",
			cfg: Config{
				DatabaseURL: "postgres://localhost/spyglass",
				Worlds:      []int16{1},
			},
			wantErr: true,
		},
		{
			name: "missing database url",
			cfg: Config{
				ServiceID: "example",
				Worlds:    []int16{1},
			},
			wantErr: true,
		},
		{
			name: "no worlds",
			cfg: Config{
				ServiceID:   "example",
				DatabaseURL: "postgres://localhost/spyglass",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
