package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points the loader at an empty directory and clears every key it reads.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("RESEARCH_ENV_FILE", filepath.Join(dir, "missing.env"))
	for _, key := range append([]string{
		"AGENTS_API_VERSION", "RESEARCH_POLL_INTERVAL_MS", "RESEARCH_MAX_WAIT",
		"RESEARCH_SUMMARY_PATH", "KEEP_AGENT", "RESEARCH_JOURNAL_DSN",
		"RESEARCH_POLICY_FILE", "RESEARCH_MODE", "LOG_LEVEL",
	}, RequiredKeys...) {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "v1", cfg.APIVersion)
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Zero(t, cfg.MaxWait)
	assert.Equal(t, "research_summary.md", cfg.SummaryPath)
	assert.False(t, cfg.KeepAgent)
	assert.False(t, cfg.IsMock())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Empty(t, cfg.EnvFile)
}

func TestLoadFromEnvFileWithEnvOverride(t *testing.T) {
	dir := isolate(t)
	envFile := filepath.Join(dir, ".env")
	content := "PROJECT_ENDPOINT=https://file.example/api/projects/p\n" +
		"BING_RESOURCE_NAME=bing-file\n" +
		"DEEP_RESEARCH_MODEL_DEPLOYMENT_NAME=o3-deep-research\n" +
		"MODEL_DEPLOYMENT_NAME=gpt-4o\n" +
		"RESEARCH_MAX_WAIT=15m\n"
	require.NoError(t, os.WriteFile(envFile, []byte(content), 0o600))
	t.Setenv("RESEARCH_ENV_FILE", envFile)
	t.Setenv("BING_RESOURCE_NAME", "bing-env")
	t.Setenv("RESEARCH_MODE", "mock")
	t.Setenv("KEEP_AGENT", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, envFile, cfg.EnvFile)
	assert.Equal(t, "https://file.example/api/projects/p", cfg.ProjectEndpoint)
	assert.Equal(t, "bing-env", cfg.BingResourceName)
	assert.Equal(t, "o3-deep-research", cfg.DeepResearchModel)
	assert.Equal(t, "gpt-4o", cfg.ModelDeployment)
	assert.Equal(t, 15*time.Minute, cfg.MaxWait)
	assert.True(t, cfg.KeepAgent)
	assert.True(t, cfg.IsMock())
	assert.NoError(t, cfg.Validate())
}

func TestValidateListsEveryMissingKey(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		missing []string
	}{
		{
			name:    "all missing",
			cfg:     Config{},
			missing: RequiredKeys,
		},
		{
			name:    "endpoint and model missing",
			cfg:     Config{BingResourceName: "bing", DeepResearchModel: "o3"},
			missing: []string{KeyProjectEndpoint, KeyModelDeployment},
		},
		{
			name:    "only research model missing",
			cfg:     Config{ProjectEndpoint: "https://x", BingResourceName: "bing", ModelDeployment: "gpt"},
			missing: []string{KeyDeepResearchModel},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMissingRequired))

			var missingErr *MissingError
			require.True(t, errors.As(err, &missingErr))
			assert.Equal(t, tt.missing, missingErr.Names)
		})
	}
}

func TestLoadRejectsBadPollInterval(t *testing.T) {
	for _, raw := range []string{"abc", "1s", "1.5"} {
		t.Run(raw, func(t *testing.T) {
			isolate(t)
			t.Setenv("RESEARCH_POLL_INTERVAL_MS", raw)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "RESEARCH_POLL_INTERVAL_MS")
		})
	}
}

func TestValidateRejectsNonPositivePollInterval(t *testing.T) {
	for _, raw := range []string{"0", "-5"} {
		t.Run(raw, func(t *testing.T) {
			isolate(t)
			for _, key := range RequiredKeys {
				t.Setenv(key, "set")
			}
			t.Setenv("RESEARCH_POLL_INTERVAL_MS", raw)

			cfg, err := Load()
			require.NoError(t, err)
			err = cfg.Validate()
			require.Error(t, err)
			assert.False(t, errors.Is(err, ErrMissingRequired))
			assert.Contains(t, err.Error(), "RESEARCH_POLL_INTERVAL_MS")
		})
	}
}

func TestLoadMaxWait(t *testing.T) {
	tests := []struct {
		raw     string
		want    time.Duration
		wantErr bool
	}{
		{raw: "0", want: 0},
		{raw: "90s", want: 90 * time.Second},
		{raw: "ten minutes", wantErr: true},
		{raw: "600", wantErr: true},
		{raw: "-1m", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			isolate(t)
			t.Setenv("RESEARCH_MAX_WAIT", tt.raw)

			cfg, err := Load()
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "RESEARCH_MAX_WAIT")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.MaxWait)
		})
	}
}
