package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/ohq-bluejeans/internal/bluejeans"
	"github.com/teemow/ohq-bluejeans/internal/config"
	"github.com/teemow/ohq-bluejeans/internal/tools/bluejeans_tools"
)

// isolateConfig points the persistent flags at an empty environment.
func isolateConfig(t *testing.T) {
	t.Helper()
	oldEnv, oldConfig, oldLevel, oldFormat := envFile, configFile, logLevel, logFormat
	t.Cleanup(func() {
		envFile, configFile, logLevel, logFormat = oldEnv, oldConfig, oldLevel, oldFormat
	})
	envFile = filepath.Join(t.TempDir(), "missing.env")
	configFile = ""
	logLevel = "error"
	logFormat = ""

	for _, key := range []string{
		config.KeyClientID, config.KeyClientSecret, config.KeyEnabledBackends,
		config.KeyStoreType, config.KeyTokenExpiryMode, config.KeyTimezone,
	} {
		t.Setenv(key, "")
	}
}

func TestRegisterAllTools(t *testing.T) {
	sc, err := docsServerContext(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	readOnly, err := registeredTools(sc, true)
	require.NoError(t, err)
	assert.Len(t, readOnly, 4)
	assert.Contains(t, readOnly, bluejeans_tools.ToolProvisionMeeting)
	assert.NotContains(t, readOnly, bluejeans_tools.ToolDeleteMeeting)

	all, err := registeredTools(sc, false)
	require.NoError(t, err)
	assert.Len(t, all, 7)
	for _, name := range []string{
		bluejeans_tools.ToolUpdateMeeting,
		bluejeans_tools.ToolDeleteMeeting,
		bluejeans_tools.ToolReleaseMeeting,
	} {
		assert.Contains(t, all, name)
	}
}

func TestGenerateDocs(t *testing.T) {
	markdown, err := generateDocs()
	require.NoError(t, err)

	assert.Contains(t, markdown, "# MCP Tools Reference")
	assert.Contains(t, markdown, "### bluejeans_get_user\n")
	assert.Contains(t, markdown, "### bluejeans_delete_meeting (*write*)")
	assert.Contains(t, markdown, "- `email` (required): ")
	assert.Contains(t, markdown, "- `title` (optional): ")
}

func TestMeetingFlags_Update(t *testing.T) {
	var flags meetingFlags
	cmd := &cobra.Command{Use: "test"}
	flags.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--title", "Exam review", "--duration", "45m", "--moderator-less=false"}))

	u, err := flags.update(cmd)
	require.NoError(t, err)
	require.NotNil(t, u.Title)
	assert.Equal(t, "Exam review", *u.Title)
	require.NotNil(t, u.Length)
	assert.Equal(t, 45*time.Minute, *u.Length)
	require.NotNil(t, u.ModeratorLess)
	assert.False(t, *u.ModeratorLess)
	assert.Nil(t, u.Start)
	assert.Nil(t, u.Description)
	assert.Nil(t, u.Timezone)
}

func TestMeetingFlags_InvalidStart(t *testing.T) {
	var flags meetingFlags
	cmd := &cobra.Command{Use: "test"}
	flags.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--start", "tomorrow"}))

	_, err := flags.update(cmd)
	assert.ErrorContains(t, err, "invalid --start")
}

func TestApplySettingsUpdate(t *testing.T) {
	now := time.Date(2024, 3, 1, 14, 0, 0, 0, time.UTC)
	settings := bluejeans.DefaultMeetingSettings(now, "")
	length := time.Hour
	title := "Lab hours"

	require.NoError(t, applySettingsUpdate(&settings, bluejeans.MeetingUpdate{Title: &title, Length: &length}))
	assert.Equal(t, "Lab hours", settings.Title)
	assert.Equal(t, now.UnixMilli(), settings.Start)
	assert.Equal(t, now.Add(time.Hour).UnixMilli(), settings.End)
	assert.Equal(t, bluejeans.DefaultEndPointType, settings.EndPointType)
}

func TestBuildServerContext(t *testing.T) {
	isolateConfig(t)

	t.Run("missing credentials", func(t *testing.T) {
		cfg, logger, err := loadConfig()
		require.NoError(t, err)
		_, err = buildServerContext(context.Background(), cfg, logger, nil)
		assert.ErrorContains(t, err, config.KeyClientID)
	})

	t.Run("memory store", func(t *testing.T) {
		t.Setenv(config.KeyClientID, "id")
		t.Setenv(config.KeyClientSecret, "secret")
		t.Setenv(config.KeyTimezone, "Europe/Berlin")

		cfg, logger, err := loadConfig()
		require.NoError(t, err)
		sc, err := buildServerContext(context.Background(), cfg, logger, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = sc.Shutdown() })

		assert.Equal(t, config.StoreMemory, sc.StoreType())
		assert.Equal(t, "Europe/Berlin", sc.Client().Timezone())
		assert.NoError(t, sc.CheckStore(context.Background()))
	})

	t.Run("unreachable redis", func(t *testing.T) {
		t.Setenv(config.KeyClientID, "id")
		t.Setenv(config.KeyClientSecret, "secret")
		t.Setenv(config.KeyStoreType, config.StoreRedis)
		t.Setenv(config.KeyRedisAddr, "127.0.0.1:1")

		cfg, logger, err := loadConfig()
		require.NoError(t, err)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err = buildServerContext(ctx, cfg, logger, nil)
		assert.ErrorContains(t, err, "failed to connect to redis")
	})
}

func TestBackendInfoCmd(t *testing.T) {
	isolateConfig(t)
	t.Setenv(config.KeyEnabledBackends, "zoom, bluejeans")
	t.Setenv(config.KeyTelephoneNum, "+1 555 0100")

	var out bytes.Buffer
	cmd := newBackendInfoCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	var data map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &data))
	assert.Equal(t, "bluejeans", data["name"])
	assert.Equal(t, "BlueJeans", data["friendly_name"])
	assert.Equal(t, true, data["enabled"])
	assert.Equal(t, "+1 555 0100", data["telephone_num"])
}

func TestVersionCmd(t *testing.T) {
	old := version
	t.Cleanup(func() { version = old })
	version = "1.2.3"

	var out bytes.Buffer
	cmd := newVersionCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "ohq-bluejeans version 1.2.3\n", out.String())
}

func TestRunServe_UnsupportedTransport(t *testing.T) {
	err := runServe("sse", "", false, MetricsConfig{})
	assert.ErrorContains(t, err, "unsupported transport type: sse")
}
