package config_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-mclib/server/config"
)

func TestDefaultValues(t *testing.T) {
	cfg := config.Default()

	assert.Equal(t, "0.0.0.0:25565", cfg.Bind)
	assert.Equal(t, "https://sessionserver.mojang.com", cfg.AuthURL)
	assert.Equal(t, 256, cfg.ForwardingMode.CompressionThreshold)
	assert.False(t, cfg.ForwardingMode.ForceKeyAuthentication)
	assert.Equal(t, 20, cfg.MaxPlayers)
}

func TestDecodeOverlaysDefaults(t *testing.T) {
	yaml := `
bind: "127.0.0.1:25566"
motd: "A test server"
max_players: 50
forwarding_mode:
  force_key_authentication: true
`
	cfg, err := config.Decode(strings.NewReader(yaml))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:25566", cfg.Bind)
	assert.Equal(t, "A test server", cfg.MOTD)
	assert.Equal(t, 50, cfg.MaxPlayers)
	assert.True(t, cfg.ForwardingMode.ForceKeyAuthentication)
	// untouched fields keep their default value
	assert.Equal(t, "https://sessionserver.mojang.com", cfg.AuthURL)
	assert.Equal(t, 256, cfg.ForwardingMode.CompressionThreshold)
}

func TestDecodeRejectsMalformedYAML(t *testing.T) {
	_, err := config.Decode(strings.NewReader("bind: [unterminated"))
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load("/nonexistent/server.yaml")
	require.Error(t, err)
}
