// Package config loads per-server settings from a YAML document, the way
// dmitrymodder-minewire loads server.yaml into its Config struct.
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ForwardingMode is the only authentication flow this server implements: the
// vanilla ("Notchian") RSA challenge against Mojang's session server.
type ForwardingMode struct {
	ForceKeyAuthentication bool `yaml:"force_key_authentication"`
	CompressionThreshold   int  `yaml:"compression_threshold"`
}

// ServerConfig is the root configuration record: connection/auth settings
// plus the fields the status responder needs to build its JSON document.
type ServerConfig struct {
	Bind           string         `yaml:"bind"`
	AuthURL        string         `yaml:"auth_url"`
	ForwardingMode ForwardingMode `yaml:"forwarding_mode"`

	VersionName     string   `yaml:"version_name"`
	ProtocolVersion int32    `yaml:"protocol_version"`
	MOTD            string   `yaml:"motd"`
	MaxPlayers      int      `yaml:"max_players"`
	FaviconPath     string   `yaml:"favicon_path"`
	SamplePlayers   []string `yaml:"sample_players"`
	PreviewsChat    bool     `yaml:"previews_chat"`
}

// Default returns the configuration a freshly-unpacked server would run with
// before server.yaml is applied on top.
func Default() ServerConfig {
	return ServerConfig{
		Bind:    "0.0.0.0:25565",
		AuthURL: "https://sessionserver.mojang.com",
		ForwardingMode: ForwardingMode{
			CompressionThreshold: 256,
		},
		MaxPlayers: 20,
	}
}

// Load reads and decodes a YAML server configuration from path, layering it
// over Default().
func Load(path string) (ServerConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return ServerConfig{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads and decodes a YAML server configuration from r, layering it
// over Default().
func Decode(r io.Reader) (ServerConfig, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&cfg); err != nil {
		return ServerConfig{}, fmt.Errorf("invalid server config: %w", err)
	}
	return cfg, nil
}
