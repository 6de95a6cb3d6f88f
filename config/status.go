package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-mclib/server/chat"
)

// StatusSamplePlayer is one entry in the status response's player sample list.
type StatusSamplePlayer struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type statusVersion struct {
	Name     string `json:"name"`
	Protocol int32  `json:"protocol"`
}

type statusPlayers struct {
	Max    int                  `json:"max"`
	Online int                  `json:"online"`
	Sample []StatusSamplePlayer `json:"sample,omitempty"`
}

type statusDocument struct {
	Version      statusVersion `json:"version"`
	Players      statusPlayers `json:"players"`
	Description  chat.Chat     `json:"description"`
	Favicon      string        `json:"favicon,omitempty"`
	PreviewsChat bool          `json:"previewsChat,omitempty"`
}

// StatusResponder builds the JSON status document returned to a client's
// Status Request, using the server's configuration plus a live player count.
type StatusResponder struct {
	cfg     ServerConfig
	favicon string // pre-encoded "data:image/png;base64,..." or empty
}

// NewStatusResponder loads and base64-encodes the favicon named in cfg (if
// any) once, so every status response reuses the same encoded string.
func NewStatusResponder(cfg ServerConfig) (*StatusResponder, error) {
	r := &StatusResponder{cfg: cfg}

	if cfg.FaviconPath == "" {
		return r, nil
	}

	raw, err := os.ReadFile(cfg.FaviconPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read favicon %s: %w", cfg.FaviconPath, err)
	}
	r.favicon = "data:image/png;base64," + base64.StdEncoding.EncodeToString(raw)

	return r, nil
}

// Build renders the status JSON document for the given online player count.
// sample populates the player sample list (capped at 12 entries, matching
// vanilla's default sample size).
func (r *StatusResponder) Build(onlinePlayers int, sample []StatusSamplePlayer) ([]byte, error) {
	if len(sample) > 12 {
		sample = sample[:12]
	}

	doc := statusDocument{
		Version: statusVersion{
			Name:     r.cfg.VersionName,
			Protocol: r.cfg.ProtocolVersion,
		},
		Players: statusPlayers{
			Max:    r.cfg.MaxPlayers,
			Online: onlinePlayers,
			Sample: sample,
		},
		Description:  chat.Text(r.cfg.MOTD),
		Favicon:      r.favicon,
		PreviewsChat: r.cfg.PreviewsChat,
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal status document: %w", err)
	}
	return body, nil
}
