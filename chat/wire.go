package chat

import (
	"encoding/json"
	"fmt"

	ns "github.com/go-mclib/server/net_structures"
)

// ToJSONTextComponent renders c into the wire type a packet field carries.
// It only succeeds for a structured component (Text, Translatable, Score,
// Selector, Keybind, NbtContents), since JSONTextComponent is a JSON
// object and a Literal or Array component doesn't marshal to one.
func ToJSONTextComponent(c Chat) (ns.JSONTextComponent, error) {
	raw, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}

	var component ns.JSONTextComponent
	if err := json.Unmarshal(raw, &component); err != nil {
		return nil, fmt.Errorf("chat: component does not serialize to a JSON object: %w", err)
	}
	return component, nil
}

// FromJSONTextComponent parses a wire-level JSONTextComponent back into a
// Chat tree.
func FromJSONTextComponent(component ns.JSONTextComponent) (Chat, error) {
	raw, err := json.Marshal(component)
	if err != nil {
		return Chat{}, err
	}

	var c Chat
	if err := json.Unmarshal(raw, &c); err != nil {
		return Chat{}, err
	}
	return c, nil
}
