// Package chat implements the recursively-defined chat component tree the
// protocol embeds in disconnect reasons, status responses, and system
// messages: a tagged union of literal strings, component arrays, and
// structured variants that each carry an optional style and child list.
package chat

import (
	"encoding/json"
	"fmt"
)

// ClickEventAction names what a click event does when a player clicks the
// component it's attached to.
type ClickEventAction string

const (
	ClickOpenURL         ClickEventAction = "open_url"
	ClickOpenFile        ClickEventAction = "open_file"
	ClickRunCommand      ClickEventAction = "run_command"
	ClickSuggestCommand  ClickEventAction = "suggest_command"
	ClickChangePage      ClickEventAction = "change_page"
	ClickCopyToClipboard ClickEventAction = "copy_to_clipboard"
)

// ClickEvent fires when a player clicks the component carrying it.
type ClickEvent struct {
	Action ClickEventAction
	Value  string
}

func (e ClickEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]string{
		"action": string(e.Action),
		"value":  e.Value,
	})
}

func (e *ClickEvent) UnmarshalJSON(data []byte) error {
	var raw struct {
		Action ClickEventAction `json:"action"`
		Value  string           `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("chat: invalid click event: %w", err)
	}
	e.Action = raw.Action
	e.Value = raw.Value
	return nil
}

// HoverEvent fires while a player hovers over the component carrying it.
// ShowText is the only variant this server ever sends.
type HoverEvent struct {
	Contents Chat
}

func (e HoverEvent) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any{
		"action":   "show_text",
		"contents": e.Contents,
	})
}

func (e *HoverEvent) UnmarshalJSON(data []byte) error {
	var raw struct {
		Contents json.RawMessage `json:"contents"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("chat: invalid hover event: %w", err)
	}
	if raw.Contents == nil {
		return fmt.Errorf("chat: hover event missing contents")
	}
	var contents Chat
	if err := json.Unmarshal(raw.Contents, &contents); err != nil {
		return err
	}
	e.Contents = contents
	return nil
}

// Style carries every display attribute a component can set, each left
// unset (nil) unless explicitly given so it inherits from a parent
// component instead of overriding it.
type Style struct {
	Color         *string
	Bold          *bool
	Italic        *bool
	Underlined    *bool
	Strikethrough *bool
	Obfuscated    *bool
	Insertion     *string
	Font          *string
	HoverEvent    *HoverEvent
	ClickEvent    *ClickEvent
}

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

// WithColor sets the component's color name (e.g. "red") or hex code.
func (s *Style) WithColor(color string) *Style { s.Color = strPtr(color); return s }

// WithBold sets whether the component renders bold.
func (s *Style) WithBold(bold bool) *Style { s.Bold = boolPtr(bold); return s }

// WithItalic sets whether the component renders italic.
func (s *Style) WithItalic(italic bool) *Style { s.Italic = boolPtr(italic); return s }

// WithUnderlined sets whether the component renders underlined.
func (s *Style) WithUnderlined(underlined bool) *Style {
	s.Underlined = boolPtr(underlined)
	return s
}

// WithStrikethrough sets whether the component renders struck through.
func (s *Style) WithStrikethrough(strikethrough bool) *Style {
	s.Strikethrough = boolPtr(strikethrough)
	return s
}

// WithObfuscated sets whether the component renders obfuscated (scrambled).
func (s *Style) WithObfuscated(obfuscated bool) *Style {
	s.Obfuscated = boolPtr(obfuscated)
	return s
}

// WithInsertion sets the text inserted into chat when the component is
// shift-clicked.
func (s *Style) WithInsertion(insertion string) *Style { s.Insertion = strPtr(insertion); return s }

// WithFont sets the resource location of the font the component renders in.
func (s *Style) WithFont(font string) *Style { s.Font = strPtr(font); return s }

// WithHoverEvent attaches a hover event to the component.
func (s *Style) WithHoverEvent(e HoverEvent) *Style { s.HoverEvent = &e; return s }

// WithClickEvent attaches a click event to the component.
func (s *Style) WithClickEvent(e ClickEvent) *Style { s.ClickEvent = &e; return s }

// fields writes every set attribute into m, the JSON object under
// construction for the component this style belongs to.
func (s Style) fields(m map[string]any) {
	if s.Color != nil {
		m["color"] = *s.Color
	}
	if s.Bold != nil {
		m["bold"] = *s.Bold
	}
	if s.Italic != nil {
		m["italic"] = *s.Italic
	}
	if s.Underlined != nil {
		m["underlined"] = *s.Underlined
	}
	if s.Strikethrough != nil {
		m["strikethrough"] = *s.Strikethrough
	}
	if s.Obfuscated != nil {
		m["obfuscated"] = *s.Obfuscated
	}
	if s.Insertion != nil {
		m["insertion"] = *s.Insertion
	}
	if s.Font != nil {
		m["font"] = *s.Font
	}
	if s.HoverEvent != nil {
		m["hoverEvent"] = *s.HoverEvent
	}
	if s.ClickEvent != nil {
		m["clickEvent"] = *s.ClickEvent
	}
}

func parseStyle(raw map[string]json.RawMessage) (Style, error) {
	var s Style

	if v, ok := raw["color"]; ok {
		var color string
		if err := json.Unmarshal(v, &color); err != nil {
			return s, fmt.Errorf("chat: invalid color: %w", err)
		}
		s.Color = &color
	}
	if v, ok := raw["bold"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			return s, fmt.Errorf("chat: invalid bold: %w", err)
		}
		s.Bold = &b
	}
	if v, ok := raw["italic"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			return s, fmt.Errorf("chat: invalid italic: %w", err)
		}
		s.Italic = &b
	}
	if v, ok := raw["underlined"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			return s, fmt.Errorf("chat: invalid underlined: %w", err)
		}
		s.Underlined = &b
	}
	if v, ok := raw["strikethrough"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			return s, fmt.Errorf("chat: invalid strikethrough: %w", err)
		}
		s.Strikethrough = &b
	}
	if v, ok := raw["obfuscated"]; ok {
		var b bool
		if err := json.Unmarshal(v, &b); err != nil {
			return s, fmt.Errorf("chat: invalid obfuscated: %w", err)
		}
		s.Obfuscated = &b
	}
	if v, ok := raw["insertion"]; ok {
		var str string
		if err := json.Unmarshal(v, &str); err != nil {
			return s, fmt.Errorf("chat: invalid insertion: %w", err)
		}
		s.Insertion = &str
	}
	if v, ok := raw["font"]; ok {
		var str string
		if err := json.Unmarshal(v, &str); err != nil {
			return s, fmt.Errorf("chat: invalid font: %w", err)
		}
		s.Font = &str
	}
	if v, ok := raw["hoverEvent"]; ok {
		var e HoverEvent
		if err := json.Unmarshal(v, &e); err != nil {
			return s, err
		}
		s.HoverEvent = &e
	}
	if v, ok := raw["clickEvent"]; ok {
		var e ClickEvent
		if err := json.Unmarshal(v, &e); err != nil {
			return s, err
		}
		s.ClickEvent = &e
	}

	return s, nil
}
