package java_protocol

import "fmt"

// ProtocolVersion identifies one release of the Java Edition protocol. Packet
// IDs, and occasionally packet shapes, are only stable within a version; the
// registry and packet schema both key on it.
type ProtocolVersion struct {
	Tag  int32
	Name string
}

// NewProtocolVersion declares a protocol version by its numeric protocol tag
// (as sent in the Intention packet) and a human-readable release name.
func NewProtocolVersion(tag int32, name string) ProtocolVersion {
	return ProtocolVersion{Tag: tag, Name: name}
}

// Before reports whether p was released earlier than other.
func (p ProtocolVersion) Before(other ProtocolVersion) bool {
	return p.Tag < other.Tag
}

// After reports whether p was released later than other.
func (p ProtocolVersion) After(other ProtocolVersion) bool {
	return p.Tag > other.Tag
}

func (p ProtocolVersion) String() string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("protocol %d", p.Tag)
}

// Handshake is the sentinel version a connection is assigned before its
// Intention packet has declared a real protocol tag. Handshake and status
// packets are version-invariant, so this only matters before negotiation.
var Handshake = ProtocolVersion{Tag: -1, Name: "handshake"}

// Unknown marks a connection whose declared protocol tag has no registered
// mapping table; registries configured fail-on-unknown reject it outright.
var Unknown = ProtocolVersion{Tag: -2, Name: "unknown"}
