// Package registry dispatches incoming packets to handlers keyed by protocol
// version, state, and packet ID — the same shape as a vanilla client/server's
// per-phase packet ID table, just held explicitly instead of switch-cased.
package registry

import (
	"fmt"
	"sync"

	jp "github.com/go-mclib/server/java_protocol"
)

// Handler processes one packet's already-framed body. ctx carries whatever
// per-connection state the caller's handlers need; the registry itself is
// agnostic to its type.
type Handler func(ctx any, packet *jp.Packet) error

type key struct {
	version jp.ProtocolVersion
	state   jp.State
	id      int32
}

// Registry holds a map (protocol_version, state, packet_id) -> Handler.
// Registrations may be added or cleared at any time; phase transitions
// typically clear and re-register wholesale.
type Registry struct {
	mu            sync.RWMutex
	mappings      map[key]Handler
	failOnUnknown bool
}

// New creates a registry. When failOnUnknown is true, Emit returns an
// UnknownPacketError for any packet with no matching handler; otherwise such
// packets are silently ignored.
func New(failOnUnknown bool) *Registry {
	return &Registry{
		mappings:      make(map[key]Handler),
		failOnUnknown: failOnUnknown,
	}
}

// Attach registers h for the given version/state/packet ID, replacing any
// existing mapping for that key.
func (r *Registry) Attach(version jp.ProtocolVersion, state jp.State, id int32, h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mappings[key{version, state, id}] = h
}

// Clear removes every mapping, e.g. on a phase transition that needs a fresh
// handler set.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mappings = make(map[key]Handler)
}

// UnknownPacketError is returned by Emit when a fail-on-unknown registry has
// no handler for the packet's (version, state, id).
type UnknownPacketError struct {
	Version jp.ProtocolVersion
	State   jp.State
	ID      int32
}

func (e *UnknownPacketError) Error() string {
	return fmt.Sprintf("registry: unknown packet 0x%02X (version=%s, state=%s)", e.ID, e.Version, e.State)
}

// Emit looks up the handler for packet's (version, state, id) and invokes it.
// If no handler is registered: a fail-on-unknown registry returns
// UnknownPacketError; otherwise the packet is ignored and Emit returns nil.
func (r *Registry) Emit(ctx any, version jp.ProtocolVersion, packet *jp.Packet) error {
	r.mu.RLock()
	handler, ok := r.mappings[key{version, packet.State, int32(packet.PacketID)}]
	r.mu.RUnlock()

	if !ok {
		if r.failOnUnknown {
			return &UnknownPacketError{Version: version, State: packet.State, ID: int32(packet.PacketID)}
		}
		return nil
	}

	return handler(ctx, packet)
}
