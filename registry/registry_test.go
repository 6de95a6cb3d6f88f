package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jp "github.com/go-mclib/server/java_protocol"
	"github.com/go-mclib/server/registry"
)

func TestEmitDispatchesToRegisteredHandler(t *testing.T) {
	r := registry.New(true)

	var gotID int32
	r.Attach(jp.Handshake, jp.StateHandshake, 0x00, func(ctx any, p *jp.Packet) error {
		gotID = int32(p.PacketID)
		return nil
	})

	pkt := &jp.Packet{State: jp.StateHandshake, Bound: jp.C2S, PacketID: 0x00}
	err := r.Emit(nil, jp.Handshake, pkt)

	require.NoError(t, err)
	assert.Equal(t, int32(0x00), gotID)
}

func TestEmitFailsOnUnknownWhenConfigured(t *testing.T) {
	r := registry.New(true)

	pkt := &jp.Packet{State: jp.StateLogin, Bound: jp.C2S, PacketID: 0x05}
	err := r.Emit(nil, jp.Handshake, pkt)

	require.Error(t, err)
	var unknown *registry.UnknownPacketError
	assert.ErrorAs(t, err, &unknown)
}

func TestEmitIgnoresUnknownWhenNotFailing(t *testing.T) {
	r := registry.New(false)

	pkt := &jp.Packet{State: jp.StateLogin, Bound: jp.C2S, PacketID: 0x05}
	err := r.Emit(nil, jp.Handshake, pkt)

	require.NoError(t, err)
}

func TestClearRemovesMappings(t *testing.T) {
	r := registry.New(true)
	r.Attach(jp.Handshake, jp.StateHandshake, 0x00, func(ctx any, p *jp.Packet) error { return nil })

	r.Clear()

	pkt := &jp.Packet{State: jp.StateHandshake, Bound: jp.C2S, PacketID: 0x00}
	err := r.Emit(nil, jp.Handshake, pkt)

	require.Error(t, err)
}

func TestStateDistinguishesIdenticalPacketIDs(t *testing.T) {
	r := registry.New(true)

	var handshakeCalled, loginCalled bool
	r.Attach(jp.Handshake, jp.StateHandshake, 0x00, func(ctx any, p *jp.Packet) error {
		handshakeCalled = true
		return nil
	})
	r.Attach(jp.Handshake, jp.StateLogin, 0x00, func(ctx any, p *jp.Packet) error {
		loginCalled = true
		return nil
	})

	require.NoError(t, r.Emit(nil, jp.Handshake, &jp.Packet{State: jp.StateLogin, PacketID: 0x00}))
	assert.True(t, loginCalled)
	assert.False(t, handshakeCalled)
}
