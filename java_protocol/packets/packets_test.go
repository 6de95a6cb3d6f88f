package packets_test

import (
	"bytes"
	"testing"

	jp "github.com/go-mclib/server/java_protocol"
	ps "github.com/go-mclib/server/java_protocol/packets"
	ns "github.com/go-mclib/server/net_structures"
)

var testPackets = map[*jp.Packet][]byte{}

func TestPackets(t *testing.T) {
	// build one concrete test: C2S Intention (handshake)
	pkt, err := ps.C2SIntentionPacket.WithData(ps.C2SIntentionPacketData{
		ProtocolVersion: ns.VarInt(760),
		ServerAddress:   ns.String("localhost"),
		ServerPort:      ns.UnsignedShort(25565),
		Intent:          ps.IntentLogin,
	})
	if err != nil {
		t.Fatalf("failed to build packet: %v", err)
	}
	expected := []byte{
		0x10, 0x00, 0xf8, 0x05, 0x09, 0x6c, 0x6f, 0x63, 0x61, 0x6c,
		0x68, 0x6f, 0x73, 0x74, 0x63, 0xdd, 0x02,
	}

	actual, err := pkt.ToBytes(-1)
	if err != nil {
		t.Errorf("Error marshalling packet: %v", err)
	}
	if !bytes.Equal(actual, expected) {
		t.Errorf("Expected %v, got %v", expected, actual)
	}
}
