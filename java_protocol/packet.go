// The `java_protocol` package contains the core structs and functions for working with the Java Edition protocol.
//
// > The Minecraft server accepts connections from TCP clients and communicates with them using packets.
// A packet is a sequence of bytes sent over the TCP connection (note: see `net_structures.ByteArray`).
// The meaning of a packet depends both on its packet ID and the current state of the connection
// (note: each state has its own packet ID counter, so packets in different states can have the same packet ID).
// The initial state of each connection is Handshaking, and state is switched using the packets 'Handshake' and 'Login Success'."
//
// Packet format:
//
// > Packets cannot be larger than (2^21) − 1 or 2 097 151 bytes (the maximum that can be sent in a 3-byte VarInt).
// Moreover, the length field must not be longer than 3 bytes, even if the encoded value is within the limit.
// Unnecessarily long encodings at 3 bytes or below are still allowed.
// For compressed packets, this applies to the Packet Length field, i. e. the compressed length.
//
// See https://minecraft.wiki/w/Java_Edition_protocol/Packets
package java_protocol

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	ns "github.com/go-mclib/server/net_structures"
)

// State is the phase that the packet is in (handshake, status, login, configuration, play).
// This is not sent over network (server and client automatically transition phases).
type State uint8

const (
	StateHandshake State = iota
	StateStatus
	StateLogin
	StateConfiguration
	StatePlay
)

func (s State) String() string {
	switch s {
	case StateHandshake:
		return "Handshake"
	case StateStatus:
		return "Status"
	case StateLogin:
		return "Login"
	case StateConfiguration:
		return "Configuration"
	case StatePlay:
		return "Play"
	default:
		return "Unknown"
	}
}

// Bound is the direction that the packet is going.
//
// Serverbound: Client -> Server (C2S)
//
// Clientbound: Server -> Client (S2C)
type Bound uint8

const (
	// Client -> Server (C2S, serverbound)
	C2S Bound = iota
	// Server -> Client (S2C, clientbound)
	S2C
)

// Packet is a single framed Java Edition protocol message: a protocol state,
// a direction, a packet ID and its raw (already field-encoded) payload.
//
// Every concrete packet in the `packets` package is declared as a package-level
// template built with NewPacket, e.g.:
//
//	var C2SIntentionPacket = jp.NewPacket(jp.StateHandshake, jp.C2S, 0x00)
//
// A concrete instance carrying data for a single send/receive is derived from
// that template with WithData, and turned into wire bytes with ToBytes.
type Packet struct {
	State    State
	Bound    Bound
	PacketID ns.VarInt
	Data     ns.ByteArray
}

// NewPacket declares a packet template identified by its protocol state,
// direction, and ID. Templates carry no data; use WithData to attach a payload.
func NewPacket(state State, bound Bound, packetID ns.VarInt) *Packet {
	return &Packet{State: state, Bound: bound, PacketID: packetID}
}

// WithData marshals v (a field-tagged struct, see packet_codec.go) into a new
// Packet carrying p's state/direction/ID and the marshaled data. p itself is
// left untouched, so a template can be reused across many calls.
func (p *Packet) WithData(v any) (*Packet, error) {
	data, err := PacketDataToBytes(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal packet data: %w", err)
	}
	return &Packet{State: p.State, Bound: p.Bound, PacketID: p.PacketID, Data: data}, nil
}

// Unmarshal decodes the packet's Data into v (a field-tagged struct pointer).
func (p *Packet) Unmarshal(v any) error {
	return BytesToPacketData(p.Data, v)
}

// ToBytes serializes the packet into the on-the-wire frame, applying zlib
// compression framing once compressionThreshold is non-negative.
//
// Structure:
//
//	if (size >= networkCompressionThreshold)
//		packetLength: VarInt(Length of (Data Length) + length of compressed (Packet ID + Data)) +
//		dataLength: VarInt(Length of uncompressed (Packet ID + Data)) +
//		packetID: compressed(VarInt(Packet ID)) +
//		data: compressed(Data)
//	if (size < networkCompressionThreshold)
//		packetLength: VarInt(Length of (Data Length) + length of uncompressed (Packet ID + Data)) +
//		dataLength: VarInt(0) + // compressed data length is 0, which means no compression is used
//		packetID: VarInt(Packet ID) +
//		data: ByteArray(Data)
//
// https://minecraft.wiki/w/Java_Edition_protocol/Packets#Packet_format
func (p *Packet) ToBytes(compressionThreshold int) ([]byte, error) {
	if compressionThreshold >= 0 {
		return p.toBytesCompressed(compressionThreshold)
	}
	return p.toBytesUncompressed()
}

func (p *Packet) toBytesCompressed(compressionThreshold int) ([]byte, error) {
	packetIDBytes, err := p.PacketID.ToBytes()
	if err != nil {
		return nil, err
	}
	uncompressedPayload := append(packetIDBytes, p.Data...)
	uncompressedLength := len(uncompressedPayload)

	if uncompressedLength >= compressionThreshold {
		compressedPayload := compressZlib(uncompressedPayload)

		dataLengthBytes, err := ns.VarInt(uncompressedLength).ToBytes()
		if err != nil {
			return nil, err
		}
		packetContent := append(dataLengthBytes, compressedPayload...)
		packetLengthBytes, err := ns.VarInt(len(packetContent)).ToBytes()
		if err != nil {
			return nil, err
		}

		return append(packetLengthBytes, packetContent...), nil
	}

	// below threshold: sent uncompressed, with Data Length = 0
	dataLengthBytes, err := ns.VarInt(0).ToBytes()
	if err != nil {
		return nil, err
	}
	packetContent := append(dataLengthBytes, uncompressedPayload...)
	packetLengthBytes, err := ns.VarInt(len(packetContent)).ToBytes()
	if err != nil {
		return nil, err
	}

	return append(packetLengthBytes, packetContent...), nil
}

func (p *Packet) toBytesUncompressed() ([]byte, error) {
	packetIDBytes, err := p.PacketID.ToBytes()
	if err != nil {
		return nil, err
	}

	payload := append(packetIDBytes, p.Data...)
	packetLengthBytes, err := ns.VarInt(len(payload)).ToBytes()
	if err != nil {
		return nil, err
	}

	return append(packetLengthBytes, payload...), nil
}

// ReadPacket reads one framed packet from r, decoding the compression envelope
// when compressionThreshold is non-negative. The returned packet's State and
// Bound are left zero-valued; the caller (which knows the connection's current
// state) is expected to set them, typically via the packet registry lookup
// keyed on the raw PacketID.
func ReadPacket(r io.Reader, compressionThreshold int) (*Packet, error) {
	packetLength, err := readVarInt(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read packet length: %w", err)
	}

	data := make([]byte, packetLength)
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("failed to read packet data: %w", err)
	}

	reader := bytes.NewReader(data)

	if compressionThreshold >= 0 {
		return readCompressedPacket(reader)
	}
	return readUncompressedPacket(reader)
}

func readUncompressedPacket(reader *bytes.Reader) (*Packet, error) {
	packetID, err := readVarInt(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read packet ID: %w", err)
	}

	remainingData, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read remaining data: %w", err)
	}

	return &Packet{PacketID: packetID, Data: ns.ByteArray(remainingData)}, nil
}

func readCompressedPacket(reader *bytes.Reader) (*Packet, error) {
	dataLength, err := readVarInt(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read data length: %w", err)
	}

	// dataLength == 0 means uncompressed despite compression being enabled
	if dataLength == 0 {
		return readUncompressedPacket(reader)
	}

	compressedData, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read compressed data: %w", err)
	}
	uncompressedData, err := decompressZlib(compressedData)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress: %w", err)
	}

	uncompressedReader := bytes.NewReader(uncompressedData)
	packetID, err := readVarInt(uncompressedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read packet ID: %w", err)
	}

	remainingData, err := io.ReadAll(uncompressedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read remaining data: %w", err)
	}
	return &Packet{PacketID: packetID, Data: ns.ByteArray(remainingData)}, nil
}

// readVarInt decodes a VarInt one byte at a time directly from r, since the
// length-prefix fields of the framing layer arrive before we know how many
// bytes the rest of the frame occupies and so can't go through ns.VarInt's
// buffer-based FromBytes.
func readVarInt(r io.Reader) (ns.VarInt, error) {
	var value uint32
	var position uint
	buf := make([]byte, 1)

	for {
		if _, err := io.ReadFull(r, buf); err != nil {
			return 0, err
		}
		currentByte := buf[0]
		value |= uint32(currentByte&0x7F) << position

		if currentByte&0x80 == 0 {
			return ns.VarInt(int32(value)), nil
		}

		position += 7
		if position >= 32 {
			return 0, fmt.Errorf("VarInt too big")
		}
	}
}

func compressZlib(data []byte) []byte {
	compressedData := bytes.NewBuffer(nil)
	writer := zlib.NewWriter(compressedData)
	_, _ = writer.Write(data)
	_ = writer.Close()
	return compressedData.Bytes()
}

func decompressZlib(data []byte) ([]byte, error) {
	reader, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	return io.ReadAll(reader)
}
