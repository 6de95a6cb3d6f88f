package java_protocol

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"time"

	"github.com/go-mclib/server/crypto"
)

// frameBufferSize is the capacity of each of the raw/decoded arenas: the
// largest legal packet body (2^21-1 bytes, the most a 3-byte VarInt length
// prefix can address) plus a little slack for the prefix itself.
//
// https://minecraft.wiki/w/Java_Edition_protocol/Packets#Packet_format
const frameBufferSize = 2_097_154

// readTimeout bounds each best-effort socket read in Poll, so Poll reports
// Waiting on a connection that goes quiet without closing instead of blocking
// on the read. NextPacket keeps polling on Waiting; it has no overall timeout.
const readTimeout = 10 * time.Second

// ErrTooLarge is returned when the decoded arena fills up without ever
// containing a complete frame — the peer is sending more than a VarInt length
// prefix can possibly address, or has stalled mid-frame past the buffer cap.
var ErrTooLarge = errors.New("java_protocol: frame exceeds buffer capacity")

// BufferState is the outcome of a single Conn.Poll call.
type BufferState int

const (
	// Waiting means no complete frame is available yet; poll again.
	Waiting BufferState = iota
	// PacketReady means decoded holds a complete frame; call NextPacket or
	// extractFrame to consume it.
	PacketReady
	// Error means the connection is unusable; see the accompanying error.
	Error
)

func (s BufferState) String() string {
	switch s {
	case Waiting:
		return "Waiting"
	case PacketReady:
		return "PacketReady"
	case Error:
		return "Error"
	default:
		return "Unknown"
	}
}

// Conn wraps a net.Conn with the framing/compression/encryption pipeline: two
// fixed-capacity arenas (raw undecrypted bytes, decoded plaintext-but-unframed
// bytes) driven by an explicit Waiting/PacketReady/Error poll loop, plus
// transparent AES-CFB8 encryption and zlib-wrapped compression on the write
// side, mirroring the read side's framing.
type Conn struct {
	netConn              net.Conn
	encryption           *crypto.Encryption
	compressionThreshold int // negative disables compression

	raw    []byte
	rawLen int

	decoded    []byte
	decodedLen int

	debug  bool
	logger *log.Logger
}

// NewConn creates a new Conn wrapping the given net.Conn. Compression starts
// disabled (threshold -1); enable it with SetCompressionThreshold once a Set
// Compression packet has been sent/received.
func NewConn(conn net.Conn) *Conn {
	return &Conn{
		netConn:              conn,
		encryption:           crypto.NewEncryption(),
		compressionThreshold: -1,
		raw:                  make([]byte, frameBufferSize),
		decoded:              make([]byte, frameBufferSize),
		logger:               log.New(os.Stdout, "[java_protocol] ", log.LstdFlags),
	}
}

// Encryption returns the encryption instance for configuration (shared secret,
// EnableEncryption).
func (c *Conn) Encryption() *crypto.Encryption {
	return c.encryption
}

// SetCompressionThreshold sets the compression threshold used by both the
// write path (Packet.ToBytes) and the read path (frame extraction). Negative
// disables compression.
func (c *Conn) SetCompressionThreshold(threshold int) {
	c.compressionThreshold = threshold
}

// CompressionThreshold reports the currently configured threshold.
func (c *Conn) CompressionThreshold() int {
	return c.compressionThreshold
}

func (c *Conn) EnableDebug(enabled bool) {
	c.debug = enabled
}

func (c *Conn) SetLogger(l *log.Logger) {
	c.logger = l
}

func (c *Conn) logf(format string, args ...any) {
	if c.logger != nil {
		c.logger.Printf(format, args...)
	} else {
		log.Printf(format, args...)
	}
}

func (c *Conn) debugf(format string, args ...any) {
	if c.debug {
		c.logf(format, args...)
	}
}

// hexSnippet returns a hex string of at most max bytes of data (for debugging).
func hexSnippet(data []byte, max int) string {
	if data == nil {
		return ""
	}
	if max > 0 && len(data) > max {
		return hex.EncodeToString(data[:max]) + "..."
	}
	return hex.EncodeToString(data)
}

// Poll advances the read pipeline by at most one socket read and reports
// whether a complete frame is now sitting in decoded.
//
// 1. If decoded already holds a complete packet, report PacketReady without
//    touching the socket.
// 2. Otherwise attempt a best-effort read into raw with a bounded timeout. A
//    zero-byte read (timeout) either surfaces a packet that became complete
//    in a prior call, signals fatal ErrTooLarge if decoded is already full,
//    or reports Waiting.
// 3. Otherwise decrypt (if enabled) and append as much of raw as decoded has
//    room for, compact raw, and re-check for a complete packet.
func (c *Conn) Poll() (BufferState, error) {
	if _, _, ok, err := packetAvailable(c.decoded[:c.decodedLen]); err != nil {
		return Error, err
	} else if ok {
		return PacketReady, nil
	}

	if err := c.netConn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
		return Error, fmt.Errorf("failed to set read deadline: %w", err)
	}

	n, err := c.netConn.Read(c.raw[c.rawLen:])
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			n = 0
		} else {
			return Error, fmt.Errorf("failed to read from connection: %w", err)
		}
	}
	c.rawLen += n

	if n == 0 {
		if _, _, ok, perr := packetAvailable(c.decoded[:c.decodedLen]); perr != nil {
			return Error, perr
		} else if ok {
			return PacketReady, nil
		}
		if c.decodedLen >= len(c.decoded) {
			return Error, ErrTooLarge
		}
		return Waiting, nil
	}

	transfer := min(c.rawLen, len(c.decoded)-c.decodedLen)
	chunk := c.raw[:transfer]
	if c.encryption.IsEnabled() {
		decrypted := c.encryption.Decrypt(chunk)
		copy(chunk, decrypted)
	}
	copy(c.decoded[c.decodedLen:], chunk)
	c.decodedLen += transfer

	copy(c.raw, c.raw[transfer:c.rawLen])
	c.rawLen -= transfer

	if _, _, ok, perr := packetAvailable(c.decoded[:c.decodedLen]); perr != nil {
		return Error, perr
	} else if ok {
		return PacketReady, nil
	}
	return Waiting, nil
}

// extractFrame removes one complete frame from decoded and, if compression is
// enabled, strips the compressed-wrapper envelope (uncompressed_len:VarInt
// followed by raw-or-zlib body) to produce the bare body bytes.
func (c *Conn) extractFrame() ([]byte, error) {
	length, prefixSize, ok, err := packetAvailable(c.decoded[:c.decodedLen])
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("extractFrame called without a complete frame")
	}

	start := prefixSize
	end := prefixSize + length
	frame := make([]byte, length)
	copy(frame, c.decoded[start:end])

	remaining := c.decodedLen - end
	copy(c.decoded, c.decoded[end:c.decodedLen])
	c.decodedLen = remaining

	if c.compressionThreshold < 0 {
		return frame, nil
	}

	reader := bytes.NewReader(frame)
	dataLength, err := readVarInt(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read data length: %w", err)
	}
	// dataLength == 0 signifies stored (uncompressed) form even with
	// compression enabled; receivers must accept both.
	if dataLength == 0 {
		rest := make([]byte, reader.Len())
		if _, err := reader.Read(rest); err != nil {
			return nil, fmt.Errorf("failed to read stored body: %w", err)
		}
		return rest, nil
	}

	compressed := make([]byte, reader.Len())
	if _, err := reader.Read(compressed); err != nil {
		return nil, fmt.Errorf("failed to read compressed body: %w", err)
	}
	return decompressZlib(compressed)
}

// NextPacket polls until a complete packet is available (or the connection
// errors) and returns it with State/Bound left zero-valued; the caller
// (which tracks the connection's current phase) attaches those.
func (c *Conn) NextPacket() (*Packet, error) {
	for {
		state, err := c.Poll()
		if err != nil {
			return nil, err
		}
		switch state {
		case PacketReady:
			body, err := c.extractFrame()
			if err != nil {
				return nil, err
			}
			return decodePacketBody(body)
		case Waiting:
			continue
		default:
			return nil, fmt.Errorf("unexpected buffer state %v", state)
		}
	}
}

func decodePacketBody(body []byte) (*Packet, error) {
	reader := bytes.NewReader(body)
	packetID, err := readVarInt(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read packet ID: %w", err)
	}
	data := make([]byte, reader.Len())
	if _, err := reader.Read(data); err != nil {
		return nil, fmt.Errorf("failed to read packet body: %w", err)
	}
	return &Packet{PacketID: packetID, Data: data}, nil
}

// WritePacket serializes p per the current compression threshold, encrypts
// the finished frame if encryption is enabled, and writes it to the socket,
// looping until fully drained.
func (c *Conn) WritePacket(p *Packet) error {
	data, err := p.ToBytes(c.compressionThreshold)
	if err != nil {
		return fmt.Errorf("failed to serialize packet: %w", err)
	}

	if c.encryption.IsEnabled() {
		data = c.encryption.Encrypt(data)
	}

	c.debugf("-> state=%v bound=%v id=0x%02X data=%s", p.State, p.Bound, p.PacketID, hexSnippet(p.Data, 32))

	for len(data) > 0 {
		n, err := c.netConn.Write(data)
		if err != nil {
			return fmt.Errorf("failed to write packet: %w", err)
		}
		data = data[n:]
	}
	return nil
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	if c.netConn != nil {
		return c.netConn.Close()
	}
	return nil
}

// NetConn returns the underlying net.Conn.
func (c *Conn) NetConn() net.Conn {
	return c.netConn
}

// LocalAddr returns the local network address.
func (c *Conn) LocalAddr() net.Addr {
	if c.netConn != nil {
		return c.netConn.LocalAddr()
	}
	return nil
}

// RemoteAddr returns the remote network address.
func (c *Conn) RemoteAddr() net.Addr {
	if c.netConn != nil {
		return c.netConn.RemoteAddr()
	}
	return nil
}

// peekVarInt decodes a VarInt from the front of buf without requiring the
// whole value to be present: complete is false if buf ends before a
// continuation-terminated byte is seen and fewer than 5 bytes have been
// scanned; err is set if 5 bytes are scanned without a terminator (malformed).
func peekVarInt(buf []byte) (value int32, size int, complete bool, err error) {
	for i := 0; i < len(buf) && i < 5; i++ {
		b := buf[i]
		value |= int32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return value, i + 1, true, nil
		}
	}
	if len(buf) >= 5 {
		return 0, 0, false, fmt.Errorf("VarInt too big")
	}
	return 0, 0, false, nil
}

// packetAvailable reports whether data holds a complete length-prefixed
// frame: the leading VarInt decodes and prefixSize+length <= len(data).
func packetAvailable(data []byte) (length int, prefixSize int, ok bool, err error) {
	value, size, complete, err := peekVarInt(data)
	if err != nil {
		return 0, 0, false, err
	}
	if !complete {
		return 0, 0, false, nil
	}
	if value < 0 {
		return 0, 0, false, fmt.Errorf("negative frame length")
	}
	if size+int(value) > len(data) {
		return 0, 0, false, nil
	}
	return int(value), size, true, nil
}
