// Package login drives the vanilla (Notchian) login sequence: Login Start,
// an RSA encryption challenge, Mojang session-server authentication, and
// hand-off with encryption (and optionally compression) enabled.
package login

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/subtle"
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/go-mclib/server/chat"
	jp "github.com/go-mclib/server/java_protocol"
	ps "github.com/go-mclib/server/java_protocol/packets"
	"github.com/go-mclib/server/java_protocol/session_server"
	ns "github.com/go-mclib/server/net_structures"
	"github.com/go-mclib/server/registry"
)

// Config controls one server's login behavior.
type Config struct {
	// ForceKeyAuthentication disconnects any client that does not present a
	// Mojang-signed chat key in Login Start.
	ForceKeyAuthentication bool
	// CompressionThreshold enables compression after login when >= 0; the
	// server sends Set Compression with this value before Login Success.
	// Negative disables compression.
	CompressionThreshold int
	// AuthURL is the session server base URL. Defaults to Mojang's.
	AuthURL string
}

// GameProfile is the authenticated identity returned by the session server.
type GameProfile struct {
	ID         ns.UUID
	Name       string
	Properties []ns.ProfileProperty
}

// Result is what a successful login hand-off yields.
type Result struct {
	Profile   GameProfile
	PlayerKey *PlayerKey // nil if the client presented no signed chat key
}

// ErrKeyRequired is returned when ForceKeyAuthentication is set and the
// client's Login Start carried no signed chat key.
var ErrKeyRequired = errors.New("login: client did not present a signed chat key and force_key_authentication is set")

// Orchestrator runs the login exchange for one connection at a time; it
// holds no per-connection state itself; Handle's local state is created
// fresh on each call, making one Orchestrator safe to reuse or share.
type Orchestrator struct {
	serverKey  *rsa.PrivateKey
	trustedKey *rsa.PublicKey
	cfg        Config
	session    *session_server.SessionServerClient
}

// NewOrchestrator builds an Orchestrator. serverKey is this server's RSA
// keypair, used for the encryption challenge. trustedKey is Mojang's
// yggdrasil session-server public key, used to verify a client's signed
// chat key; callers load it from their own asset/config source (see
// DESIGN.md — the key is security-sensitive material, not guessed here).
func NewOrchestrator(serverKey *rsa.PrivateKey, trustedKey *rsa.PublicKey, cfg Config) *Orchestrator {
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = "https://sessionserver.mojang.com"
	}
	return &Orchestrator{
		serverKey:  serverKey,
		trustedKey: trustedKey,
		cfg:        cfg,
		session:    session_server.NewClientWithURL(authURL),
	}
}

// loginState is the per-connection state threaded through the two login
// packet handlers.
type loginState struct {
	username     string
	playerKey    *PlayerKey
	verifyToken  []byte
	sharedSecret []byte
	profile      GameProfile
}

// Handle runs Login Start, the encryption challenge, and session-server
// authentication over conn for the given negotiated protocol version. On
// success, encryption is enabled on conn (and compression, if configured)
// before Login Success is sent and conn is handed off for the caller to use
// in the next phase. On failure, conn receives a Disconnect — encrypted
// first if the shared secret had already been derived — and the error is
// returned; the caller is responsible for closing conn afterward either way.
func (o *Orchestrator) Handle(conn *jp.Conn, version jp.ProtocolVersion) (*Result, error) {
	st := &loginState{}

	reg := registry.New(true)
	reg.Attach(version, jp.StateLogin, 0x00, o.handleLoginStart(st))

	first, err := conn.NextPacket()
	if err != nil {
		return nil, fmt.Errorf("login: failed to read Login Start: %w", err)
	}
	first.State = jp.StateLogin
	if err := reg.Emit(st, version, first); err != nil {
		return nil, o.fail(conn, st, err)
	}

	token := make([]byte, 4)
	if _, err := rand.Read(token); err != nil {
		return nil, fmt.Errorf("login: failed to generate verify token: %w", err)
	}
	st.verifyToken = token

	serverPubKeyDER, err := x509.MarshalPKIXPublicKey(&o.serverKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("login: failed to encode server public key: %w", err)
	}

	request, err := ps.S2CEncryptionRequestPacket.WithData(ps.S2CEncryptionRequestPacketData{
		ServerID:  "",
		PublicKey: ns.PrefixedByteArray(serverPubKeyDER),
		VerifyTok: ns.PrefixedByteArray(token),
	})
	if err != nil {
		return nil, fmt.Errorf("login: failed to build Encryption Request: %w", err)
	}
	if err := conn.WritePacket(request); err != nil {
		return nil, fmt.Errorf("login: failed to send Encryption Request: %w", err)
	}

	reg.Clear()
	reg.Attach(version, jp.StateLogin, 0x01, o.handleEncryptionResponse(st, serverPubKeyDER))

	second, err := conn.NextPacket()
	if err != nil {
		return nil, fmt.Errorf("login: failed to read Encryption Response: %w", err)
	}
	second.State = jp.StateLogin
	if err := reg.Emit(st, version, second); err != nil {
		return nil, o.fail(conn, st, err)
	}

	conn.Encryption().SetSharedSecret(st.sharedSecret)
	if err := conn.Encryption().EnableEncryption(); err != nil {
		return nil, fmt.Errorf("login: failed to enable encryption: %w", err)
	}

	if o.cfg.CompressionThreshold >= 0 {
		compression, err := ps.S2CSetCompressionPacket.WithData(ps.S2CSetCompressionPacketData{
			Threshold: ns.VarInt(o.cfg.CompressionThreshold),
		})
		if err != nil {
			return nil, fmt.Errorf("login: failed to build Set Compression: %w", err)
		}
		if err := conn.WritePacket(compression); err != nil {
			return nil, fmt.Errorf("login: failed to send Set Compression: %w", err)
		}
		conn.SetCompressionThreshold(o.cfg.CompressionThreshold)
	}

	properties := make(ns.PrefixedArray[ns.ProfileProperty], len(st.profile.Properties))
	copy(properties, st.profile.Properties)

	success, err := ps.S2CLoginSuccessPacket.WithData(ps.S2CLoginSuccessPacketData{
		UUID:       st.profile.ID,
		Username:   ns.String(st.profile.Name),
		Properties: properties,
	})
	if err != nil {
		return nil, fmt.Errorf("login: failed to build Login Success: %w", err)
	}
	if err := conn.WritePacket(success); err != nil {
		return nil, fmt.Errorf("login: failed to send Login Success: %w", err)
	}

	return &Result{Profile: st.profile, PlayerKey: st.playerKey}, nil
}

func (o *Orchestrator) handleLoginStart(st *loginState) registry.Handler {
	return func(ctx any, packet *jp.Packet) error {
		var data ps.C2SHelloPacketData
		if err := packet.Unmarshal(&data); err != nil {
			return fmt.Errorf("login: failed to decode Login Start: %w", err)
		}

		st.username = string(data.Name)

		if data.SigData.Present {
			key, err := ParsePlayerKey(
				o.trustedKey,
				int64(data.SigData.Value.ExpiresAt),
				[]byte(data.SigData.Value.PublicKey),
				[]byte(data.SigData.Value.Signature),
			)
			if err != nil {
				return err
			}
			st.playerKey = key
			return nil
		}

		if o.cfg.ForceKeyAuthentication {
			return ErrKeyRequired
		}
		return nil
	}
}

func (o *Orchestrator) handleEncryptionResponse(st *loginState, serverPubKeyDER []byte) registry.Handler {
	return func(ctx any, packet *jp.Packet) error {
		var data ps.C2SKeyPacketData
		if err := packet.Unmarshal(&data); err != nil {
			return fmt.Errorf("login: failed to decode Encryption Response: %w", err)
		}

		if st.playerKey != nil {
			if data.ResponseData.IsX {
				return errors.New("login: client presented a signed key but sent a verify token")
			}
			sig := data.ResponseData.YVal
			if err := st.playerKey.VerifyMessageSignature(st.verifyToken, int64(sig.Salt), []byte(sig.Signature)); err != nil {
				return fmt.Errorf("login: message signature verification failed: %w", err)
			}
		} else {
			if !data.ResponseData.IsX {
				return errors.New("login: client sent a message signature but presented no signed key")
			}
			decrypted, err := rsa.DecryptPKCS1v15(rand.Reader, o.serverKey, []byte(data.ResponseData.XVal.Token))
			if err != nil {
				return fmt.Errorf("login: failed to decrypt verify token: %w", err)
			}
			if subtle.ConstantTimeCompare(decrypted, st.verifyToken) != 1 {
				return errors.New("login: verify token mismatch")
			}
		}

		sharedSecret, err := rsa.DecryptPKCS1v15(rand.Reader, o.serverKey, []byte(data.SharedSecret))
		if err != nil {
			return fmt.Errorf("login: failed to decrypt shared secret: %w", err)
		}
		st.sharedSecret = sharedSecret

		serverID := session_server.ComputeServerHash("", sharedSecret, serverPubKeyDER)

		joined, err := o.session.HasJoined(st.username, serverID)
		if err != nil {
			return fmt.Errorf("login: session server request failed: %w", err)
		}
		if joined == nil {
			return errors.New("login: session server did not recognize this client (not authenticated)")
		}

		uuid, err := ns.NewUUID(joined.ID)
		if err != nil {
			return fmt.Errorf("login: session server returned an invalid UUID: %w", err)
		}

		properties := make([]ns.ProfileProperty, len(joined.Properties))
		for i, p := range joined.Properties {
			prop := ns.ProfileProperty{Name: ns.String(p.Name), Value: ns.String(p.Value)}
			if p.Signature != "" {
				prop.Signature = ns.PrefixedOptional[ns.String]{Present: true, Value: ns.String(p.Signature)}
			}
			properties[i] = prop
		}

		st.profile = GameProfile{ID: uuid, Name: joined.Name, Properties: properties}
		return nil
	}
}

// fail sends a Disconnect carrying cause's message and returns cause. If the
// shared secret had already been derived, encryption is enabled first so the
// disconnect reaches the client intact rather than as garbage bytes.
func (o *Orchestrator) fail(conn *jp.Conn, st *loginState, cause error) error {
	if st.sharedSecret != nil && !conn.Encryption().IsEnabled() {
		conn.Encryption().SetSharedSecret(st.sharedSecret)
		_ = conn.Encryption().EnableEncryption()
	}

	reason, err := chat.ToJSONTextComponent(chat.Text(cause.Error()))
	if err != nil {
		reason = ns.JSONTextComponent{"text": cause.Error()}
	}

	disconnect, err := ps.S2CDisconnectLoginPacket.WithData(ps.S2CDisconnectLoginPacketData{
		Reason: reason,
	})
	if err == nil {
		_ = conn.WritePacket(disconnect)
	}

	return cause
}
