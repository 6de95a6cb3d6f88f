package packets

// https://minecraft.wiki/w/Java_Edition_protocol/Packets#Login

import (
	jp "github.com/go-mclib/server/java_protocol"
	ns "github.com/go-mclib/server/net_structures"
)

// C2SHelloPacket represents "Login Start" (serverbound/login).
//
// https://minecraft.wiki/w/Java_Edition_protocol/Packets#Hello
var C2SHelloPacket = jp.NewPacket(jp.StateLogin, jp.C2S, 0x00)

type C2SHelloPacketData struct {
	// Player's Username.
	Name ns.String
	// A Mojang-signed chat key, present when the client has one. Absent for
	// offline-mode clients and for servers that don't require it.
	SigData ns.PrefixedOptional[PlayerPublicKey]
	// The account UUID the signed key above was issued to. Present whenever
	// SigData is.
	SigHolder ns.PrefixedOptional[ns.UUID]
}

// PlayerPublicKey is a Mojang-issued chat signing key as presented in Login
// Start: an expiry timestamp, the DER-encoded RSA public key, and Mojang's
// signature over both.
type PlayerPublicKey struct {
	// Unix epoch milliseconds after which the key is no longer valid.
	ExpiresAt ns.Long
	PublicKey ns.PrefixedByteArray
	Signature ns.PrefixedByteArray
}

func (k PlayerPublicKey) ToBytes() (ns.ByteArray, error) {
	result, err := k.ExpiresAt.ToBytes()
	if err != nil {
		return nil, err
	}

	keyBytes, err := k.PublicKey.ToBytes()
	if err != nil {
		return nil, err
	}
	result = append(result, keyBytes...)

	sigBytes, err := k.Signature.ToBytes()
	if err != nil {
		return nil, err
	}
	result = append(result, sigBytes...)

	return result, nil
}

func (k *PlayerPublicKey) FromBytes(data ns.ByteArray) (int, error) {
	n, err := k.ExpiresAt.FromBytes(data)
	if err != nil {
		return 0, err
	}
	offset := n

	n, err = k.PublicKey.FromBytes(data[offset:])
	if err != nil {
		return 0, err
	}
	offset += n

	n, err = k.Signature.FromBytes(data[offset:])
	if err != nil {
		return 0, err
	}
	offset += n

	return offset, nil
}

// C2SKeyPacket represents "Encryption Response" (serverbound/login).
//
// https://minecraft.wiki/w/Java_Edition_protocol/Packets#Encryption_Response
// https://minecraft.wiki/w/Protocol_encryption
var C2SKeyPacket = jp.NewPacket(jp.StateLogin, jp.C2S, 0x01)

type C2SKeyPacketData struct {
	// Shared Secret value, encrypted with the server's public key.
	SharedSecret ns.PrefixedByteArray
	// Either a MessageSignature (when the client presented a signed chat key
	// in Login Start) or a VerifyTokenData (otherwise), bool-discriminated.
	ResponseData ns.Or[VerifyTokenData, MessageSignature]
}

// VerifyTokenData is the verify-token-based response: the server's 4-byte
// verify token, RSA-encrypted with the server's public key.
type VerifyTokenData struct {
	Token ns.PrefixedByteArray
}

func (v VerifyTokenData) ToBytes() (ns.ByteArray, error) { return v.Token.ToBytes() }
func (v *VerifyTokenData) FromBytes(data ns.ByteArray) (int, error) {
	return v.Token.FromBytes(data)
}

// MessageSignature is the signed-key-based response: a random salt and a
// signature over verify_token‖salt, produced with the client's chat key.
type MessageSignature struct {
	Salt      ns.Long
	Signature ns.PrefixedByteArray
}

func (m MessageSignature) ToBytes() (ns.ByteArray, error) {
	result, err := m.Salt.ToBytes()
	if err != nil {
		return nil, err
	}
	sigBytes, err := m.Signature.ToBytes()
	if err != nil {
		return nil, err
	}
	return append(result, sigBytes...), nil
}

func (m *MessageSignature) FromBytes(data ns.ByteArray) (int, error) {
	n, err := m.Salt.FromBytes(data)
	if err != nil {
		return 0, err
	}
	offset := n

	n, err = m.Signature.FromBytes(data[offset:])
	if err != nil {
		return 0, err
	}
	offset += n

	return offset, nil
}

// C2SCustomQueryAnswerPacket represents "Login Plugin Response" (serverbound/login).
//
// https://minecraft.wiki/w/Java_Edition_protocol/Packets#Login_Plugin_Response
var C2SCustomQueryAnswerPacket = jp.NewPacket(jp.StateLogin, jp.C2S, 0x02)

type C2SCustomQueryAnswerPacketData struct {
	// Should match ID from server.
	MessageID ns.VarInt
	// Any data, depending on the channel. The length of this array must be inferred
	// from the packet length. Only present if the client understood the request.
	Data ns.PrefixedOptional[ns.ByteArray]
}

// C2SLoginAcknowledgedPacket represents "Login Acknowledged" (serverbound/login). Has no fields
//
// > Acknowledgement to the Login Success packet sent by the server.
// This packet switches the connection state to configuration.
//
// https://minecraft.wiki/w/Java_Edition_protocol/Packets#Login_Acknowledged
var C2SLoginAcknowledgedPacket = jp.NewPacket(jp.StateLogin, jp.C2S, 0x03)

// C2SCookieResponseLoginPacket represents "Cookie Response (login)" (serverbound/login).
//
// > Response to a Cookie Request (login) from the server.
// The vanilla server only accepts responses of up to 5 kiB in size.
//
// https://minecraft.wiki/w/Java_Edition_protocol/Packets#Cookie_Response_(login)
var C2SCookieResponseLoginPacket = jp.NewPacket(jp.StateLogin, jp.C2S, 0x04)

type C2SCookieResponsePacketData struct {
	// The identifier of the cookie.
	Key ns.Identifier
	// The data of the cookie.
	Payload ns.PrefixedOptional[ns.ByteArray]
}
