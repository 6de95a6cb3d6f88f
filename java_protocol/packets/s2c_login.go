package packets

import (
	jp "github.com/go-mclib/server/java_protocol"
	ns "github.com/go-mclib/server/net_structures"
)

// S2CDisconnectLoginPacket represents "Disconnect (login)"
//
// https://minecraft.wiki/w/Java_Edition_protocol/Packets#Disconnect_(login)
var S2CDisconnectLoginPacket = jp.NewPacket(jp.StateLogin, jp.S2C, 0x00)

type S2CDisconnectLoginPacketData struct {
	Reason ns.JSONTextComponent
}

// S2CEncryptionRequestPacket represents "Encryption Request"
//
// https://minecraft.wiki/w/Java_Edition_protocol/Packets#Encryption_Request
// https://minecraft.wiki/w/Protocol_encryption
var S2CEncryptionRequestPacket = jp.NewPacket(jp.StateLogin, jp.S2C, 0x01)

type S2CEncryptionRequestPacketData struct {
	// Always empty for a vanilla server; historically used for server list ping
	// disambiguation, never validated by the client.
	ServerID  ns.String
	PublicKey ns.PrefixedByteArray
	VerifyTok ns.PrefixedByteArray
}

// S2CLoginSuccessPacket represents "Login Success"
//
// https://minecraft.wiki/w/Java_Edition_protocol/Packets#Login_Success
var S2CLoginSuccessPacket = jp.NewPacket(jp.StateLogin, jp.S2C, 0x02)

type S2CLoginSuccessPacketData struct {
	UUID       ns.UUID
	Username   ns.String
	Properties ns.PrefixedArray[ns.ProfileProperty]
}

// S2CSetCompressionPacket represents "Set Compression"
//
// https://minecraft.wiki/w/Java_Edition_protocol/Packets#Set_Compression
var S2CSetCompressionPacket = jp.NewPacket(jp.StateLogin, jp.S2C, 0x03)

type S2CSetCompressionPacketData struct {
	Threshold ns.VarInt
}

// S2CLoginPluginRequestPacket represents "Login Plugin Request"
//
// https://minecraft.wiki/w/Java_Edition_protocol/Packets#Login_Plugin_Request
var S2CLoginPluginRequestPacket = jp.NewPacket(jp.StateLogin, jp.S2C, 0x04)

type S2CLoginPluginRequestPacketData struct {
	MessageID ns.VarInt
	Channel   ns.Identifier
	Data      ns.ByteArray
}
