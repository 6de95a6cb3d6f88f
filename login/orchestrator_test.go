package login_test

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	jp "github.com/go-mclib/server/java_protocol"
	ps "github.com/go-mclib/server/java_protocol/packets"
	"github.com/go-mclib/server/login"
	ns "github.com/go-mclib/server/net_structures"
)

// clientHandshake drives the client half of a login exchange over conn,
// reads Login Success through an encrypted Conn, and returns the UUID it
// carries.
func clientHandshake(t *testing.T, conn net.Conn) ns.UUID {
	t.Helper()

	hello, err := ps.C2SHelloPacket.WithData(ps.C2SHelloPacketData{Name: ns.String("Notch")})
	require.NoError(t, err)
	wire, err := hello.ToBytes(-1)
	require.NoError(t, err)
	_, err = conn.Write(wire)
	require.NoError(t, err)

	encReq, err := jp.ReadPacket(conn, -1)
	require.NoError(t, err)
	var encReqData ps.S2CEncryptionRequestPacketData
	require.NoError(t, encReq.Unmarshal(&encReqData))

	serverPub, err := x509.ParsePKIXPublicKey([]byte(encReqData.PublicKey))
	require.NoError(t, err)
	rsaServerPub := serverPub.(*rsa.PublicKey)

	sharedSecret := make([]byte, 16)
	_, err = rand.Read(sharedSecret)
	require.NoError(t, err)

	encryptedSecret, err := rsa.EncryptPKCS1v15(rand.Reader, rsaServerPub, sharedSecret)
	require.NoError(t, err)
	encryptedToken, err := rsa.EncryptPKCS1v15(rand.Reader, rsaServerPub, []byte(encReqData.VerifyTok))
	require.NoError(t, err)

	keyPkt, err := ps.C2SKeyPacket.WithData(ps.C2SKeyPacketData{
		SharedSecret: ns.PrefixedByteArray(encryptedSecret),
		ResponseData: ns.Or[ps.VerifyTokenData, ps.MessageSignature]{
			IsX:  true,
			XVal: ps.VerifyTokenData{Token: ns.PrefixedByteArray(encryptedToken)},
		},
	})
	require.NoError(t, err)
	wire, err = keyPkt.ToBytes(-1)
	require.NoError(t, err)
	_, err = conn.Write(wire)
	require.NoError(t, err)

	// encryption is now active on both ends; read the (possibly
	// Set-Compression-then-)Login Success frame through an encrypted Conn
	// wrapper mirroring the server's own pipeline.
	clientConn := jp.NewConn(conn)
	clientConn.Encryption().SetSharedSecret(sharedSecret)
	require.NoError(t, clientConn.Encryption().EnableEncryption())

	pkt, err := clientConn.NextPacket()
	require.NoError(t, err)

	if pkt.PacketID == ps.S2CSetCompressionPacket.PacketID {
		var comp ps.S2CSetCompressionPacketData
		require.NoError(t, pkt.Unmarshal(&comp))
		clientConn.SetCompressionThreshold(int(comp.Threshold))
		pkt, err = clientConn.NextPacket()
		require.NoError(t, err)
	}

	var success ps.S2CLoginSuccessPacketData
	require.NoError(t, pkt.Unmarshal(&success))
	return success.UUID
}

func TestOrchestratorHandleAuthenticatesAndHandsOff(t *testing.T) {
	profileUUID := "069a79f4-44e9-4726-a5be-fca90e38aaf5"

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Notch", r.URL.Query().Get("username"))
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{
			"id":   "069a79f444e94726a5befca90e38aaf5",
			"name": "Notch",
		}))
	}))
	defer ts.Close()

	serverKey, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)
	trustedKey, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	orchestrator := login.NewOrchestrator(serverKey, &trustedKey.PublicKey, login.Config{
		CompressionThreshold: -1,
		AuthURL:              ts.URL,
	})

	clientSide, serverSide := net.Pipe()
	defer clientSide.Close()
	defer serverSide.Close()

	clientDone := make(chan ns.UUID, 1)
	go func() {
		clientDone <- clientHandshake(t, clientSide)
	}()

	serverConn := jp.NewConn(serverSide)
	result, err := orchestrator.Handle(serverConn, jp.Handshake)
	require.NoError(t, err)
	require.Equal(t, "Notch", result.Profile.Name)
	require.Nil(t, result.PlayerKey)

	select {
	case gotUUID := <-clientDone:
		expected, err := ns.NewUUID(profileUUID)
		require.NoError(t, err)
		require.Equal(t, expected, gotUUID)
		require.Equal(t, expected, result.Profile.ID)
	case <-time.After(5 * time.Second):
		t.Fatal("client handshake did not complete")
	}
}

func TestOrchestratorHandleRejectsBadVerifyToken(t *testing.T) {
	serverKey, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)
	trustedKey, err := rsa.GenerateKey(rand.Reader, 1024)
	require.NoError(t, err)

	orchestrator := login.NewOrchestrator(serverKey, &trustedKey.PublicKey, login.Config{CompressionThreshold: -1})

	clientSide, serverSide := net.Pipe()
	defer clientSide.Close()
	defer serverSide.Close()

	go func() {
		hello, _ := ps.C2SHelloPacket.WithData(ps.C2SHelloPacketData{Name: ns.String("Notch")})
		wire, _ := hello.ToBytes(-1)
		clientSide.Write(wire)

		encReq, err := jp.ReadPacket(clientSide, -1)
		require.NoError(t, err)
		var encReqData ps.S2CEncryptionRequestPacketData
		require.NoError(t, encReq.Unmarshal(&encReqData))

		serverPub, err := x509.ParsePKIXPublicKey([]byte(encReqData.PublicKey))
		require.NoError(t, err)
		rsaServerPub := serverPub.(*rsa.PublicKey)

		sharedSecret := make([]byte, 16)
		rand.Read(sharedSecret)
		encryptedSecret, _ := rsa.EncryptPKCS1v15(rand.Reader, rsaServerPub, sharedSecret)
		// wrong verify token on purpose
		encryptedToken, _ := rsa.EncryptPKCS1v15(rand.Reader, rsaServerPub, bytes.Repeat([]byte{0xAA}, 4))

		keyPkt, _ := ps.C2SKeyPacket.WithData(ps.C2SKeyPacketData{
			SharedSecret: ns.PrefixedByteArray(encryptedSecret),
			ResponseData: ns.Or[ps.VerifyTokenData, ps.MessageSignature]{
				IsX:  true,
				XVal: ps.VerifyTokenData{Token: ns.PrefixedByteArray(encryptedToken)},
			},
		})
		wire, _ = keyPkt.ToBytes(-1)
		clientSide.Write(wire)

		// read the server's Disconnect so its write on the pipe completes
		_, _ = jp.ReadPacket(clientSide, -1)
	}()

	serverConn := jp.NewConn(serverSide)
	_, err = orchestrator.Handle(serverConn, jp.Handshake)
	require.Error(t, err)
}
