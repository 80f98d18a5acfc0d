package wire

import (
	"bytes"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcrocce/flatstore/internal/proto"
)

// pipeConn returns a wire.Conn on one end of an in-memory duplex stream and
// the raw peer on the other.
func pipeConn(t *testing.T) (*Conn, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})
	return New(server, proto.MaxLineLength), client
}

func TestReadLine(t *testing.T) {
	c, peer := pipeConn(t)

	go func() {
		_, _ = peer.Write([]byte("LIST\nDOWNLOAD a.txt\r\n"))
		_ = peer.Close()
	}()

	line, err := c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "LIST", line)

	line, err = c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "DOWNLOAD a.txt", line)

	_, err = c.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadLine_PartialLineBeforeClose(t *testing.T) {
	c, peer := pipeConn(t)

	go func() {
		_, _ = peer.Write([]byte("DELETE unterminated"))
		_ = peer.Close()
	}()

	line, err := c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "DELETE unterminated", line)

	_, err = c.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
}

func TestReadLine_TruncatesAtMaxLength(t *testing.T) {
	server, client := net.Pipe()
	t.Cleanup(func() {
		_ = server.Close()
		_ = client.Close()
	})
	c := New(server, 8)

	go func() {
		_, _ = client.Write([]byte("ABCDEFGHIJ\n"))
	}()

	line, err := c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "ABCDEFG", line)

	// The remainder is still in the stream.
	line, err = c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "HIJ", line)
}

func TestReadFull_PayloadAfterCommandLine(t *testing.T) {
	c, peer := pipeConn(t)

	// Command line and payload arrive in a single segment; the payload must
	// be served from the read buffer, not lost.
	go func() {
		_, _ = peer.Write([]byte("UPLOAD greeting.txt 5\nhello"))
	}()

	line, err := c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "UPLOAD greeting.txt 5", line)

	payload := make([]byte, 5)
	require.NoError(t, c.ReadFull(payload))
	assert.Equal(t, "hello", string(payload))
}

func TestReadFull_ShortRead(t *testing.T) {
	c, peer := pipeConn(t)

	go func() {
		_, _ = peer.Write([]byte("abc"))
		_ = peer.Close()
	}()

	payload := make([]byte, 8)
	err := c.ReadFull(payload)
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestDiscard(t *testing.T) {
	c, peer := pipeConn(t)

	go func() {
		_, _ = peer.Write([]byte("junkpayloadLIST\n"))
	}()

	require.NoError(t, c.Discard(11))

	line, err := c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "LIST", line)
}

func TestWriteLineAndWriteAll(t *testing.T) {
	c, peer := pipeConn(t)

	got := make(chan string, 1)
	go func() {
		buf := make([]byte, 64)
		n, _ := io.ReadAtLeast(peer, buf, len("OK 42\npayload"))
		got <- string(buf[:n])
	}()

	require.NoError(t, c.WriteLine("OK %d", 42))
	require.NoError(t, c.WriteAll([]byte("payload")))
	assert.Equal(t, "OK 42\npayload", <-got)
}

func TestWriteFrom(t *testing.T) {
	c, peer := pipeConn(t)

	done := make(chan string, 1)
	go func() {
		buf := make([]byte, 16)
		_, _ = io.ReadFull(peer, buf[:9])
		done <- string(buf[:9])
	}()

	n, err := c.WriteFrom(bytes.NewReader([]byte("streamed!")), 9)
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)
	assert.Equal(t, "streamed!", <-done)
}
