// Package wire implements framed I/O over a byte-stream connection: full
// buffer sends, exact-length receives and newline-delimited line reads.
//
// Reads go through a single buffered reader, so payload bytes that follow a
// command line on the same stream are picked up from the buffer rather than
// lost. Writes go straight to the connection; net.Conn.Write already loops
// over partial writes and transient interruptions.
package wire

import (
	"fmt"
	"io"
	"net"
)

// Conn wraps a net.Conn for line-oriented protocol exchanges with raw
// payload phases. It is owned by a single session goroutine and is not safe
// for concurrent use.
type Conn struct {
	nc      net.Conn
	r       *reader
	maxLine int
}

// reader is a minimal buffered reader. bufio.Reader would do, but the line
// read below needs byte-at-a-time access with a hard length cap and the
// payload copy path needs the leftover buffer contents, so keeping the
// buffer explicit makes both obvious.
type reader struct {
	src io.Reader
	buf []byte
	off int
	end int
}

func (r *reader) readByte() (byte, error) {
	if r.off == r.end {
		n, err := r.src.Read(r.buf)
		if n == 0 {
			if err == nil {
				err = io.ErrNoProgress
			}
			return 0, err
		}
		r.off, r.end = 0, n
	}
	b := r.buf[r.off]
	r.off++
	return b, nil
}

// Read drains the internal buffer before touching the underlying connection,
// which makes the reader usable as a plain io.Reader for payload phases.
func (r *reader) Read(p []byte) (int, error) {
	if r.off < r.end {
		n := copy(p, r.buf[r.off:r.end])
		r.off += n
		return n, nil
	}
	return r.src.Read(p)
}

// New wraps nc. maxLine bounds a single protocol line, terminator included.
func New(nc net.Conn, maxLine int) *Conn {
	return &Conn{
		nc:      nc,
		r:       &reader{src: nc, buf: make([]byte, maxLine)},
		maxLine: maxLine,
	}
}

// ReadLine reads one line, stripping the trailing "\n" or "\r\n".
//
// It returns io.EOF only when the peer closed the connection before sending
// a single byte of the line; a line cut short by an orderly close is
// returned as-is with a nil error. Lines longer than the configured maximum
// are returned truncated at maxLine-1 bytes, with the remainder left in the
// stream. Any other failure is a transport error.
func (c *Conn) ReadLine() (string, error) {
	line := make([]byte, 0, 64)
	for len(line) < c.maxLine-1 {
		b, err := c.r.readByte()
		if err != nil {
			if err == io.EOF {
				if len(line) == 0 {
					return "", io.EOF
				}
				break
			}
			return "", fmt.Errorf("read line: %w", err)
		}
		if b == '\n' {
			break
		}
		line = append(line, b)
	}
	if n := len(line); n > 0 && line[n-1] == '\r' {
		line = line[:n-1]
	}
	return string(line), nil
}

// ReadFull reads exactly len(p) bytes. An orderly close before the full
// count is an io.ErrUnexpectedEOF, which callers expecting a fixed-length
// payload treat as a failed transfer.
func (c *Conn) ReadFull(p []byte) error {
	if _, err := io.ReadFull(c.r, p); err != nil {
		return err
	}
	return nil
}

// ReadTo streams exactly n bytes from the stream into dst, draining the
// read buffer first.
func (c *Conn) ReadTo(dst io.Writer, n int64) (int64, error) {
	return io.CopyN(dst, c.r, n)
}

// Discard consumes and drops exactly n bytes from the stream. It is used to
// resynchronize after a local failure mid-payload so the session can keep
// parsing command lines.
func (c *Conn) Discard(n int64) error {
	_, err := io.CopyN(io.Discard, c.r, n)
	return err
}

// WriteAll writes the complete buffer or fails with a hard connection error.
func (c *Conn) WriteAll(p []byte) error {
	for len(p) > 0 {
		n, err := c.nc.Write(p)
		if err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

// WriteLine formats one protocol line and writes it with its terminator.
func (c *Conn) WriteLine(format string, args ...any) error {
	return c.WriteAll([]byte(fmt.Sprintf(format, args...) + "\n"))
}

// WriteFrom streams exactly n bytes from src to the connection. When src is
// an *os.File and the connection is a TCP socket, the copy is handed to the
// kernel (sendfile) by net.TCPConn.ReadFrom; otherwise io.CopyN falls back
// to a buffered read/write loop. Returns the bytes actually written.
func (c *Conn) WriteFrom(src io.Reader, n int64) (int64, error) {
	return io.CopyN(c.nc, src, n)
}

// RemoteAddr reports the peer address for logging.
func (c *Conn) RemoteAddr() string {
	return c.nc.RemoteAddr().String()
}

// Close closes the underlying connection.
func (c *Conn) Close() error {
	return c.nc.Close()
}
