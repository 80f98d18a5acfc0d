package server

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/mcrocce/flatstore/internal/logger"
	"github.com/mcrocce/flatstore/internal/proto"
	"github.com/mcrocce/flatstore/internal/wire"
)

// session owns one client connection for its whole lifetime. It is driven
// by a single goroutine and shares no state with other sessions.
type session struct {
	server *Server
	conn   *wire.Conn
	remote string
}

func newSession(s *Server, tcpConn net.Conn) *session {
	return &session{
		server: s,
		conn:   wire.New(tcpConn, proto.MaxLineLength),
		remote: tcpConn.RemoteAddr().String(),
	}
}

// serve runs the session state machine: greeting, then one command per
// iteration until QUIT, clean disconnect or a transport fault. Exactly one
// command is processed fully, payload included, before the next line is
// read; UPLOAD payload bytes carry no framing of their own, so this
// ordering is what keeps the stream parseable.
//
// All cleanup is scoped here: the socket closes on every exit path, and
// handlers release their own file handles and locks before returning.
func (s *session) serve(ctx context.Context) {
	defer func() {
		_ = s.conn.Close()
		s.server.metrics.ConnectionClosed()
		logger.Debug("Connection from %s closed", s.remote)
	}()

	logger.Debug("New connection from %s", s.remote)

	if err := s.conn.WriteLine("OK WELCOME"); err != nil {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.conn.ReadLine()
		if err != nil {
			if err != io.EOF {
				logger.Debug("Transport error on %s: %v", s.remote, err)
			}
			return
		}
		if line == "" {
			continue
		}

		cmd, err := proto.Parse(line)
		if err != nil {
			if err := s.conn.WriteLine("ERR unknown command"); err != nil {
				return
			}
			continue
		}

		start := time.Now()
		err = s.dispatch(cmd)
		s.server.metrics.RecordCommand(cmd.Kind.String(), time.Since(start), err)
		if err != nil {
			// Transport fault mid-operation: the peer is gone or the
			// stream is unusable. Nothing more to report.
			logger.Debug("Session %s terminated during %s: %v", s.remote, cmd.Kind, err)
			return
		}
		if cmd.Kind == proto.KindQuit {
			return
		}
	}
}

// dispatch routes one parsed command to its handler. Handlers return an
// error only for transport-level faults; protocol and resource failures are
// reported to the client with an ERR line and a nil return so the session
// continues.
func (s *session) dispatch(cmd proto.Command) error {
	switch cmd.Kind {
	case proto.KindList:
		return s.handleList()
	case proto.KindUpload:
		return s.handleUpload(cmd.Name, cmd.Size)
	case proto.KindDownload:
		return s.handleDownload(cmd.Name)
	case proto.KindRename:
		return s.handleRename(cmd.Name, cmd.NewName)
	case proto.KindDelete:
		return s.handleDelete(cmd.Name)
	case proto.KindQuit:
		return s.conn.WriteLine("OK BYE")
	default:
		return s.conn.WriteLine("ERR unknown command")
	}
}
