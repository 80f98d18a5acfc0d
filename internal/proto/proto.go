// Package proto defines the flatstore wire protocol: the request grammar,
// the response vocabulary and the framing constants shared by server and
// client.
//
// Requests are single newline-terminated ASCII lines of whitespace-separated
// tokens. Payload bytes for UPLOAD and DOWNLOAD are raw and unframed; they
// immediately follow (UPLOAD) or precede (DOWNLOAD reply) the relevant line
// on the same stream, which is why a session must fully process one command
// before reading the next line.
package proto

import (
	"errors"
	"strconv"
	"strings"
)

const (
	// MaxLineLength is the maximum size of a single protocol line,
	// terminator included. Names that do not fit cannot be expressed in
	// this protocol.
	MaxLineLength = 4096

	// TransferChunkSize is the buffer size used when streaming payload
	// bytes between socket and file.
	TransferChunkSize = 64 * 1024
)

// Kind identifies a protocol command.
type Kind int

const (
	KindList Kind = iota
	KindUpload
	KindDownload
	KindRename
	KindDelete
	KindQuit
)

func (k Kind) String() string {
	switch k {
	case KindList:
		return "LIST"
	case KindUpload:
		return "UPLOAD"
	case KindDownload:
		return "DOWNLOAD"
	case KindRename:
		return "RENAME"
	case KindDelete:
		return "DELETE"
	case KindQuit:
		return "QUIT"
	default:
		return "UNKNOWN"
	}
}

// Command is one parsed client request.
//
// Name holds the target file name (UPLOAD, DOWNLOAD, DELETE) or the source
// name (RENAME). NewName is only set for RENAME. Size is only set for UPLOAD
// and may be negative when the client sent a negative count; rejecting it is
// the upload handler's job, not the parser's.
type Command struct {
	Kind    Kind
	Name    string
	NewName string
	Size    int64
}

// ErrUnknownCommand is returned for an unrecognized keyword or a line whose
// arguments do not match the command's grammar. It maps to an "ERR unknown
// command" reply; the session keeps reading lines.
var ErrUnknownCommand = errors.New("unknown command")

// Parse decodes one chomped request line.
func Parse(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, ErrUnknownCommand
	}

	switch fields[0] {
	case "LIST":
		if len(fields) != 1 {
			return Command{}, ErrUnknownCommand
		}
		return Command{Kind: KindList}, nil

	case "UPLOAD":
		if len(fields) != 3 {
			return Command{}, ErrUnknownCommand
		}
		size, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return Command{}, ErrUnknownCommand
		}
		return Command{Kind: KindUpload, Name: fields[1], Size: size}, nil

	case "DOWNLOAD":
		if len(fields) != 2 {
			return Command{}, ErrUnknownCommand
		}
		return Command{Kind: KindDownload, Name: fields[1]}, nil

	case "RENAME":
		if len(fields) != 3 {
			return Command{}, ErrUnknownCommand
		}
		return Command{Kind: KindRename, Name: fields[1], NewName: fields[2]}, nil

	case "DELETE":
		if len(fields) != 2 {
			return Command{}, ErrUnknownCommand
		}
		return Command{Kind: KindDelete, Name: fields[1]}, nil

	case "QUIT":
		if len(fields) != 1 {
			return Command{}, ErrUnknownCommand
		}
		return Command{Kind: KindQuit}, nil

	default:
		return Command{}, ErrUnknownCommand
	}
}
