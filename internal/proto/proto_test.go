package proto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Command
	}{
		{
			name: "list",
			line: "LIST",
			want: Command{Kind: KindList},
		},
		{
			name: "upload",
			line: "UPLOAD report.pdf 1048576",
			want: Command{Kind: KindUpload, Name: "report.pdf", Size: 1048576},
		},
		{
			name: "upload zero bytes",
			line: "UPLOAD empty.txt 0",
			want: Command{Kind: KindUpload, Name: "empty.txt", Size: 0},
		},
		{
			name: "upload negative size passes the parser",
			line: "UPLOAD x.bin -5",
			want: Command{Kind: KindUpload, Name: "x.bin", Size: -5},
		},
		{
			name: "download",
			line: "DOWNLOAD notes.txt",
			want: Command{Kind: KindDownload, Name: "notes.txt"},
		},
		{
			name: "rename",
			line: "RENAME a.txt b.txt",
			want: Command{Kind: KindRename, Name: "a.txt", NewName: "b.txt"},
		},
		{
			name: "delete",
			line: "DELETE old.log",
			want: Command{Kind: KindDelete, Name: "old.log"},
		},
		{
			name: "quit",
			line: "QUIT",
			want: Command{Kind: KindQuit},
		},
		{
			name: "extra whitespace between tokens",
			line: "RENAME   a.txt    b.txt",
			want: Command{Kind: KindRename, Name: "a.txt", NewName: "b.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := Parse(tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd)
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	lines := []string{
		"",
		"   ",
		"FETCH x.txt",
		"list",
		"LIST extra",
		"UPLOAD missing-size",
		"UPLOAD name notanumber",
		"UPLOAD name 12 extra",
		"DOWNLOAD",
		"DOWNLOAD a b",
		"RENAME only-one",
		"DELETE",
		"QUIT now",
	}

	for _, line := range lines {
		t.Run(line, func(t *testing.T) {
			_, err := Parse(line)
			assert.ErrorIs(t, err, ErrUnknownCommand)
		})
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "LIST", KindList.String())
	assert.Equal(t, "UPLOAD", KindUpload.String())
	assert.Equal(t, "DOWNLOAD", KindDownload.String())
	assert.Equal(t, "RENAME", KindRename.String())
	assert.Equal(t, "DELETE", KindDelete.String())
	assert.Equal(t, "QUIT", KindQuit.String())
	assert.Equal(t, "UNKNOWN", Kind(99).String())
}
