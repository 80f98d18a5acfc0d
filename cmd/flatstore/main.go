// Command flatstore is the interactive client for a flatstore server.
//
// Usage: flatstore <host> <port>
//
// Commands at the prompt:
//
//	list
//	upload <localpath> [remote_name]
//	download <remote_name> [save_as]
//	rename <oldname> <newname>
//	delete <remote_name>
//	quit
package main

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/mcrocce/flatstore/internal/proto"
	"github.com/mcrocce/flatstore/internal/wire"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s <host> <port>\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if pflag.NArg() != 2 {
		pflag.Usage()
		os.Exit(1)
	}
	addr := net.JoinHostPort(pflag.Arg(0), pflag.Arg(1))

	nc, err := net.Dial("tcp", addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "flatstore: connect %s: %v\n", addr, err)
		os.Exit(1)
	}
	conn := wire.New(nc, proto.MaxLineLength)
	defer conn.Close()

	greeting, err := conn.ReadLine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "flatstore: no greeting from server: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(greeting)

	stdin := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !stdin.Scan() {
			return
		}
		args := strings.Fields(stdin.Text())
		if len(args) == 0 {
			continue
		}

		var err error
		switch args[0] {
		case "list":
			err = doList(conn)
		case "upload":
			if len(args) < 2 || len(args) > 3 {
				fmt.Println("usage: upload <localpath> [remote_name]")
				continue
			}
			remote := ""
			if len(args) == 3 {
				remote = args[2]
			}
			err = doUpload(conn, args[1], remote)
		case "download":
			if len(args) < 2 || len(args) > 3 {
				fmt.Println("usage: download <remote_name> [save_as]")
				continue
			}
			saveAs := ""
			if len(args) == 3 {
				saveAs = args[2]
			}
			err = doDownload(conn, args[1], saveAs)
		case "rename":
			if len(args) != 3 {
				fmt.Println("usage: rename <oldname> <newname>")
				continue
			}
			err = doSimple(conn, "RENAME %s %s", args[1], args[2])
		case "delete":
			if len(args) != 2 {
				fmt.Println("usage: delete <remote_name>")
				continue
			}
			err = doSimple(conn, "DELETE %s", args[1])
		case "quit", "exit":
			_ = doSimple(conn, "QUIT")
			return
		case "help":
			fmt.Println("commands: list, upload, download, rename, delete, quit")
			continue
		default:
			fmt.Printf("unknown command %q (try 'help')\n", args[0])
			continue
		}

		if err != nil {
			fmt.Fprintf(os.Stderr, "flatstore: %v\n", err)
			return
		}
	}
}

// doSimple sends one request line and prints the single status reply.
func doSimple(conn *wire.Conn, format string, args ...any) error {
	if err := conn.WriteLine(format, args...); err != nil {
		return err
	}
	line, err := conn.ReadLine()
	if err != nil {
		return fmt.Errorf("server closed the connection")
	}
	fmt.Println(line)
	return nil
}

func doList(conn *wire.Conn) error {
	if err := conn.WriteLine("LIST"); err != nil {
		return err
	}
	line, err := conn.ReadLine()
	if err != nil {
		return fmt.Errorf("server closed the connection")
	}
	if !strings.HasPrefix(line, "OK ") {
		fmt.Println(line)
		return nil
	}

	count := strings.TrimPrefix(line, "OK ")
	fmt.Printf("Files (%s):\n", count)
	for {
		line, err := conn.ReadLine()
		if err != nil {
			return fmt.Errorf("server closed the connection")
		}
		if line == "END" {
			return nil
		}
		name, size, ok := parseFileLine(line)
		if ok {
			fmt.Printf("  %-30s %d bytes\n", name, size)
		} else {
			fmt.Println(line)
		}
	}
}

func parseFileLine(line string) (string, int64, bool) {
	fields := strings.Fields(line)
	if len(fields) != 3 || fields[0] != "FILE" {
		return "", 0, false
	}
	size, err := strconv.ParseInt(fields[2], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return fields[1], size, true
}

func doUpload(conn *wire.Conn, localPath, remoteName string) error {
	if remoteName == "" {
		remoteName = filepath.Base(localPath)
	}

	f, err := os.Open(localPath)
	if err != nil {
		fmt.Printf("cannot open %s: %v\n", localPath, err)
		return nil
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || !info.Mode().IsRegular() {
		fmt.Printf("%s is not a regular file\n", localPath)
		return nil
	}
	size := info.Size()

	if err := conn.WriteLine("UPLOAD %s %d", remoteName, size); err != nil {
		return err
	}
	line, err := conn.ReadLine()
	if err != nil {
		return fmt.Errorf("server closed the connection")
	}
	if line != "OK" {
		fmt.Println(line)
		return nil
	}

	if _, err := conn.WriteFrom(f, size); err != nil {
		return fmt.Errorf("send payload: %w", err)
	}

	line, err = conn.ReadLine()
	if err != nil {
		return fmt.Errorf("server closed the connection")
	}
	fmt.Println(line)
	return nil
}

func doDownload(conn *wire.Conn, remoteName, saveAs string) error {
	if saveAs == "" {
		saveAs = remoteName
	}

	if err := conn.WriteLine("DOWNLOAD %s", remoteName); err != nil {
		return err
	}
	line, err := conn.ReadLine()
	if err != nil {
		return fmt.Errorf("server closed the connection")
	}
	if !strings.HasPrefix(line, "OK ") {
		fmt.Println(line)
		return nil
	}
	size, err := strconv.ParseInt(strings.TrimPrefix(line, "OK "), 10, 64)
	if err != nil || size < 0 {
		return fmt.Errorf("malformed size header %q", line)
	}

	out, err := os.Create(saveAs)
	if err != nil {
		// The payload is already committed on the stream; drain it so the
		// session stays usable.
		fmt.Printf("cannot create %s: %v\n", saveAs, err)
		if err := conn.Discard(size); err != nil {
			return fmt.Errorf("server closed the connection")
		}
		return nil
	}
	defer out.Close()

	if _, err := conn.ReadTo(out, size); err != nil {
		return fmt.Errorf("receive payload: %w", err)
	}
	fmt.Printf("Saved %s (%d bytes)\n", saveAs, size)
	return nil
}
