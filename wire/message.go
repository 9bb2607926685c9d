// Package wire defines the node's wire messages: the BLOCK, TX, and ADDR
// messages the core dispatches on directly (spec.md §6), plus the
// version/ping/pong handshake messages delegated to the peer-specific
// handler. Encoding follows the teacher's hand-rolled binary codec
// (wire/netaddress.go, util/binaryserializer) rather than a generated
// format, since no RPC/serialization surface is in scope for this core.
package wire

import (
	"io"

	"github.com/pkg/errors"
	"github.com/triadag/triad/util/binaryserializer"
)

// Command strings identify a message's type on the wire.
const (
	CmdVersion = "version"
	CmdVerAck  = "verack"
	CmdPing    = "ping"
	CmdPong    = "pong"
	CmdBlock   = "block"
	CmdTx      = "tx"
	CmdAddr    = "addr"
	CmdGetAddr = "getaddr"
)

// MaxMessagePayload is the maximum size, in bytes, of a single message
// payload this node will decode. It guards against a misbehaving peer
// claiming an unbounded length prefix.
const MaxMessagePayload = 32 * 1024 * 1024

// Message is implemented by every wire message type.
type Message interface {
	Command() string
	Encode(w io.Writer) error
	Decode(r io.Reader) error
}

// writeUint32 writes a uint32 in wire byte order.
func writeUint32(w io.Writer, v uint32) error {
	return binaryserializer.PutUint32(w, v)
}

// readUint32 reads a uint32 in wire byte order.
func readUint32(r io.Reader) (uint32, error) {
	return binaryserializer.Uint32(r)
}

func writeUint64(w io.Writer, v uint64) error {
	return binaryserializer.PutUint64(w, v)
}

func readUint64(r io.Reader) (uint64, error) {
	return binaryserializer.Uint64(r)
}

// writeVarBytes writes a length-prefixed byte slice.
func writeVarBytes(w io.Writer, b []byte) error {
	if err := writeUint32(w, uint32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// readVarBytes reads a length-prefixed byte slice, rejecting lengths
// beyond MaxMessagePayload.
func readVarBytes(r io.Reader) ([]byte, error) {
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	if n > MaxMessagePayload {
		return nil, errors.Errorf("declared payload length %d exceeds max %d", n, MaxMessagePayload)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

func writeString(w io.Writer, s string) error {
	return writeVarBytes(w, []byte(s))
}

func readString(r io.Reader) (string, error) {
	b, err := readVarBytes(r)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// MakeEmptyMessage returns a zero-valued Message for the given command, or
// an error if the command is unrecognized. Used by a decoder that has
// already read the command off the wire and needs a destination to decode
// the payload into.
func MakeEmptyMessage(command string) (Message, error) {
	switch command {
	case CmdVersion:
		return &MsgVersion{}, nil
	case CmdVerAck:
		return &MsgVerAck{}, nil
	case CmdPing:
		return &MsgPing{}, nil
	case CmdPong:
		return &MsgPong{}, nil
	case CmdBlock:
		return &MsgBlock{}, nil
	case CmdTx:
		return &MsgTx{}, nil
	case CmdAddr:
		return &MsgAddr{}, nil
	case CmdGetAddr:
		return &MsgGetAddr{}, nil
	default:
		return nil, errors.Errorf("unrecognized command %q", command)
	}
}

// WriteMessage frames and writes msg to w: a command string followed by a
// length-prefixed, message-encoded payload.
func WriteMessage(w io.Writer, msg Message) error {
	if err := writeString(w, msg.Command()); err != nil {
		return errors.Wrap(err, "writing command")
	}

	// Buffer the payload so we can length-prefix it; messages are small
	// enough in this protocol (no block bodies, only headers) that this
	// is not a throughput concern.
	pw := &bytesWriter{}
	if err := msg.Encode(pw); err != nil {
		return errors.Wrap(err, "encoding payload")
	}
	return writeVarBytes(w, pw.buf)
}

// ReadMessage reads one framed message from r, dispatching to the correct
// concrete Message type by command.
func ReadMessage(r io.Reader) (Message, error) {
	command, err := readString(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading command")
	}
	payload, err := readVarBytes(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading payload")
	}

	msg, err := MakeEmptyMessage(command)
	if err != nil {
		return nil, err
	}
	if err := msg.Decode(&bytesReader{buf: payload}); err != nil {
		return nil, errors.Wrapf(err, "decoding %s payload", command)
	}
	return msg, nil
}

// bytesWriter and bytesReader avoid pulling in bytes.Buffer's full API for
// the narrow sequential write/read this package needs.
type bytesWriter struct {
	buf []byte
}

func (b *bytesWriter) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

type bytesReader struct {
	buf []byte
	pos int
}

func (b *bytesReader) Read(p []byte) (int, error) {
	if b.pos >= len(b.buf) {
		return 0, io.EOF
	}
	n := copy(p, b.buf[b.pos:])
	b.pos += n
	return n, nil
}
