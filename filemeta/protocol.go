package filemeta

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Protocol selects the wire format of a descriptor's stream.
type Protocol int

const (
	ProtocolNone Protocol = iota
	ProtocolASCII
	ProtocolBinary
)

func (p Protocol) String() string {
	switch p {
	case ProtocolASCII:
		return "ascii"
	case ProtocolBinary:
		return "binary"
	}
	return "none"
}

// ParseProtocol maps a spec-string token to a protocol.
func ParseProtocol(tok string) (Protocol, bool) {
	switch tok {
	case "ascii":
		return ProtocolASCII, true
	case "binary":
		return ProtocolBinary, true
	}
	return ProtocolNone, false
}

// codec serializes scalars in one protocol. Adding a protocol means adding
// a codec here, not touching every scalar operation on the descriptor.
type codec interface {
	putFloat64(w io.Writer, x float64) error
	getFloat64(r *bufio.Reader) (float64, error)
	putUint8(w io.Writer, x uint8) error
	getUint8(r *bufio.Reader) (uint8, error)
}

func (p Protocol) codec() codec {
	switch p {
	case ProtocolASCII:
		return asciiCodec{}
	case ProtocolBinary:
		return binaryCodec{}
	}
	panic("filemeta: scalar I/O on a descriptor with no protocol assigned")
}

// Doubles cross the wire big-endian regardless of the host byte order.
var wireOrder binary.ByteOrder = binary.BigEndian

// packFloat64 and unpackFloat64 are the single normalization point for
// doubles. Both the put and the get path go through them, so the two
// directions cannot disagree on byte order.
func packFloat64(buf []byte, order binary.ByteOrder, x float64) {
	order.PutUint64(buf, math.Float64bits(x))
}

func unpackFloat64(buf []byte, order binary.ByteOrder) float64 {
	return math.Float64frombits(order.Uint64(buf))
}

// classifyRead turns a low-level read error into the descriptor taxonomy.
// Stream exhaustion wins over malformed data.
func classifyRead(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return newError(CodeEndOfFile, "")
	}
	return wrapError(CodeBadArgument, "malformed stream", err)
}

type binaryCodec struct{}

func (binaryCodec) putFloat64(w io.Writer, x float64) error {
	var buf [8]byte
	packFloat64(buf[:], wireOrder, x)
	if _, err := w.Write(buf[:]); err != nil {
		return wrapError(CodeAllocation, "write float64", err)
	}
	return nil
}

func (binaryCodec) getFloat64(r *bufio.Reader) (float64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, classifyRead(err)
	}
	return unpackFloat64(buf[:], wireOrder), nil
}

func (binaryCodec) putUint8(w io.Writer, x uint8) error {
	if _, err := w.Write([]byte{x}); err != nil {
		return wrapError(CodeAllocation, "write uint8", err)
	}
	return nil
}

func (binaryCodec) getUint8(r *bufio.Reader) (uint8, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, classifyRead(err)
	}
	return b, nil
}

type asciiCodec struct{}

func (asciiCodec) putFloat64(w io.Writer, x float64) error {
	if _, err := fmt.Fprintf(w, "%g ", x); err != nil {
		return wrapError(CodeAllocation, "write float64", err)
	}
	return nil
}

func (asciiCodec) getFloat64(r *bufio.Reader) (float64, error) {
	tok, err := nextToken(r)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, wrapError(CodeBadArgument, "not a float: "+strconv.Quote(tok), err)
	}
	return v, nil
}

func (asciiCodec) putUint8(w io.Writer, x uint8) error {
	if _, err := fmt.Fprintf(w, "%d ", x); err != nil {
		return wrapError(CodeAllocation, "write uint8", err)
	}
	return nil
}

func (asciiCodec) getUint8(r *bufio.Reader) (uint8, error) {
	tok, err := nextToken(r)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseUint(tok, 10, 8)
	if err != nil {
		return 0, wrapError(CodeBadArgument, "not a byte: "+strconv.Quote(tok), err)
	}
	return uint8(v), nil
}

// nextToken consumes leading whitespace and returns the next run of
// non-whitespace bytes. Exhaustion before any token byte is EndOfFile.
func nextToken(r *bufio.Reader) (string, error) {
	var b byte
	var err error
	for {
		b, err = r.ReadByte()
		if err != nil {
			return "", classifyRead(err)
		}
		if !isSpace(b) {
			break
		}
	}

	var sb strings.Builder
	sb.WriteByte(b)
	for {
		b, err = r.ReadByte()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", wrapError(CodeBadArgument, "read token", err)
		}
		if isSpace(b) {
			break
		}
		sb.WriteByte(b)
	}
	return sb.String(), nil
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
