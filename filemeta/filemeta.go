// Package filemeta describes, at configuration time, where and how a stream
// of scalar values is read or written. A compact spec string of the form
// [protocol:]pattern selects a wire protocol (ascii or binary) and a
// filename pattern; a per-item basename resolves the pattern into a
// concrete file at open time. Call sites put and get scalars without
// knowing the destination format or name.
package filemeta

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"
)

// Wildcard is the pattern byte replaced by the basename at open time.
const Wildcard = '%'

// EscapeChar makes the following pattern byte literal, so `\%` resolves to
// a name that really contains '%'.
const EscapeChar = '\\'

// Opener supplies the backing store a descriptor resolves files against.
// storage.FileSystem satisfies it.
type Opener interface {
	Open(name string) (io.ReadCloser, error)
	Create(name string) (io.WriteCloser, error)
}

// FileMeta ties a filename pattern and a wire protocol to at most one open
// file. Parse configures it, Open binds it to a concrete file for one
// basename, Close releases the file while keeping pattern and protocol for
// the next basename. An inactive descriptor turns every operation into a
// successful no-op, which is how an optional output degrades to nothing
// without special-casing call sites.
//
// A descriptor is not safe for concurrent use, and every successful Open
// must be paired with a Close (defer it next to the Open).
type FileMeta struct {
	Active   bool
	Protocol Protocol
	Pattern  string

	// Name is the concrete path produced by the last successful Open.
	Name string

	handle io.Closer
	r      *bufio.Reader
	w      io.Writer
}

// Parse marks the descriptor active and fills protocol and pattern from a
// spec of the form [protocol:]pattern. An empty pattern part leaves the
// existing pattern alone, so "binary:" switches the protocol while keeping
// a default filename configured elsewhere. On failure the prior protocol
// and pattern are unchanged.
func (m *FileMeta) Parse(spec string) error {
	m.Active = true
	if spec == "" {
		return nil
	}

	proto, pattern, err := splitProtocolPrefix(spec)
	if err != nil {
		return err
	}
	if len(pattern) >= MaxPatternLen {
		return newError(CodeOverflow, "pattern exceeds "+strconv.Itoa(MaxPatternLen-1)+" bytes")
	}

	if proto != ProtocolNone {
		m.Protocol = proto
	}
	if pattern != "" {
		m.Pattern = pattern
	}
	return nil
}

// DefaultProtocol assigns proto if no protocol has been set yet. Callers
// must default an unset protocol before the first scalar call.
func (m *FileMeta) DefaultProtocol(proto Protocol) {
	if m.Protocol == ProtocolNone {
		m.Protocol = proto
	}
}

// Open resolves the pattern against basename and opens the result on the
// host filesystem. Mode follows fopen conventions: "r" reads, "w" writes;
// a trailing "b" is accepted and ignored.
func (m *FileMeta) Open(basename, mode string) error {
	return m.OpenFS(osFS{}, basename, mode)
}

// Resolve expands the pattern against basename without opening anything.
// Every unescaped wildcard is replaced by basename; a pattern without a
// wildcard resolves to itself and basename is ignored.
func (m *FileMeta) Resolve(basename string) (string, error) {
	name := replaceWildcard(m.Pattern, Wildcard, EscapeChar, basename)
	if len(name) >= MaxNameLen {
		return "", newError(CodeOverflow, "resolved name exceeds "+strconv.Itoa(MaxNameLen-1)+" bytes")
	}
	return name, nil
}

// OpenFS is Open against an arbitrary backing store. An expansion that
// would exceed the name capacity fails before any open is attempted.
func (m *FileMeta) OpenFS(fsys Opener, basename, mode string) error {
	if !m.Active {
		return nil
	}

	name, err := m.Resolve(basename)
	if err != nil {
		return err
	}

	read, err := parseMode(mode)
	if err != nil {
		return err
	}

	if read {
		rc, err := fsys.Open(name)
		if err != nil {
			return wrapError(CodeIO, "open "+name, err)
		}
		m.handle = rc
		m.r = bufio.NewReader(rc)
		m.w = nil
	} else {
		wc, err := fsys.Create(name)
		if err != nil {
			return wrapError(CodeIO, "create "+name, err)
		}
		m.handle = wc
		m.w = wc
		m.r = nil
	}
	m.Name = name
	return nil
}

// Close releases the open file, if any. Pattern, protocol and resolved
// name survive so the descriptor can be reopened against the next
// basename. Closing a closed descriptor is a no-op.
func (m *FileMeta) Close() error {
	if m.handle == nil {
		return nil
	}
	err := m.handle.Close()
	m.handle = nil
	m.r = nil
	m.w = nil
	if err != nil {
		return wrapError(CodeIO, "close "+m.Name, err)
	}
	return nil
}

// IsOpen reports whether the descriptor currently owns an open file.
func (m *FileMeta) IsOpen() bool { return m.handle != nil }

// PutFloat64 writes one double in the descriptor's protocol.
func (m *FileMeta) PutFloat64(x float64) error {
	if !m.Active {
		return nil
	}
	return m.Protocol.codec().putFloat64(m.sink(), x)
}

// GetFloat64 reads one double in the descriptor's protocol. An exhausted
// stream yields ErrEndOfFile; bytes that cannot be consumed as a double
// yield ErrBadArgument.
func (m *FileMeta) GetFloat64() (float64, error) {
	if !m.Active {
		return 0, nil
	}
	return m.Protocol.codec().getFloat64(m.source())
}

// PutUint8 writes one unsigned byte in the descriptor's protocol.
func (m *FileMeta) PutUint8(x uint8) error {
	if !m.Active {
		return nil
	}
	return m.Protocol.codec().putUint8(m.sink(), x)
}

// GetUint8 reads one unsigned byte in the descriptor's protocol.
func (m *FileMeta) GetUint8() (uint8, error) {
	if !m.Active {
		return 0, nil
	}
	return m.Protocol.codec().getUint8(m.source())
}

func (m *FileMeta) sink() io.Writer {
	if m.w == nil {
		panic("filemeta: put on a descriptor not open for writing")
	}
	return m.w
}

func (m *FileMeta) source() *bufio.Reader {
	if m.r == nil {
		panic("filemeta: get on a descriptor not open for reading")
	}
	return m.r
}

func parseMode(mode string) (read bool, err error) {
	switch strings.TrimSuffix(mode, "b") {
	case "r":
		return true, nil
	case "w":
		return false, nil
	}
	return false, newError(CodeBadArgument, "unsupported mode "+strconv.Quote(mode))
}

// osFS opens descriptors straight on the host filesystem, the default
// backing store when no task-level storage is configured.
type osFS struct{}

func (osFS) Open(name string) (io.ReadCloser, error)    { return os.Open(name) }
func (osFS) Create(name string) (io.WriteCloser, error) { return os.Create(name) }
