package filemeta

import (
	"bytes"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeFS records opens and creates so resolution tests can assert on side
// effects without touching the disk.
type fakeFS struct {
	files   map[string][]byte
	opened  []string
	created []string
}

func newFakeFS() *fakeFS {
	return &fakeFS{files: make(map[string][]byte)}
}

func (f *fakeFS) Open(name string) (io.ReadCloser, error) {
	b, ok := f.files[name]
	if !ok {
		return nil, os.ErrNotExist
	}
	f.opened = append(f.opened, name)
	return io.NopCloser(bytes.NewReader(b)), nil
}

func (f *fakeFS) Create(name string) (io.WriteCloser, error) {
	f.created = append(f.created, name)
	return &memFile{fs: f, name: name}, nil
}

type memFile struct {
	bytes.Buffer
	fs   *fakeFS
	name string
}

func (m *memFile) Close() error {
	m.fs.files[m.name] = append([]byte(nil), m.Buffer.Bytes()...)
	return nil
}

func TestParseSpec(t *testing.T) {
	tests := []struct {
		name     string
		spec     string
		protocol Protocol
		pattern  string
	}{
		{"ascii prefix", "ascii:out-%.txt", ProtocolASCII, "out-%.txt"},
		{"binary prefix", "binary:out-%.dat", ProtocolBinary, "out-%.dat"},
		{"bare pattern", "plain-%.txt", ProtocolNone, "plain-%.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm := new(FileMeta)
			require.NoError(t, fm.Parse(tt.spec))
			require.True(t, fm.Active)
			require.Equal(t, tt.protocol, fm.Protocol)
			require.Equal(t, tt.pattern, fm.Pattern)
		})
	}
}

func TestParseProtocolOnlyKeepsPattern(t *testing.T) {
	fm := &FileMeta{Pattern: "default-%.txt"}
	require.NoError(t, fm.Parse("binary:"))
	require.True(t, fm.Active)
	require.Equal(t, ProtocolBinary, fm.Protocol)
	require.Equal(t, "default-%.txt", fm.Pattern)
}

func TestParseEmptySpecActivates(t *testing.T) {
	fm := &FileMeta{Pattern: "default-%.txt", Protocol: ProtocolASCII}
	require.NoError(t, fm.Parse(""))
	require.True(t, fm.Active)
	require.Equal(t, ProtocolASCII, fm.Protocol)
	require.Equal(t, "default-%.txt", fm.Pattern)
}

func TestParseUnknownProtocol(t *testing.T) {
	fm := &FileMeta{Pattern: "keep-%.txt", Protocol: ProtocolBinary}
	err := fm.Parse("hex:out-%.dat")
	require.ErrorIs(t, err, ErrBadArgument)
	require.Equal(t, "keep-%.txt", fm.Pattern)
	require.Equal(t, ProtocolBinary, fm.Protocol)
}

func TestParsePatternOverflow(t *testing.T) {
	fm := &FileMeta{Pattern: "keep-%.txt"}

	err := fm.Parse("ascii:" + strings.Repeat("a", MaxPatternLen))
	require.ErrorIs(t, err, ErrOverflow)
	require.Equal(t, "keep-%.txt", fm.Pattern)

	// One byte under capacity still fits.
	longest := strings.Repeat("a", MaxPatternLen-1)
	require.NoError(t, fm.Parse("ascii:" + longest))
	require.Equal(t, longest, fm.Pattern)
}

func TestOpenResolvesWildcard(t *testing.T) {
	fs := newFakeFS()
	fm := new(FileMeta)
	require.NoError(t, fm.Parse("binary:out-%.dat"))
	require.NoError(t, fm.OpenFS(fs, "img007", "w"))
	defer fm.Close()

	require.Equal(t, "out-img007.dat", fm.Name)
	require.Equal(t, []string{"out-img007.dat"}, fs.created)
}

func TestOpenSubstitutesEveryWildcard(t *testing.T) {
	fs := newFakeFS()
	fm := new(FileMeta)
	require.NoError(t, fm.Parse("%/%.out"))
	fm.DefaultProtocol(ProtocolASCII)
	require.NoError(t, fm.OpenFS(fs, "run1", "w"))
	defer fm.Close()

	require.Equal(t, "run1/run1.out", fm.Name)
}

func TestOpenWithoutWildcardIgnoresBasename(t *testing.T) {
	fs := newFakeFS()
	fm := new(FileMeta)
	require.NoError(t, fm.Parse("fixed.txt"))
	fm.DefaultProtocol(ProtocolASCII)
	require.NoError(t, fm.OpenFS(fs, "ignored", "w"))
	defer fm.Close()

	require.Equal(t, "fixed.txt", fm.Name)
}

func TestOpenEscapedWildcardIsLiteral(t *testing.T) {
	fs := newFakeFS()
	fm := new(FileMeta)
	require.NoError(t, fm.Parse(`literal-\%-%.txt`))
	fm.DefaultProtocol(ProtocolASCII)
	require.NoError(t, fm.OpenFS(fs, "x", "w"))
	defer fm.Close()

	require.Equal(t, "literal-%-x.txt", fm.Name)
}

func TestOpenOverflowOpensNothing(t *testing.T) {
	fs := newFakeFS()
	fm := new(FileMeta)
	require.NoError(t, fm.Parse("%-%.dat"))
	fm.DefaultProtocol(ProtocolBinary)

	err := fm.OpenFS(fs, strings.Repeat("b", MaxNameLen), "w")
	require.ErrorIs(t, err, ErrOverflow)
	require.Empty(t, fs.created)
	require.Empty(t, fm.Name)
	require.False(t, fm.IsOpen())
}

func TestResolve(t *testing.T) {
	fm := new(FileMeta)
	require.NoError(t, fm.Parse("out-%.dat"))

	name, err := fm.Resolve("img007")
	require.NoError(t, err)
	require.Equal(t, "out-img007.dat", name)

	_, err = fm.Resolve(strings.Repeat("x", MaxNameLen))
	require.ErrorIs(t, err, ErrOverflow)
}

func TestOpenInactiveIsNoop(t *testing.T) {
	fs := newFakeFS()
	fm := new(FileMeta)
	require.NoError(t, fm.OpenFS(fs, "x", "w"))
	require.False(t, fm.IsOpen())
	require.Empty(t, fs.created)
}

func TestOpenMissingFileIsIOError(t *testing.T) {
	fm := new(FileMeta)
	require.NoError(t, fm.Parse("ascii:"+filepath.Join(t.TempDir(), "missing-%.txt")))
	err := fm.Open("nope", "r")
	require.ErrorIs(t, err, ErrIO)
	require.False(t, fm.IsOpen())
}

func TestOpenUnsupportedMode(t *testing.T) {
	fs := newFakeFS()
	fm := new(FileMeta)
	require.NoError(t, fm.Parse("ascii:x.txt"))
	err := fm.OpenFS(fs, "x", "q")
	require.ErrorIs(t, err, ErrBadArgument)
}

func TestCloseIsIdempotent(t *testing.T) {
	fs := newFakeFS()
	fm := new(FileMeta)
	require.NoError(t, fm.Parse("ascii:out-%.txt"))
	require.NoError(t, fm.OpenFS(fs, "a", "w"))
	require.NoError(t, fm.Close())
	require.NoError(t, fm.Close())

	// Pattern and protocol survive a close so the descriptor can be
	// reopened against a new basename.
	require.Equal(t, "out-%.txt", fm.Pattern)
	require.Equal(t, ProtocolASCII, fm.Protocol)
	require.NoError(t, fm.OpenFS(fs, "b", "w"))
	require.Equal(t, "out-b.txt", fm.Name)
	require.NoError(t, fm.Close())
}

func TestBinaryDoubleRoundTrip(t *testing.T) {
	dir := t.TempDir()
	values := []float64{0, 1, -1, 3.5, math.Pi, math.MaxFloat64, math.SmallestNonzeroFloat64, -2.25e-300}

	fm := new(FileMeta)
	require.NoError(t, fm.Parse("binary:"+filepath.Join(dir, "%.dat")))
	require.NoError(t, fm.Open("vals", "w"))
	for _, v := range values {
		require.NoError(t, fm.PutFloat64(v))
	}
	require.NoError(t, fm.Close())

	require.NoError(t, fm.Open("vals", "r"))
	defer fm.Close()
	for i, want := range values {
		got, err := fm.GetFloat64()
		require.NoError(t, err, "value %d", i)
		require.Equal(t, math.Float64bits(want), math.Float64bits(got), "value %d", i)
	}

	_, err := fm.GetFloat64()
	require.ErrorIs(t, err, ErrEndOfFile)
}

func TestASCIIDoubleRoundTrip(t *testing.T) {
	dir := t.TempDir()
	values := []float64{0, 1, -1, 3.5, math.Pi, 1e-9, 12345.6789}

	fm := new(FileMeta)
	require.NoError(t, fm.Parse("ascii:"+filepath.Join(dir, "%.txt")))
	require.NoError(t, fm.Open("vals", "w"))
	for _, v := range values {
		require.NoError(t, fm.PutFloat64(v))
	}
	require.NoError(t, fm.Close())

	require.NoError(t, fm.Open("vals", "r"))
	defer fm.Close()
	for i, want := range values {
		got, err := fm.GetFloat64()
		require.NoError(t, err, "value %d", i)
		require.InDelta(t, want, got, math.Abs(want)*1e-5+1e-12, "value %d", i)
	}

	_, err := fm.GetFloat64()
	require.ErrorIs(t, err, ErrEndOfFile)
}

func TestBinaryByteScenario(t *testing.T) {
	dir := t.TempDir()

	fm := new(FileMeta)
	require.NoError(t, fm.Parse("binary:"+filepath.Join(dir, "out-%.dat")))
	require.NoError(t, fm.Open("img007", "w"))
	require.Equal(t, filepath.Join(dir, "out-img007.dat"), fm.Name)
	require.NoError(t, fm.PutUint8(200))
	require.NoError(t, fm.Close())

	require.NoError(t, fm.Open("img007", "r"))
	defer fm.Close()
	got, err := fm.GetUint8()
	require.NoError(t, err)
	require.Equal(t, uint8(200), got)

	_, err = fm.GetUint8()
	require.ErrorIs(t, err, ErrEndOfFile)
}

func TestASCIIWriteFormatScenario(t *testing.T) {
	dir := t.TempDir()

	// An empty spec activates the descriptor; pattern and protocol come
	// from defaults the caller supplies.
	fm := &FileMeta{Pattern: filepath.Join(dir, "out-%.txt")}
	require.NoError(t, fm.Parse(""))
	fm.DefaultProtocol(ProtocolASCII)

	require.NoError(t, fm.Open("sample", "w"))
	require.Equal(t, filepath.Join(dir, "out-sample.txt"), fm.Name)
	require.NoError(t, fm.PutFloat64(3.5))
	require.NoError(t, fm.Close())

	data, err := os.ReadFile(filepath.Join(dir, "out-sample.txt"))
	require.NoError(t, err)
	require.Equal(t, "3.5 ", string(data))
}

func TestASCIIUint8Format(t *testing.T) {
	fs := newFakeFS()
	fm := new(FileMeta)
	require.NoError(t, fm.Parse("ascii:b.txt"))
	require.NoError(t, fm.OpenFS(fs, "", "w"))
	require.NoError(t, fm.PutUint8(200))
	require.NoError(t, fm.PutUint8(7))
	require.NoError(t, fm.Close())

	require.Equal(t, "200 7 ", string(fs.files["b.txt"]))
}

func TestGetMalformedASCII(t *testing.T) {
	fs := newFakeFS()
	fs.files["bad.txt"] = []byte("  not-a-number  ")

	fm := new(FileMeta)
	require.NoError(t, fm.Parse("ascii:bad.txt"))
	require.NoError(t, fm.OpenFS(fs, "", "r"))
	defer fm.Close()

	_, err := fm.GetFloat64()
	require.ErrorIs(t, err, ErrBadArgument)
}

func TestGetEOFBeforeBadArgument(t *testing.T) {
	fs := newFakeFS()
	fs.files["empty.txt"] = nil
	fs.files["ws.txt"] = []byte("   \n\t ")
	fs.files["short.dat"] = []byte{1, 2, 3} // under one float64

	for _, tt := range []struct{ spec, name string }{
		{"ascii:empty.txt", "empty"},
		{"ascii:ws.txt", "whitespace only"},
		{"binary:short.dat", "truncated binary"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			fm := new(FileMeta)
			require.NoError(t, fm.Parse(tt.spec))
			require.NoError(t, fm.OpenFS(fs, "", "r"))
			defer fm.Close()

			_, err := fm.GetFloat64()
			require.ErrorIs(t, err, ErrEndOfFile)
			require.NotErrorIs(t, err, ErrBadArgument)
		})
	}
}

func TestScalarOpsInactiveAreNoops(t *testing.T) {
	fm := new(FileMeta)
	require.NoError(t, fm.PutFloat64(1))
	require.NoError(t, fm.PutUint8(1))
	_, err := fm.GetFloat64()
	require.NoError(t, err)
	_, err = fm.GetUint8()
	require.NoError(t, err)
}

func TestScalarWithoutProtocolPanics(t *testing.T) {
	fs := newFakeFS()
	fm := new(FileMeta)
	require.NoError(t, fm.Parse("no-proto.txt"))
	require.NoError(t, fm.OpenFS(fs, "", "w"))
	defer fm.Close()

	require.Panics(t, func() { fm.PutFloat64(1) })
}

func TestDefaultProtocolDoesNotOverride(t *testing.T) {
	fm := new(FileMeta)
	fm.DefaultProtocol(ProtocolBinary)
	require.Equal(t, ProtocolBinary, fm.Protocol)
	fm.DefaultProtocol(ProtocolASCII)
	require.Equal(t, ProtocolBinary, fm.Protocol)
}
