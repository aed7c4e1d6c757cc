package filemeta

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitProtocolPrefix(t *testing.T) {
	tests := []struct {
		in       string
		protocol Protocol
		rest     string
	}{
		{"ascii:out.txt", ProtocolASCII, "out.txt"},
		{"binary:out.dat", ProtocolBinary, "out.dat"},
		{"binary:", ProtocolBinary, ""},
		{"out.txt", ProtocolNone, "out.txt"},
		{"", ProtocolNone, ""},
	}
	for _, tt := range tests {
		proto, rest, err := splitProtocolPrefix(tt.in)
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.protocol, proto, tt.in)
		require.Equal(t, tt.rest, rest, tt.in)
	}
}

func TestSplitProtocolPrefixUnknown(t *testing.T) {
	for _, in := range []string{"hex:out.dat", ":out.dat", "C:\\out.dat"} {
		_, _, err := splitProtocolPrefix(in)
		require.ErrorIs(t, err, ErrBadArgument, in)
	}
}

func TestReplaceWildcard(t *testing.T) {
	tests := []struct {
		pattern  string
		basename string
		want     string
	}{
		{"out-%.dat", "img007", "out-img007.dat"},
		{"%-%", "x", "x-x"},
		{"no-marker.txt", "ignored", "no-marker.txt"},
		{"", "x", ""},
		{"%", "only", "only"},
		{`esc\%aped-%`, "b", "esc%aped-b"},
		{`trailing\`, "b", `trailing\`},
	}
	for _, tt := range tests {
		got := replaceWildcard(tt.pattern, Wildcard, EscapeChar, tt.basename)
		require.Equal(t, tt.want, got, tt.pattern)
	}
}

func TestReplaceWildcardNoEscape(t *testing.T) {
	// A zero escape byte disables escaping entirely.
	got := replaceWildcard(`a\%b`, Wildcard, 0, "X")
	require.Equal(t, `a\Xb`, got)
}

func TestHasWildcard(t *testing.T) {
	require.True(t, HasWildcard("out-%.dat"))
	require.True(t, HasWildcard(`\%%`))
	require.False(t, HasWildcard("plain.txt"))
	require.False(t, HasWildcard(`only-\%-escaped`))
	require.False(t, HasWildcard(""))
}
