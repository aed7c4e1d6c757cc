package filemeta

import (
	"strconv"
	"strings"
)

// Capacity limits for descriptor strings. Patterns and resolved names are
// held in ordinary Go strings, but a length check is applied before any
// assignment so an oversized value is rejected whole instead of truncated.
const (
	MaxPatternLen = 1024
	MaxNameLen    = 1024
)

// splitProtocolPrefix splits "ascii:rest" into its protocol and the
// remaining pattern text. No colon means no protocol was specified and the
// whole input is pattern text. A colon with an unrecognized token fails.
func splitProtocolPrefix(s string) (Protocol, string, error) {
	i := strings.IndexByte(s, ':')
	if i < 0 {
		return ProtocolNone, s, nil
	}
	p, ok := ParseProtocol(s[:i])
	if !ok {
		return ProtocolNone, "", newError(CodeBadArgument, "unknown protocol "+strconv.Quote(s[:i]))
	}
	return p, s[i+1:], nil
}

// replaceWildcard substitutes every occurrence of wildcard in pattern with
// repl. A nonzero esc byte marks the following byte as literal, so
// esc+wildcard produces the wildcard character itself. An esc as the last
// byte of the pattern is kept verbatim.
func replaceWildcard(pattern string, wildcard, esc byte, repl string) string {
	var sb strings.Builder
	for i := 0; i < len(pattern); i++ {
		c := pattern[i]
		if esc != 0 && c == esc && i+1 < len(pattern) {
			i++
			sb.WriteByte(pattern[i])
			continue
		}
		if c == wildcard {
			sb.WriteString(repl)
			continue
		}
		sb.WriteByte(c)
	}
	return sb.String()
}

// HasWildcard reports whether pattern contains an unescaped wildcard, i.e.
// whether the resolved name will vary with the basename.
func HasWildcard(pattern string) bool {
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case EscapeChar:
			i++
		case Wildcard:
			return true
		}
	}
	return false
}
