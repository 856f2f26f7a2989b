package property

import (
	"strconv"
	"strings"
)

// SegmentKind tells how a path segment addresses its container.
type SegmentKind uint8

const (
	// KeySegment addresses a mapping key.
	KeySegment SegmentKind = iota
	// IndexSegment addresses a sequence position ("[2]").
	IndexSegment
	// NumericSegment is a bare all-digit dotted segment ("Tags.0"): an index when the
	// container is a sequence, a key when it is a mapping.
	NumericSegment
)

// Segment is one step of a Path.
type Segment struct {
	Kind  SegmentKind
	Key   string
	Index int
}

// Key returns a mapping key segment.
func Key(k string) Segment { return Segment{Kind: KeySegment, Key: k} }

// Index returns a sequence index segment.
func Index(i int) Segment { return Segment{Kind: IndexSegment, Index: i} }

func (s Segment) key() string {
	if s.Kind == NumericSegment {
		return strconv.Itoa(s.Index)
	}
	return s.Key
}

func (s Segment) isIndex() bool {
	return s.Kind == IndexSegment || s.Kind == NumericSegment
}

// Path addresses a value inside a Bag.
type Path []Segment

// String renders the path in the syntax accepted by ParsePath.
func (p Path) String() string {
	var b strings.Builder
	for i, s := range p {
		switch s.Kind {
		case IndexSegment:
			b.WriteString("[" + strconv.Itoa(s.Index) + "]")
		case NumericSegment:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(strconv.Itoa(s.Index))
		default:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(escapeKey(s.Key))
		}
	}
	return b.String()
}

// Parent returns the path without its last segment.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return nil
	}
	return p[:len(p)-1]
}

// Last returns the final segment of a non-empty path.
func (p Path) Last() Segment {
	return p[len(p)-1]
}

// Append returns a new path with segs added.
func (p Path) Append(segs ...Segment) Path {
	out := make(Path, 0, len(p)+len(segs))
	out = append(out, p...)
	return append(out, segs...)
}

func escapeKey(k string) string {
	if !strings.ContainsAny(k, `.[]\`) {
		return k
	}
	var b strings.Builder
	for i := 0; i < len(k); i++ {
		switch k[i] {
		case '.', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteByte(k[i])
	}
	return b.String()
}

// ParsePath parses dotted paths such as "Versioning.Status", "Tags.0", "Rules[0].Id" and
// "Metadata[aws:cdk:path]". A backslash escapes the next character. Bracketed digits are
// strict indexes; other bracketed text is a literal key.
func ParsePath(s string) (Path, error) {
	if s == "" {
		return nil, invalidPath(s, "empty path")
	}
	var (
		p        Path
		buf      strings.Builder
		inSeg    bool
		closed   bool // previous token was a bracket segment
		needNext bool // a '.' was consumed and a segment must follow
	)
	flush := func() {
		p = append(p, dotted(buf.String()))
		buf.Reset()
		inSeg = false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if closed && c != '.' && c != '[' {
			return nil, invalidPath(s, "expected '.' or '[' after ']'")
		}
		switch c {
		case '\\':
			if i+1 >= len(s) {
				return nil, invalidPath(s, "trailing escape")
			}
			i++
			buf.WriteByte(s[i])
			inSeg, closed, needNext = true, false, false
		case '.':
			if inSeg {
				flush()
			} else if !closed {
				return nil, invalidPath(s, "empty segment")
			}
			closed, needNext = false, true
		case '[':
			if inSeg {
				flush()
			} else if needNext {
				return nil, invalidPath(s, "empty segment")
			}
			end, err := matchBracket(s, i)
			if err != nil {
				return nil, err
			}
			p = append(p, bracketed(s[i+1:end]))
			i = end
			closed, needNext = true, false
		case ']':
			return nil, invalidPath(s, "unbalanced ']'")
		default:
			buf.WriteByte(c)
			inSeg, needNext = true, false
		}
	}
	if needNext {
		return nil, invalidPath(s, "path ends with '.'")
	}
	if inSeg {
		flush()
	}
	return p, nil
}

// MustParsePath is ParsePath for literal paths; it panics on a syntax error.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

func matchBracket(s string, open int) (int, error) {
	depth := 0
	for j := open; j < len(s); j++ {
		switch s[j] {
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				if j == open+1 {
					return 0, invalidPath(s, "empty brackets")
				}
				return j, nil
			}
		}
	}
	return 0, invalidPath(s, "unterminated '['")
}

func dotted(text string) Segment {
	if n, ok := digits(text); ok {
		return Segment{Kind: NumericSegment, Index: n}
	}
	return Key(text)
}

func bracketed(text string) Segment {
	if n, ok := digits(text); ok {
		return Index(n)
	}
	return Key(text)
}

func digits(text string) (int, bool) {
	if text == "" || (len(text) > 1 && text[0] == '0') {
		return 0, false
	}
	for i := 0; i < len(text); i++ {
		if text[i] < '0' || text[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, false
	}
	return n, true
}
