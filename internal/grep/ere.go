package grep

import (
	"regexp/syntax"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// dupMax is the largest repetition bound every POSIX grep accepts.
const dupMax = 255

// anyRune selects one UTF-8 encoded rune, or a stray byte, in the C locale.
const anyRune = ".[\x80-\xbf]*"

// nonASCIIRune selects one multi-byte rune or invalid byte.
const nonASCIIRune = "[\x80-\xff][\x80-\xbf]*"

// ereSpecial lists the characters escaped outside a bracket expression.
const ereSpecial = `\.[()*+?{|^$`

// ere is a POSIX extended expression for grep running under LC_ALL=C.
//
// It selects every line the Go expression matches. exact reports that it
// selects no other line, so grep may apply the line budget itself.
type ere struct {
	pattern string
	exact   bool
}

// toERE translates Go regular expression source into an ere. Constructs ERE
// cannot spell, such as word boundaries, NUL or non-ASCII classes, are
// widened, never narrowed, and clear exact.
func toERE(src string) (ere, error) {
	re, err := syntax.Parse(src, syntax.Perl)
	if err != nil {
		return ere{}, err
	}
	t := translator{exact: true}
	p := t.node(re)
	return ere{pattern: p, exact: t.exact}, nil
}

type translator struct {
	exact bool
}

// widen gives up on a subexpression. The empty pattern matches at every
// position, so the enclosing expression only gets looser.
func (t *translator) widen() string {
	t.exact = false
	return ""
}

func (t *translator) node(re *syntax.Regexp) string {
	switch re.Op {
	case syntax.OpEmptyMatch:
		return ""
	case syntax.OpLiteral:
		var b strings.Builder
		for _, r := range re.Rune {
			if re.Flags&syntax.FoldCase != 0 {
				b.WriteString(t.folded(r))
			} else {
				b.WriteString(t.literal(r))
			}
		}
		return b.String()
	case syntax.OpCharClass:
		return t.class(re.Rune)
	case syntax.OpAnyChar, syntax.OpAnyCharNotNL:
		t.exact = false
		return anyRune
	case syntax.OpBeginLine, syntax.OpBeginText:
		return "^"
	case syntax.OpEndLine, syntax.OpEndText:
		// Native lines lose their CR; grep lines keep it.
		return "\r?$"
	case syntax.OpCapture:
		return group(t.node(re.Sub[0]))
	case syntax.OpStar:
		return t.repeat(re, "*")
	case syntax.OpPlus:
		return t.repeat(re, "+")
	case syntax.OpQuest:
		return t.repeat(re, "?")
	case syntax.OpRepeat:
		lo, hi := re.Min, re.Max
		if lo > dupMax || hi > dupMax {
			t.exact = false
			if lo == 0 {
				return t.repeat(re, "*")
			}
			return t.repeat(re, "+")
		}
		switch {
		case hi == -1:
			return t.repeat(re, "{"+strconv.Itoa(lo)+",}")
		case lo == hi:
			return t.repeat(re, "{"+strconv.Itoa(lo)+"}")
		default:
			return t.repeat(re, "{"+strconv.Itoa(lo)+","+strconv.Itoa(hi)+"}")
		}
	case syntax.OpConcat:
		var b strings.Builder
		for _, sub := range re.Sub {
			b.WriteString(t.node(sub))
		}
		return b.String()
	case syntax.OpAlternate:
		parts := make([]string, 0, len(re.Sub))
		empty := false
		for _, sub := range re.Sub {
			p := t.node(sub)
			if p == "" {
				empty = true
			}
			parts = append(parts, p)
		}
		if empty {
			return ""
		}
		return "(" + strings.Join(parts, "|") + ")"
	default:
		// OpNoMatch, OpWordBoundary, OpNoWordBoundary
		return t.widen()
	}
}

// repeat applies op to the single subexpression of re. Lazy and greedy
// repeats select the same lines.
func (t *translator) repeat(re *syntax.Regexp, op string) string {
	sub := t.node(re.Sub[0])
	if sub == "" {
		return ""
	}
	return group(sub) + op
}

func group(p string) string {
	if p == "" {
		return ""
	}
	return "(" + p + ")"
}

// literal renders one rune outside a bracket expression. Runes above ASCII
// are written as their UTF-8 bytes.
func (t *translator) literal(r rune) string {
	switch {
	case r == '\n':
		// No line holds one, so nothing is matched either way.
		return t.widen()
	case r == 0:
		// NUL cannot be passed in an argument; any byte stands in for it.
		t.exact = false
		return "."
	case r < utf8.RuneSelf && strings.ContainsRune(ereSpecial, r):
		return `\` + string(r)
	default:
		return string(r)
	}
}

// folded renders a case-insensitive rune as its whole simple-fold orbit,
// since grep -i in the C locale only folds ASCII.
func (t *translator) folded(r rune) string {
	orbit := []rune{r}
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		orbit = append(orbit, f)
	}
	if len(orbit) == 1 {
		return t.literal(r)
	}

	var set asciiSet
	var wide []string
	for _, f := range orbit {
		if f < utf8.RuneSelf {
			set[f] = true
		} else {
			wide = append(wide, string(f))
		}
	}
	alts := wide
	if b := set.bracket(); b != "" {
		alts = append([]string{b}, wide...)
	}
	if len(alts) == 1 {
		return alts[0]
	}
	return "(" + strings.Join(alts, "|") + ")"
}

// class renders a character class given as inclusive rune range pairs.
func (t *translator) class(ranges []rune) string {
	var set asciiSet
	wide := false
	for i := 0; i+1 < len(ranges); i += 2 {
		lo, hi := ranges[i], ranges[i+1]
		if hi >= utf8.RuneSelf {
			wide = true
		}
		for r := lo; r <= hi && r < utf8.RuneSelf; r++ {
			set[r] = true
		}
	}
	if set[0] {
		// NUL cannot be passed in an argument; accept any rune instead.
		t.exact = false
		return anyRune
	}
	set['\n'] = false

	b := set.bracket()
	switch {
	case !wide && b == "":
		return t.widen()
	case !wide:
		return b
	}
	t.exact = false
	if b == "" {
		return nonASCIIRune
	}
	return "(" + b + "|" + nonASCIIRune + ")"
}

// asciiSet is a set of ASCII characters.
type asciiSet [utf8.RuneSelf]bool

// bracket renders the set as a bracket expression, or as an escaped
// literal when it holds a single character. Characters with a meaning
// inside brackets are moved to positions where they are literal.
func (s asciiSet) bracket() string {
	members := 0
	last := rune(0)
	for r, in := range s {
		if in {
			members++
			last = rune(r)
		}
	}
	switch members {
	case 0:
		return ""
	case 1:
		if strings.ContainsRune(ereSpecial, last) {
			return `\` + string(last)
		}
		return string(last)
	}

	closeB, openB, caret, dash := s[']'], s['['], s['^'], s['-']
	s[']'], s['['], s['^'], s['-'] = false, false, false, false

	var b strings.Builder
	b.WriteByte('[')
	if closeB {
		b.WriteByte(']')
	}
	runs := false
	for lo := 0; lo < len(s); lo++ {
		if !s[lo] {
			continue
		}
		hi := lo
		for hi+1 < len(s) && s[hi+1] {
			hi++
		}
		runs = true
		switch hi - lo {
		case 0:
			b.WriteByte(byte(lo))
		case 1:
			b.WriteByte(byte(lo))
			b.WriteByte(byte(hi))
		default:
			b.WriteByte(byte(lo))
			b.WriteByte('-')
			b.WriteByte(byte(hi))
		}
		lo = hi
	}
	if openB {
		b.WriteByte('[')
	}
	if caret {
		if !closeB && !runs && !openB {
			// A leading caret would negate; only the dash can go first.
			b.WriteString("-^]")
			return b.String()
		}
		b.WriteByte('^')
	}
	if dash {
		b.WriteByte('-')
	}
	b.WriteByte(']')
	return b.String()
}
