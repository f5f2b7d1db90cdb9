// Package diff renders word-level differences between an original text and
// its corrected version.
package diff

import (
	"errors"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
)

// ErrInvalidText is returned for input that is not valid UTF-8.
var ErrInvalidText = errors.New("diff: text is not valid UTF-8")

// OpKind classifies a diff segment.
type OpKind int

const (
	Equal OpKind = iota
	Delete
	Insert
)

// Op is a run of text that is kept, removed from the original or added by
// the revision.
type Op struct {
	Kind OpKind
	Text string
}

// Words compares original and revised token by token. Words, whitespace runs
// and punctuation marks are separate tokens, so a changed comma does not mark
// its whole word as changed. A replacement yields a Delete followed by an
// Insert.
func Words(original, revised string) ([]Op, error) {
	if !utf8.ValidString(original) || !utf8.ValidString(revised) {
		return nil, ErrInvalidText
	}
	a, b := tokenize(original), tokenize(revised)
	m := difflib.NewMatcherWithJunk(a, b, false, nil)

	var ops []Op
	add := func(kind OpKind, tokens []string) {
		if len(tokens) == 0 {
			return
		}
		text := strings.Join(tokens, "")
		if n := len(ops); n > 0 && ops[n-1].Kind == kind {
			ops[n-1].Text += text
			return
		}
		ops = append(ops, Op{Kind: kind, Text: text})
	}
	for _, c := range m.GetOpCodes() {
		switch c.Tag {
		case 'e':
			add(Equal, a[c.I1:c.I2])
		case 'd':
			add(Delete, a[c.I1:c.I2])
		case 'i':
			add(Insert, b[c.J1:c.J2])
		case 'r':
			add(Delete, a[c.I1:c.I2])
			add(Insert, b[c.J1:c.J2])
		}
	}
	return ops, nil
}

type tokenClass int

const (
	classWord tokenClass = iota
	classSpace
	classMark
)

func classify(r rune) tokenClass {
	switch {
	case unicode.IsSpace(r):
		return classSpace
	case unicode.IsLetter(r), unicode.IsDigit(r), unicode.Is(unicode.Mn, r), r == '\'', r == '’':
		return classWord
	default:
		return classMark
	}
}

func tokenize(s string) []string {
	var tokens []string
	start := 0
	prev := tokenClass(-1)
	for i, r := range s {
		cls := classify(r)
		if i > start && (cls != prev || cls == classMark) {
			tokens = append(tokens, s[start:i])
			start = i
		}
		prev = cls
	}
	if start < len(s) {
		tokens = append(tokens, s[start:])
	}
	return tokens
}
