// Copyright 2020-2025 Buf Technologies, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parser

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bufbuild/macrocompile/reporter"
	"github.com/bufbuild/macrocompile/token"
)

type runeReader struct {
	data []byte
	pos  int
	err  error
	mark int
}

func (rr *runeReader) readRune() (r rune, size int, err error) {
	if rr.err != nil {
		return 0, 0, rr.err
	}
	if rr.pos == len(rr.data) {
		rr.err = io.EOF
		return 0, 0, rr.err
	}
	r, sz := utf8.DecodeRune(rr.data[rr.pos:])
	if r == utf8.RuneError && sz == 1 {
		rr.err = fmt.Errorf("invalid UTF8 at offset %d: %x", rr.pos, rr.data[rr.pos])
		return 0, 0, rr.err
	}
	rr.pos = rr.pos + sz
	return r, sz, nil
}

func (rr *runeReader) peekRune() (rune, bool) {
	if rr.err != nil || rr.pos == len(rr.data) {
		return 0, false
	}
	r, sz := utf8.DecodeRune(rr.data[rr.pos:])
	if r == utf8.RuneError && sz == 1 {
		return 0, false
	}
	return r, true
}

// peekRune2 returns the rune after the next one without consuming either.
func (rr *runeReader) peekRune2() (rune, bool) {
	if rr.err != nil || rr.pos == len(rr.data) {
		return 0, false
	}
	_, sz := utf8.DecodeRune(rr.data[rr.pos:])
	if rr.pos+sz >= len(rr.data) {
		return 0, false
	}
	r, sz2 := utf8.DecodeRune(rr.data[rr.pos+sz:])
	if r == utf8.RuneError && sz2 == 1 {
		return 0, false
	}
	return r, true
}

func (rr *runeReader) offset() int {
	return rr.pos
}

func (rr *runeReader) unreadRune(sz int) {
	newPos := rr.pos - sz
	if newPos < rr.mark {
		panic("unread past mark")
	}
	rr.pos = newPos
}

func (rr *runeReader) setMark() {
	rr.mark = rr.pos
}

func (rr *runeReader) getMark() string {
	return string(rr.data[rr.mark:rr.pos])
}

// lexer scans a source file into a stream of leaf tokens and nests them into
// balanced token trees. Identifiers lexed here always carry the empty hygiene
// context: marks only appear on trees minted by transcription.
type lexer struct {
	input   *runeReader
	info    *token.FileInfo
	handler *reporter.Handler

	// indexes into info of comments seen since the last real token; they get
	// attributed to the token that follows them
	comments []token.Token
	prevTok  token.Token
}

var utf8Bom = []byte{0xEF, 0xBB, 0xBF}

func newLexer(in io.Reader, filename string, handler *reporter.Handler) (*lexer, error) {
	br := bufio.NewReader(in)

	// if file has UTF8 byte order marker preface, consume it
	marker, err := br.Peek(3)
	if err == nil && bytes.Equal(marker, utf8Bom) {
		_, _ = br.Discard(3)
	}

	contents, err := io.ReadAll(br)
	if err != nil {
		return nil, err
	}
	return &lexer{
		input:   &runeReader{data: contents},
		info:    token.NewFileInfo(filename, contents),
		handler: handler,
		prevTok: -1,
	}, nil
}

// punctRunes is the set of runes that lex as punctuation leaves. Delimiters
// are not puncts: they become Group trees.
const punctRunes = ";,.@#~?:$=!<>-&|+*/^%"

func isPunct(r rune) bool {
	return strings.ContainsRune(punctRunes, r)
}

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r > 127 && unicode.IsLetter(r))
}

func isIdentContinue(r rune) bool {
	return isIdentStart(r) || (r >= '0' && r <= '9')
}

// lex scans the whole file into a balanced forest of token trees.
func (l *lexer) lex() ([]token.Tree, error) {
	type openGroup struct {
		delim    token.Delimiter
		open     token.Token
		openPos  token.SourcePos
		children []token.Tree
	}
	var stack []openGroup
	var top []token.Tree

	push := func(t token.Tree) {
		if len(stack) == 0 {
			top = append(top, t)
		} else {
			g := &stack[len(stack)-1]
			g.children = append(g.children, t)
		}
	}

	for {
		leaf, delim, closing, eof, err := l.next()
		if err != nil {
			return nil, err
		}
		if eof {
			break
		}

		switch {
		case delim != nil && !closing:
			stack = append(stack, openGroup{
				delim:   *delim,
				open:    leaf.Start(),
				openPos: l.info.TokenInfo(leaf.Start()).Start(),
			})
		case delim != nil:
			if len(stack) == 0 {
				return nil, l.addSourceError(l.posOf(leaf), fmt.Errorf("unexpected closing delimiter %q", string((*delim).Close())))
			}
			g := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if g.delim != *delim {
				return nil, l.addSourceError(l.posOf(leaf), fmt.Errorf("mismatched closing delimiter %q: %q opened at %v expects %q", string((*delim).Close()), string(g.delim.Open()), g.openPos, string(g.delim.Close())))
			}
			push(token.NewGroup(g.delim, g.children, g.open, leaf.End()))
		default:
			push(leaf)
		}
	}

	if len(stack) != 0 {
		g := stack[len(stack)-1]
		return nil, l.addSourceError(g.openPos, fmt.Errorf("unclosed delimiter %q", string(g.delim.Open())))
	}
	return top, nil
}

func (l *lexer) posOf(t token.Tree) token.SourcePos {
	return l.info.TokenInfo(t.Start()).Start()
}

func (l *lexer) maybeNewLine(r rune) {
	if r == '\n' {
		l.info.AddLine(l.input.offset())
	}
}

func (l *lexer) prev() token.SourcePos {
	return l.info.SourcePos(l.input.mark)
}

// next returns the next leaf. Delimiter runes are returned as a placeholder
// leaf plus their delimiter and direction; eof is true at end of input.
func (l *lexer) next() (leaf token.Tree, delim *token.Delimiter, closing bool, eof bool, err error) {
	for {
		l.input.setMark()
		c, _, rerr := l.input.readRune()
		if rerr == io.EOF {
			l.flushEOFComments()
			return token.Tree{}, nil, false, true, nil
		} else if rerr != nil {
			return token.Tree{}, nil, false, false, l.addSourceError(l.prev(), rerr)
		}

		if strings.ContainsRune("\n\r\t\f\v ", c) {
			// skip whitespace
			l.maybeNewLine(c)
			continue
		}

		switch {
		case c == '(' || c == '[' || c == '{':
			tok := l.newToken()
			d := delimFor(c)
			return token.Tree{}.WithSpan(tok), &d, false, false, nil
		case c == ')' || c == ']' || c == '}':
			tok := l.newToken()
			d := delimFor(c)
			return token.Tree{}.WithSpan(tok), &d, true, false, nil
		}

		if c == '/' {
			if cn, ok := l.input.peekRune(); ok && (cn == '/' || cn == '*') {
				if err := l.readComment(cn); err != nil {
					return token.Tree{}, nil, false, false, err
				}
				continue
			}
		}

		if c == 'r' {
			// raw identifier r#name, or raw string r"..." / r#"..."#
			if cn, ok := l.input.peekRune(); ok {
				if cn == '"' || cn == '#' {
					t, handled, err := l.readRawPrefixed()
					if err != nil {
						return token.Tree{}, nil, false, false, err
					}
					if handled {
						return t, nil, false, false, nil
					}
				}
			}
		}

		if c == 'b' {
			// byte string b"..." or byte char b'x'; lexed like their
			// unprefixed forms, the prefix kept in the raw text
			if cn, ok := l.input.peekRune(); ok && (cn == '"' || cn == '\'') {
				l.input.readRune()
				if cn == '"' {
					val, err := l.readStringLiteral('"')
					if err != nil {
						return token.Tree{}, nil, false, false, l.addSourceError(l.prev(), err)
					}
					return l.newStringLeaf(val), nil, false, false, nil
				}
				t, err := l.readCharOrLifetime()
				if err != nil {
					return token.Tree{}, nil, false, false, err
				}
				return t, nil, false, false, nil
			}
		}

		if isIdentStart(c) {
			l.readIdentifier()
			return token.NewIdent(l.input.getMark(), 0, l.newToken()), nil, false, false, nil
		}

		if c >= '0' && c <= '9' {
			return l.readNumber(c)
		}

		if c == '\'' {
			t, err := l.readCharOrLifetime()
			if err != nil {
				return token.Tree{}, nil, false, false, err
			}
			return t, nil, false, false, nil
		}

		if c == '"' {
			val, err := l.readStringLiteral('"')
			if err != nil {
				return token.Tree{}, nil, false, false, l.addSourceError(l.prev(), err)
			}
			return l.newStringLeaf(val), nil, false, false, nil
		}

		if isPunct(c) {
			joint := false
			if cn, ok := l.input.peekRune(); ok && isPunct(cn) {
				joint = true
				if cn == '/' {
					// a / that opens a comment separates the puncts
					if c2, ok := l.input.peekRune2(); ok && (c2 == '/' || c2 == '*') {
						joint = false
					}
				}
			}
			return token.NewPunct(c, joint, l.newToken()), nil, false, false, nil
		}

		return token.Tree{}, nil, false, false, l.addSourceError(l.prev(), fmt.Errorf("invalid character %q", c))
	}
}

func delimFor(c rune) token.Delimiter {
	switch c {
	case '(', ')':
		return token.Paren
	case '[', ']':
		return token.Bracket
	default:
		return token.Brace
	}
}

func (l *lexer) newToken() token.Token {
	offset := l.input.mark
	length := l.input.pos - l.input.mark
	tok := l.info.AddToken(offset, length)
	l.attributeComments(tok)
	l.prevTok = tok
	return tok
}

func (l *lexer) attributeComments(tok token.Token) {
	for _, c := range l.comments {
		l.info.AddComment(c, tok)
	}
	l.comments = nil
}

func (l *lexer) flushEOFComments() {
	if l.prevTok < 0 {
		l.comments = nil
		return
	}
	for _, c := range l.comments {
		l.info.AddComment(c, l.prevTok)
	}
	l.comments = nil
}

func (l *lexer) newStringLeaf(val string) token.Tree {
	t := token.Tree{Kind: token.StringLit, Text: l.input.getMark(), StrVal: val}
	return t.WithSpan(l.newToken())
}

func (l *lexer) readComment(second rune) error {
	l.input.readRune() // consume the / or *
	if second == '/' {
		for {
			c, _, err := l.input.readRune()
			if err != nil {
				break
			}
			if c == '\n' {
				// the newline is not part of the comment token
				l.input.unreadRune(1)
				break
			}
		}
	} else {
		// block comments nest
		depth := 1
		for depth > 0 {
			c, _, err := l.input.readRune()
			if err != nil {
				return l.addSourceError(l.prev(), errors.New("block comment never terminates, unexpected EOF"))
			}
			l.maybeNewLine(c)
			switch c {
			case '*':
				if cn, ok := l.input.peekRune(); ok && cn == '/' {
					l.input.readRune()
					depth--
				}
			case '/':
				if cn, ok := l.input.peekRune(); ok && cn == '*' {
					l.input.readRune()
					depth++
				}
			}
		}
	}
	offset := l.input.mark
	length := l.input.pos - l.input.mark
	l.comments = append(l.comments, l.info.AddToken(offset, length))
	if second == '/' {
		// now consume the newline we put back, so AddLine sees it
		if c, _, err := l.input.readRune(); err == nil {
			l.maybeNewLine(c)
		}
	}
	return nil
}

func (l *lexer) readIdentifier() {
	for {
		c, sz, err := l.input.readRune()
		if err != nil {
			break
		}
		if !isIdentContinue(c) {
			l.input.unreadRune(sz)
			break
		}
	}
}

// readRawPrefixed handles tokens that begin with the rune r: raw identifiers
// (r#name) and raw strings (r"..." or r#...#"..."#...#). The leading r has
// already been consumed. Returns handled=false when the token turns out to be
// a plain identifier starting with r, with nothing consumed past it.
func (l *lexer) readRawPrefixed() (token.Tree, bool, error) {
	hashes := 0
	for {
		c, ok := l.input.peekRune()
		if !ok {
			break
		}
		if c == '#' {
			l.input.readRune()
			hashes++
			continue
		}
		if c == '"' {
			l.input.readRune()
			val, err := l.readRawStringLiteral(hashes)
			if err != nil {
				return token.Tree{}, false, l.addSourceError(l.prev(), err)
			}
			return l.newStringLeaf(val), true, nil
		}
		break
	}

	if hashes == 1 {
		if c, ok := l.input.peekRune(); ok && isIdentStart(c) {
			l.readIdentifier()
			return token.NewIdent(l.input.getMark(), 0, l.newToken()), true, nil
		}
	}
	if hashes > 0 {
		return token.Tree{}, false, l.addSourceError(l.prev(), errors.New("invalid raw token: expected string or identifier after r#"))
	}
	return token.Tree{}, false, nil
}

func (l *lexer) readRawStringLiteral(hashes int) (string, error) {
	var buf bytes.Buffer
	for {
		c, _, err := l.input.readRune()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return "", err
		}
		l.maybeNewLine(c)
		if c == '"' {
			matched := 0
			for matched < hashes {
				cn, ok := l.input.peekRune()
				if !ok || cn != '#' {
					break
				}
				l.input.readRune()
				matched++
			}
			if matched == hashes {
				return buf.String(), nil
			}
			buf.WriteRune('"')
			for i := 0; i < matched; i++ {
				buf.WriteRune('#')
			}
			continue
		}
		buf.WriteRune(c)
	}
}

// readCharOrLifetime disambiguates 'a (a lifetime) from 'a' (a char literal).
// The opening quote has already been consumed.
func (l *lexer) readCharOrLifetime() (token.Tree, error) {
	c, ok := l.input.peekRune()
	if !ok {
		return token.Tree{}, l.addSourceError(l.prev(), io.ErrUnexpectedEOF)
	}

	if isIdentStart(c) {
		// could be either; consume ident runes and look for a closing quote
		l.input.readRune()
		first := c
		length := 1
		for {
			cn, ok := l.input.peekRune()
			if !ok {
				break
			}
			if isIdentContinue(cn) {
				l.input.readRune()
				length++
				continue
			}
			break
		}
		if cn, ok := l.input.peekRune(); ok && cn == '\'' && length == 1 {
			l.input.readRune()
			t := token.Tree{Kind: token.CharLit, Text: l.input.getMark(), CharVal: first}
			return t.WithSpan(l.newToken()), nil
		}
		if cn, ok := l.input.peekRune(); ok && cn == '\'' {
			return token.Tree{}, l.addSourceError(l.prev(), fmt.Errorf("character literal may only contain one codepoint: %s'", l.input.getMark()))
		}
		return token.NewLifetime(l.input.getMark(), 0, l.newToken()), nil
	}

	// not ident-start: must be a char literal, possibly escaped
	val, err := l.readCharBody()
	if err != nil {
		return token.Tree{}, l.addSourceError(l.prev(), err)
	}
	t := token.Tree{Kind: token.CharLit, Text: l.input.getMark(), CharVal: val}
	return t.WithSpan(l.newToken()), nil
}

func (l *lexer) readCharBody() (rune, error) {
	c, _, err := l.input.readRune()
	if err != nil {
		return 0, err
	}
	var val rune
	if c == '\\' {
		val, err = l.readEscape(true)
		if err != nil {
			return 0, err
		}
	} else if c == '\'' {
		return 0, errors.New("empty character literal")
	} else {
		val = c
	}
	c, _, err = l.input.readRune()
	if err != nil {
		return 0, err
	}
	if c != '\'' {
		return 0, errors.New("unterminated character literal")
	}
	return val, nil
}

// readEscape decodes the escape sequence after a backslash.
func (l *lexer) readEscape(inChar bool) (rune, error) {
	c, _, err := l.input.readRune()
	if err != nil {
		return 0, err
	}
	switch c {
	case 'n':
		return '\n', nil
	case 'r':
		return '\r', nil
	case 't':
		return '\t', nil
	case '0':
		return 0, nil
	case '\\':
		return '\\', nil
	case '\'':
		return '\'', nil
	case '"':
		return '"', nil
	case 'x':
		var hex []rune
		for i := 0; i < 2; i++ {
			c, _, err := l.input.readRune()
			if err != nil {
				return 0, err
			}
			hex = append(hex, c)
		}
		i, err := strconv.ParseInt(string(hex), 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid hex escape: \\x%s", string(hex))
		}
		return rune(i), nil
	case 'u':
		c, _, err := l.input.readRune()
		if err != nil {
			return 0, err
		}
		if c != '{' {
			return 0, errors.New("invalid unicode escape: expected { after \\u")
		}
		var digits []rune
		for {
			c, _, err := l.input.readRune()
			if err != nil {
				return 0, err
			}
			if c == '}' {
				break
			}
			if c == '_' {
				continue
			}
			digits = append(digits, c)
		}
		if len(digits) == 0 || len(digits) > 6 {
			return 0, errors.New("invalid unicode escape: expected 1 to 6 hex digits")
		}
		i, err := strconv.ParseInt(string(digits), 16, 32)
		if err != nil {
			return 0, fmt.Errorf("invalid unicode escape: \\u{%s}", string(digits))
		}
		if i > 0x10ffff {
			return 0, fmt.Errorf("unicode escape out of range: \\u{%s}", string(digits))
		}
		return rune(i), nil
	default:
		return 0, fmt.Errorf("invalid escape sequence: %q", "\\"+string(c))
	}
}

func (l *lexer) readStringLiteral(quote rune) (string, error) {
	var buf bytes.Buffer
	for {
		c, _, err := l.input.readRune()
		if err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return "", err
		}
		l.maybeNewLine(c)
		if c == quote {
			break
		}
		if c == 0 {
			return "", errors.New("null character ('\\0') not allowed in string literal")
		}
		if c == '\\' {
			// a backslash-newline continuation elides the newline and any
			// leading whitespace on the next line
			if cn, ok := l.input.peekRune(); ok && cn == '\n' {
				l.input.readRune()
				l.maybeNewLine('\n')
				for {
					cn, ok := l.input.peekRune()
					if !ok || !strings.ContainsRune(" \t\r", cn) {
						break
					}
					l.input.readRune()
				}
				continue
			}
			r, err := l.readEscape(false)
			if err != nil {
				return "", err
			}
			buf.WriteRune(r)
			continue
		}
		buf.WriteRune(c)
	}
	return buf.String(), nil
}

func (l *lexer) readNumber(first rune) (token.Tree, *token.Delimiter, bool, bool, error) {
	isFloat := false

	if first == '0' {
		if cn, ok := l.input.peekRune(); ok && (cn == 'x' || cn == 'X' || cn == 'o' || cn == 'O' || cn == 'b' || cn == 'B') {
			l.input.readRune()
			base := 16
			switch cn {
			case 'o', 'O':
				base = 8
			case 'b', 'B':
				base = 2
			}
			digits := l.readDigits(base)
			l.readSuffix()
			text := l.input.getMark()
			if digits == "" {
				return token.Tree{}, nil, false, false, l.addSourceError(l.prev(), fmt.Errorf("invalid numeric literal: %s", text))
			}
			ui, err := strconv.ParseUint(digits, base, 64)
			if err != nil {
				return token.Tree{}, nil, false, false, l.addSourceError(l.prev(), numError(err, "integer", text))
			}
			t := token.Tree{Kind: token.IntLit, Text: text, IntVal: ui}
			return t.WithSpan(l.newToken()), nil, false, false, nil
		}
	}

	l.readDigits(10)

	if cn, ok := l.input.peekRune(); ok && cn == '.' {
		// 1..2 lexes as an int and a range operator, and 1.foo() as an int
		// and a method call
		l.input.readRune()
		if c2, ok := l.input.peekRune(); ok && (c2 == '.' || isIdentStart(c2)) {
			l.input.unreadRune(1)
		} else {
			isFloat = true
			l.readDigits(10)
		}
	}

	if cn, ok := l.input.peekRune(); ok && (cn == 'e' || cn == 'E') {
		l.input.readRune()
		if cs, ok := l.input.peekRune(); ok && (cs == '+' || cs == '-') {
			l.input.readRune()
		}
		if exp := l.readDigits(10); exp == "" {
			return token.Tree{}, nil, false, false, l.addSourceError(l.prev(), fmt.Errorf("invalid float literal: missing exponent digits in %s", l.input.getMark()))
		}
		isFloat = true
	}

	numEnd := l.input.offset()
	l.readSuffix()
	suffix := string(l.input.data[numEnd:l.input.offset()])
	text := l.input.getMark()
	num := withoutSeparators(text[:numEnd-l.input.mark])
	if strings.HasPrefix(suffix, "f") {
		isFloat = true
	}

	if isFloat {
		f, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return token.Tree{}, nil, false, false, l.addSourceError(l.prev(), numError(err, "float", text))
		}
		t := token.Tree{Kind: token.FloatLit, Text: text, FloatVal: f}
		return t.WithSpan(l.newToken()), nil, false, false, nil
	}

	ui, err := strconv.ParseUint(num, 10, 64)
	if err != nil {
		return token.Tree{}, nil, false, false, l.addSourceError(l.prev(), numError(err, "integer", text))
	}
	t := token.Tree{Kind: token.IntLit, Text: text, IntVal: ui}
	return t.WithSpan(l.newToken()), nil, false, false, nil
}

// readDigits consumes digits of the given base, plus underscore separators,
// and returns them with separators removed.
func (l *lexer) readDigits(base int) string {
	var buf strings.Builder
	for {
		c, ok := l.input.peekRune()
		if !ok {
			break
		}
		if c == '_' {
			l.input.readRune()
			continue
		}
		var valid bool
		switch base {
		case 16:
			valid = (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
		case 8:
			valid = c >= '0' && c <= '7'
		case 2:
			valid = c == '0' || c == '1'
		default:
			valid = c >= '0' && c <= '9'
		}
		if !valid {
			break
		}
		l.input.readRune()
		buf.WriteRune(c)
	}
	return buf.String()
}

// readSuffix consumes a trailing type suffix such as u8 or f64.
func (l *lexer) readSuffix() {
	if c, ok := l.input.peekRune(); !ok || !isIdentStart(c) {
		return
	}
	l.readIdentifier()
}

func withoutSeparators(text string) string {
	return strings.ReplaceAll(text, "_", "")
}

func numError(err error, kind, s string) error {
	ne, ok := err.(*strconv.NumError)
	if !ok {
		return err
	}
	if ne.Err == strconv.ErrRange {
		return fmt.Errorf("value out of range for %s: %s", kind, s)
	}
	// syntax error
	return fmt.Errorf("invalid syntax in %s value: %s", kind, s)
}

func (l *lexer) addSourceError(pos token.SourcePos, err error) error {
	ewp, ok := err.(reporter.ErrorWithPos)
	if !ok {
		ewp = reporter.Error(pos, err)
	}
	_ = l.handler.HandleError(ewp)
	return ewp
}
