package google

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// base64 body lines carry 57 input bytes, i.e. 76 output characters
	mimeLineBytes = 57

	maxHeaderLine = 78
	headerCharset = "utf-8"
	// "=?" "?b?" "?=" around every encoded word
	encodedWordChrome = 7
	// preferred folding points, best first
	headerSplitChars = ";, \t"
)

// BuildMessage renders a single-part text/plain message with to and subject headers.
//
// The byte layout is fixed by the send API's existing consumers: MIME headers first,
// lowercase "to"/"subject" after them, LF line endings and no trailing newline for
// 7bit bodies. Bodies outside US-ASCII are sent as utf-8 in base64 with LF-terminated
// 76-character lines. Header lines longer than 78 columns are folded, and non-ASCII
// header values become RFC 2047 encoded words, B or Q whichever is shorter.
func BuildMessage(to, subject, body string) []byte {
	var buf bytes.Buffer

	ascii := isASCII(body)
	if ascii {
		buf.WriteString("Content-Type: text/plain; charset=\"us-ascii\"\n")
		buf.WriteString("MIME-Version: 1.0\n")
		buf.WriteString("Content-Transfer-Encoding: 7bit\n")
	} else {
		buf.WriteString("Content-Type: text/plain; charset=\"utf-8\"\n")
		buf.WriteString("MIME-Version: 1.0\n")
		buf.WriteString("Content-Transfer-Encoding: base64\n")
	}

	buf.WriteString(foldHeader("to", headerValue(to)) + "\n")
	buf.WriteString(foldHeader("subject", headerValue(subject)) + "\n")
	buf.WriteString("\n")

	if ascii {
		buf.WriteString(body)
	} else {
		writeBase64Lines(&buf, []byte(body))
	}

	return buf.Bytes()
}

// EncodeMessage returns the URL-safe, padded base64 form of BuildMessage, as the
// send API expects in its raw field.
func EncodeMessage(to, subject, body string) string {
	return base64.URLEncoding.EncodeToString(BuildMessage(to, subject, body))
}

func writeBase64Lines(buf *bytes.Buffer, data []byte) {
	for len(data) > 0 {
		n := mimeLineBytes
		if n > len(data) {
			n = len(data)
		}
		buf.WriteString(base64.StdEncoding.EncodeToString(data[:n]))
		buf.WriteByte('\n')
		data = data[n:]
	}
}

// header injection guard: every line break becomes a space
var lineBreaks = strings.NewReplacer(
	"\r", " ", "\n", " ", "\v", " ", "\f", " ",
	"\x1c", " ", "\x1d", " ", "\x1e", " ",
	"\u0085", " ", "\u2028", " ", "\u2029", " ",
)

func headerValue(v string) string {
	return lineBreaks.Replace(v)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// foldHeader renders "name: value" folded at maxHeaderLine columns with "\n "
// continuations. ASCII values break at whitespace, preferring a preceding ';' or ','.
// Other values are split into as many encoded words as the line budget needs.
func foldHeader(name, value string) string {
	f := &headerFolder{
		maxLen: maxHeaderLine,
		cur:    lineAccumulator{initial: len(name) + 2},
	}

	if isASCII(value) {
		for _, c := range splitFWS(value) {
			f.appendChunk(c.fws, c.text)
		}
	} else {
		f.feedEncoded(value)
	}

	// the closing transition is dropped again by newline
	f.cur.push(" ", "")
	f.newline()

	return name + ": " + strings.Join(f.lines, "\n")
}

// chunk is a word with the folding whitespace in front of it
type chunk struct {
	fws  string
	text string
}

type lineAccumulator struct {
	parts []chunk
	// width taken by the "name: " prefix on the first line
	initial int
}

func (a *lineAccumulator) push(fws, text string) {
	a.parts = append(a.parts, chunk{fws: fws, text: text})
}

func (a *lineAccumulator) pop() chunk {
	if len(a.parts) == 0 {
		return chunk{}
	}
	last := a.parts[len(a.parts)-1]
	a.parts = a.parts[:len(a.parts)-1]
	return last
}

func (a *lineAccumulator) popFrom(i int) []chunk {
	popped := append([]chunk(nil), a.parts[i:]...)
	a.parts = a.parts[:i]
	return popped
}

func (a *lineAccumulator) width() int {
	n := a.initial
	for _, p := range a.parts {
		n += utf8.RuneCountInString(p.fws) + utf8.RuneCountInString(p.text)
	}
	return n
}

func (a *lineAccumulator) String() string {
	var sb strings.Builder
	for _, p := range a.parts {
		sb.WriteString(p.fws)
		sb.WriteString(p.text)
	}
	return sb.String()
}

func (a *lineAccumulator) reset(parts []chunk) {
	a.parts = parts
	a.initial = 0
}

func (a *lineAccumulator) onlyWhitespace() bool {
	if a.initial != 0 {
		return false
	}
	s := a.String()
	return len(a.parts) == 0 || (s != "" && strings.TrimSpace(s) == "")
}

type headerFolder struct {
	maxLen int
	lines  []string
	cur    lineAccumulator
}

func (f *headerFolder) newline() {
	end := f.cur.pop()
	if end != (chunk{fws: " "}) {
		f.cur.push(end.fws, end.text)
	}
	if f.cur.width() > 0 {
		if f.cur.onlyWhitespace() && len(f.lines) > 0 {
			f.lines[len(f.lines)-1] += f.cur.String()
		} else {
			f.lines = append(f.lines, f.cur.String())
		}
	}
	f.cur.reset(nil)
}

func (f *headerFolder) appendChunk(fws, text string) {
	f.cur.push(fws, text)
	if f.cur.width() <= f.maxLen {
		return
	}

	split := -1
search:
	for _, ch := range headerSplitChars {
		for i := len(f.cur.parts) - 1; i > 0; i-- {
			if ch == ' ' || ch == '\t' {
				if w := f.cur.parts[i].fws; w != "" && rune(w[0]) == ch {
					split = i
					break search
				}
			}
			if prev := f.cur.parts[i-1].text; prev != "" && rune(prev[len(prev)-1]) == ch {
				split = i
				break search
			}
		}
	}

	if split < 0 {
		// nowhere to fold: an overlong word goes on a line of its own
		last := f.cur.pop()
		if f.cur.initial > 0 {
			f.newline()
			if last.fws == "" {
				last.fws = " "
			}
		}
		f.cur.push(last.fws, last.text)
		return
	}

	remainder := f.cur.popFrom(split)
	f.lines = append(f.lines, f.cur.String())
	f.cur.reset(remainder)
}

func (f *headerFolder) feedEncoded(value string) {
	words, firstFits := encodeWords(value, f.maxLen-f.cur.width(), f.maxLen-1)
	if len(words) == 0 {
		return
	}

	if firstFits {
		f.appendChunk("", words[0])
	}
	words = words[1:]
	if len(words) == 0 {
		return
	}

	last := words[len(words)-1]
	f.newline()
	f.cur.push(" ", last)
	for _, w := range words[:len(words)-1] {
		f.lines = append(f.lines, " "+w)
	}
}

var fwsRun = regexp.MustCompile(`[ \t]+`)

// splitFWS cuts s into words, each carrying the whitespace run in front of it
func splitFWS(s string) []chunk {
	parts := make([]string, 0, 8)
	last := 0
	for _, m := range fwsRun.FindAllStringIndex(s, -1) {
		parts = append(parts, s[last:m[0]], s[m[0]:m[1]])
		last = m[1]
	}
	parts = append(parts, s[last:])

	if parts[0] != "" {
		parts = append([]string{""}, parts...)
	} else {
		parts = parts[1:]
	}

	chunks := make([]chunk, 0, len(parts)/2)
	for i := 0; i+1 < len(parts); i += 2 {
		chunks = append(chunks, chunk{fws: parts[i], text: parts[i+1]})
	}
	return chunks
}

// wordEncoding is one of the two RFC 2047 encodings
type wordEncoding struct {
	tag    string
	length func([]byte) int
	encode func([]byte) string
}

var (
	bEncoding = wordEncoding{
		tag: "b",
		length: func(b []byte) int {
			return (len(b) + 2) / 3 * 4
		},
		encode: base64.StdEncoding.EncodeToString,
	}
	qEncoding = wordEncoding{
		tag: "q",
		length: func(b []byte) int {
			n := 0
			for _, c := range b {
				if qSafe(c) {
					n++
				} else {
					n += 3
				}
			}
			return n
		},
		encode: func(b []byte) string {
			var sb strings.Builder
			for _, c := range b {
				switch {
				case c == ' ':
					sb.WriteByte('_')
				case qSafe(c):
					sb.WriteByte(c)
				default:
					fmt.Fprintf(&sb, "=%02X", c)
				}
			}
			return sb.String()
		},
	}
)

func qSafe(c byte) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		return true
	case c == '-', c == '!', c == '*', c == '+', c == '/', c == ' ':
		return true
	}
	return false
}

func (e wordEncoding) word(s string) string {
	if s == "" {
		return ""
	}
	return "=?" + headerCharset + "?" + e.tag + "?" + e.encode([]byte(s)) + "?="
}

// encodeWords splits value into encoded words whose payload fits first columns on the
// first line and rest on every following one. Splits fall on character boundaries.
// firstFits is false when not even one character fits on the first line; words[0] is
// then a placeholder.
func encodeWords(value string, first, rest int) (words []string, firstFits bool) {
	enc := qEncoding
	if all := []byte(value); bEncoding.length(all) < qEncoding.length(all) {
		enc = bEncoding
	}

	extra := len(headerCharset) + encodedWordChrome
	maxLen := first - extra
	firstFits = true

	var current []rune
	for _, r := range value {
		current = append(current, r)
		if enc.length([]byte(string(current))) <= maxLen {
			continue
		}

		current = current[:len(current)-1]
		if len(words) == 0 && len(current) == 0 {
			words = append(words, "")
			firstFits = false
		} else {
			words = append(words, enc.word(string(current)))
		}
		current = []rune{r}
		maxLen = rest - extra
	}
	words = append(words, enc.word(string(current)))

	return words, firstFits
}
