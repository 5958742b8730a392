// Package textenc decodes file bytes into UTF-8 text.
package textenc

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode returns content as UTF-8 text with any byte order mark removed.
// Content that is not valid UTF-8 is decoded as Latin-1, and latin1 reports
// that the fallback was used.
func Decode(content []byte) (text string, latin1 bool) {
	content = bytes.TrimPrefix(content, utf8BOM)
	if utf8.Valid(content) {
		return string(content), false
	}

	out, err := charmap.ISO8859_1.NewDecoder().Bytes(content)
	if err != nil {
		return strings.ToValidUTF8(string(content), "�"), true
	}
	return string(out), true
}
