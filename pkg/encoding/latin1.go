// Package encoding provides text decoding for id Software file formats.
//
// QuakeII data files store names and entity strings as 8-bit Latin-1 text,
// usually inside fixed-size, NUL-padded fields.
package encoding

import (
	"bytes"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Latin1ToUTF8 converts ISO-8859-1 encoded bytes to a UTF-8 string.
// Returns the bytes unchanged if conversion fails.
func Latin1ToUTF8(data []byte) string {
	result, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(result)
}

// UTF8ToLatin1 converts a UTF-8 string to ISO-8859-1 bytes.
// Runes outside Latin-1 make the conversion fail, in which case the raw bytes are returned.
func UTF8ToLatin1(s string) []byte {
	result, _, err := transform.Bytes(charmap.ISO8859_1.NewEncoder(), []byte(s))
	if err != nil {
		return []byte(s)
	}
	return result
}

// FixedString decodes a fixed-size, NUL-terminated Latin-1 field.
func FixedString(data []byte) string {
	if i := bytes.IndexByte(data, 0); i >= 0 {
		data = data[:i]
	}
	return Latin1ToUTF8(data)
}

// ToFixedString encodes s into a NUL-padded field of the given size, truncating if needed.
func ToFixedString(s string, size int) []byte {
	result := make([]byte, size)
	copy(result, UTF8ToLatin1(s))
	return result
}

// NormalizePath converts a game path to the canonical lookup form:
// forward slashes, lower case, no leading slash.
func NormalizePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.TrimLeft(path, "/")
	return strings.ToLower(path)
}
