package common

import (
	"bytes"
	"strings"
)

// utf8BOM is the byte order mark some editors prepend to JSON files
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// StripBOM removes a leading UTF-8 byte order mark
func StripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

// Wipe zeroes every slice passed in
func Wipe(bufs ...[]byte) {
	for _, b := range bufs {
		clear(b)
	}
}

// IsBlank reports whether s is empty or whitespace only
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
