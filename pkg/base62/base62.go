// Package base62 provides a process-wide base62 codec, adapted from the
// teacher's pkg/encoding/base62.go, used wherever a short, filesystem-safe
// token is needed from arbitrary bytes (thumbnail cache keys).
package base62

import "github.com/eknkc/basex"

// Alphabet is the digit/lower/upper alphabet used for encoding.
const Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var codec *basex.Encoding

func init() {
	encoding, err := basex.NewEncoding(Alphabet)
	if err != nil {
		panic("unable to initialize base62 encoder")
	}
	codec = encoding
}

// Encode renders value as a base62 string.
func Encode(value []byte) string {
	return codec.Encode(value)
}

// Decode parses a base62 string back to its original bytes.
func Decode(value string) ([]byte, error) {
	return codec.Decode(value)
}
