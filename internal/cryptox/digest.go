// Package cryptox holds the hashing primitives behind stored passwords:
// salted message digests for legacy encodings, and argon2id / bcrypt for
// new ones.
package cryptox

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/subtle"
	"hash"
)

type Algorithm int

const (
	SHA1 Algorithm = iota
	MD5
)

func (a Algorithm) new() hash.Hash {
	if a == MD5 {
		return md5.New()
	}
	return sha1.New()
}

// Digest returns alg(globalSalt || pass || extraSalt). Either salt may be nil.
func Digest(alg Algorithm, globalSalt []byte, pass string, extraSalt []byte) []byte {
	h := alg.new()
	h.Write(globalSalt)
	h.Write([]byte(pass))
	h.Write(extraSalt)
	return h.Sum(nil)
}

// Equal compares two digests in constant time.
func Equal(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
