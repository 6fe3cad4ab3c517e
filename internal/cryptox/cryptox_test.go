package cryptox

import (
	"bytes"
	"crypto/md5"
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigest(t *testing.T) {
	want := sha1.Sum([]byte("saltpassXYZW"))
	got := Digest(SHA1, []byte("salt"), "pass", []byte("XYZW"))
	assert.Equal(t, want[:], got)

	wantMD5 := md5.Sum([]byte("secret"))
	assert.Equal(t, hex.EncodeToString(wantMD5[:]), hex.EncodeToString(Digest(MD5, nil, "secret", nil)))
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal([]byte("abc"), []byte("abc")))
	assert.False(t, Equal([]byte("abc"), []byte("abd")))
	assert.False(t, Equal([]byte("abc"), []byte("ab")))
}

func TestDeriveKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveKey(password, salt)
	key2 := DeriveKey(password, salt)

	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}

	// snapshot
	expectedHex := "34f7a1c64df63ab1ad5b5ee06e64db5713b35f81839823304db63e8e5e6a6a39"
	if hex.EncodeToString(key1) != expectedHex {
		t.Errorf("expected %s, got %s", expectedHex, hex.EncodeToString(key1))
	}
}

func TestDeriveKey_DifferentInputs(t *testing.T) {
	password := []byte("secret-password")

	key1 := DeriveKey(password, []byte("salt-1"))
	key2 := DeriveKey(password, []byte("salt-2"))

	if bytes.Equal(key1, key2) {
		t.Errorf("expected different results for different salts, got same")
	}
}

func TestArgon2id_RoundTrip(t *testing.T) {
	h, err := HashArgon2id("s3cret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(h, Argon2idPrefix))

	ok, err := VerifyArgon2id(h, "s3cret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyArgon2id(h, "other")
	require.NoError(t, err)
	assert.False(t, ok)

	h2, err := HashArgon2id("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, h, h2, "salt must differ between hashes")
}

func TestVerifyArgon2id_Malformed(t *testing.T) {
	for _, in := range []string{
		"",
		"$argon2id$v=19$m=65536,t=1,p=4$onlysalt",
		"$argon2i$v=19$m=65536,t=1,p=4$c2FsdA$a2V5",
		"$argon2id$v=18$m=65536,t=1,p=4$c2FsdA$a2V5",
		"$argon2id$v=19$m=x,t=1,p=4$c2FsdA$a2V5",
		"$argon2id$v=19$m=65536,t=1,p=4$!!$a2V5",
	} {
		_, err := VerifyArgon2id(in, "pw")
		assert.ErrorIs(t, err, ErrMalformedHash, in)
	}
}

func TestBcrypt_RoundTrip(t *testing.T) {
	h, err := HashBcrypt("s3cret")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(h, BcryptPrefix))

	ok, err := VerifyBcrypt(h, "s3cret")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyBcrypt(h, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = VerifyBcrypt("$2a$garbage", "x")
	assert.Error(t, err)
}
