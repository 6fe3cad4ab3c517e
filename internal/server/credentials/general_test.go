package credentials

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/tenantgov/internal/common"
	"github.com/dmitrijs2005/tenantgov/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPolicy(t *testing.T, cfg config.PasswordPolicy) *GeneralPolicy {
	t.Helper()
	p, err := NewGeneralPolicy(cfg)
	require.NoError(t, err)
	return p
}

func TestNewGeneralPolicy_Encodings(t *testing.T) {
	tests := []struct {
		enc       string
		save, alt string
	}{
		{"sha1", EncSHA1, EncSHA1},
		{"SHA1Plain", EncSHA1, EncPlain},
		{"plainsha1", EncPlain, EncSHA1},
		{"md5", EncMD5, EncMD5},
		{"md5plain", EncMD5, EncPlain},
		{"plainmd5", EncPlain, EncMD5},
		{"bcrypt", EncBcrypt, EncBcrypt},
		{"argon2id", EncArgon2id, EncArgon2id},
		{"plain", EncPlain, EncPlain},
		{"none", EncPlain, EncPlain},
		{"", EncPlain, EncPlain},
	}
	for _, tt := range tests {
		t.Run(tt.enc, func(t *testing.T) {
			p := newPolicy(t, config.PasswordPolicy{Encoding: tt.enc})
			assert.Equal(t, tt.save, p.save)
			assert.Equal(t, tt.alt, p.alt)
		})
	}
}

func TestNewGeneralPolicy_Invalid(t *testing.T) {
	_, err := NewGeneralPolicy(config.PasswordPolicy{Encoding: "rot13"})
	assert.ErrorIs(t, err, common.ErrPasswordEncoding)

	_, err = NewGeneralPolicy(config.PasswordPolicy{Encoding: "sha1", HashSalt: "0xZZ"})
	assert.ErrorIs(t, err, common.ErrPasswordEncoding)
}

func TestNewGeneralPolicy_HashSalt(t *testing.T) {
	p := newPolicy(t, config.PasswordPolicy{Encoding: "md5", HashSalt: "0x6162"})
	assert.Equal(t, []byte("ab"), p.hashSalt)

	p = newPolicy(t, config.PasswordPolicy{Encoding: "md5", HashSalt: " pepper "})
	assert.Equal(t, []byte("pepper"), p.hashSalt)
}

func TestGeneralPolicy_SHA1(t *testing.T) {
	p := newPolicy(t, config.PasswordPolicy{Encoding: "sha1", HashSalt: "salt"})

	enc, err := p.Encode("hunter2")
	require.NoError(t, err)
	assert.Len(t, enc, HashLen)

	enc2, err := p.Encode("hunter2")
	require.NoError(t, err)
	assert.NotEqual(t, enc, enc2, "per-password salt")

	assert.True(t, p.Check("hunter2", enc))
	assert.True(t, p.Check("hunter2", enc2))
	assert.False(t, p.Check("hunter3", enc))
	assert.False(t, p.Check("hunter2 ", enc), "spaces are significant")

	other := newPolicy(t, config.PasswordPolicy{Encoding: "sha1", HashSalt: "other"})
	assert.False(t, other.Check("hunter2", enc))

	_, ok := p.Decode(enc)
	assert.False(t, ok)
}

func TestGeneralPolicy_MD5(t *testing.T) {
	p := newPolicy(t, config.PasswordPolicy{Encoding: "md5", HashSalt: "s"})

	sum := md5.Sum([]byte("s" + "secret"))
	want := hex.EncodeToString(sum[:])

	enc, err := p.Encode("secret")
	require.NoError(t, err)
	assert.Equal(t, want, enc)
	assert.True(t, p.Check("secret", enc))
	assert.False(t, p.Check("Secret", enc))
}

func TestGeneralPolicy_Plain(t *testing.T) {
	p := newPolicy(t, config.PasswordPolicy{Encoding: "plain"})

	enc, err := p.Encode("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", enc)

	plain, ok := p.Decode(enc)
	assert.True(t, ok)
	assert.Equal(t, "abc", plain)

	long := strings.Repeat("x", HashLen)
	assert.True(t, p.Check(long, long), "32-char plain passwords compare as plain")
}

func TestGeneralPolicy_Check_Mixed(t *testing.T) {
	sha1 := newPolicy(t, config.PasswordPolicy{Encoding: "sha1"})
	sha1plain := newPolicy(t, config.PasswordPolicy{Encoding: "sha1plain"})
	plainsha1 := newPolicy(t, config.PasswordPolicy{Encoding: "plainsha1"})

	hashed, err := sha1.Encode("pw")
	require.NoError(t, err)

	assert.False(t, sha1.Check("short", "short"), "plain not accepted")
	assert.True(t, sha1plain.Check("short", "short"))
	assert.True(t, sha1plain.Check("pw", hashed))
	assert.True(t, plainsha1.Check("pw", hashed))

	for _, p := range []*GeneralPolicy{sha1, sha1plain, plainsha1} {
		assert.False(t, p.Check("pw", ""), "blank stored password never matches")
		assert.False(t, p.Check("", "x"), "blank entered password never matches")
	}
}

func TestGeneralPolicy_ModernEncodings(t *testing.T) {
	for _, enc := range []string{EncBcrypt, EncArgon2id} {
		t.Run(enc, func(t *testing.T) {
			p := newPolicy(t, config.PasswordPolicy{Encoding: enc})
			stored, err := p.Encode("correct horse")
			require.NoError(t, err)
			assert.True(t, p.Check("correct horse", stored))
			assert.False(t, p.Check("wrong horse", stored))

			legacy := newPolicy(t, config.PasswordPolicy{Encoding: "sha1plain"})
			assert.False(t, legacy.Check("correct horse", stored))
		})
	}
}

func TestGeneralPolicy_Encode_Blank(t *testing.T) {
	for _, enc := range []string{"plain", "sha1", "md5", "bcrypt"} {
		p := newPolicy(t, config.PasswordPolicy{Encoding: enc})
		out, err := p.Encode("")
		require.NoError(t, err)
		assert.Equal(t, "", out, enc)
	}
}

func TestGeneralPolicy_FailedLogin(t *testing.T) {
	cfg := config.PasswordPolicy{
		FailedLoginMaxAttempts:     5,
		FailedLoginAttemptInterval: 120 * time.Second,
		FailedLoginSuspendInterval: 180 * time.Second,
	}
	p := newPolicy(t, cfg)

	assert.True(t, p.FailedLoginSuspendEnabled())
	assert.Equal(t, 120*time.Second, p.FailedLoginAttemptInterval())

	tests := []struct {
		name  string
		count int
		asOf  int64
		want  int64
	}{
		{"no failures", 0, 1000, 0},
		{"bad as-of", 5, 0, 0},
		{"below limit", 4, 1000, 0},
		{"at limit", 5, 1000, 1180},
		{"above limit", 9, 1000, 1180},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.FailedLoginAttemptSuspendTime(tt.count, tt.asOf))
		})
	}

	for _, disabled := range []config.PasswordPolicy{
		{FailedLoginMaxAttempts: 0, FailedLoginAttemptInterval: time.Minute, FailedLoginSuspendInterval: time.Minute},
		{FailedLoginMaxAttempts: 3, FailedLoginAttemptInterval: 0, FailedLoginSuspendInterval: time.Minute},
		{FailedLoginMaxAttempts: 3, FailedLoginAttemptInterval: time.Minute, FailedLoginSuspendInterval: 0},
	} {
		dp := newPolicy(t, disabled)
		assert.False(t, dp.FailedLoginSuspendEnabled())
		assert.Equal(t, int64(0), dp.FailedLoginAttemptSuspendTime(10, 1000))
	}
}

func TestGeneralPolicy_HasPasswordExpired(t *testing.T) {
	p := newPolicy(t, config.PasswordPolicy{MaxAge: 100 * time.Second})

	assert.False(t, p.HasPasswordExpired(0, 1000), "unknown change time")
	assert.False(t, p.HasPasswordExpired(2000, 1000), "changed in the future")
	assert.False(t, p.HasPasswordExpired(900, 1000), "exactly max age")
	assert.True(t, p.HasPasswordExpired(899, 1000))

	noAge := newPolicy(t, config.PasswordPolicy{})
	assert.False(t, noAge.HasPasswordExpired(1, 1_000_000))
}

func TestGeneralPolicy_ValidateNewPassword(t *testing.T) {
	base := config.PasswordPolicy{Encoding: "plain", SpecialChars: "#$"}

	tests := []struct {
		name   string
		mod    func(*config.PasswordPolicy)
		pass   string
		prior  []string
		reason Reason
	}{
		{name: "ok", pass: "abc123"},
		{name: "blank", pass: "", reason: ReasonBlank},
		{name: "too short", mod: func(c *config.PasswordPolicy) { c.MinLength = 8 }, pass: "abc", reason: ReasonTooShort},
		{name: "too long", mod: func(c *config.PasswordPolicy) { c.MaxLength = 4 }, pass: "abcde", reason: ReasonTooLong},
		{name: "invalid char", pass: "abc!", reason: ReasonInvalidChar},
		{name: "space is invalid", pass: "ab c", reason: ReasonInvalidChar},
		{name: "lower", mod: func(c *config.PasswordPolicy) { c.MinLower = 2 }, pass: "aBC", reason: ReasonLower},
		{name: "upper", mod: func(c *config.PasswordPolicy) { c.MinUpper = 1 }, pass: "abc", reason: ReasonUpper},
		{name: "alpha", mod: func(c *config.PasswordPolicy) { c.MinAlpha = 3 }, pass: "aB12", reason: ReasonAlpha},
		{name: "digits", mod: func(c *config.PasswordPolicy) { c.MinDigits = 2 }, pass: "abc1", reason: ReasonDigits},
		{name: "special", mod: func(c *config.PasswordPolicy) { c.MinSpecial = 1 }, pass: "abc1", reason: ReasonSpecial},
		{name: "non alpha", mod: func(c *config.PasswordPolicy) { c.MinNonAlpha = 2 }, pass: "abc#", reason: ReasonNonAlpha},
		{name: "special counts as non alpha", mod: func(c *config.PasswordPolicy) { c.MinNonAlpha = 2 }, pass: "abc#1"},
		{name: "categories", mod: func(c *config.PasswordPolicy) { c.MinCategories = 3 }, pass: "abcDEF", reason: ReasonCategories},
		{name: "categories capped at four", mod: func(c *config.PasswordPolicy) { c.MinCategories = 9 }, pass: "aB1#"},
		{name: "reuse", mod: func(c *config.PasswordPolicy) { c.RequiredUnique = 2 }, pass: "old", prior: []string{"cur", "old"}, reason: ReasonMatchesPrior},
		{name: "reuse outside window", mod: func(c *config.PasswordPolicy) { c.RequiredUnique = 1 }, pass: "old", prior: []string{"cur", "old"}},
		{name: "no history kept", pass: "cur", prior: []string{"cur"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			if tt.mod != nil {
				tt.mod(&cfg)
			}
			p := newPolicy(t, cfg)

			err := p.ValidateNewPassword(tt.pass, tt.prior)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, common.ErrPasswordRejected)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.reason, ve.Reason)
		})
	}
}

func TestGeneralPolicy_ValidateNewPassword_SaltedReuse(t *testing.T) {
	p := newPolicy(t, config.PasswordPolicy{Encoding: "sha1", RequiredUnique: 3})

	prev, err := p.Encode("Tr0ub4dor")
	require.NoError(t, err)

	err = p.ValidateNewPassword("Tr0ub4dor", []string{"x", prev})
	assert.ErrorIs(t, err, common.ErrPasswordRejected)
	assert.NoError(t, p.ValidateNewPassword("Tr0ub4dor2", []string{"x", prev}))
}
