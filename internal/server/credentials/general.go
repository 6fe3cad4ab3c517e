package credentials

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/dmitrijs2005/tenantgov/internal/common"
	"github.com/dmitrijs2005/tenantgov/internal/cryptox"
	"github.com/dmitrijs2005/tenantgov/internal/server/config"
)

// Encoding names accepted in config.PasswordPolicy.Encoding. The combined
// names store with the first encoding and also accept the second on login.
const (
	EncPlain     = "plain"
	EncSHA1      = "sha1"
	EncSHA1Plain = "sha1plain"
	EncPlainSHA1 = "plainsha1"
	EncMD5       = "md5"
	EncMD5Plain  = "md5plain"
	EncPlainMD5  = "plainmd5"
	EncBcrypt    = "bcrypt"
	EncArgon2id  = "argon2id"
)

// HashLen is the length of SHA1 and MD5 encoded passwords. Stored values
// of any other length are treated as plain text.
const HashLen = 32

const sha1SaltLen = 4

// maxCategories is the number of character classes (lower, upper, digit,
// special) a password can draw from.
const maxCategories = 4

// GeneralPolicy is the default Policy, driven by config.PasswordPolicy.
type GeneralPolicy struct {
	name     string
	save     string
	alt      string
	hashSalt []byte
	cfg      config.PasswordPolicy
}

var _ Policy = (*GeneralPolicy)(nil)
var _ Validator = (*GeneralPolicy)(nil)
var _ AgePolicy = (*GeneralPolicy)(nil)

// NewGeneralPolicy returns a policy for cfg, or an error wrapping
// common.ErrPasswordEncoding when the encoding or hash salt is invalid.
func NewGeneralPolicy(cfg config.PasswordPolicy) (*GeneralPolicy, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Encoding))

	p := &GeneralPolicy{name: name, cfg: cfg}
	switch name {
	case EncSHA1:
		p.save, p.alt = EncSHA1, EncSHA1
	case EncSHA1Plain:
		p.save, p.alt = EncSHA1, EncPlain
	case EncPlainSHA1:
		p.save, p.alt = EncPlain, EncSHA1
	case EncMD5:
		p.save, p.alt = EncMD5, EncMD5
	case EncMD5Plain:
		p.save, p.alt = EncMD5, EncPlain
	case EncPlainMD5:
		p.save, p.alt = EncPlain, EncMD5
	case EncBcrypt:
		p.save, p.alt = EncBcrypt, EncBcrypt
	case EncArgon2id:
		p.save, p.alt = EncArgon2id, EncArgon2id
	case EncPlain, "none", "":
		p.name = EncPlain
		p.save, p.alt = EncPlain, EncPlain
	default:
		return nil, fmt.Errorf("%w: invalid encoding %q", common.ErrPasswordEncoding, cfg.Encoding)
	}

	salt := strings.TrimSpace(cfg.HashSalt)
	if hexSalt, ok := strings.CutPrefix(salt, "0x"); ok {
		b, err := hex.DecodeString(hexSalt)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid hash salt: %v", common.ErrPasswordEncoding, err)
		}
		p.hashSalt = b
	} else if salt != "" {
		p.hashSalt = []byte(salt)
	}

	return p, nil
}

func (p *GeneralPolicy) Name() string {
	return p.name
}

func (p *GeneralPolicy) accepts(enc string) bool {
	return p.save == enc || p.alt == enc
}

func (p *GeneralPolicy) Encode(plain string) (string, error) {
	if plain == "" {
		return "", nil
	}

	switch p.save {
	case EncSHA1:
		salt := common.GenerateRandByteArray(sha1SaltLen)
		sum := cryptox.Digest(cryptox.SHA1, p.hashSalt, plain, salt)
		return base64.StdEncoding.EncodeToString(append(sum, salt...)), nil
	case EncMD5:
		return p.md5(plain), nil
	case EncBcrypt:
		return cryptox.HashBcrypt(plain)
	case EncArgon2id:
		return cryptox.HashArgon2id(plain)
	default:
		return plain, nil
	}
}

func (p *GeneralPolicy) md5(plain string) string {
	return hex.EncodeToString(cryptox.Digest(cryptox.MD5, p.hashSalt, plain, nil))
}

func (p *GeneralPolicy) Decode(encoded string) (string, bool) {
	if encoded == "" || p.save == EncPlain {
		return encoded, true
	}
	return "", false
}

// Check compares entered against the stored password. Spaces are
// significant; nothing is trimmed.
func (p *GeneralPolicy) Check(entered, encoded string) bool {
	if encoded == "" || entered == "" {
		return false
	}

	switch {
	case strings.HasPrefix(encoded, cryptox.Argon2idPrefix) && p.accepts(EncArgon2id):
		ok, err := cryptox.VerifyArgon2id(encoded, entered)
		return err == nil && ok
	case strings.HasPrefix(encoded, cryptox.BcryptPrefix) && p.accepts(EncBcrypt):
		ok, err := cryptox.VerifyBcrypt(encoded, entered)
		return err == nil && ok
	}

	if len(encoded) != HashLen {
		if !p.accepts(EncPlain) {
			return false
		}
		return cryptox.Equal([]byte(encoded), []byte(entered))
	}
	if p.save == EncPlain && p.alt == EncPlain {
		return cryptox.Equal([]byte(encoded), []byte(entered))
	}

	if p.accepts(EncSHA1) {
		b, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil || len(b) < sha1SaltLen {
			return false
		}
		n := len(b) - sha1SaltLen
		sum := cryptox.Digest(cryptox.SHA1, p.hashSalt, entered, b[n:])
		return len(sum) == n && cryptox.Equal(sum, b[:n])
	}

	if p.accepts(EncMD5) {
		return cryptox.Equal([]byte(p.md5(entered)), []byte(encoded))
	}

	return false
}

func (p *GeneralPolicy) RequiredUniquePasswordCount() int {
	return p.cfg.RequiredUnique
}

func (p *GeneralPolicy) FailedLoginSuspendEnabled() bool {
	return p.cfg.FailedLoginMaxAttempts > 0 &&
		p.cfg.FailedLoginAttemptInterval > 0 &&
		p.cfg.FailedLoginSuspendInterval > 0
}

func (p *GeneralPolicy) FailedLoginAttemptInterval() time.Duration {
	return p.cfg.FailedLoginAttemptInterval
}

func (p *GeneralPolicy) FailedLoginAttemptSuspendTime(failCount int, asOf int64) int64 {
	if failCount <= 0 || asOf <= 0 {
		return 0
	}
	if p.cfg.FailedLoginMaxAttempts <= 0 || p.cfg.FailedLoginAttemptInterval <= 0 {
		return 0
	}
	if failCount < p.cfg.FailedLoginMaxAttempts {
		return 0
	}
	suspend := int64(p.cfg.FailedLoginSuspendInterval / time.Second)
	if suspend <= 0 {
		return 0
	}
	return asOf + suspend
}

func (p *GeneralPolicy) HasPasswordExpired(changeTime, now int64) bool {
	maxAge := int64(p.cfg.MaxAge / time.Second)
	if maxAge <= 0 || changeTime <= 0 {
		return false
	}
	age := now - changeTime
	return age > maxAge
}

func minCount(want, count int) bool {
	return want <= 0 || count >= want
}

// ValidateNewPassword checks newPass against the length, character class
// and reuse rules. priorEncoded is most-recent-first, current password
// included; only the first RequiredUniquePasswordCount entries are checked.
func (p *GeneralPolicy) ValidateNewPassword(newPass string, priorEncoded []string) error {
	if newPass == "" {
		return reject(ReasonBlank)
	}

	n := utf8.RuneCountInString(newPass)
	if p.cfg.MinLength > 0 && n < p.cfg.MinLength {
		return reject(ReasonTooShort)
	}
	if p.cfg.MaxLength > 0 && n > p.cfg.MaxLength {
		return reject(ReasonTooLong)
	}

	var lower, upper, alpha, digit, special, nonAlpha int
	for _, ch := range newPass {
		switch {
		case unicode.IsLower(ch):
			lower++
			alpha++
		case unicode.IsUpper(ch):
			upper++
			alpha++
		case unicode.IsDigit(ch):
			digit++
			nonAlpha++
		case strings.ContainsRune(p.cfg.SpecialChars, ch):
			special++
			nonAlpha++
		default:
			return reject(ReasonInvalidChar)
		}
	}

	switch {
	case !minCount(p.cfg.MinLower, lower):
		return reject(ReasonLower)
	case !minCount(p.cfg.MinUpper, upper):
		return reject(ReasonUpper)
	case !minCount(p.cfg.MinAlpha, alpha):
		return reject(ReasonAlpha)
	case !minCount(p.cfg.MinDigits, digit):
		return reject(ReasonDigits)
	case !minCount(p.cfg.MinSpecial, special):
		return reject(ReasonSpecial)
	case !minCount(p.cfg.MinNonAlpha, nonAlpha):
		return reject(ReasonNonAlpha)
	}

	if p.cfg.MinCategories > 0 {
		categories := 0
		for _, c := range []int{lower, upper, digit, special} {
			if c > 0 {
				categories++
			}
		}
		if categories < min(p.cfg.MinCategories, maxCategories) {
			return reject(ReasonCategories)
		}
	}

	enc, err := p.Encode(newPass)
	if err != nil || enc == "" {
		return reject(ReasonEncodedBlank)
	}

	unique := p.RequiredUniquePasswordCount()
	for i := 0; i < len(priorEncoded) && i < unique; i++ {
		if priorEncoded[i] == enc || p.Check(newPass, priorEncoded[i]) {
			return reject(ReasonMatchesPrior)
		}
	}

	return nil
}
