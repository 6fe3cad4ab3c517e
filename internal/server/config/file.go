package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/tenantgov/internal/flagx"
	"github.com/dmitrijs2005/tenantgov/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Durations use
// timex.Duration so both "90s" and integer nanoseconds are accepted.
//
// Strings and durations override Config when non-zero. Password integers and
// the history budget are pointers, so a key present with 0 still overrides
// (0 disables the rule).
type FileConfig struct {
	EndpointAddrGRPC       string             `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	MetricsAddr            string             `json:"metrics_addr" yaml:"metrics_addr"`
	DatabaseDSN            string             `json:"database_dsn" yaml:"database_dsn"`
	Password               FilePasswordPolicy `json:"password" yaml:"password"`
	LastPasswordsMaxLength *int               `json:"last_passwords_max_length" yaml:"last_passwords_max_length"`
	BackfillPoolSize       int                `json:"backfill_pool_size" yaml:"backfill_pool_size"`
	Geocoder               FileGeocoder       `json:"geocoder" yaml:"geocoder"`
	S3RootUser             string             `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword         string             `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket               string             `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region               string             `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint         string             `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	AdminTokenSecret       string             `json:"admin_token_secret" yaml:"admin_token_secret"`
	PushGatewayURL         string             `json:"push_gateway_url" yaml:"push_gateway_url"`
	SMTPDefaults           map[string]string  `json:"smtp_defaults" yaml:"smtp_defaults"`
	SMSDefaults            map[string]string  `json:"sms_defaults" yaml:"sms_defaults"`
}

type FilePasswordPolicy struct {
	Encoding                   string         `json:"encoding" yaml:"encoding"`
	HashSalt                   string         `json:"hash_salt" yaml:"hash_salt"`
	MinLength                  *int           `json:"min_length" yaml:"min_length"`
	MaxLength                  *int           `json:"max_length" yaml:"max_length"`
	SpecialChars               string         `json:"special_chars" yaml:"special_chars"`
	MinLower                   *int           `json:"min_lower" yaml:"min_lower"`
	MinUpper                   *int           `json:"min_upper" yaml:"min_upper"`
	MinAlpha                   *int           `json:"min_alpha" yaml:"min_alpha"`
	MinDigits                  *int           `json:"min_digits" yaml:"min_digits"`
	MinSpecial                 *int           `json:"min_special" yaml:"min_special"`
	MinNonAlpha                *int           `json:"min_non_alpha" yaml:"min_non_alpha"`
	MinCategories              *int           `json:"min_categories" yaml:"min_categories"`
	RequiredUnique             *int           `json:"required_unique" yaml:"required_unique"`
	MaxAge                     timex.Duration `json:"max_age" yaml:"max_age"`
	FailedLoginMaxAttempts     *int           `json:"failed_login_max_attempts" yaml:"failed_login_max_attempts"`
	FailedLoginAttemptInterval timex.Duration `json:"failed_login_attempt_interval" yaml:"failed_login_attempt_interval"`
	FailedLoginSuspendInterval timex.Duration `json:"failed_login_suspend_interval" yaml:"failed_login_suspend_interval"`
}

type FileGeocoder struct {
	URL         string         `json:"url" yaml:"url"`
	UserAgent   string         `json:"user_agent" yaml:"user_agent"`
	MinInterval timex.Duration `json:"min_interval" yaml:"min_interval"`
	Timeout     timex.Duration `json:"timeout" yaml:"timeout"`
}

// parseFile overlays values from the file named by -c/-config (or
// $TENANTGOV_CONFIG) onto config. Files ending in .yaml or .yml are decoded
// as YAML, anything else as JSON. Unreadable or malformed files panic, the
// same way bad flags do.
func parseFile(config *Config) {
	path := flagx.ConfigFile()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc, err := decodeFile(path, data)
	if err != nil {
		panic(err)
	}
	fc.apply(config)
}

func decodeFile(path string, data []byte) (*FileConfig, error) {
	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, fc); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(data, fc); err != nil {
			return nil, err
		}
	}
	return fc, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

// setIntKey overrides dst whenever the key was present, zero included.
func setIntKey(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}

func (fc *FileConfig) apply(c *Config) {
	setString(&c.EndpointAddrGRPC, fc.EndpointAddrGRPC)
	setString(&c.MetricsAddr, fc.MetricsAddr)
	setString(&c.DatabaseDSN, fc.DatabaseDSN)
	setIntKey(&c.LastPasswordsMaxLength, fc.LastPasswordsMaxLength)
	setInt(&c.BackfillPoolSize, fc.BackfillPoolSize)

	p, fp := &c.Password, fc.Password
	setString(&p.Encoding, fp.Encoding)
	setString(&p.HashSalt, fp.HashSalt)
	setIntKey(&p.MinLength, fp.MinLength)
	setIntKey(&p.MaxLength, fp.MaxLength)
	setString(&p.SpecialChars, fp.SpecialChars)
	setIntKey(&p.MinLower, fp.MinLower)
	setIntKey(&p.MinUpper, fp.MinUpper)
	setIntKey(&p.MinAlpha, fp.MinAlpha)
	setIntKey(&p.MinDigits, fp.MinDigits)
	setIntKey(&p.MinSpecial, fp.MinSpecial)
	setIntKey(&p.MinNonAlpha, fp.MinNonAlpha)
	setIntKey(&p.MinCategories, fp.MinCategories)
	setIntKey(&p.RequiredUnique, fp.RequiredUnique)
	setDuration(&p.MaxAge, fp.MaxAge)
	setIntKey(&p.FailedLoginMaxAttempts, fp.FailedLoginMaxAttempts)
	setDuration(&p.FailedLoginAttemptInterval, fp.FailedLoginAttemptInterval)
	setDuration(&p.FailedLoginSuspendInterval, fp.FailedLoginSuspendInterval)

	setString(&c.Geocoder.URL, fc.Geocoder.URL)
	setString(&c.Geocoder.UserAgent, fc.Geocoder.UserAgent)
	setDuration(&c.Geocoder.MinInterval, fc.Geocoder.MinInterval)
	setDuration(&c.Geocoder.Timeout, fc.Geocoder.Timeout)

	setString(&c.S3RootUser, fc.S3RootUser)
	setString(&c.S3RootPassword, fc.S3RootPassword)
	setString(&c.S3Bucket, fc.S3Bucket)
	setString(&c.S3Region, fc.S3Region)
	setString(&c.S3BaseEndpoint, fc.S3BaseEndpoint)
	setString(&c.AdminTokenSecret, fc.AdminTokenSecret)
	setString(&c.PushGatewayURL, fc.PushGatewayURL)

	if len(fc.SMTPDefaults) > 0 {
		c.SMTPDefaults = fc.SMTPDefaults
	}
	if len(fc.SMSDefaults) > 0 {
		c.SMSDefaults = fc.SMSDefaults
	}
}
