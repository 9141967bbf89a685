// Package options resolves raw adaptor settings into an immutable configuration.
package options

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/jrjohn/arcana-account-adaptor/pkg/errors"
)

// Field is a logical account concern whose stored name is configurable.
type Field int

const (
	FieldUsername Field = iota
	FieldEmail
	FieldHash
	FieldSalt
	FieldLastLogin
	FieldLastLogout
	FieldLoginAttempts
	FieldLoginAttemptLockTime
	FieldResetPasswordHash
	FieldResetPasswordExpiration
	FieldProfile

	fieldCount
)

var fieldKeys = [fieldCount]string{
	FieldUsername:                "username",
	FieldEmail:                   "email",
	FieldHash:                    "hash",
	FieldSalt:                    "salt",
	FieldLastLogin:               "lastLogin",
	FieldLastLogout:              "lastLogout",
	FieldLoginAttempts:           "loginAttempts",
	FieldLoginAttemptLockTime:    "loginAttemptLockTime",
	FieldResetPasswordHash:       "resetPasswordHash",
	FieldResetPasswordExpiration: "resetPasswordExpiration",
	FieldProfile:                 "profile",
}

// Key returns the logical key of the field, which is also its default stored name.
func (f Field) Key() string {
	if !f.Valid() {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldKeys[f]
}

func (f Field) String() string {
	return f.Key()
}

// Valid reports whether f is one of the declared fields.
func (f Field) Valid() bool {
	return f >= 0 && f < fieldCount
}

// Fields returns every declared field in declaration order.
func Fields() []Field {
	fields := make([]Field, 0, fieldCount)
	for f := Field(0); f < fieldCount; f++ {
		fields = append(fields, f)
	}
	return fields
}

// ParseField maps a logical key such as "loginAttempts" to its Field.
func ParseField(key string) (Field, bool) {
	for f, k := range fieldKeys {
		if k == key {
			return Field(f), true
		}
	}
	return 0, false
}

// DriverOptions are passed through to the store driver on connect.
type DriverOptions struct {
	Database               string        `mapstructure:"database"`
	Collection             string        `mapstructure:"collection"`
	AppName                string        `mapstructure:"app_name"`
	MaxPoolSize            uint64        `mapstructure:"max_pool_size"`
	ConnectTimeout         time.Duration `mapstructure:"connect_timeout"`
	ServerSelectionTimeout time.Duration `mapstructure:"server_selection_timeout"`
}

// Options are the raw, caller-supplied settings. Zero values mean "use the default".
type Options struct {
	ConnectionURI string        `mapstructure:"connection_uri"`
	Driver        DriverOptions `mapstructure:"driver"`

	UsernameField                string `mapstructure:"username_field"`
	EmailField                   string `mapstructure:"email_field"`
	HashField                    string `mapstructure:"hash_field"`
	SaltField                    string `mapstructure:"salt_field"`
	LastLoginField               string `mapstructure:"last_login_field"`
	LastLogoutField              string `mapstructure:"last_logout_field"`
	LoginAttemptsField           string `mapstructure:"login_attempts_field"`
	LoginAttemptLockTimeField    string `mapstructure:"login_attempt_lock_time_field"`
	ResetPasswordHashField       string `mapstructure:"reset_password_hash_field"`
	ResetPasswordExpirationField string `mapstructure:"reset_password_expiration_field"`
	ProfileField                 string `mapstructure:"profile_field"`

	UsernameLowerCase  *bool `mapstructure:"username_lower_case"`
	UsernameUnique     *bool `mapstructure:"username_unique"`
	LimitLoginAttempts *bool `mapstructure:"limit_login_attempts"`
	ProfileMode        *bool `mapstructure:"profile_mode"`

	IncludedFields        []string `mapstructure:"included_fields"`
	ExcludedFields        []string `mapstructure:"excluded_fields"`
	IncludedProfileFields []string `mapstructure:"included_profile_fields"`
	ExcludedProfileFields []string `mapstructure:"excluded_profile_fields"`
}

// Default driver settings.
const (
	DefaultDatabase               = "accounts"
	DefaultCollection             = "users"
	DefaultConnectTimeout         = 10 * time.Second
	DefaultServerSelectionTimeout = 30 * time.Second
)

// Config is the resolved configuration. It is never mutated after Resolve returns.
type Config struct {
	connectionURI string
	driver        DriverOptions

	names [fieldCount]string

	usernameLowerCase  bool
	usernameUnique     bool
	limitLoginAttempts bool
	profileMode        bool

	fields        Filter
	profileFields Filter
}

// Resolve merges raw over the defaults. raw is not modified.
func Resolve(raw Options) (*Config, error) {
	if strings.TrimSpace(raw.ConnectionURI) == "" {
		return nil, apperrors.ErrMissingConnectionURI
	}

	cfg := &Config{
		connectionURI:      raw.ConnectionURI,
		driver:             resolveDriver(raw.Driver),
		usernameLowerCase:  boolOr(raw.UsernameLowerCase, true),
		usernameUnique:     boolOr(raw.UsernameUnique, true),
		limitLoginAttempts: boolOr(raw.LimitLoginAttempts, true),
		profileMode:        boolOr(raw.ProfileMode, true),
		fields:             NewFilter(raw.IncludedFields, raw.ExcludedFields),
		profileFields:      NewFilter(raw.IncludedProfileFields, raw.ExcludedProfileFields),
	}

	overrides := [fieldCount]string{
		FieldUsername:                raw.UsernameField,
		FieldEmail:                   raw.EmailField,
		FieldHash:                    raw.HashField,
		FieldSalt:                    raw.SaltField,
		FieldLastLogin:               raw.LastLoginField,
		FieldLastLogout:              raw.LastLogoutField,
		FieldLoginAttempts:           raw.LoginAttemptsField,
		FieldLoginAttemptLockTime:    raw.LoginAttemptLockTimeField,
		FieldResetPasswordHash:       raw.ResetPasswordHashField,
		FieldResetPasswordExpiration: raw.ResetPasswordExpirationField,
		FieldProfile:                 raw.ProfileField,
	}
	for f, name := range overrides {
		if name == "" {
			name = fieldKeys[f]
		}
		cfg.names[f] = name
	}

	return cfg, nil
}

func resolveDriver(d DriverOptions) DriverOptions {
	if d.Database == "" {
		d.Database = DefaultDatabase
	}
	if d.Collection == "" {
		d.Collection = DefaultCollection
	}
	if d.ConnectTimeout <= 0 {
		d.ConnectTimeout = DefaultConnectTimeout
	}
	if d.ServerSelectionTimeout <= 0 {
		d.ServerSelectionTimeout = DefaultServerSelectionTimeout
	}
	return d
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

// Bool returns a pointer to v, for filling the optional flags of Options.
func Bool(v bool) *bool {
	return &v
}

// ConnectionURI returns the store endpoint.
func (c *Config) ConnectionURI() string { return c.connectionURI }

// Driver returns the resolved driver options.
func (c *Config) Driver() DriverOptions { return c.driver }

// UsernameLowerCase reports whether usernames are stored and queried lower-cased.
func (c *Config) UsernameLowerCase() bool { return c.usernameLowerCase }

// UsernameUnique reports whether a flat-mode username gets a unique index.
func (c *Config) UsernameUnique() bool { return c.usernameUnique }

// LimitLoginAttempts reports whether attempt counter fields are declared.
func (c *Config) LimitLoginAttempts() bool { return c.limitLoginAttempts }

// ProfileMode reports whether username and email live under the profile sub-document.
func (c *Config) ProfileMode() bool { return c.profileMode }

// Fields is the filter applied when serializing an account.
func (c *Config) Fields() Filter { return c.fields }

// ProfileFields is the filter applied when projecting the profile.
func (c *Config) ProfileFields() Filter { return c.profileFields }

// FieldName returns the stored name configured for f, or "" if f is not a declared field.
func (c *Config) FieldName(f Field) string {
	if !f.Valid() {
		return ""
	}
	return c.names[f]
}

// ProfileField returns the stored name of the profile sub-document.
func (c *Config) ProfileField() string {
	return c.names[FieldProfile]
}

// Nested reports whether f is stored under the profile sub-document.
func (c *Config) Nested(f Field) bool {
	return c.profileMode && (f == FieldUsername || f == FieldEmail)
}

// Path returns the dotted storage path of f, or "" if f is not a declared field.
func (c *Config) Path(f Field) string {
	name := c.FieldName(f)
	if name == "" {
		return ""
	}
	if c.Nested(f) {
		return c.ProfileField() + "." + name
	}
	return name
}

// ProfilePath returns the dotted path of a field nested under the profile.
func (c *Config) ProfilePath(name string) string {
	return c.ProfileField() + "." + name
}
