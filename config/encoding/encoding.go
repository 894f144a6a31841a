package encoding

import (
	"fmt"
	"time"

	"code.futarchyprotocol.io/futarchy/libs/num"
	"code.futarchyprotocol.io/futarchy/logging"
)

// Duration is a wrapper over an actual duration so we can represent
// them as string in the toml configuration
type Duration struct {
	time.Duration
}

// Get returns the stored duration
func (d *Duration) Get() time.Duration {
	return d.Duration
}

// UnmarshalText unmarshal a duration from bytes
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d *Duration) UnmarshalFlag(s string) error {
	return d.UnmarshalText([]byte(s))
}

// MarshalText marshal a duraton into bytes
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LogLevel is wrapper over the actual log level
// so they can be specified as strings in the toml configuration
type LogLevel struct {
	logging.Level
}

// Get return the store value
func (l *LogLevel) Get() logging.Level {
	return l.Level
}

// UnmarshalText unmarshal a loglevel from bytes
func (l *LogLevel) UnmarshalText(text []byte) error {
	var err error
	l.Level, err = logging.ParseLevel(string(text))
	return err
}

func (l *LogLevel) UnmarshalFlag(s string) error {
	return l.UnmarshalText([]byte(s))
}

// MarshalText marshal a loglevel into bytes
func (l LogLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// Uint is a wrapper over num.Uint so unbounded amounts, mostly bond
// sizes, can be specified as base 10 strings in the toml configuration.
type Uint struct {
	*num.Uint
}

// NewUint wraps the given num.Uint, normalising nil to zero.
func NewUint(u *num.Uint) Uint {
	if u == nil {
		u = num.UintZero()
	}
	return Uint{Uint: u}
}

// Get returns a copy of the stored value.
func (u *Uint) Get() *num.Uint {
	if u.Uint == nil {
		return num.UintZero()
	}
	return u.Uint.Clone()
}

// UnmarshalText unmarshal an unsigned integer from a base 10 string
func (u *Uint) UnmarshalText(text []byte) error {
	v, fail := num.UintFromString(string(text), 10)
	if fail {
		return fmt.Errorf("invalid unsigned integer: %s", string(text))
	}
	u.Uint = v
	return nil
}

func (u *Uint) UnmarshalFlag(s string) error {
	return u.UnmarshalText([]byte(s))
}

// MarshalText marshal an unsigned integer into a base 10 string
func (u Uint) MarshalText() ([]byte, error) {
	if u.Uint == nil {
		return []byte("0"), nil
	}
	return []byte(u.Uint.String()), nil
}

type Bool bool

func (b *Bool) UnmarshalFlag(s string) error {
	if s == "true" {
		*b = true
	} else if s == "false" {
		*b = false
	} else {
		return fmt.Errorf("only `true' and `false' are valid values, not `%s'", s)
	}
	return nil
}
