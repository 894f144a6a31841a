package logging

import (
	"time"

	"code.futarchyprotocol.io/futarchy/libs/num"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Bool constructs a field with the given key and value.
func Bool(key string, b bool) zap.Field {
	return zap.Bool(key, b)
}

// Duration constructs a field with the given key and value.
func Duration(key string, d time.Duration) zap.Field {
	return zap.Duration(key, d)
}

// Error constructs a field that lazily stores err.Error() under the key "error".
func Error(err error) zap.Field {
	return zap.Error(err)
}

// Float64 constructs a field with the given key and value.
func Float64(key string, f float64) zap.Field {
	return zap.Float64(key, f)
}

// Int constructs a field with the given key and value.
func Int(key string, i int) zap.Field {
	return zap.Int(key, i)
}

// Int64 constructs a field with the given key and value.
func Int64(key string, i int64) zap.Field {
	return zap.Int64(key, i)
}

// Uint32 constructs a field with the given key and value.
func Uint32(key string, i uint32) zap.Field {
	return zap.Uint32(key, i)
}

// Uint64 constructs a field with the given key and value.
func Uint64(key string, i uint64) zap.Field {
	return zap.Uint64(key, i)
}

// String constructs a field with the given key and value.
func String(key, val string) zap.Field {
	return zap.String(key, val)
}

// Strings constructs a field with the given key and value.
func Strings(key string, vals []string) zap.Field {
	return zap.Strings(key, vals)
}

// Time constructs a field with the given key and value.
func Time(key string, t time.Time) zap.Field {
	return zap.Time(key, t)
}

// Reflect constructs a field by running reflection over all the field values.
func Reflect(key string, val interface{}) zap.Field {
	return zap.Reflect(key, val)
}

// BigUint constructs a field storing the string representation of a Uint.
func BigUint(key string, u *num.Uint) zap.Field {
	if u == nil {
		return zap.String(key, "nil")
	}
	return zap.String(key, u.String())
}

// Decimal constructs a field storing the string representation of a decimal.
func Decimal(key string, d num.Decimal) zap.Field {
	return zap.String(key, d.String())
}

// AssetID constructs a field with the given ID under the key "asset-id".
func AssetID(id string) zap.Field {
	return zap.String("asset-id", id)
}

// ConditionID constructs a field with the given ID under the key "condition-id".
func ConditionID(id string) zap.Field {
	return zap.String("condition-id", id)
}

// MarketID constructs a field with the given ID under the key "market-id".
func MarketID(id string) zap.Field {
	return zap.String("market-id", id)
}

// PartyID constructs a field with the given ID under the key "party".
func PartyID(id string) zap.Field {
	return zap.String("party", id)
}

// PositionID constructs a field with the given ID under the key "position-id".
func PositionID(id string) zap.Field {
	return zap.String("position-id", id)
}

// ProposalID constructs a field with the given ID under the key "proposal-id".
func ProposalID(id string) zap.Field {
	return zap.String("proposal-id", id)
}

// ZapLevel constructs a field with the logging level under the key "log-level".
func ZapLevel(l zapcore.Level) zap.Field {
	return zap.String("log-level", l.String())
}
