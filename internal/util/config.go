package util

import (
	"strings"
	"time"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// The Config* helpers read a key from v and fall back to def when the key is
// unset or its value cannot be parsed. They never fail.

// ConfigBool returns the boolean value of key, or def. Besides the usual
// true/false/1/0 it accepts yes/no and on/off.
func ConfigBool(v *viper.Viper, key string, def bool) bool {
	if !v.IsSet(key) {
		return def
	}
	val := v.Get(key)
	if s, ok := val.(string); ok {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "yes", "on":
			return true
		case "no", "off":
			return false
		}
		val = strings.TrimSpace(s)
	}
	b, err := cast.ToBoolE(val)
	if err != nil {
		return def
	}
	return b
}

// ConfigString returns the string value of key, or def when empty
func ConfigString(v *viper.Viper, key string, def string) string {
	if !v.IsSet(key) {
		return def
	}
	val := v.GetString(key)
	if val == "" {
		return def
	}
	return val
}

// ConfigInt returns the integer value of key, or def
func ConfigInt(v *viper.Viper, key string, def int) int {
	if !v.IsSet(key) {
		return def
	}
	val := v.Get(key)
	if s, ok := val.(string); ok {
		val = strings.TrimSpace(s)
	}
	n, err := cast.ToIntE(val)
	if err != nil {
		return def
	}
	return n
}

// ConfigTime parses key with layout, or returns def
func ConfigTime(v *viper.Viper, key, layout string, def time.Time) time.Time {
	raw := ConfigString(v, key, "")
	if raw == "" {
		return def
	}
	t, err := time.ParseInLocation(layout, strings.TrimSpace(raw), time.Local)
	if err != nil {
		return def
	}
	return t
}
