package model

import (
	"strconv"
	"time"
)

// Settings is a mapping from string key to string value representing
// per-operation configuration. Recognized keys are documented in
// SPEC_FULL.md §8 (EXTERNAL INTERFACES).
type Settings map[string]string

// Get returns the value for key and whether it was present.
func (s Settings) Get(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s[key]
	return v, ok
}

// String returns the value for key, or def if absent.
func (s Settings) String(key, def string) string {
	if v, ok := s.Get(key); ok {
		return v
	}
	return def
}

// Bool returns the value for key interpreted as "yes"/"no" (or any value
// strconv.ParseBool accepts), or def if absent/unparseable.
func (s Settings) Bool(key string, def bool) bool {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	switch v {
	case "yes":
		return true
	case "no":
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Int returns the value for key parsed as an integer, or def if
// absent/unparseable.
func (s Settings) Int(key string, def int) int {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// Duration returns the value for key parsed as a floating point number
// of seconds, or def if absent/unparseable.
func (s Settings) Duration(key string, def time.Duration) time.Duration {
	v, ok := s.Get(key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return time.Duration(f * float64(time.Second))
}
