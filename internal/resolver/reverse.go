package resolver

//
// Reverse/unreverse helpers for PTR lookups, spec.md §4.3.
//
// Restored from _examples/original_source/src/common/utils.cpp's
// unreverse_ipv4/unreverse_ipv6 (the distilled spec names these helpers
// but the teacher's modern resolver no longer implements classic
// reverse DNS this way). Rewritten idiomatically against net.IP rather
// than the original's hand-rolled digit/hex scanning.
//

import (
	"net"
	"strconv"
	"strings"
)

// ReverseIPv4 builds the in-addr.arpa label for addr, or "" if addr is
// not a valid IPv4 dotted quad.
func ReverseIPv4(addr string) string {
	ip := net.ParseIP(addr)
	if ip == nil {
		return ""
	}
	v4 := ip.To4()
	if v4 == nil {
		return ""
	}
	return strconv.Itoa(int(v4[3])) + "." + strconv.Itoa(int(v4[2])) + "." +
		strconv.Itoa(int(v4[1])) + "." + strconv.Itoa(int(v4[0])) + ".in-addr.arpa"
}

// ReverseIPv6 builds the ip6.arpa label for addr, or "" if addr is not
// a valid IPv6 address.
func ReverseIPv6(addr string) string {
	ip := net.ParseIP(addr)
	if ip == nil {
		return ""
	}
	v6 := ip.To16()
	if v6 == nil {
		return ""
	}
	var nibbles []byte
	for _, b := range v6 {
		hi := "0123456789abcdef"[b>>4]
		lo := "0123456789abcdef"[b&0xf]
		nibbles = append(nibbles, hi, lo)
	}
	var b strings.Builder
	for i := len(nibbles) - 1; i >= 0; i-- {
		b.WriteByte(nibbles[i])
		b.WriteByte('.')
	}
	b.WriteString("ip6.arpa")
	return b.String()
}

// UnreverseIPv4 parses a reversed-label name like
// "1.0.0.127.in-addr.arpa" back into "127.0.0.1". Returns "" on
// malformed input, per spec.md §4.3.
func UnreverseIPv4(reversed string) string {
	const suffix1 = "in-addr.arpa"
	const suffix2 = "in-addr.arpa."
	var head string
	switch {
	case strings.HasSuffix(reversed, suffix2):
		head = strings.TrimSuffix(reversed, suffix2)
		head = strings.TrimSuffix(head, ".")
	case strings.HasSuffix(reversed, suffix1):
		head = strings.TrimSuffix(reversed, suffix1)
		head = strings.TrimSuffix(head, ".")
	default:
		return ""
	}
	parts := strings.Split(head, ".")
	if len(parts) != 4 {
		return ""
	}
	octets := make([]string, 4)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return ""
		}
		octets[3-i] = p
	}
	candidate := strings.Join(octets, ".")
	if net.ParseIP(candidate) == nil {
		return ""
	}
	return candidate
}

// UnreverseIPv6 parses a reversed nibble-label ip6.arpa name back into
// a colon-hex IPv6 address. Returns "" on malformed input.
func UnreverseIPv6(reversed string) string {
	const suffix1 = "ip6.arpa"
	const suffix2 = "ip6.arpa."
	var head string
	switch {
	case strings.HasSuffix(reversed, suffix2):
		head = strings.TrimSuffix(reversed, suffix2)
		head = strings.TrimSuffix(head, ".")
	case strings.HasSuffix(reversed, suffix1):
		head = strings.TrimSuffix(reversed, suffix1)
		head = strings.TrimSuffix(head, ".")
	default:
		return ""
	}
	parts := strings.Split(head, ".")
	if len(parts) != 32 {
		return ""
	}
	nibbles := make([]byte, 32)
	for i, p := range parts {
		if len(p) != 1 {
			return ""
		}
		v, err := strconv.ParseUint(p, 16, 8)
		if err != nil {
			return ""
		}
		nibbles[31-i] = byte(v)
	}
	var hexStr strings.Builder
	for _, n := range nibbles {
		hexStr.WriteByte("0123456789abcdef"[n])
	}
	s := hexStr.String()
	var groups []string
	for i := 0; i < 32; i += 4 {
		groups = append(groups, s[i:i+4])
	}
	candidate := strings.Join(groups, ":")
	ip := net.ParseIP(candidate)
	if ip == nil {
		return ""
	}
	return ip.String()
}
