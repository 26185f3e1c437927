package errors

import (
	"slices"
	"strings"
)

// MaxInputBytes bounds graph text accepted over the network.
const MaxInputBytes = 1 << 20

// ValidateFormat checks that format is one of allowed.
func ValidateFormat(format string, allowed []string) error {
	if format == "" {
		return New(ErrCodeInvalidFormat, "format cannot be empty")
	}
	if !slices.Contains(allowed, format) {
		return New(ErrCodeInvalidFormat, "invalid format: %s (must be one of %s)", format, strings.Join(allowed, ", "))
	}
	return nil
}

// ValidateInputSize rejects graph text larger than MaxInputBytes.
func ValidateInputSize(n int64) error {
	if n > MaxInputBytes {
		return New(ErrCodeTooLarge, "input too large (%d bytes, max %d)", n, MaxInputBytes)
	}
	return nil
}

// ValidateAddr checks a listen address of the form host:port or :port.
func ValidateAddr(addr string) error {
	if addr == "" {
		return New(ErrCodeInvalidConfig, "listen address cannot be empty")
	}
	i := strings.LastIndex(addr, ":")
	if i < 0 || i == len(addr)-1 {
		return New(ErrCodeInvalidConfig, "listen address %q must include a port", addr)
	}
	for _, r := range addr[i+1:] {
		if r < '0' || r > '9' {
			return New(ErrCodeInvalidConfig, "listen address %q has a non-numeric port", addr)
		}
	}
	return nil
}
