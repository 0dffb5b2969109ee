// Package nationalid validates national identification numbers, the natural
// key of a member.
//
// A number is 11 digits: a 9 digit base followed by a 2 digit check value.
// The check value is 97 - (base mod 97) for people born before 2000 and
// 97 - ((2000000000 + base) mod 97) for people born from 2000 on.
package nationalid

import (
	"strconv"
	"strings"

	apperrors "github.com/gocomet/bike-sharing/pkg/errors"
)

const (
	length     = 11
	baseDigits = 9
	modulus    = 97
	// prefixed to the base for numbers issued from 2000 on
	millenniumOffset = 2_000_000_000
)

// ID is a checksum-verified national identification number.
// The zero value is not valid; obtain one through Parse.
type ID struct {
	value   string
	century int
}

// Parse normalizes raw and verifies its checksum.
// Whitespace, dots and dashes are accepted as separators.
func Parse(raw string) (ID, error) {
	normalized := normalize(raw)
	if len(normalized) != length {
		return ID{}, invalid(raw)
	}
	for _, r := range normalized {
		if r < '0' || r > '9' {
			return ID{}, invalid(raw)
		}
	}

	base, err := strconv.ParseInt(normalized[:baseDigits], 10, 64)
	if err != nil {
		return ID{}, invalid(raw)
	}
	check, err := strconv.ParseInt(normalized[baseDigits:], 10, 64)
	if err != nil {
		return ID{}, invalid(raw)
	}

	switch {
	case checksum(base) == check:
		return ID{value: normalized, century: 1900}, nil
	case checksum(millenniumOffset+base) == check:
		return ID{value: normalized, century: 2000}, nil
	}
	return ID{}, invalid(raw)
}

// Valid reports whether raw parses.
func Valid(raw string) bool {
	_, err := Parse(raw)
	return err == nil
}

// String returns the normalized 11 digit form.
func (id ID) String() string { return id.value }

// Century is 1900 or 2000 depending on which checksum matched.
func (id ID) Century() int { return id.century }

// IsZero reports whether id was never parsed.
func (id ID) IsZero() bool { return id.value == "" }

func checksum(n int64) int64 {
	return modulus - n%modulus
}

func normalize(raw string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '.', '-', '\t':
			return -1
		}
		return r
	}, strings.TrimSpace(raw))
}

func invalid(raw string) error {
	return apperrors.ErrInvalidIdentifier.WithMessagef("%q is not a valid national identification number", raw)
}
