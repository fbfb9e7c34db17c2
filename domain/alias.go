package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "fences-bot/errors"
)

// DefaultAliasByteLimit bounds aliases and labels once UTF-8 encoded.
const DefaultAliasByteLimit = 64

// ValidateAlias checks a sender alias or member label against the byte
// budget. The limit counts encoded bytes, not runes, so cyrillic or
// emoji-heavy names hit it sooner than ASCII ones.
func ValidateAlias(alias string, maxBytes int) error {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return apperrors.ErrEmptyOrNonTextInput
	}
	if !utf8.ValidString(alias) {
		return apperrors.ErrInvalidCharacters
	}
	if n := len(alias); n > maxBytes {
		return fmt.Errorf("%w: %d bytes used, %d allowed", apperrors.ErrAliasTooLong, n, maxBytes)
	}
	return nil
}
