package domain

import (
	"strings"
	"testing"

	apperrors "fences-bot/errors"

	"github.com/stretchr/testify/require"
)

func TestValidateAlias(t *testing.T) {
	req := require.New(t)

	req.NoError(ValidateAlias("Тайный поклонник", DefaultAliasByteLimit))
	req.NoError(ValidateAlias("  padded  ", DefaultAliasByteLimit))

	err := ValidateAlias(strings.Repeat("я", 40), DefaultAliasByteLimit)
	req.ErrorIs(err, apperrors.ErrAliasTooLong)

	req.ErrorIs(ValidateAlias("   ", DefaultAliasByteLimit), apperrors.ErrEmptyOrNonTextInput)
	req.ErrorIs(ValidateAlias("bad\xffbytes", DefaultAliasByteLimit), apperrors.ErrInvalidCharacters)
}
