package errors

import "fmt"

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// Validation errors: recoverable, the engine re-prompts the same state.
	ErrEmptyOrNonTextInput = fmt.Errorf("only text input is accepted here")
	ErrAliasTooLong        = fmt.Errorf("alias exceeds the byte budget")
	ErrInvalidCharacters   = fmt.Errorf("alias contains characters that cannot be encoded")
	ErrInvalidTimestamp    = fmt.Errorf("timestamp does not match the expected pattern")

	// Conflict errors: recoverable, re-prompt with an inline message.
	ErrDuplicateUsername = fmt.Errorf("username already present in the directory")
	ErrDuplicateLabel    = fmt.Errorf("label already present in the directory")
	ErrDuplicateAlias    = fmt.Errorf("alias already used on this recipient's board")

	// Not-found errors: abort the sub-flow, return to the nearest menu.
	ErrMemberNotFound = fmt.Errorf("no such member in the directory")
	ErrBoardNotFound  = fmt.Errorf("no board for this member")
)
