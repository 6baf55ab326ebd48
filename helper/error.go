package helper

import "fmt"

// NewError wraps err with a short operation context.
// The wrapped error stays reachable via errors.Is/errors.As.
func NewError(context string, err error) error {
	return fmt.Errorf("[%v]: %w", context, err)
}
