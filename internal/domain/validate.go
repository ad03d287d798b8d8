package domain

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateTrackingID checks that id is a non-empty uppercase alphanumeric
// string. Callers normalize first with NormalizeTrackingID.
func ValidateTrackingID(id string) error {
	if err := validate.Var(id, "required,alphanum,uppercase,max=32"); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTrackingID, id)
	}
	return nil
}
