package registration

import "errors"

var errValidatorRequired = errors.New("registration: validator is required")
