package values

import "errors"

// ErrZeroDivision is the sentinel the VM maps to a ZeroDivisionError
// Exception (spec.md §4.4) when arithmetic helpers in this package detect a
// zero divisor. The VM's execBinary raises it as a ZeroDivisionError whose
// message is this error's text.
var ErrZeroDivision = errors.New("division by zero")
