package algorithm

import (
	"errors"
	"fmt"

	"github.com/MGTheTrain/crypto-providers/internal/domain/crypto"
)

// wiring collects configuration mistakes made while a builder is being assembled so Build can report them.
type wiring struct {
	component string
	errs      []error
}

func (w *wiring) twice(step string) {
	w.errs = append(w.errs, &crypto.ConfigurationError{
		Component: w.component,
		Reason:    fmt.Sprintf("%s registered more than once", step),
	})
}

func (w *wiring) fail(format string, args ...any) {
	w.errs = append(w.errs, &crypto.ConfigurationError{Component: w.component, Reason: fmt.Sprintf(format, args...)})
}

func (w *wiring) err() error {
	return errors.Join(w.errs...)
}
