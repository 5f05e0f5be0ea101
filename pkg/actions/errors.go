package actions

import "fmt"

// ActionError is the terminal failure of a UI action after the recovery
// ladder is exhausted. It wraps the last underlying cause and carries the
// action type, description, and locator for diagnostics.
type ActionError struct {
	Action      Action
	Description string
	Selector    string
	Attempts    int
	Err         error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("action %s (%s) on %q failed after %d attempts: %v",
		e.Action, e.Description, e.Selector, e.Attempts, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

// ValidationError reports that an action completed without error but left
// the page in a state other than the one requested.
type ValidationError struct {
	Selector string
	Want     string
	Got      string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("element %q holds %q, want %q", e.Selector, e.Got, e.Want)
}
