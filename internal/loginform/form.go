// Package loginform holds the state and submit rules of the two-field login
// form. It never talks to the network; callers decide what happens after a
// successful submit.
package loginform

import (
	"errors"
	"fmt"
)

const (
	FieldUsername = "username"
	FieldPassword = "password"

	IncompleteMessage = "Please fill in both fields"
)

var ErrIncomplete = errors.New("username and password are required")

// Notifier receives the success signal. Confirm blocks until the user has
// acknowledged the message.
type Notifier interface {
	Log(username, password string)
	Confirm(message string)
}

type Form struct {
	Username string
	Password string
	Error    string
}

func (f *Form) SetField(name, value string) error {
	switch name {
	case FieldUsername:
		f.Username = value
	case FieldPassword:
		f.Password = value
	default:
		return fmt.Errorf("unknown field %q", name)
	}
	return nil
}

// ShowsError reports whether the form is in the error-displayed state.
func (f *Form) ShowsError() bool {
	return f.Error != ""
}

// Validate puts the form into the error-displayed state when a field is
// empty and clears it otherwise.
func (f *Form) Validate() error {
	if f.Username == "" || f.Password == "" {
		f.Error = IncompleteMessage
		return ErrIncomplete
	}
	f.Error = ""
	return nil
}

func (f *Form) Submit(n Notifier) error {
	if err := f.Validate(); err != nil {
		return err
	}
	n.Log(f.Username, f.Password)
	n.Confirm(ConfirmationMessage(f.Username))
	return nil
}

func ConfirmationMessage(username string) string {
	return "Login successful! Welcome, " + username
}
