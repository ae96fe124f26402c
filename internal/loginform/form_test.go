package loginform

import (
	"errors"
	"testing"
)

type recordingNotifier struct {
	logged    [][2]string
	confirmed []string
}

func (r *recordingNotifier) Log(u, p string) { r.logged = append(r.logged, [2]string{u, p}) }

func (r *recordingNotifier) Confirm(msg string) { r.confirmed = append(r.confirmed, msg) }

func TestSubmitIncomplete(t *testing.T) {
	cases := []struct{ user, pass string }{
		{"", ""},
		{"demo", ""},
		{"", "secret123"},
	}
	for _, tc := range cases {
		var f Form
		_ = f.SetField(FieldUsername, tc.user)
		_ = f.SetField(FieldPassword, tc.pass)
		n := &recordingNotifier{}

		err := f.Submit(n)
		if !errors.Is(err, ErrIncomplete) {
			t.Errorf("Submit(%q, %q) err = %v", tc.user, tc.pass, err)
		}
		if f.Error != IncompleteMessage || !f.ShowsError() {
			t.Errorf("Error = %q", f.Error)
		}
		if len(n.logged) != 0 || len(n.confirmed) != 0 {
			t.Errorf("notifier must not be called: %+v", n)
		}
	}
}

func TestSubmitClearsPriorError(t *testing.T) {
	var f Form
	n := &recordingNotifier{}
	if err := f.Submit(n); err == nil {
		t.Fatal("expected incomplete error")
	}

	_ = f.SetField(FieldUsername, "demo")
	_ = f.SetField(FieldPassword, "secret123")
	if err := f.Submit(n); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if f.ShowsError() {
		t.Errorf("error not cleared: %q", f.Error)
	}
	if len(n.confirmed) != 1 || n.confirmed[0] != "Login successful! Welcome, demo" {
		t.Errorf("confirmed = %v", n.confirmed)
	}
	if len(n.logged) != 1 || n.logged[0] != [2]string{"demo", "secret123"} {
		t.Errorf("logged = %v", n.logged)
	}
}

func TestSubmitDoesNotTrim(t *testing.T) {
	f := Form{Username: " ", Password: " "}
	if err := f.Submit(&recordingNotifier{}); err != nil {
		t.Fatalf("whitespace is not empty: %v", err)
	}
}

func TestSetFieldUnknown(t *testing.T) {
	var f Form
	if err := f.SetField("email", "x"); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestValidateDoesNotNotify(t *testing.T) {
	f := Form{Username: "demo"}
	if err := f.Validate(); !errors.Is(err, ErrIncomplete) || !f.ShowsError() {
		t.Fatalf("err = %v, error shown = %v", err, f.ShowsError())
	}
	f.Password = "secret123"
	if err := f.Validate(); err != nil || f.ShowsError() {
		t.Fatalf("err = %v, error shown = %v", err, f.ShowsError())
	}
}
