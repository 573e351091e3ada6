package tunnel

import "testing"

func TestCheckPassword(t *testing.T) {
	if !checkPassword("hunter2", "hunter2") {
		t.Error("expected matching passwords to check out")
	}
	if checkPassword("hunter2", "wrong") {
		t.Error("expected mismatched passwords to fail")
	}
	if checkPassword("hunter2", "hunter23") {
		t.Error("expected a password with an extra trailing character to fail")
	}
}
