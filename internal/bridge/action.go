package bridge

import (
	"strings"

	"github.com/nerrad567/gray-logic-io/internal/feedback"
)

// Action is a named device operation a bridge join can drive. Exactly one
// of Bool, Int or String is set, matching Kind.
type Action struct {
	Kind   feedback.Kind
	Bool   func(bool)
	Int    func(int)
	String func(string)
}

// BoolAction runs fn with every digital value received.
func BoolAction(fn func(bool)) Action {
	return Action{Kind: feedback.KindBool, Bool: fn}
}

// PressAction runs fn on the rising edge of a digital join.
func PressAction(fn func()) Action {
	return Action{Kind: feedback.KindBool, Bool: func(v bool) {
		if v {
			fn()
		}
	}}
}

// IntAction runs fn with every analog value received.
func IntAction(fn func(int)) Action {
	return Action{Kind: feedback.KindInt, Int: fn}
}

// StringAction runs fn with every serial value received.
func StringAction(fn func(string)) Action {
	return Action{Kind: feedback.KindString, String: fn}
}

// Actions maps action names to actions.
type Actions map[string]Action

// Lookup finds an action by name, ignoring case.
func (a Actions) Lookup(name string) (string, Action, bool) {
	if act, ok := a[name]; ok {
		return name, act, true
	}
	for k, act := range a {
		if strings.EqualFold(k, name) {
			return k, act, true
		}
	}
	return "", Action{}, false
}
