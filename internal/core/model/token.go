package model

import (
	"errors"
	"net/url"
)

// Hidden form fields a WebForms page carries between requests.
const (
	FieldViewState          = "__VIEWSTATE"
	FieldViewStateGenerator = "__VIEWSTATEGENERATOR"
	FieldEventValidation    = "__EVENTVALIDATION"
	FieldEventTarget        = "__EVENTTARGET"
	FieldEventArgument      = "__EVENTARGUMENT"
)

// ErrTokenConsumed is returned when a token is asked for a second form.
var ErrTokenConsumed = errors.New("continuation token already consumed")

// ContinuationToken is the opaque per-page state the server requires on
// the next request of the same page sequence. It is single use.
type ContinuationToken struct {
	ViewState          string
	ViewStateGenerator string
	EventValidation    string

	consumed bool
}

// Consumed reports whether the token has already produced a request.
func (t *ContinuationToken) Consumed() bool {
	return t.consumed
}

// PostBackForm builds the request body for a postback against target with
// the given event argument and marks the token consumed.
func (t *ContinuationToken) PostBackForm(target, argument string) (url.Values, error) {
	form, err := t.Form()
	if err != nil {
		return nil, err
	}
	form.Set(FieldEventTarget, target)
	form.Set(FieldEventArgument, argument)
	return form, nil
}

// Form returns the token fields alone (used by the login handshake, which
// posts its own inputs instead of an event target) and marks the token
// consumed.
func (t *ContinuationToken) Form() (url.Values, error) {
	if t.consumed {
		return nil, ErrTokenConsumed
	}
	t.consumed = true
	return url.Values{
		FieldViewState:          {t.ViewState},
		FieldViewStateGenerator: {t.ViewStateGenerator},
		FieldEventValidation:    {t.EventValidation},
	}, nil
}
