package catapi

import (
	"fmt"
	"strings"
)

var (
	ErrConfig          = fmt.Errorf("configuration error")
	ErrNetwork         = fmt.Errorf("network error")
	ErrDecode          = fmt.Errorf("decode error")
	ErrAPI             = fmt.Errorf("api error")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

/*
RequestError describes a failed call to the gallery API. Kind is one of the
sentinel errors above, so callers can test with errors.Is(err, ErrNetwork)
and still reach the underlying cause.
*/
type RequestError struct {
	Kind       error
	Endpoint   Endpoint
	StatusCode int
	Err        error
}

func (e *RequestError) Error() string {
	sb := strings.Builder{}
	sb.WriteString(e.Kind.Error())

	if e.Endpoint != "" {
		sb.WriteString(fmt.Sprintf(" calling '%s'", e.Endpoint))
	}

	if e.StatusCode != 0 {
		sb.WriteString(fmt.Sprintf(" (status %d)", e.StatusCode))
	}

	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

func (e *RequestError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

func newRequestError(kind error, endpoint Endpoint, err error) *RequestError {
	return &RequestError{
		Kind:     kind,
		Endpoint: endpoint,
		Err:      err,
	}
}
