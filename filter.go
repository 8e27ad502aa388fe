package eventadmin

import "github.com/commontk/go-eventadmin/internal/ldap"

// Filter is a compiled LDAP-style predicate over an event's property map.
// The zero value is never used directly; obtain one via compileFilter so
// it goes through the filter-string cache (§4.4).
type Filter = ldap.Filter

// compileFilter parses src, returning ErrInvalidArgument (wrapped) on a
// malformed filter rather than the raw parser error, matching §7's error
// kinds.
func compileFilter(src string) (Filter, error) {
	f, err := ldap.Parse(src)
	if err != nil {
		return nil, errInvalidFilter(src, err)
	}
	return f, nil
}

func errInvalidFilter(src string, cause error) error {
	return &invalidFilterError{src: src, cause: cause}
}

type invalidFilterError struct {
	src   string
	cause error
}

func (e *invalidFilterError) Error() string {
	return "eventadmin: invalid filter " + e.src + ": " + e.cause.Error()
}

func (e *invalidFilterError) Unwrap() error { return ErrInvalidArgument }
