package errors

import (
	"github.com/sirupsen/logrus"
	"github.com/slimloans/inject/utils"
)

// Error struct holds the wrapped error
type Error struct {
	Key         string                 `json:"key"`
	Err         error                  `json:"-"`
	Status      int                    `json:"-"`
	Caller      string                 `json:"-"`
	ErrorString string                 `json:"error,omitempty"`
	Data        map[string]interface{} `json:"details,omitempty"`
}

func (ae Error) Error() string {
	return ae.ErrorString
}

func (ae Error) Unwrap() error {
	return ae.Err
}

func (ae Error) ToLogFields() logrus.Fields {
	return logrus.Fields{
		"key":    ae.Key,
		"error":  ae.Err,
		"caller": ae.Caller,
	}
}

// NewError returns a new error resolving format and caller information
func (ae Error) NewError(err error) Error {
	source := ""
	if e, ok := err.(Error); ok {
		source = e.Caller
	} else {
		source = utils.FileWithLineNum()
	}

	e := Error{Key: ae.Key, Err: err, Caller: source, Status: ae.Status}

	er := ae.Err
	if er == nil {
		er = err
	}

	e.ErrorString = er.Error()
	return e
}

// SetData attaches a detail k/v to an Error, passing other errors through
// untouched.
func SetData(err error, key string, value interface{}) error {
	if err != nil {
		if ae, ok := err.(Error); ok {
			if ae.Data == nil {
				ae.Data = map[string]interface{}{}
			}
			ae.Data[key] = value
			return ae
		}
	}
	return err
}

// Wrap wraps a standard error into the given Error template
func Wrap(ae Error, err error) error {
	if err == nil {
		return nil
	}

	if e, ok := err.(Error); ok {
		return e
	}

	return ae.NewError(err)
}

// WrapWithStatus wraps a standard error with the given status
func WrapWithStatus(ae Error, err error, status int) error {
	if err == nil {
		return nil
	}

	if e, ok := err.(Error); ok {
		if e.Status == 0 {
			e.Status = status
		}
		return e
	}

	n := ae.NewError(err)
	n.Status = status
	return n
}

// Unwind attempts to unwind a wrapped error all the way back to the
// innermost Error.
func Unwind(err error) Error {
	if ae, ok := err.(Error); ok {
		if e, ok := ae.Err.(Error); ok {
			return Unwind(e)
		}
		return ae
	}
	return Error{Key: "ERROR.UNKNOWN", Err: err}
}

// IsKey reports whether err carries the given error key.
func IsKey(err error, key string) bool {
	if err == nil {
		return false
	}
	if ae, ok := err.(Error); ok {
		if ae.Key == key {
			return true
		}
		return IsKey(ae.Err, key)
	}
	return false
}
