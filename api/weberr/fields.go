package weberr

import "errors"

type fielder interface {
	Fields() map[string]interface{}
}

// Fields collects the log fields attached anywhere in the error chain. Outer
// wrappers win on key collisions.
func Fields(err error) (fields map[string]interface{}, ok bool) {
	for err != nil {
		var fe fielder
		if !errors.As(err, &fe) {
			break
		}
		if fields == nil {
			fields = make(map[string]interface{})
		}
		for k, v := range fe.Fields() {
			if _, set := fields[k]; !set {
				fields[k] = v
			}
		}
		err = errors.Unwrap(fe.(error))
	}
	return fields, fields != nil
}

type fieldsError struct {
	error
	fields map[string]interface{}
}

func (e *fieldsError) Fields() map[string]interface{} { return e.fields }

func (e *fieldsError) Unwrap() error { return e.error }
