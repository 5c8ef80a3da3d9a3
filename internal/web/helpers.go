package web

import "strconv"

// Scalar lists the types path and query values convert to.
type Scalar interface {
	~string | ~int | ~int64 | ~bool
}

// LookupParam converts a URL parameter. ok is false when the value does not
// parse as T.
func LookupParam[T Scalar](c Context, name string) (T, bool) {
	return convert[T](c.Param(name))
}

// QueryOr converts a query parameter, or returns def when it is absent.
// ok is false only for a present value that does not parse.
func QueryOr[T Scalar](c Context, name string, def T) (T, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	return convert[T](raw)
}

func convert[T Scalar](raw string) (T, bool) {
	var zero T
	var (
		v   any
		err error
	)
	switch any(zero).(type) {
	case string:
		v = raw
	case int:
		v, err = strconv.Atoi(raw)
	case int64:
		v, err = strconv.ParseInt(raw, 10, 64)
	case bool:
		v, err = strconv.ParseBool(raw)
	default:
		return zero, false
	}
	if err != nil {
		return zero, false
	}
	return v.(T), true
}
