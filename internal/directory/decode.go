package directory

import (
	"bytes"
	"encoding/json"
	"errors"
)

// envelope accepts the wrapped shapes HR exports use.
type envelope struct {
	Employees    []Employee `json:"employees" yaml:"employees"`
	Trabajadores []Employee `json:"trabajadores" yaml:"trabajadores"`
	Data         []Employee `json:"data" yaml:"data"`
}

func (e envelope) list() []Employee {
	switch {
	case e.Employees != nil:
		return e.Employees
	case e.Trabajadores != nil:
		return e.Trabajadores
	default:
		return e.Data
	}
}

// decodeJSON accepts either a bare array or an object wrapping one.
func decodeJSON(data []byte) ([]Employee, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []Employee
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, errors.Join(ErrDecode, err)
		}
		return list, nil
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return nil, errors.Join(ErrDecode, err)
	}
	return env.list(), nil
}
