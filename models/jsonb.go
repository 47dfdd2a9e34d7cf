package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONB almacena un objeto JSON arbitrario en una columna jsonb de Postgres.
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	default:
		return errors.New("tipo no soportado para columna jsonb")
	}
}

// JSONBArray almacena una lista JSON (historial de abonos, documentos archivados, etc.).
type JSONBArray []map[string]interface{}

func (a JSONBArray) Value() (driver.Value, error) {
	if a == nil {
		return nil, nil
	}
	return json.Marshal(a)
}

func (a *JSONBArray) Scan(value interface{}) error {
	if value == nil {
		*a = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, a)
	case string:
		return json.Unmarshal([]byte(v), a)
	default:
		return errors.New("tipo no soportado para columna jsonb")
	}
}
