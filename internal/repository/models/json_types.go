package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// StringSlice stores a string list as a JSON array in a TEXT column.
type StringSlice []string

// Value implements the driver.Valuer interface
func (s StringSlice) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	jsonData, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(jsonData), nil
}

// Scan implements the sql.Scanner interface
func (s *StringSlice) Scan(value interface{}) error {
	data, err := scanBytes(value)
	if err != nil {
		return fmt.Errorf("StringSlice Scan: %w", err)
	}
	if data == nil {
		*s = StringSlice{}
		return nil
	}
	return json.Unmarshal(data, s)
}

// OptionList stores choice options as a JSON array of {id,label} objects.
type OptionList []Option

type Option struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

func (o OptionList) Value() (driver.Value, error) {
	if o == nil {
		return "[]", nil
	}
	jsonData, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	return string(jsonData), nil
}

func (o *OptionList) Scan(value interface{}) error {
	data, err := scanBytes(value)
	if err != nil {
		return fmt.Errorf("OptionList Scan: %w", err)
	}
	if data == nil {
		*o = OptionList{}
		return nil
	}
	return json.Unmarshal(data, o)
}

// JSONText holds an arbitrary JSON document in a TEXT column.
type JSONText []byte

func (j JSONText) Value() (driver.Value, error) {
	if len(j) == 0 {
		return "null", nil
	}
	return string(j), nil
}

func (j *JSONText) Scan(value interface{}) error {
	data, err := scanBytes(value)
	if err != nil {
		return fmt.Errorf("JSONText Scan: %w", err)
	}
	if data == nil {
		*j = JSONText("null")
		return nil
	}
	*j = append((*j)[:0], data...)
	return nil
}

// scanBytes returns nil for NULL, empty and "null" values.
func scanBytes(value interface{}) ([]byte, error) {
	var b []byte
	switch v := value.(type) {
	case nil:
		return nil, nil
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return nil, errors.New("unsupported type " + fmt.Sprintf("%T", value))
	}
	if len(b) == 0 || string(b) == "null" {
		return nil, nil
	}
	return b, nil
}
