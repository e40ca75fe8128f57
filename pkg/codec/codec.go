// Package codec serializes the values embedded in the generated jobs.
package codec

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
	utiljson "k8s.io/apimachinery/pkg/util/json"
)

// Codec serializes values to strings and back.
type Codec interface {
	Marshal(v interface{}) (string, error)
	Unmarshal(data string, v interface{}) error
}

// JSON is a Codec producing compact JSON.
//
// HTML characters are not escaped so that shell redirections in executor commands stay readable in the
// json-input annotation and the JSON_INPUT environment variable.
type JSON struct{}

var _ Codec = JSON{}

// Marshal serializes v.
func (JSON) Marshal(v interface{}) (string, error) {
	b := &bytes.Buffer{}
	e := json.NewEncoder(b)
	e.SetEscapeHTML(false)
	if err := e.Encode(v); err != nil {
		return "", errors.Wrapf(err, "Failed to serialize %T to JSON", v)
	}
	return string(bytes.TrimRight(b.Bytes(), "\n")), nil
}

// Unmarshal deserializes data into v.
func (JSON) Unmarshal(data string, v interface{}) error {
	if err := utiljson.Unmarshal([]byte(data), v); err != nil {
		return errors.Wrapf(err, "Failed to deserialize JSON into %T", v)
	}
	return nil
}
