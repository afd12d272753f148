package protocol

import (
	"bytes"
	"encoding/json"
	"math"

	"codeberg.org/mutker/eelnode/internal/errors"
	"codeberg.org/mutker/eelnode/internal/telemetry"
)

const (
	StatusField = "status"

	StatusRejected = 0
	StatusOK       = 1
)

// Field is one named numeric value of a response.
type Field struct {
	Name  string
	Value float64
}

// Response is an outbound envelope. Fields serialize in insertion order so
// reports always list metrics in the same order.
type Response struct {
	fields []Field
}

// Status builds a {"status": code} response.
func Status(code int) *Response {
	r := &Response{}
	r.Set(StatusField, float64(code))
	return r
}

// Report builds a response with one field per reading, using the stored
// value whether or not the reading is valid.
func Report(readings []telemetry.Reading) *Response {
	r := &Response{fields: make([]Field, 0, len(readings))}
	for _, reading := range readings {
		r.Set(reading.Metric.Field(), reading.Value)
	}
	return r
}

// Set adds name or replaces its value.
func (r *Response) Set(name string, value float64) {
	for i := range r.fields {
		if r.fields[i].Name == name {
			r.fields[i].Value = value
			return
		}
	}
	r.fields = append(r.fields, Field{Name: name, Value: value})
}

// Get returns the value of name.
func (r *Response) Get(name string) (float64, bool) {
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return 0, false
}

// Fields returns a copy of the response fields in order.
func (r *Response) Fields() []Field {
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// MarshalJSON implements json.Marshaler
func (r *Response) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if math.IsNaN(f.Value) || math.IsInf(f.Value, 0) {
			return nil, errors.New().WithData(ErrEncodeResponse, f.Name)
		}

		if i > 0 {
			buf.WriteByte(',')
		}

		name, err := json.Marshal(f.Name)
		if err != nil {
			return nil, errors.New().Wrap(ErrEncodeResponse, err)
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, errors.New().Wrap(ErrEncodeResponse, err)
		}

		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// Encode serializes the response into an outbound frame.
func Encode(r *Response) ([]byte, error) {
	return r.MarshalJSON()
}
