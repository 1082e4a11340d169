package dispatch

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// ErrNullInput is returned by JSON codecs when the argument is the literal
// null and the target type cannot represent it.
var ErrNullInput = errors.New("null input")

// validate is built on first use; most contracts never decode a struct.
var validate = sync.OnceValue(func() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
})

// Codec converts a method's argument or result to and from bytes. An Encode
// returning nil means the method produces no return value.
//
// Codecs also serve stored values, where an empty encoding is legal. Method
// arguments are held to a stricter rule: Func and Action reject an empty
// argument buffer before Decode runs.
type Codec[T any] interface {
	Decode(data []byte) (T, error)
	Encode(v T) ([]byte, error)
}

// schemaSource is implemented by codecs whose values have a JSON shape worth
// publishing in the manifest.
type schemaSource interface {
	schemaValue() any
}

// JSON encodes values with encoding/json. A null argument is rejected unless
// T is a pointer or interface. Decoded structs are checked against their
// `validate` tags.
func JSON[T any]() Codec[T] { return jsonCodec[T]{} }

type jsonCodec[T any] struct{}

func (jsonCodec[T]) Decode(data []byte) (T, error) {
	var v T
	if len(data) == 0 {
		return v, ErrEmptyInput
	}
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) && !nullable[T]() {
		return v, ErrNullInput
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, err
	}
	if err := validateArgs(v); err != nil {
		return v, err
	}
	return v, nil
}

func nullable[T any]() bool {
	t := reflect.TypeFor[T]()
	return t.Kind() == reflect.Pointer || t.Kind() == reflect.Interface
}

func validateArgs(v any) error {
	t := reflect.TypeOf(v)
	if t == nil {
		return nil
	}
	if t.Kind() == reflect.Pointer {
		if reflect.ValueOf(v).IsNil() {
			return nil
		}
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil
	}
	if err := validate().Struct(v); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

func (jsonCodec[T]) Encode(v T) ([]byte, error) {
	return json.Marshal(v)
}

func (jsonCodec[T]) schemaValue() any {
	var v T
	return v
}

// Raw passes bytes through unchanged.
func Raw() Codec[[]byte] { return rawCodec{} }

type rawCodec struct{}

func (rawCodec) Decode(data []byte) ([]byte, error) { return data, nil }

func (rawCodec) Encode(v []byte) ([]byte, error) {
	if v == nil {
		return []byte{}, nil
	}
	return v, nil
}

// String carries UTF-8 text without quoting.
func String() Codec[string] { return stringCodec{} }

type stringCodec struct{}

func (stringCodec) Decode(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("input is not valid UTF-8")
	}
	return string(data), nil
}

func (stringCodec) Encode(v string) ([]byte, error) { return []byte(v), nil }

func (stringCodec) schemaValue() any { return "" }

// U64 carries a uint64 as 8 little-endian bytes.
func U64() Codec[uint64] { return u64Codec{} }

type u64Codec struct{}

func (u64Codec) Decode(data []byte) (uint64, error) {
	switch {
	case len(data) == 0:
		return 0, ErrEmptyInput
	case len(data) != 8:
		return 0, fmt.Errorf("expected 8 bytes, got %d", len(data))
	}
	return binary.LittleEndian.Uint64(data), nil
}

func (u64Codec) Encode(v uint64) ([]byte, error) {
	return binary.LittleEndian.AppendUint64(nil, v), nil
}

// Unit is the codec of methods that take no arguments or return nothing.
// Input is never read for a Unit argument.
func Unit() Codec[struct{}] { return unitCodec{} }

type unitCodec struct{}

func (unitCodec) Decode([]byte) (struct{}, error) { return struct{}{}, nil }

func (unitCodec) Encode(struct{}) ([]byte, error) { return nil, nil }

func readsInput[T any](c Codec[T]) bool {
	_, unit := any(c).(unitCodec)
	return !unit
}

func schemaOf[T any](c Codec[T]) any {
	if s, ok := any(c).(schemaSource); ok {
		return s.schemaValue()
	}
	return nil
}
