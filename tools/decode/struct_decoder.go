package decode

import (
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

// Struct decodes a loosely typed frame payload (map[string]any from JSON)
// into T. Unknown keys are ignored; json tags drive the field mapping so
// payload structs share one set of tags with the REST layer.
func Struct[T any](in any) (*T, error) {
	if in == nil {
		return nil, errors.New("decode: nil payload")
	}
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode: build decoder")
	}
	if err := dec.Decode(in); err != nil {
		return nil, errors.Wrap(err, "decode: payload")
	}
	return &out, nil
}
