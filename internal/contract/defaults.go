package contract

import (
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// ConvertDefault converts the text of a `default` tag to a value of type t.
// Numbers, bools, durations, RFC 3339 times and comma separated slices are
// understood.
func ConvertDefault(raw string, t reflect.Type) (reflect.Value, error) {
	target := reflect.New(t)

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToSliceHookFunc(","),
		),
		Result: target.Interface(),
	})
	if err != nil {
		return reflect.Value{}, err
	}
	if err := dec.Decode(raw); err != nil {
		return reflect.Value{}, err
	}
	return target.Elem(), nil
}
