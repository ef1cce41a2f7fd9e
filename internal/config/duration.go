package config

import (
	"reflect"
	"time"

	"github.com/go-viper/mapstructure/v2"
)

// Duration is a time.Duration written as "20s" in generated files.
type Duration time.Duration

// ToDuration converts d to a time.Duration.
func (d Duration) ToDuration() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return d.ToDuration().String()
}

// MarshalYAML writes the duration in its string form.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// StringToDurationHookFunc decodes strings like "1m30s" into Duration.
func StringToDurationHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(Duration(0)) {
			return data, nil
		}
		return time.ParseDuration(data.(string))
	}
}
