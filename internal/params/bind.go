package params

import (
	"github.com/deppfellow/zrouter/internal/validation"
	"github.com/go-viper/mapstructure/v2"
)

// Bind decodes p into dst (a pointer to a struct) and validates the result.
//
// Struct fields are matched by their `param` tag. String values are converted
// to the field type where that is unambiguous ("10" -> int), since query and
// form parameters always arrive as strings. Decode and rule failures are both
// validation failures.
//
//	var req struct {
//		PageSize int `param:"page_size" validate:"min=1,max=100"`
//	}
//	if err := params.Bind(p, &req); err != nil {
//		return nil, err
//	}
func Bind(p Params, dst any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "param",
		WeaklyTypedInput: true,
		Result:           dst,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(map[string]any(p)); err != nil {
		return validation.NewError(err.Error())
	}

	return validation.Struct(dst)
}
