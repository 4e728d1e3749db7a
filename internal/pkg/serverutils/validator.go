package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateRequest runs struct tag validation and flattens failures into a
// single BadRequest error the middleware can render.
func ValidateRequest(req interface{}) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, len(verrs))
		for i, fe := range verrs {
			fields[i] = fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag())
		}
		return BadRequest("validation failed: " + strings.Join(fields, ", "))
	}
	return BadRequest(err.Error())
}
