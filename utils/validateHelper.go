package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Same tag gin's binding engine reads, so a struct validates the
	// same way on both paths.
	v.SetTagName("binding")
	return v
}

// ValidateStruct runs binding-tag validation outside of an HTTP
// request, for records arriving from files or message payloads.
func ValidateStruct(obj interface{}) error {
	err := validate.Struct(obj)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	var parts []string
	for _, fieldError := range validationErrors {
		parts = append(parts, fmt.Sprintf("%s is %s", fieldError.Field(), fieldError.Tag()))
	}
	return errors.New(strings.Join(parts, "; "))
}
