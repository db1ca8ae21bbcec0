package validator

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"conveycrm/internal/pkg/apperr"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

// Validate struct fields
func Validate(v interface{}) map[string]string {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}

	out := make(map[string]string)
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}

// Bind decodes the JSON body into dst and validates it.
func Bind(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperr.Validation("Invalid request body")
	}
	return Check(dst)
}

// Check validates an already decoded value.
func Check(v interface{}) error {
	if fields := Validate(v); fields != nil {
		return apperr.Validation(Message(fields))
	}
	return nil
}

// Message flattens field errors into one stable, human readable line.
func Message(fields map[string]string) string {
	if len(fields) == 0 {
		return ""
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, describe(name, fields[name]))
	}
	return strings.Join(parts, "; ")
}

func describe(field, tag string) string {
	switch tag {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "oneof":
		return fmt.Sprintf("%s has an unsupported value", field)
	case "min", "gte", "gt":
		return fmt.Sprintf("%s is too small", field)
	case "max", "lte", "lt":
		return fmt.Sprintf("%s is too large", field)
	default:
		return fmt.Sprintf("%s is invalid (%s)", field, tag)
	}
}
