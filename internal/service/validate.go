package service

import (
	"errors"
	"reflect"
	"strings"

	"procurement-transparency/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// report json names, not Go field names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	_ = v.RegisterValidation("review_type", func(fl validator.FieldLevel) bool {
		_, ok := models.ParseReviewType(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("project_status", func(fl validator.FieldLevel) bool {
		return models.ProjectStatus(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("user_role", func(fl validator.FieldLevel) bool {
		return models.UserRole(fl.Field().String()).Valid()
	})
	return v
}

// validateStruct returns the first violated rule as a *ValidationError.
func validateStruct(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) || len(ves) == 0 {
		return err
	}
	fe := ves[0]
	return invalid(fieldPath(fe.Namespace()), fe.Tag(), fe.Param())
}

// "CreateReviewInput.geolocation.lat" -> "geolocation.lat"
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
