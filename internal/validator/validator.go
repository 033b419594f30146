package validator

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// Get returns the shared validator. Field names in messages come from json
// tags on models and mapstructure tags on configuration.
func Get() *validator.Validate {
	once.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(fieldName)
	})
	return validate
}

func fieldName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		name = fld.Tag.Get("mapstructure")
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// Validate checks s against its validate tags and joins every violation into one error
func Validate(s interface{}) error {
	err := Get().Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, fmt.Sprintf("%s %s", e.Namespace(), describe(e)))
	}
	return fmt.Errorf("validation failed: %s", strings.Join(messages, "; "))
}

// describe covers the tags used on configuration and automation log rows
func describe(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "numeric":
		return "must contain only digits"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", e.Param(), fmt.Sprint(e.Value()))
	case "gt":
		return fmt.Sprintf("must be greater than %s, got %v", e.Param(), e.Value())
	case "gte":
		return fmt.Sprintf("must be at least %s, got %v", e.Param(), e.Value())
	case "lte":
		return fmt.Sprintf("must be at most %s, got %v", e.Param(), e.Value())
	}
	return fmt.Sprintf("failed %q check", e.Tag())
}
