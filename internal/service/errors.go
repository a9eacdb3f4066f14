package service

import (
	"errors"
	"fmt"
)

var (
	ErrProjectNotFound    = errors.New("project not found")
	ErrReviewNotFound     = errors.New("review not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUserExists         = errors.New("username already registered")
)

// ValidationError names the input field and the rule it broke.
type ValidationError struct {
	Field string
	Rule  string
	Param string
}

func (e *ValidationError) Error() string {
	switch e.Rule {
	case "required":
		return fmt.Sprintf("%s is required", e.Field)
	case "min":
		return fmt.Sprintf("%s must be at least %s", e.Field, e.Param)
	case "max":
		return fmt.Sprintf("%s must be at most %s", e.Field, e.Param)
	case "review_type", "project_status", "oneof":
		return fmt.Sprintf("%s has an unsupported value", e.Field)
	case "required_with":
		return fmt.Sprintf("%s is required together with %s", e.Field, e.Param)
	case "required_without":
		return fmt.Sprintf("%s or %s is required", e.Field, e.Param)
	case "unique":
		return fmt.Sprintf("%s is already used by %s", e.Field, e.Param)
	case "number":
		return fmt.Sprintf("%s must be a finite number", e.Field)
	}
	return fmt.Sprintf("%s failed %s validation", e.Field, e.Rule)
}

func invalid(field, rule, param string) *ValidationError {
	return &ValidationError{Field: field, Rule: rule, Param: param}
}
