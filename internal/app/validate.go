package app

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"quizhub/internal/domain"
)

var (
	quizNamePattern = regexp.MustCompile(`^[A-Za-z0-9 -]{2,40}$`)
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}$`)
)

// Validator checks inbound payloads and reports field-level messages.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()

	// report json names so field messages match what clients sent
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("quizname", func(fl validator.FieldLevel) bool {
		return quizNamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernamePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("difficulty", func(fl validator.FieldLevel) bool {
		switch domain.Difficulty(fl.Field().String()) {
		case domain.DifficultyEasy, domain.DifficultyMedium, domain.DifficultyHard:
			return true
		}
		return false
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		q := sl.Current().Interface().(domain.QuestionInput)
		for _, opt := range q.Options {
			if opt.IsCorrect {
				return
			}
		}
		sl.ReportError(q.Options, "options", "Options", "correct", "")
	}, domain.QuestionInput{})

	return &Validator{validate: v}
}

// Quiz validates a create or edit payload.
func (v *Validator) Quiz(in domain.QuizInput) error {
	return v.check(in)
}

func (v *Validator) Credentials(in domain.Credentials) error {
	return v.check(in)
}

func (v *Validator) check(in any) error {
	err := v.validate.Struct(in)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &domain.ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fieldPath(fe)] = message(fe)
	}
	return out
}

// fieldPath trims the root struct name: "QuizInput.questions[0].text" -> "questions[0].text".
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "quizname":
		return "must be 2-40 letters, digits, spaces or hyphens"
	case "username":
		return "must be 3-32 letters, digits or underscores"
	case "difficulty":
		return "must be one of easy, medium, hard"
	case "correct":
		return "at least one option must be marked correct"
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	}
	return "is invalid"
}
