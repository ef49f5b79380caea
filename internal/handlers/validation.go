package handlers

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	registerOnce sync.Once
	slugPattern  = regexp.MustCompile(`^[A-Za-z0-9_-]{3,64}$`)
)

// registerValidators teaches gin's validator the "slug" rule and makes field
// errors carry the form/json name instead of the Go field name.
func registerValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			}
			return name
		})
		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return slugPattern.MatchString(fl.Field().String())
		})
	})
}

// bindInput binds form or JSON input. An empty JSON body is validated as an
// empty payload so missing fields surface as field errors.
func bindInput(c *gin.Context, dst any) error {
	err := c.ShouldBind(dst)
	if errors.Is(err, io.EOF) {
		return binding.Validator.ValidateStruct(dst)
	}
	return err
}

// fieldErrors converts validator output into per-field messages.
func fieldErrors(err error) (map[string][]string, bool) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil, false
	}
	out := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if fe.Tag() == "eqfield" {
			// confirmation mismatches are reported on the confirmed field
			field = strings.ToLower(fe.Param())
		}
		out[field] = append(out[field], validationMessage(fe))
	}
	return out, true
}

func validationMessage(fe validator.FieldError) string {
	attr := strings.ReplaceAll(fe.Field(), "_", " ")
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("The %s field is required.", attr)
	case "email":
		return fmt.Sprintf("The %s must be a valid email address.", attr)
	case "max":
		return fmt.Sprintf("The %s may not be greater than %s characters.", attr, fe.Param())
	case "min":
		return fmt.Sprintf("The %s must be at least %s characters.", attr, fe.Param())
	case "eqfield":
		return fmt.Sprintf("The %s confirmation does not match.", strings.ToLower(fe.Param()))
	case "slug":
		return fmt.Sprintf("The %s may only contain letters, numbers, dashes and underscores (3 to 64 characters).", attr)
	default:
		return fmt.Sprintf("The %s is invalid.", attr)
	}
}
