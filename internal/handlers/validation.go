package handlers

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
	npwpPattern  = regexp.MustCompile(`^[0-9]{15,16}$`)
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := fld.Tag.Get("json")
			if comma := strings.Index(name, ","); comma != -1 {
				name = name[:comma]
			}
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		if err := validate.RegisterValidation("npwp", validateNPWP); err != nil {
			panic("register npwp validation: " + err.Error())
		}
	})
	return validate
}

func validateNPWP(fl validator.FieldLevel) bool {
	v := fl.Field().String()
	return v == "" || npwpPattern.MatchString(v)
}

// validateStruct returns nil when dest passes its validate tags.
func validateStruct(dest interface{}) FieldErrors {
	err := getValidator().Struct(dest)
	if err == nil {
		return nil
	}

	errs := FieldErrors{}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		errs.Add("_", err.Error())
		return errs
	}
	for _, fe := range ve {
		errs.Add(fe.Field(), fieldMessage(fe))
	}
	return errs
}

// bindAndValidate parses the JSON body into dest and validates it. When it
// returns false the error response has already been written.
func bindAndValidate(c *fiber.Ctx, dest interface{}) (bool, error) {
	if err := c.BodyParser(dest); err != nil {
		return false, badRequest(c, "Body tidak valid")
	}
	if errs := validateStruct(dest); errs != nil {
		return false, validationFail(c, errs)
	}
	return true, nil
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return "Wajib diisi"
	case "email":
		return "Format email tidak valid"
	case "min":
		return fmt.Sprintf("Minimal %s karakter", fe.Param())
	case "max":
		return fmt.Sprintf("Maksimal %s karakter", fe.Param())
	case "oneof":
		return "Harus salah satu dari: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "numeric":
		return "Harus berupa angka"
	case "len":
		return "Harus " + fe.Param() + " karakter"
	case "url":
		return "URL tidak valid"
	case "npwp":
		return "NPWP harus 15 atau 16 digit angka"
	case "gte":
		return "Minimal " + fe.Param()
	case "gtefield":
		return "Tidak boleh lebih kecil dari " + fe.Param()
	}
	return "Tidak valid"
}
