package handler

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/iliyamo/stock-inventory/internal/apperr"
)

// MsgInvalidBody is returned when a body cannot be decoded at all.
const MsgInvalidBody = "Cuerpo de la solicitud inválido"

var (
	specialChar = regexp.MustCompile(`[^A-Za-z0-9]`)
	// Chilean numbers: optional +56 prefix followed by 9 digits.
	chileanPhone = regexp.MustCompile(`^(\+?56)?[2-9]\d{8}$`)
)

// messages maps "<request>.<json field>.<tag>" to the text shown to users.
var messages = map[string]string{
	"loginRequest.email.required":    "El correo electrónico es obligatorio",
	"loginRequest.password.required": "La contraseña es obligatoria",

	"signupRequest.name.required":     "El nombre es obligatorio",
	"signupRequest.name.max":          "El nombre no debe superar los 30 caracteres",
	"signupRequest.lastName.required": "El apellido es obligatorio",
	"signupRequest.lastName.max":      "El apellido no debe superar los 30 caracteres",
	"signupRequest.password.required": "La contraseña es obligatoria",
	"signupRequest.password.min":      "La contraseña debe tener al menos 7 caracteres",
	"signupRequest.password.max":      "La contraseña no debe superar los 72 caracteres",
	"signupRequest.password.special":  "La contraseña debe incluir al menos un carácter especial",
	"signupRequest.email.required":    "El correo electrónico es obligatorio",
	"signupRequest.email.email":       "El correo electrónico debe ser válido",
	"signupRequest.phone.required":    "El número de teléfono es obligatorio",
	"signupRequest.phone.clphone":     "El número de teléfono no es válido",

	"companyRequest.name.required":  "El nombre de la empresa es obligatorio",
	"companyRequest.name.max":       "El nombre no debe superar los 30 caracteres",
	"companyRequest.email.required": "El correo electrónico es obligatorio",
	"companyRequest.email.email":    "El correo electrónico debe ser válido",
	"companyRequest.phone.required": "El número de teléfono es obligatorio",
	"companyRequest.phone.clphone":  "El número de teléfono no es válido",

	"companyPatchRequest.name.min":      "El nombre de la empresa es obligatorio",
	"companyPatchRequest.name.max":      "El nombre no debe superar los 30 caracteres",
	"companyPatchRequest.email.email":   "El correo electrónico debe ser válido",
	"companyPatchRequest.phone.clphone": "El número de teléfono no es válido",

	"roleRequest.roleId.required": "Debes indicar un rol.",

	"productRequest.name.required":     "El nombre del producto es obligatorio.",
	"productRequest.name.max":          "El nombre del producto no puede superar los 50 caracteres.",
	"productRequest.description.max":   "La descripción no puede superar los 300 caracteres.",
	"productRequest.sku.required":      "El SKU del producto es obligatorio.",
	"productRequest.sku.max":           "El SKU del producto no puede superar los 15 caracteres.",
	"productRequest.stock.required":    "Debes introducir un número de stock.",
	"productRequest.stock.min":         "El stock no puede ser negativo.",
	"productRequest.category.required": "Debes introducir una categoría.",
	"productRequest.category.min":      "Debes introducir una categoría.",
	"productRequest.price.required":    "Debes introducir el precio del producto.",

	"productPatchRequest.name.min":        "El nombre del producto es obligatorio.",
	"productPatchRequest.name.max":        "El nombre del producto no puede superar los 50 caracteres.",
	"productPatchRequest.description.max": "La descripción no puede superar los 300 caracteres.",
	"productPatchRequest.sku.min":         "El SKU del producto es obligatorio.",
	"productPatchRequest.sku.max":         "El SKU del producto no puede superar los 15 caracteres.",
	"productPatchRequest.stock.min":       "El stock no puede ser negativo.",
	"productPatchRequest.category.min":    "Debes introducir una categoría.",

	"productQueryRequest.limit.min": "El límite debe ser mayor o igual a 1.",
	"productQueryRequest.page.min":  "La página debe ser mayor o igual a 1.",
}

// Validator adapts go-playground/validator to echo.Validator and turns
// failures into a Validation error with one message per field.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their JSON (or query) name
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	_ = v.RegisterValidation("special", func(fl validator.FieldLevel) bool {
		return specialChar.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("clphone", func(fl validator.FieldLevel) bool {
		return ValidChileanPhone(fl.Field().String())
	})
	return &Validator{v: v}
}

// ValidChileanPhone accepts "+56912345678", "56912345678", "912345678"
// and the same with spaces or dashes.
func ValidChileanPhone(s string) bool {
	s = strings.NewReplacer(" ", "", "-", "").Replace(s)
	return chileanPhone.MatchString(s)
}

func (cv *Validator) Validate(i any) error {
	err := cv.v.Struct(i)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return apperr.Validation(MsgInvalidBody, nil)
	}
	fields := make(map[string]string, len(ves))
	headline := ""
	for _, fe := range ves {
		msg := fieldMessage(fe)
		if _, seen := fields[fe.Field()]; !seen {
			fields[fe.Field()] = msg
		}
		if headline == "" {
			headline = msg
		}
	}
	return apperr.Validation(headline, fields)
}

func fieldMessage(fe validator.FieldError) string {
	if msg, ok := messages[fe.Namespace()+"."+fe.Tag()]; ok {
		return msg
	}
	return "El campo " + fe.Field() + " no es válido"
}
