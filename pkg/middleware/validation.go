package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	apperrors "github.com/KMK-tech-v0/fuel/pkg/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// InitValidator initializes the shared validator and registers the same rules on gin's binding engine
func InitValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
		configureValidator(validate)

		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			configureValidator(v)
		}
	})

	return validate
}

func configureValidator(v *validator.Validate) {
	_ = v.RegisterValidation("decimal", validateDecimal)
	_ = v.RegisterValidation("positive_decimal", validatePositiveDecimal)
	_ = v.RegisterValidation("non_negative_decimal", validateNonNegativeDecimal)
	_ = v.RegisterValidation("decimal_places", validateDecimalPlaces)
	_ = v.RegisterValidation("positive_id", validatePositiveID)
	_ = v.RegisterValidation("safe_string", validateSafeString)

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

func parseDecimal(fl validator.FieldLevel) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(strings.TrimSpace(fl.Field().String()))
	return d, err == nil
}

func validateDecimal(fl validator.FieldLevel) bool {
	_, ok := parseDecimal(fl)
	return ok
}

func validatePositiveDecimal(fl validator.FieldLevel) bool {
	d, ok := parseDecimal(fl)
	return ok && d.IsPositive()
}

func validateNonNegativeDecimal(fl validator.FieldLevel) bool {
	d, ok := parseDecimal(fl)
	return ok && !d.IsNegative()
}

// validateDecimalPlaces rejects numbers that would be rounded by a column of
// the given scale. Trailing zeros are allowed.
func validateDecimalPlaces(fl validator.FieldLevel) bool {
	d, ok := parseDecimal(fl)
	if !ok {
		return false
	}
	places, err := strconv.ParseInt(fl.Param(), 10, 32)
	if err != nil {
		return false
	}
	return d.Equal(d.Truncate(int32(places)))
}

func validatePositiveID(fl validator.FieldLevel) bool {
	id, err := strconv.ParseInt(strings.TrimSpace(fl.Field().String()), 10, 64)
	return err == nil && id > 0
}

func validateSafeString(fl validator.FieldLevel) bool {
	return !strings.ContainsRune(fl.Field().String(), '\x00')
}

func fieldMessages(err error) map[string]string {
	fields := make(map[string]string)

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		for _, e := range validationErrors {
			fields[e.Field()] = formatValidationError(e)
		}
	}

	return fields
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "numeric", "decimal":
		return "must be a number"
	case "positive_decimal":
		return "must be a number greater than 0"
	case "non_negative_decimal":
		return "must be a number greater than or equal to 0"
	case "positive_id":
		return "must be a positive integer"
	case "decimal_places":
		return "must have at most " + e.Param() + " decimal places"
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "max":
		return "must be at most " + e.Param() + " characters"
	case "datetime":
		return "must be a valid date in format " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "safe_string":
		return "contains invalid characters"
	default:
		return "is invalid"
	}
}

// ValidateStruct validates a struct using the shared validator
func ValidateStruct(obj any) *apperrors.AppError {
	if err := InitValidator().Struct(obj); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return apperrors.ErrValidationWithFields("validation failed", fieldMessages(validationErrors))
		}
		return apperrors.ErrBadRequest("validation failed: " + err.Error())
	}
	return nil
}

// ContentType middleware ensures proper content type for request bodies
func ContentType() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodPost && c.Request.ContentLength > 0 {
			if !strings.HasPrefix(c.GetHeader("Content-Type"), "application/json") {
				AbortWithAppError(c, apperrors.NewAppError("INVALID_CONTENT_TYPE", "Content-Type must be application/json", http.StatusUnsupportedMediaType))
				return
			}
		}
		c.Next()
	}
}
