package validator

import (
	"log"
	"strconv"
	"strings"
	"unicode/utf8"

	"designhub_backend/internal/models"

	"github.com/go-playground/validator/v10"
)

// PortfolioSorts - допустимые варианты сортировки витрины
var PortfolioSorts = []string{"newest", "oldest", "rating", "popular", "featured"}

// registerCustomRules регистрирует кастомные функции валидации
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// ошибка времени запуска, дальше работать нельзя
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	// регистрация открыта только клиентам и дизайнерам
	mustRegister("is-user-role", validateSignupRole)
	mustRegister("is-order-status", validateOrderStatus)
	mustRegister("is-review-status", validateReviewStatus)
	mustRegister("is-portfolio-sort", validatePortfolioSort)
	mustRegister("notblank", validateNotBlank)
	// trimmed-len=10-500: длина строки после TrimSpace в рунах
	mustRegister("trimmed-len", validateTrimmedLen)
}

func validateSignupRole(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // пустые значения ловит 'required'
	}
	switch models.UserRole(value) {
	case models.UserRoleClient, models.UserRoleDesigner:
		return true
	default:
		return false
	}
}

func validateOrderStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return models.OrderStatus(value).IsValid()
}

func validateReviewStatus(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	switch models.DeliverableStatus(value) {
	case models.DeliverableStatusApproved, models.DeliverableStatusRejected:
		return true
	default:
		return false
	}
}

func validatePortfolioSort(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	for _, s := range PortfolioSorts {
		if s == value {
			return true
		}
	}
	return false
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

func validateTrimmedLen(fl validator.FieldLevel) bool {
	bounds := strings.SplitN(fl.Param(), "-", 2)
	if len(bounds) != 2 {
		return false
	}
	minLen, err1 := strconv.Atoi(bounds[0])
	maxLen, err2 := strconv.Atoi(bounds[1])
	if err1 != nil || err2 != nil {
		return false
	}
	n := utf8.RuneCountInString(strings.TrimSpace(fl.Field().String()))
	return n >= minLen && n <= maxLen
}
