// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"relaypanel/internal/oplog"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("oplog_module", validateOplogModule)
		_ = v.RegisterValidation("oplog_action", validateOplogAction)
		_ = v.RegisterValidation("price_currency", validatePriceCurrency)
		_ = v.RegisterValidation("token_unit", validateTokenUnit)
	}
}

func validateOplogModule(fl validator.FieldLevel) bool {
	return oplog.ValidModule(oplog.Module(fl.Field().String()))
}

func validateOplogAction(fl validator.FieldLevel) bool {
	return oplog.ValidAction(oplog.Action(fl.Field().String()))
}

func validatePriceCurrency(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "USD", "CNY":
		return true
	}
	return false
}

func validateTokenUnit(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "K", "M":
		return true
	}
	return false
}
