package dto

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/tradekeeper/trade_keeper_app/internal/core/domain"
)

// RegisterCustomValidators installs the domain-enum validations used by the
// binding tags in this package. Call once during startup.
func RegisterCustomValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	_ = v.RegisterValidation("resolution", func(fl validator.FieldLevel) bool {
		switch domain.Resolution(fl.Field().String()) {
		case domain.ResolutionMerge, domain.ResolutionReplace, domain.ResolutionKeepSeparate:
			return true
		}
		return false
	})
	_ = v.RegisterValidation("plantier", func(fl validator.FieldLevel) bool {
		switch domain.PlanTier(fl.Field().String()) {
		case domain.PlanFree, domain.PlanLite, domain.PlanEntrepreneur, domain.PlanUnlimited:
			return true
		}
		return false
	})
}
