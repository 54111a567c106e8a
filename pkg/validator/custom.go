package validator

import "github.com/go-playground/validator/v10"

func RegisterCustomValidations(validate *validator.Validate) {
	validate.RegisterValidation("incident_type", oneOfStrings(
		"safety", "security", "data_breach", "ai_malfunction", "vulnerability"))
	validate.RegisterValidation("incident_severity", oneOfStrings(
		"critical", "high", "medium", "low"))
	validate.RegisterValidation("incident_status", oneOfStrings(
		"detected", "investigating", "contained", "resolved", "closed"))
	validate.RegisterValidation("authority", oneOfStrings(
		"ai_act_authority", "dpa", "data_subject", "csirt", "enisa"))
	validate.RegisterValidation("regulation", oneOfStrings(
		"ai_act", "gdpr", "nis2", "cra"))
	validate.RegisterValidation("notification_type", oneOfStrings(
		"early_warning", "initial", "intermediate", "final"))
}

func oneOfStrings(allowed ...string) validator.Func {
	set := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		set[a] = struct{}{}
	}
	return func(fl validator.FieldLevel) bool {
		_, ok := set[fl.Field().String()]
		return ok
	}
}
