package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validatorInstance = validator.New()

// Validate checks field constraints and rejects a filter that is both
// allowed and blocked.
func (c *Config) Validate() error {
	if err := validatorInstance.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return &ConfigurationError{
				Field:   fe.Namespace(),
				Message: fmt.Sprintf("value %v fails %q", fe.Value(), describeTag(fe)),
				Cause:   err,
			}
		}
		return &ConfigurationError{Message: "validation failed", Cause: err}
	}

	blocked := make(map[TopicFilter]bool, len(c.Blocklist))
	for _, f := range c.Blocklist {
		blocked[f] = true
	}
	for _, f := range c.Allowlist {
		if blocked[f] {
			return &ConfigurationError{
				Field:   "Config.Allowlist",
				Message: fmt.Sprintf("topic filter %q (type %q) is both allowed and blocked", f.Name, f.Type),
			}
		}
	}
	return nil
}

func describeTag(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}
