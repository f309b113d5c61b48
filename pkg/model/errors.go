package model

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
)

// ConfigurationError covers malformed solve configuration and snapshots whose
// constraints reference unknown items or resources. It is fatal to the call:
// nothing is solved.
type ConfigurationError struct {
	Field  string
	Detail string
}

func (err *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration (%v): %v", err.Field, err.Detail)
}

// InfeasibleModelError is returned when the pre-solve checks prove no valid
// assignment can exist. It is an expected outcome of bad input data, not a
// programming error; the reasons name the offending constraints so the caller
// can relax them and retry.
type InfeasibleModelError struct {
	Reasons []InfeasibilityReason
}

func (err *InfeasibleModelError) Error() string {
	details := lo.Map(err.Reasons, func(reason InfeasibilityReason, _ int) string {
		return reason.Detail
	})
	return fmt.Sprintf("model is infeasible: %v", strings.Join(details, "; "))
}
