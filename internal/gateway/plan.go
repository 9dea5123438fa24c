// Package gateway defines the gateway-facing surface of a secured stack:
// which HTTP methods require the API key, the usage-plan throttle and
// quota, and the deterministic resource names derived from the stack name.
// Deriving the names in one place keeps the resolver, the CLI, and the
// provisioning layer pointing at the same parameter and the same plan.
package gateway

import (
	"fmt"
	"strings"
)

// Period is the reset window for a usage-plan quota.
type Period int

const (
	DAY Period = iota
	WEEK
	MONTH
)

var periodNames = [...]string{
	DAY:   "DAY",
	WEEK:  "WEEK",
	MONTH: "MONTH",
}

// String returns the canonical upper-case period name
func (p Period) String() string {
	if p < DAY || p > MONTH {
		return fmt.Sprintf("Period(%d)", int(p))
	}
	return periodNames[p]
}

// ParsePeriod normalizes a raw quota period name
func ParsePeriod(raw string) (Period, error) {
	name := strings.ToUpper(strings.TrimSpace(raw))
	for p := DAY; p <= MONTH; p++ {
		if periodNames[p] == name {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown quota period %q (supported: DAY, WEEK, MONTH)", raw)
}

// ThrottleSettings caps the request rate a usage plan admits.
type ThrottleSettings struct {
	// BurstLimit is the maximum concurrent request burst
	BurstLimit int
	// RateLimit is the steady-state rate in requests per second
	RateLimit float64
}

// DefaultThrottle returns the limits applied when a stack configures none
func DefaultThrottle() ThrottleSettings {
	return ThrottleSettings{
		BurstLimit: 500,
		RateLimit:  1000,
	}
}

// QuotaSettings caps the total requests a usage plan admits per period.
type QuotaSettings struct {
	Limit  int
	Period Period
}

// DefaultQuota returns the quota applied when a stack configures none
func DefaultQuota() QuotaSettings {
	return QuotaSettings{
		Limit:  10000000,
		Period: MONTH,
	}
}

// ParameterName returns the parameter-store path holding a stack's API key
func ParameterName(stack string) string {
	return fmt.Sprintf("/%s/api-key", stack)
}

// Plan carries everything the provisioning layer needs to wire one stack's
// API key. All names are pure functions of the stack name, so re-deploying
// the same stack always addresses the same resources.
type Plan struct {
	Stack string

	// KeyID is the construct identifier for the API key resource
	KeyID string
	// KeyName is the display name of the API key
	KeyName string
	// UsagePlanName names the usage plan the key attaches to
	UsagePlanName string
	// ExportName is the stack-output export carrying the key value
	ExportName string
	// ParameterName is the parameter-store path holding the key
	ParameterName string

	// Methods lists the HTTP methods that require the key
	Methods  []Method
	Throttle ThrottleSettings
	Quota    QuotaSettings
}

// NewPlan derives the plan for a stack with every method secured and
// default limits. Callers overwrite the fields the stack configures
// explicitly.
func NewPlan(stack string) Plan {
	return Plan{
		Stack:         stack,
		KeyID:         stack + "-api-key",
		KeyName:       stack,
		UsagePlanName: stack + "-usage-plan",
		ExportName:    "x-api-key:" + stack,
		ParameterName: ParameterName(stack),
		Methods:       AllMethods(),
		Throttle:      DefaultThrottle(),
		Quota:         DefaultQuota(),
	}
}
