package classify

import (
	"strconv"
	"strings"
)

type ServiceType string

const (
	ServiceTankless ServiceType = "tankless_water_heater"
	ServiceWater    ServiceType = "water_heater"
	ServiceGasLine  ServiceType = "gas_line"
	ServiceDrain    ServiceType = "drain_or_sewer"
	ServiceFixture  ServiceType = "fixture_or_leak_repair"
	ServiceGeneral  ServiceType = "general_plumbing"
)

// serviceRules is evaluated top to bottom; the first category with a matching phrase wins.
var serviceRules = []struct {
	service ServiceType
	phrases []string
}{
	{ServiceTankless, []string{"tankless", "on-demand heater", "on demand heater"}},
	{ServiceWater, []string{"water heater", "hot water", "heater", "boiler"}},
	{ServiceGasLine, []string{"gas line", "gas leak", "smell gas", "gas"}},
	{ServiceDrain, []string{"sewer", "sewage", "drain", "clog", "backing up", "backup", "main line", "septic"}},
	{ServiceFixture, []string{"faucet", "toilet", "sink", "shower", "tub", "disposal", "fixture", "leak", "drip", "pipe"}},
}

// InferServiceType maps a free-text problem description to a service category.
func InferServiceType(description string) ServiceType {
	lowered := strings.ToLower(description)
	for _, rule := range serviceRules {
		if containsAny(lowered, rule.phrases) {
			return rule.service
		}
	}
	return ServiceGeneral
}

const (
	EmergencyMinDuration   = 60
	defaultServiceDuration = 60
	emergencyQuoteMarkup   = 1.25
)

var defaultDurations = map[ServiceType]int{
	ServiceTankless: 240,
	ServiceWater:    180,
	ServiceGasLine:  120,
	ServiceDrain:    90,
	ServiceFixture:  60,
	ServiceGeneral:  60,
}

// ParseDurationOverrides reads "category=minutes,..." and skips entries that are
// malformed, non-positive or longer than a day.
func ParseDurationOverrides(raw string) map[string]int {
	out := make(map[string]int)
	for _, part := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			continue
		}
		minutes, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || minutes <= 0 || minutes > 24*60 {
			continue
		}
		out[key] = minutes
	}
	return out
}

// DurationFor resolves the job length for a category, applying overrides and the emergency floor.
func DurationFor(service ServiceType, isEmergency bool, overrides map[string]int) int {
	minutes, ok := overrides[string(service)]
	if !ok {
		minutes, ok = defaultDurations[service]
	}
	if !ok {
		minutes = defaultServiceDuration
	}
	if isEmergency && minutes < EmergencyMinDuration {
		minutes = EmergencyMinDuration
	}
	return minutes
}

// InferDurationMinutes is the description-level shortcut used by the state machine.
func InferDurationMinutes(description string, isEmergency bool, overrideConfig string) int {
	return DurationFor(InferServiceType(description), isEmergency, ParseDurationOverrides(overrideConfig))
}

type Quote struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

var quoteRanges = map[ServiceType]Quote{
	ServiceTankless: {Low: 2500, High: 4500},
	ServiceWater:    {Low: 1200, High: 2200},
	ServiceGasLine:  {Low: 300, High: 900},
	ServiceDrain:    {Low: 150, High: 450},
	ServiceFixture:  {Low: 125, High: 350},
	ServiceGeneral:  {Low: 100, High: 300},
}

// QuoteFor returns the ballpark range for a category. Unknown categories have no quote.
func QuoteFor(service ServiceType, isEmergency bool) (Quote, bool) {
	q, ok := quoteRanges[service]
	if !ok {
		return Quote{}, false
	}
	if isEmergency {
		q.Low *= emergencyQuoteMarkup
		q.High *= emergencyQuoteMarkup
	}
	return q, true
}
