// Package pricing computes trade-in estimates and inspection-adjusted final prices.
// All functions are pure and never fail; malformed input degrades to neutral
// multipliers.
package pricing

import (
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/spec-kit/tradein-service/internal/domain"
)

const (
	unknownConditionMultiplier = 0.5
	accessoryMultiplierStep    = 0.05
	accessoryBonusPerItem      = 5.0
)

var conditionMultipliers = map[domain.Condition]float64{
	domain.ConditionNew:     1.0,
	domain.ConditionLikeNew: 0.9,
	domain.ConditionGood:    0.8,
	domain.ConditionFair:    0.6,
	domain.ConditionPoor:    0.4,
}

type tier struct {
	minGB  int
	factor float64
}

// Descending so the first match wins.
var (
	storageTiers = []tier{{512, 1.3}, {256, 1.2}, {128, 1.1}}
	ramTiers     = []tier{{16, 1.2}, {8, 1.1}}
)

// Engine prices devices against a base table.
type Engine struct {
	table BaseTable
}

// NewEngine builds an engine; a nil table selects DefaultBaseTable.
func NewEngine(table BaseTable) *Engine {
	if table == nil {
		table = DefaultBaseTable
	}
	return &Engine{table: table}
}

// InitialEstimate prices a device from its declared, unverified attributes.
func (e *Engine) InitialEstimate(deviceType domain.DeviceType, brand, model string, condition domain.Condition, specs domain.Specifications) float64 {
	base := e.table.Base(deviceType, brand)
	price := base * ConditionMultiplier(condition) * SpecMultiplier(specs)
	return clampRound(price)
}

// FinalPrice adjusts an estimate by a physical inspection. The accessory bonus is
// added after all multipliers.
func (e *Engine) FinalPrice(estimatedPrice float64, report domain.InspectionReport) float64 {
	price := estimatedPrice *
		ConditionMultiplier(report.Condition) *
		FunctionalityMultiplier(report.FunctionalityTest) *
		CosmeticMultiplier(report.Cosmetic)
	price += accessoryBonusPerItem * float64(len(report.Accessories))
	return clampRound(price)
}

// ConditionMultiplier maps a condition to its price factor; unknown values get 0.5.
func ConditionMultiplier(condition domain.Condition) float64 {
	if m, ok := conditionMultipliers[condition.Normalize()]; ok {
		return m
	}
	return unknownConditionMultiplier
}

// SpecMultiplier combines storage, RAM and accessory factors.
func SpecMultiplier(specs domain.Specifications) float64 {
	m := 1.0
	m *= tierFactor(storageTiers, parseGigabytes(specs.Storage))
	m *= tierFactor(ramTiers, parseGigabytes(specs.RAM))
	m *= 1 + accessoryMultiplierStep*float64(len(specs.Accessories))
	return m
}

// FunctionalityMultiplier is 1.0 for an empty test map, otherwise
// 0.4 + 0.6 × passed/total.
func FunctionalityMultiplier(tests map[string]bool) float64 {
	if len(tests) == 0 {
		return 1.0
	}
	passed := 0
	for _, ok := range tests {
		if ok {
			passed++
		}
	}
	return 0.4 + 0.6*(float64(passed)/float64(len(tests)))
}

// CosmeticMultiplier is 1.0 for an empty map, otherwise
// 0.6 + 0.4 × (perfect + good×0.7 + fair×0.4) / total. Unknown labels count
// toward the total only.
func CosmeticMultiplier(cosmetic map[string]string) float64 {
	if len(cosmetic) == 0 {
		return 1.0
	}
	var perfect, good, fair int
	for _, label := range cosmetic {
		switch label {
		case domain.CosmeticPerfect:
			perfect++
		case domain.CosmeticGood:
			good++
		case domain.CosmeticFair:
			fair++
		}
	}
	score := float64(perfect) + float64(good)*0.7 + float64(fair)*0.4
	return 0.6 + 0.4*(score/float64(len(cosmetic)))
}

func tierFactor(tiers []tier, gb int) float64 {
	for _, t := range tiers {
		if gb >= t.minGB {
			return t.factor
		}
	}
	return 1.0
}

// parseGigabytes reads the leading integer of a size string such as "256GB" or
// "1 TB". Anything unparseable is 0.
func parseGigabytes(value string) int {
	value = strings.TrimSpace(value)
	end := 0
	for end < len(value) && value[end] >= '0' && value[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(value[:end])
	if err != nil {
		return 0
	}
	unit := strings.ToUpper(strings.TrimLeftFunc(value[end:], unicode.IsSpace))
	if strings.HasPrefix(unit, "TB") {
		n *= 1024
	}
	return n
}

func clampRound(price float64) float64 {
	if math.IsNaN(price) || price < 0 {
		return 0
	}
	return math.Round(price)
}
