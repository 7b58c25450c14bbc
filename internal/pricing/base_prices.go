package pricing

import (
	"strings"

	"github.com/spec-kit/tradein-service/internal/domain"
)

// DefaultBasePrice applies when neither the brand nor the device type is known.
const DefaultBasePrice = 100.0

// BrandPrice holds the standard and premium tier base values for a brand.
// Premium is zero when the brand has no premium tier.
type BrandPrice struct {
	Base    float64
	Premium float64
}

// DevicePrices groups brand prices with the device type fallback.
type DevicePrices struct {
	Default float64
	Brands  map[string]BrandPrice
}

// BaseTable maps device types to their price tiers.
type BaseTable map[domain.DeviceType]DevicePrices

// DefaultBaseTable is the built-in price table. Brand keys are lower case.
var DefaultBaseTable = BaseTable{
	domain.DeviceSmartphone: {
		Default: 120,
		Brands: map[string]BrandPrice{
			"apple":   {Base: 400, Premium: 600},
			"samsung": {Base: 300, Premium: 500},
			"google":  {Base: 250, Premium: 400},
			"xiaomi":  {Base: 150},
			"oneplus": {Base: 180},
		},
	},
	domain.DeviceTablet: {
		Default: 100,
		Brands: map[string]BrandPrice{
			"apple":     {Base: 300, Premium: 500},
			"samsung":   {Base: 200, Premium: 350},
			"microsoft": {Base: 250},
		},
	},
	domain.DeviceLaptop: {
		Default: 250,
		Brands: map[string]BrandPrice{
			"apple":     {Base: 600, Premium: 1000},
			"dell":      {Base: 350},
			"hp":        {Base: 300},
			"lenovo":    {Base: 300},
			"asus":      {Base: 280},
			"microsoft": {Base: 450},
		},
	},
	domain.DeviceSmartwatch: {
		Default: 80,
		Brands: map[string]BrandPrice{
			"apple":   {Base: 200, Premium: 300},
			"samsung": {Base: 120},
			"garmin":  {Base: 150},
		},
	},
}

// Base returns the standard base value: brand, then device type, then global default.
func (t BaseTable) Base(deviceType domain.DeviceType, brand string) float64 {
	prices, ok := t[deviceType]
	if !ok {
		return DefaultBasePrice
	}
	if bp, ok := prices.Brands[normalizeBrand(brand)]; ok && bp.Base > 0 {
		return bp.Base
	}
	if prices.Default > 0 {
		return prices.Default
	}
	return DefaultBasePrice
}

// Premium returns the premium tier value for a brand, falling back to Base when
// the brand defines none. The estimator never calls this on its own.
func (t BaseTable) Premium(deviceType domain.DeviceType, brand string) float64 {
	if prices, ok := t[deviceType]; ok {
		if bp, ok := prices.Brands[normalizeBrand(brand)]; ok && bp.Premium > 0 {
			return bp.Premium
		}
	}
	return t.Base(deviceType, brand)
}

func normalizeBrand(brand string) string {
	return strings.ToLower(strings.TrimSpace(brand))
}
