package service

import (
	"fmt"
	"math"
)

// PricingEngine computes the cost of a completed ChargingSession. Billing is
// linear on metered energy only — no tiered rates, demand charges, or
// service-fee add-ons, matching the restriction on tariff modeling.
type PricingEngine struct {
	PricePerKwh float64 // currency units per kWh
}

// NewPricingEngine creates a pricing engine with a per-charge-point default;
// callers normally override PricePerKwh from ChargePoint.PricePerKwh.
func NewPricingEngine(pricePerKwh float64) *PricingEngine {
	return &PricingEngine{PricePerKwh: pricePerKwh}
}

// CostCents converts a metered Wh delta into integer cents, rounding to the
// nearest cent (half away from zero).
func (p *PricingEngine) CostCents(energyWh int64) int64 {
	energyKwh := float64(energyWh) / 1000.0
	cents := energyKwh * p.PricePerKwh * 100
	return int64(math.Round(cents))
}

// EnergyKwh converts a metered Wh delta into kWh for the Order record.
func (p *PricingEngine) EnergyKwh(energyWh int64) float64 {
	return float64(energyWh) / 1000.0
}

// SetPricing validates and applies a new per-kWh rate.
func (p *PricingEngine) SetPricing(pricePerKwh float64) error {
	if pricePerKwh <= 0 {
		return fmt.Errorf("price per kWh must be positive, got %v", pricePerKwh)
	}
	p.PricePerKwh = pricePerKwh
	return nil
}
