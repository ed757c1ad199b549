package domain

import (
	"errors"
	"fmt"
)

const (
	kgToLb = 2.2046226218
	inToCm = 2.54
)

// ConvertWeight converts a weight value between "kg" and "lb".
// Returns v unchanged if from == to or if the units are unrecognised.
func ConvertWeight(v float64, from, to string) float64 {
	if from == to {
		return v
	}
	if from == "kg" && to == "lb" {
		return v * kgToLb
	}
	if from == "lb" && to == "kg" {
		return v / kgToLb
	}
	return v
}

// ConvertHeight converts a height value between "cm" and "in".
func ConvertHeight(v float64, from, to string) float64 {
	if from == to {
		return v
	}
	if from == "in" && to == "cm" {
		return v * inToCm
	}
	if from == "cm" && to == "in" {
		return v / inToCm
	}
	return v
}

// NormalizeMeasurements stores weight in kg and height in cm.
// Empty units mean the values are already metric.
func (p *Profile) NormalizeMeasurements(weightUnit, heightUnit string) error {
	switch weightUnit {
	case "", "kg", "lb":
	default:
		return fmt.Errorf("weightUnit must be kg or lb, got %q", weightUnit)
	}
	switch heightUnit {
	case "", "cm", "in":
	default:
		return fmt.Errorf("heightUnit must be cm or in, got %q", heightUnit)
	}
	if p.Weight != nil {
		if *p.Weight < 0 {
			return errors.New("weight must not be negative")
		}
		if weightUnit != "" {
			w := ConvertWeight(*p.Weight, weightUnit, "kg")
			p.Weight = &w
		}
	}
	if p.Height != nil {
		if *p.Height < 0 {
			return errors.New("height must not be negative")
		}
		if heightUnit != "" {
			h := ConvertHeight(*p.Height, heightUnit, "cm")
			p.Height = &h
		}
	}
	return nil
}
