// Package compress implements the lossy quantizing codec for depth/range
// records: floating-point fields become fixed-point integers at declared
// per-class scales, re-emitted under synthetic tags the vendor format
// never uses.
package compress

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ScaleTable declares the least significant bit of every quantized field
// class. It is the single source of precision loss: a field quantized at
// LSB q is reproduced within q/2 of its original value. Tables are
// versioned; the version byte is stamped into every compressed record so
// decompression can refuse a table mismatch.
type ScaleTable struct {
	Version uint8 `yaml:"version"`

	// Degrees of latitude/longitude, carried as int64. 1e-9 deg is about
	// 0.1 mm on the ground.
	LatLonDeg float64 `yaml:"latLonDeg"`
	// Degrees of relative position offset. 1e-8 deg is about 1 mm.
	DeltaDeg float64 `yaml:"deltaDeg"`
	// Linear distances in meters.
	Meters float64 `yaml:"meters"`
	// Angles in degrees (beam, tilt, coverage, heading).
	AngleDeg float64 `yaml:"angleDeg"`
	// Time intervals in seconds (travel times, pulse lengths, delays).
	Seconds float64 `yaml:"seconds"`
	// Backscatter and gain values in dB.
	Decibels float64 `yaml:"decibels"`
	// Frequencies and rates in Hz.
	Hertz float64 `yaml:"hertz"`
	// Speeds in m/s (sound speed).
	MetersPerSec float64 `yaml:"metersPerSec"`
	// Dimensionless factors (quality, range factor).
	Unitless float64 `yaml:"unitless"`
}

// DefaultScaleTable is the built-in version 1 table. Position error is
// bounded below 1 mm and timing below 0.1 microseconds.
func DefaultScaleTable() ScaleTable {
	return ScaleTable{
		Version:      1,
		LatLonDeg:    1e-9,
		DeltaDeg:     1e-8,
		Meters:       1e-3,
		AngleDeg:     1e-5,
		Seconds:      1e-7,
		Decibels:     1e-2,
		Hertz:        1e-2,
		MetersPerSec: 1e-3,
		Unitless:     1e-4,
	}
}

// Validate rejects tables with missing or non-positive scales.
func (t ScaleTable) Validate() error {
	fields := []struct {
		name string
		v    float64
	}{
		{"latLonDeg", t.LatLonDeg},
		{"deltaDeg", t.DeltaDeg},
		{"meters", t.Meters},
		{"angleDeg", t.AngleDeg},
		{"seconds", t.Seconds},
		{"decibels", t.Decibels},
		{"hertz", t.Hertz},
		{"metersPerSec", t.MetersPerSec},
		{"unitless", t.Unitless},
	}
	for _, f := range fields {
		if f.v <= 0 {
			return fmt.Errorf("scale table: %s must be positive, got %g", f.name, f.v)
		}
	}
	if t.Version == 0 {
		return fmt.Errorf("scale table: version must be nonzero")
	}
	return nil
}

// LoadScaleTable reads a YAML scale table from path.
func LoadScaleTable(path string) (ScaleTable, error) {
	var t ScaleTable
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("parse scale table: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, err
	}
	return t, nil
}
