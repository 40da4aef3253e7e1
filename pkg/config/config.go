// Package config loads and validates the geometry constants the FTL is
// parameterized over. Parsing the device's physical layout is an external
// interface concern, not part of the translation core itself.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/dd0wney/ftlsim/pkg/geometry"
)

var validate = validator.New()

// Load reads a YAML geometry file at path, validates its fields, and
// returns a fully derived Geometry.
func Load(path string) (*geometry.Geometry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse validates and derives a Geometry from raw YAML bytes.
func Parse(raw []byte) (*geometry.Geometry, error) {
	var g geometry.Geometry
	if err := yaml.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}

	if err := validate.Struct(&g); err != nil {
		return nil, formatValidationError(err)
	}

	return geometry.New(
		g.SSDSize, g.PackageSize, g.DieSize, g.PlaneSize, g.BlockSize,
		g.BlockErases, g.Overprovisioning,
	)
}

func formatValidationError(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fmt.Errorf("config: %w", err)
	}

	e := validationErrs[0]
	switch e.Tag() {
	case "gte":
		return fmt.Errorf("config: %s must be >= %s", e.Field(), e.Param())
	case "lte":
		return fmt.Errorf("config: %s must be <= %s", e.Field(), e.Param())
	default:
		return fmt.Errorf("config: %s failed %s validation", e.Field(), e.Tag())
	}
}
