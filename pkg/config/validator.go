package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validator validates a loaded configuration comprehensively, following
// tarsy's fail-fast, one-component-at-a-time style
// (pkg/config/validator.go).
type Validator struct {
	cfg *YAMLConfig
	v   *validator.Validate
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *YAMLConfig) *Validator {
	return &Validator{cfg: cfg, v: validator.New()}
}

// ValidateAll performs struct-tag validation on every section, then the
// cross-field checks that struct tags can't express.
func (val *Validator) ValidateAll() error {
	if err := val.v.Struct(val.cfg.System); err != nil {
		return NewValidationError("system", "", err)
	}
	if err := val.v.Struct(val.cfg.Privacy); err != nil {
		return NewValidationError("privacy", "", err)
	}
	if err := val.v.Struct(val.cfg.Queue); err != nil {
		return NewValidationError("queue", "", err)
	}
	for name, p := range val.cfg.LLMProviders {
		if err := val.v.Struct(p); err != nil {
			return NewValidationError(fmt.Sprintf("llm_providers.%s", name), "", err)
		}
	}
	if err := val.validateGates(); err != nil {
		return err
	}
	return nil
}

func (val *Validator) validateGates() error {
	g := val.cfg.Gates
	for _, t := range []struct {
		name string
		v    float64
	}{
		{"humanity_threshold", g.HumanityThreshold},
		{"oversight_threshold", g.OversightThreshold},
		{"alignment_threshold", g.AlignmentThreshold},
	} {
		if t.v < 0 || t.v > 1 {
			return NewValidationError("gates", t.name, fmt.Errorf("must be in [0,1], got %v", t.v))
		}
	}
	if g.AutonomyThreshold < -1 || g.AutonomyThreshold > 1 {
		return NewValidationError("gates", "autonomy_threshold", fmt.Errorf("must be in [-1,1]"))
	}
	return nil
}
