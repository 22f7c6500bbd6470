package validate

import (
	"fmt"
	"strconv"
	"strings"
)

func NonEmpty(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("%s is required", field)
	}
	return nil
}

func MaxLen(field string, v *string, limit int) error {
	if v == nil {
		return nil
	}
	if len(*v) > limit {
		return fmt.Errorf("%s exceeds %d characters", field, limit)
	}
	return nil
}

// IntParam parses an optional integer query parameter, applying def when raw
// is empty and rejecting values outside [lo, hi].
func IntParam(field, raw string, def, lo, hi int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", field)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%s must be between %d and %d", field, lo, hi)
	}
	return n, nil
}

// FloatParam parses an optional float query parameter; nil when absent.
func FloatParam(field, raw string) (*float64, error) {
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be a number", field)
	}
	return &f, nil
}

// -------- Request specific helpers ----------

func CreateAgent(name, displayName string) error {
	if err := NonEmpty("name", name); err != nil {
		return err
	}
	if err := MaxLen("name", &name, 100); err != nil {
		return err
	}
	return MaxLen("display_name", &displayName, 100)
}

func CreateCapsule(name string, description *string, price float64) error {
	if err := NonEmpty("name", name); err != nil {
		return err
	}
	if err := MaxLen("name", &name, 100); err != nil {
		return err
	}
	if err := MaxLen("description", description, 2000); err != nil {
		return err
	}
	if price < 0 {
		return fmt.Errorf("price_per_query must not be negative")
	}
	return nil
}

func CapsuleQuery(prompt string, amount *float64) error {
	if err := NonEmpty("prompt", prompt); err != nil {
		return err
	}
	if amount != nil && *amount < 0 {
		return fmt.Errorf("amount_paid must not be negative")
	}
	return nil
}

func Message(content string) error {
	if err := NonEmpty("content", content); err != nil {
		return err
	}
	if len(content) > 32000 {
		return fmt.Errorf("content exceeds 32000 characters")
	}
	return nil
}
