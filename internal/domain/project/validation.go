package project

import (
	"fmt"
	"strings"
)

// ValidateCreateInput checks the fields required to register a project.
// Coordinates are parsed here so a bad pair is rejected before the record is
// written or synced anywhere.
func ValidateCreateInput(req CreateRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if _, _, err := ParseCoordinates(req.Coordinates); err != nil {
		return err
	}
	if req.ProjectArea <= 0 {
		return fmt.Errorf("%w: project_area must be positive, got %v", ErrInvalidInput, req.ProjectArea)
	}
	if strings.TrimSpace(req.ForestType) == "" {
		return fmt.Errorf("%w: forest_type is required", ErrInvalidInput)
	}
	if req.CarbonTons < 0 {
		return fmt.Errorf("%w: carbon_tons cannot be negative", ErrInvalidInput)
	}
	if req.PricePerTon < 0 {
		return fmt.Errorf("%w: price_per_ton cannot be negative", ErrInvalidInput)
	}
	if c := strings.TrimSpace(req.Currency); c != "" && !validCurrency(c) {
		return fmt.Errorf("%w: currency must be a 3-letter ISO code, got %q", ErrInvalidInput, req.Currency)
	}
	return nil
}

func validCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if (r < 'A' || r > 'Z') && (r < 'a' || r > 'z') {
			return false
		}
	}
	return true
}
