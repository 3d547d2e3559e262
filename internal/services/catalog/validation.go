package catalog

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"restaurant-orders/internal/apperror"
	"restaurant-orders/internal/models"
)

// Limits match the VARCHAR widths of the dishes table
const (
	maxNameLength = 100
	maxTypeLength = 25
)

// ValidateCreateRequest checks a new dish before it reaches storage
func ValidateCreateRequest(req *models.CreateDishRequest) error {
	if err := validateName(req.Name); err != nil {
		return err
	}
	if req.Type != nil {
		if err := validateType(*req.Type); err != nil {
			return err
		}
	}
	if err := validateNonNegative("price", req.Price); err != nil {
		return err
	}
	return validateNonNegative("weight", req.Weight)
}

// ValidateUpdateRequest checks the fields present in a partial update
func ValidateUpdateRequest(req *models.UpdateDishRequest) error {
	if req.Name != nil {
		if err := validateName(*req.Name); err != nil {
			return err
		}
	}
	if req.Type != nil {
		if err := validateType(*req.Type); err != nil {
			return err
		}
	}
	if req.Price != nil {
		if err := validateNonNegative("price", *req.Price); err != nil {
			return err
		}
	}
	if req.Weight != nil {
		if err := validateNonNegative("weight", *req.Weight); err != nil {
			return err
		}
	}
	if req.Status != nil {
		if *req.Status != models.DishActive && *req.Status != models.DishDeleted {
			return apperror.Validation("status", "status must be one of: active, deleted")
		}
	}
	return nil
}

// ValidatePriceRange checks the listing filter bounds
func ValidatePriceRange(filter models.DishFilter) error {
	if filter.MinPrice != nil {
		if err := validateNonNegative("min_price", *filter.MinPrice); err != nil {
			return err
		}
	}
	if filter.MaxPrice != nil {
		if err := validateNonNegative("max_price", *filter.MaxPrice); err != nil {
			return err
		}
	}
	if filter.MinPrice != nil && filter.MaxPrice != nil && *filter.MinPrice > *filter.MaxPrice {
		return apperror.Validation("min_price", "min_price must not exceed max_price")
	}
	return nil
}

func validateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return apperror.Validation("name", "dish name is required")
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return apperror.Validation("name", fmt.Sprintf("dish name must be at most %d characters", maxNameLength))
	}
	return nil
}

func validateType(dishType string) error {
	if utf8.RuneCountInString(dishType) > maxTypeLength {
		return apperror.Validation("type", fmt.Sprintf("dish type must be at most %d characters", maxTypeLength))
	}
	return nil
}

func validateNonNegative(field string, value int64) error {
	if value < 0 {
		return apperror.Validation(field, fmt.Sprintf("%s must not be negative", field))
	}
	return nil
}
