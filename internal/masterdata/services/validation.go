package services

import (
	"errors"
	"strings"
)

func (s *Service) validate(item ServiceItem) error {
	if strings.TrimSpace(item.Code) == "" {
		return errors.New("service code is required")
	}
	if strings.TrimSpace(item.Name) == "" {
		return errors.New("service name is required")
	}
	if item.BasePrice < 0 {
		return errors.New("base price must be >= 0")
	}
	if item.EstimatedHours < 0 {
		return errors.New("estimated hours must be >= 0")
	}
	return nil
}
