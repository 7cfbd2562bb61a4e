package infrastructure

import (
	"context"
	"net/http"

	"crazy-bakery/backend/internal/features/wizard/domain"
	"crazy-bakery/backend/internal/logger"
)

// GeographyClient reads the department and city lists of the bakery backend.
type GeographyClient struct {
	bakeryClient
}

// NewGeographyClient creates a geography client for the bakery backend at baseURL.
func NewGeographyClient(baseURL string, hc *http.Client, log *logger.Logger) *GeographyClient {
	return &GeographyClient{bakeryClient: newBakeryClient("geography", baseURL, hc, log)}
}

type departmentDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type cityDTO struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	DepartmentID int64  `json:"departmentId"`
}

// Departments lists every department.
func (c *GeographyClient) Departments(ctx context.Context) ([]domain.Department, error) {
	var dtos []departmentDTO
	if err := c.do(ctx, http.MethodGet, "/geografia/departamentos", nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]domain.Department, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, domain.Department{ID: d.ID, Name: d.Name})
	}
	return out, nil
}

// Cities lists every city with its department.
func (c *GeographyClient) Cities(ctx context.Context) ([]domain.City, error) {
	var dtos []cityDTO
	if err := c.do(ctx, http.MethodGet, "/geografia/ciudades", nil, &dtos); err != nil {
		return nil, err
	}
	out := make([]domain.City, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, domain.City{ID: d.ID, Name: d.Name, DepartmentID: d.DepartmentID})
	}
	return out, nil
}
