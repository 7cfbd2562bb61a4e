package domain

import (
	"fmt"
	"strings"
)

// Department is a Colombian department shipping can go to.
type Department struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// City belongs to exactly one department.
type City struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	DepartmentID int64  `json:"department_id"`
}

// Geography is the full department and city list.
type Geography struct {
	Departments []Department
	Cities      []City
}

// GeographyView is the location picker of the shipping and register forms.
type GeographyView struct {
	Status      LoadStatus   `json:"status"`
	Departments []Department `json:"departments,omitempty"`
	Cities      []City       `json:"cities,omitempty"`
	Error       string       `json:"error,omitempty"`
}

func (g *Geography) department(name string) (Department, bool) {
	for _, d := range g.Departments {
		if strings.EqualFold(d.Name, name) {
			return d, true
		}
	}
	return Department{}, false
}

// CitiesOf lists the cities of the named department.
func (g *Geography) CitiesOf(department string) []City {
	d, ok := g.department(department)
	if !ok {
		return nil
	}
	var out []City
	for _, c := range g.Cities {
		if c.DepartmentID == d.ID {
			out = append(out, c)
		}
	}
	return out
}

// Check reports whether department is known and city lies in it. Empty
// values pass; completeness is checked on submission.
func (g *Geography) Check(department, city string) error {
	if department == "" {
		if city != "" {
			return fmt.Errorf("%w: city %s without a department", ErrValidation, city)
		}
		return nil
	}
	if _, ok := g.department(department); !ok {
		return fmt.Errorf("%w: unknown department %s", ErrValidation, department)
	}
	if city == "" {
		return nil
	}
	for _, c := range g.CitiesOf(department) {
		if strings.EqualFold(c.Name, city) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s is not a city of %s", ErrValidation, city, department)
}
