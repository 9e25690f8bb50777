// Package model defines the data types shared across the enrichment core.
package model

import "time"

// Subject is the deceased individual being enriched. Popularity drives
// batch selection upstream and is carried here only for reporting context.
type Subject struct {
	ID         string            `json:"id" yaml:"id"`
	Name       string            `json:"name" yaml:"name"`
	BirthYear  int               `json:"birth_year,omitempty" yaml:"birth_year,omitempty"`
	DeathDate  *time.Time        `json:"death_date,omitempty" yaml:"death_date,omitempty"`
	DeathYear  int               `json:"death_year,omitempty" yaml:"death_year,omitempty"`
	Known      map[string]string `json:"known,omitempty" yaml:"known,omitempty"`
	Popularity float64           `json:"popularity,omitempty" yaml:"popularity,omitempty"`
}

// DeathYearOrZero returns the death year from DeathDate when set, falling
// back to the explicit DeathYear field.
func (s Subject) DeathYearOrZero() int {
	if s.DeathDate != nil {
		return s.DeathDate.Year()
	}
	return s.DeathYear
}
