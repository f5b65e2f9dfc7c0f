package validation

import (
	"fmt"
	"strings"

	"github.com/justsurfingit/Job-Application-Portal/internal/apperrors"
)

// Group is a set of fields that must be filled in together or not at all.
type Group struct {
	Name   string
	Fields []string
}

var (
	IntermediateGroup = Group{
		Name:   "intermediate",
		Fields: []string{"intermediate_board", "intermediate_year", "intermediate_percentage"},
	}
	GraduationGroup = Group{
		Name:   "graduation",
		Fields: []string{"college_name", "qualification", "branch", "graduation_year", "graduation_percentage"},
	}
	ExperienceGroup = Group{
		Name:   "experience",
		Fields: []string{"years_experience", "company_name", "designation", "work_location", "start_date", "end_date"},
	}
)

// Present returns the group fields that carry a non-blank value, in
// declaration order.
func (g Group) Present(fields Fields) []string {
	var present []string
	for _, name := range g.Fields {
		if fields.text(name) != "" {
			present = append(present, name)
		}
	}
	return present
}

func (g Group) Missing(fields Fields) []string {
	var missing []string
	for _, name := range g.Fields {
		if fields.text(name) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// Check accepts the group when none or all of its fields are present.
func (g Group) Check(fields Fields) error {
	n := len(g.Present(fields))
	if n == 0 || n == len(g.Fields) {
		return nil
	}
	return g.incomplete(fields)
}

// Require accepts the group only when all of its fields are present.
func (g Group) Require(fields Fields) error {
	if len(g.Present(fields)) == len(g.Fields) {
		return nil
	}
	return g.incomplete(fields)
}

func (g Group) incomplete(fields Fields) error {
	missing := g.Missing(fields)
	return &apperrors.Error{
		Kind:    apperrors.KindValidation,
		Message: fmt.Sprintf("Incomplete %s details: %s required", g.Name, strings.Join(missing, ", ")),
		Missing: missing,
	}
}
