// Package validation turns a raw submission into a typed application record.
package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/justsurfingit/Job-Application-Portal/internal/apperrors"
	"github.com/justsurfingit/Job-Application-Portal/internal/models"
)

const experiencedStatus = "Experienced"

// RequiredFields must be present on every submission. An empty string counts
// as present; only an absent key (or nil value) is missing.
var RequiredFields = []string{
	"full_name", "email", "mobile", "date_of_birth", "parent_name", "gender",
	"nationality", "current_address", "permanent_address", "state", "city",
	"zipcode", "emergency_contact", "ssc_board", "ssc_year", "ssc_percentage",
	"job_role", "preferred_location", "notice_period", "skills", "experience_status",
}

// Fields holds the submitted form values keyed by field name. Values are
// strings, except additional_education which may also be a decoded list.
type Fields map[string]any

func (f Fields) has(name string) bool {
	v, ok := f[name]
	return ok && v != nil
}

func (f Fields) text(name string) string {
	switch v := f[name].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case []string:
		if len(v) == 0 {
			return ""
		}
		return strings.TrimSpace(v[0])
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func (f Fields) optional(name string) *string {
	v := f.text(name)
	if v == "" {
		return nil
	}
	return &v
}

// Attachments are the storage references of the files saved for a
// submission.
type Attachments struct {
	Resume      string
	CoverLetter string
}

// Validate checks a submission and builds the record to persist. The
// returned record always has status Pending and submission date now.
func Validate(fields Fields, refs Attachments, now time.Time) (*models.Application, error) {
	var missing []string
	for _, name := range RequiredFields {
		if !fields.has(name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.MissingFields(missing)
	}

	if strings.TrimSpace(refs.Resume) == "" {
		return nil, apperrors.New(apperrors.KindResumeRequired, "Resume file is required", nil)
	}

	sscYear, err := requiredInt(fields, "ssc_year")
	if err != nil {
		return nil, err
	}
	intermediateYear, err := optionalInt(fields, "intermediate_year")
	if err != nil {
		return nil, err
	}
	graduationYear, err := optionalInt(fields, "graduation_year")
	if err != nil {
		return nil, err
	}
	yearsExperience, err := optionalInt(fields, "years_experience")
	if err != nil {
		return nil, err
	}

	if err := IntermediateGroup.Check(fields); err != nil {
		return nil, err
	}
	if err := GraduationGroup.Check(fields); err != nil {
		return nil, err
	}
	if fields.text("experience_status") == experiencedStatus {
		err = ExperienceGroup.Require(fields)
	} else {
		err = ExperienceGroup.Check(fields)
	}
	if err != nil {
		return nil, err
	}

	education, err := DecodeEducation(fields["additional_education"])
	if err != nil {
		return nil, err
	}

	expectedSalary, err := optionalFloat(fields, "expected_salary")
	if err != nil {
		return nil, err
	}
	lastSalary, err := optionalFloat(fields, "last_salary")
	if err != nil {
		return nil, err
	}

	app := &models.Application{
		FullName:         fields.text("full_name"),
		Email:            fields.text("email"),
		Mobile:           fields.text("mobile"),
		AltMobile:        fields.optional("alt_mobile"),
		DateOfBirth:      fields.text("date_of_birth"),
		ParentName:       fields.text("parent_name"),
		Gender:           fields.text("gender"),
		MaritalStatus:    fields.optional("marital_status"),
		Nationality:      fields.text("nationality"),
		CurrentAddress:   fields.text("current_address"),
		PermanentAddress: fields.text("permanent_address"),
		State:            fields.text("state"),
		City:             fields.text("city"),
		Zipcode:          fields.text("zipcode"),
		EmergencyContact: fields.text("emergency_contact"),

		SSCBoard:               fields.text("ssc_board"),
		SSCYear:                sscYear,
		SSCPercentage:          fields.text("ssc_percentage"),
		IntermediateBoard:      fields.optional("intermediate_board"),
		IntermediateYear:       intermediateYear,
		IntermediatePercentage: fields.optional("intermediate_percentage"),
		CollegeName:            fields.optional("college_name"),
		Qualification:          fields.optional("qualification"),
		Branch:                 fields.optional("branch"),
		GraduationYear:         graduationYear,
		GraduationPercentage:   fields.optional("graduation_percentage"),
		AdditionalEducation:    education,

		JobRole:           fields.text("job_role"),
		PreferredLocation: fields.text("preferred_location"),
		ExpectedSalary:    expectedSalary,
		NoticePeriod:      fields.text("notice_period"),
		Skills:            fields.text("skills"),
		Certifications:    fields.optional("certifications"),

		ExperienceStatus: fields.text("experience_status"),
		YearsExperience:  yearsExperience,
		CompanyName:      fields.optional("company_name"),
		Designation:      fields.optional("designation"),
		WorkLocation:     fields.optional("work_location"),
		StartDate:        fields.optional("start_date"),
		EndDate:          fields.optional("end_date"),
		LastSalary:       lastSalary,

		LinkedIn:       fields.optional("linkedin"),
		GitHub:         fields.optional("github"),
		ReferenceName:  fields.optional("reference_name"),
		ReferenceEmail: fields.optional("reference_email"),

		Resume:         strings.TrimSpace(refs.Resume),
		SubmissionDate: now,
		Status:         models.StatusPending,
	}
	if refs.CoverLetter != "" {
		cover := refs.CoverLetter
		app.CoverLetter = &cover
	}
	return app, nil
}

func requiredInt(fields Fields, name string) (int, error) {
	v, err := optionalInt(fields, name)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, apperrors.Validation(fmt.Sprintf("%s must be a whole number", name))
	}
	return *v, nil
}

func optionalInt(fields Fields, name string) (*int, error) {
	raw := fields.text(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return nil, apperrors.Validation(fmt.Sprintf("%s must be a whole number, got %q", name, raw))
	}
	v := int(n)
	return &v, nil
}

func optionalFloat(fields Fields, name string) (*float64, error) {
	raw := fields.text(name)
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, apperrors.Validation(fmt.Sprintf("%s must be a number, got %q", name, raw))
	}
	return &f, nil
}

// DecodeEducation accepts the additional_education value either as JSON
// text or as an already decoded list, and checks every entry is complete.
func DecodeEducation(value any) ([]models.Education, error) {
	var entries []any
	switch v := value.(type) {
	case nil:
		return []models.Education{}, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return []models.Education{}, nil
		}
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return nil, apperrors.Validation("additional_education is not valid JSON")
		}
		list, ok := decoded.([]any)
		if !ok {
			return nil, apperrors.Validation("additional_education must be a list")
		}
		entries = list
	case []string:
		if len(v) == 0 {
			return []models.Education{}, nil
		}
		return DecodeEducation(v[0])
	case []models.Education:
		for i, e := range v {
			if err := checkEducation(i, e); err != nil {
				return nil, err
			}
		}
		return v, nil
	case []map[string]any:
		for _, m := range v {
			entries = append(entries, m)
		}
	case []any:
		entries = v
	default:
		return nil, apperrors.Validation("additional_education must be a list")
	}

	out := make([]models.Education, 0, len(entries))
	for i, raw := range entries {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, apperrors.Validation(fmt.Sprintf("additional_education[%d] must be an object", i))
		}
		entry := Fields(m)
		e := models.Education{
			Institution:   entry.text("institution"),
			Qualification: entry.text("qualification"),
			Year:          entry.text("year"),
			Percentage:    entry.text("percentage"),
		}
		if err := checkEducation(i, e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func checkEducation(i int, e models.Education) error {
	var missing []string
	if strings.TrimSpace(e.Institution) == "" {
		missing = append(missing, "institution")
	}
	if strings.TrimSpace(e.Qualification) == "" {
		missing = append(missing, "qualification")
	}
	if strings.TrimSpace(e.Year) == "" {
		missing = append(missing, "year")
	}
	if strings.TrimSpace(e.Percentage) == "" {
		missing = append(missing, "percentage")
	}
	if len(missing) == 0 {
		return nil
	}
	return apperrors.Validation(fmt.Sprintf("additional_education[%d] is missing %s", i, strings.Join(missing, ", ")))
}
