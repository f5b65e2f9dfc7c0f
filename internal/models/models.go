package models

import (
	"time"

	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending     Status = "Pending"
	StatusApproved    Status = "Approved"
	StatusRejected    Status = "Rejected"
	StatusUnderReview Status = "Under Review"
)

// Statuses lists every value the status column may hold.
var Statuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusUnderReview}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

// Education is one entry of the additional_education list.
type Education struct {
	Institution   string `json:"institution"`
	Qualification string `json:"qualification"`
	Year          string `json:"year"`
	Percentage    string `json:"percentage"`
}

type Application struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Personal
	FullName         string  `gorm:"not null" json:"full_name"`
	Email            string  `gorm:"uniqueIndex;not null" json:"email"`
	Mobile           string  `gorm:"not null" json:"mobile"`
	AltMobile        *string `json:"alt_mobile"`
	DateOfBirth      string  `gorm:"not null" json:"date_of_birth"`
	ParentName       string  `gorm:"not null" json:"parent_name"`
	Gender           string  `gorm:"not null" json:"gender"`
	MaritalStatus    *string `json:"marital_status"`
	Nationality      string  `gorm:"not null" json:"nationality"`
	CurrentAddress   string  `gorm:"type:text;not null" json:"current_address"`
	PermanentAddress string  `gorm:"type:text;not null" json:"permanent_address"`
	State            string  `gorm:"not null" json:"state"`
	City             string  `gorm:"not null" json:"city"`
	Zipcode          string  `gorm:"not null" json:"zipcode"`
	EmergencyContact string  `gorm:"not null" json:"emergency_contact"`

	// Schooling
	SSCBoard                string  `gorm:"column:ssc_board;not null" json:"ssc_board"`
	SSCYear                 int     `gorm:"column:ssc_year;not null" json:"ssc_year"`
	SSCPercentage           string  `gorm:"column:ssc_percentage;not null" json:"ssc_percentage"`
	IntermediateBoard       *string `json:"intermediate_board"`
	IntermediateYear        *int    `json:"intermediate_year"`
	IntermediatePercentage  *string `json:"intermediate_percentage"`
	CollegeName             *string `json:"college_name"`
	Qualification           *string `json:"qualification"`
	Branch                  *string `json:"branch"`
	GraduationYear          *int    `json:"graduation_year"`
	GraduationPercentage    *string `json:"graduation_percentage"`
	AdditionalEducationJSON datatypes.JSON `gorm:"column:additional_education" json:"-"`
	AdditionalEducation     []Education    `gorm:"-" json:"additional_education"`

	// Position
	JobRole           string   `gorm:"not null" json:"job_role"`
	PreferredLocation string   `gorm:"not null" json:"preferred_location"`
	ExpectedSalary    *float64 `json:"expected_salary"`
	NoticePeriod      string   `gorm:"not null" json:"notice_period"`
	Skills            string   `gorm:"type:text;not null" json:"skills"`
	Certifications    *string  `gorm:"type:text" json:"certifications"`

	// Experience
	ExperienceStatus string   `gorm:"not null" json:"experience_status"`
	YearsExperience  *int     `json:"years_experience"`
	CompanyName      *string  `json:"company_name"`
	Designation      *string  `json:"designation"`
	WorkLocation     *string  `json:"work_location"`
	StartDate        *string  `json:"start_date"`
	EndDate          *string  `json:"end_date"`
	LastSalary       *float64 `json:"last_salary"`

	// Links and references
	LinkedIn       *string `gorm:"column:linkedin" json:"linkedin"`
	GitHub         *string `gorm:"column:github" json:"github"`
	ReferenceName  *string `json:"reference_name"`
	ReferenceEmail *string `json:"reference_email"`

	// Attachments hold storage references, not paths.
	Resume      string  `gorm:"not null" json:"resume"`
	CoverLetter *string `json:"cover_letter"`

	SubmissionDate time.Time `gorm:"not null" json:"submission_date"`
	Status         Status    `gorm:"not null" json:"status"`
}

// ApplicationSummary is the projection used by the list view.
type ApplicationSummary struct {
	ID             uint      `json:"id"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email"`
	JobRole        string    `json:"job_role"`
	SubmissionDate time.Time `json:"submission_date"`
	Resume         string    `json:"resume"`
	CoverLetter    *string   `json:"cover_letter"`
	Status         Status    `json:"status"`
}

// AttachmentRefs are the storage references a deleted row pointed at.
type AttachmentRefs struct {
	Resume      string
	CoverLetter *string
}

func (r AttachmentRefs) All() []string {
	refs := make([]string, 0, 2)
	if r.Resume != "" {
		refs = append(refs, r.Resume)
	}
	if r.CoverLetter != nil && *r.CoverLetter != "" {
		refs = append(refs, *r.CoverLetter)
	}
	return refs
}
