package valueobject

import "fmt"

// BusinessType is the income source declared for an assessment.
type BusinessType string

const (
	BusinessTypeBusiness  BusinessType = "business"
	BusinessTypeSalary    BusinessType = "salary"
	BusinessTypeFreelance BusinessType = "freelance"
	BusinessTypeFarming   BusinessType = "farming"
)

// NewBusinessType parses a declared income source.
func NewBusinessType(s string) (BusinessType, error) {
	switch bt := BusinessType(s); bt {
	case BusinessTypeBusiness, BusinessTypeSalary, BusinessTypeFreelance, BusinessTypeFarming:
		return bt, nil
	}
	return "", fmt.Errorf("invalid business type: %q", s)
}

// Label is the wording used in scoring prompts.
func (b BusinessType) Label() string {
	switch b {
	case BusinessTypeBusiness:
		return "Business Owner"
	case BusinessTypeSalary:
		return "Salaried Employee"
	case BusinessTypeFreelance:
		return "Freelancer"
	case BusinessTypeFarming:
		return "Farmer"
	}
	return string(b)
}
