package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/barkshad/fuliza/internal/domain/event"
	"github.com/barkshad/fuliza/internal/domain/valueobject"
	"github.com/barkshad/fuliza/pkg/events"
)

// ErrProfileNotFound is returned by stores when no profile exists for a uid.
var ErrProfileNotFound = errors.New("profile not found")

// KYCDocuments are the hosted URLs of the identity documents.
type KYCDocuments struct {
	IDFrontURL string `json:"id_front_url"`
	IDBackURL  string `json:"id_back_url"`
	SelfieURL  string `json:"selfie_url"`
}

// Complete is true when all three documents are present.
func (d KYCDocuments) Complete() bool {
	return d.IDFrontURL != "" && d.IDBackURL != "" && d.SelfieURL != ""
}

// ---------------------------------------------------------------------------
// Profile aggregate root
// ---------------------------------------------------------------------------

// Profile is an immutable aggregate. Every mutation returns a new copy.
type Profile struct {
	uid             string
	fullName        string
	email           string
	phone           valueobject.PhoneNumber
	documents       KYCDocuments
	status          valueobject.UserStatus
	declaredLimit   decimal.Decimal
	eligibleLimit   decimal.Decimal
	monthlyIncome   decimal.Decimal
	businessType    valueobject.BusinessType
	yearsInBusiness int
	creditScore     int
	report          string
	version         int
	createdAt       time.Time
	updatedAt       time.Time
	events          events.EventCollector
}

// NewProfile registers an unverified user.
func NewProfile(uid, fullName, email, phone string, now time.Time) (Profile, error) {
	if uid == "" {
		return Profile{}, errors.New("uid is required")
	}
	if fullName == "" {
		return Profile{}, errors.New("full name is required")
	}
	p, err := valueobject.NewPhoneNumber(phone)
	if err != nil {
		return Profile{}, err
	}

	profile := Profile{
		uid:       uid,
		fullName:  fullName,
		email:     email,
		phone:     p,
		status:    valueobject.UserStatusUnverified,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}
	profile.events = profile.events.Record(event.NewProfileRegistered(uid, profile.status.String()))
	return profile, nil
}

// ProfileSnapshot is the flat persisted form of a Profile.
type ProfileSnapshot struct {
	UID             string          `json:"uid"`
	FullName        string          `json:"full_name"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	Documents       KYCDocuments    `json:"documents"`
	Status          string          `json:"status"`
	DeclaredLimit   decimal.Decimal `json:"declared_limit"`
	EligibleLimit   decimal.Decimal `json:"eligible_limit"`
	MonthlyIncome   decimal.Decimal `json:"monthly_income"`
	BusinessType    string          `json:"business_type,omitempty"`
	YearsInBusiness int             `json:"years_in_business"`
	CreditScore     int             `json:"credit_score"`
	Report          string          `json:"report"`
	Version         int             `json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ReconstructProfile rebuilds an aggregate from persistence without side-effects.
func ReconstructProfile(s ProfileSnapshot) (Profile, error) {
	status, err := valueobject.NewUserStatus(s.Status)
	if err != nil {
		return Profile{}, err
	}
	var phone valueobject.PhoneNumber
	if s.Phone != "" {
		if phone, err = valueobject.NewPhoneNumber(s.Phone); err != nil {
			return Profile{}, err
		}
	}
	return Profile{
		uid:             s.UID,
		fullName:        s.FullName,
		email:           s.Email,
		phone:           phone,
		documents:       s.Documents,
		status:          status,
		declaredLimit:   s.DeclaredLimit,
		eligibleLimit:   s.EligibleLimit,
		monthlyIncome:   s.MonthlyIncome,
		businessType:    valueobject.BusinessType(s.BusinessType),
		yearsInBusiness: s.YearsInBusiness,
		creditScore:     s.CreditScore,
		report:          s.Report,
		version:         s.Version,
		createdAt:       s.CreatedAt,
		updatedAt:       s.UpdatedAt,
	}, nil
}

// Snapshot flattens the aggregate for persistence.
func (p Profile) Snapshot() ProfileSnapshot {
	return ProfileSnapshot{
		UID:             p.uid,
		FullName:        p.fullName,
		Email:           p.email,
		Phone:           p.phone.String(),
		Documents:       p.documents,
		Status:          p.status.String(),
		DeclaredLimit:   p.declaredLimit,
		EligibleLimit:   p.eligibleLimit,
		MonthlyIncome:   p.monthlyIncome,
		BusinessType:    string(p.businessType),
		YearsInBusiness: p.yearsInBusiness,
		CreditScore:     p.creditScore,
		Report:          p.report,
		Version:         p.version,
		CreatedAt:       p.createdAt,
		UpdatedAt:       p.updatedAt,
	}
}

// ---------------------------------------------------------------------------
// State transitions (each returns a new copy)
// ---------------------------------------------------------------------------

func (p Profile) next(now time.Time) Profile {
	n := p
	n.version++
	n.updatedAt = now
	return n
}

func (p Profile) editable() error {
	if p.status.IsDecided() || p.status.Equal(valueobject.UserStatusUnderReview) {
		return fmt.Errorf("%w: profile is %s", valueobject.ErrInvalidStatusTransition, p.status)
	}
	return nil
}

// ApplyProjection adopts a limit check made before sign-up: the projected
// limit becomes the eligible limit and the assessment counts as done.
func (p Profile) ApplyProjection(proj LimitProjection, now time.Time) (Profile, error) {
	if err := p.editable(); err != nil {
		return p, err
	}
	n := p.next(now)
	n.declaredLimit = proj.BaseLimit
	n.eligibleLimit = proj.ProjectedLimit
	n.status = valueobject.UserStatusAssessmentComplete
	return n, nil
}

// AttachDocuments stores the KYC document URLs and marks the user verified.
func (p Profile) AttachDocuments(docs KYCDocuments, now time.Time) (Profile, error) {
	if err := p.editable(); err != nil {
		return p, err
	}
	if !docs.Complete() {
		return p, errors.New("all three KYC documents are required")
	}
	n := p.next(now)
	n.documents = docs
	n.status = valueobject.UserStatusVerified
	n.events = n.events.Record(event.NewKYCVerified(p.uid))
	return n, nil
}

// ApplyAssessment merges an assessment, overwriting any earlier one.
func (p Profile) ApplyAssessment(in AssessmentInput, res AssessmentResult, now time.Time) (Profile, error) {
	if err := p.editable(); err != nil {
		return p, err
	}
	n := p.next(now)
	n.monthlyIncome = in.MonthlyIncome
	n.businessType = in.BusinessType
	n.yearsInBusiness = in.YearsInBusiness
	n.creditScore = res.CreditScore
	n.eligibleLimit = res.EligibleLimit
	n.report = res.Report
	n.status = valueobject.UserStatusAssessmentComplete
	n.events = n.events.Record(event.NewAssessmentCompleted(p.uid, res.CreditScore, res.EligibleLimit, string(res.Source)))
	return n, nil
}

// MarkPaymentPending records that a fee push is in flight.
func (p Profile) MarkPaymentPending(now time.Time) (Profile, error) {
	if err := p.editable(); err != nil {
		return p, err
	}
	n := p.next(now)
	n.status = valueobject.UserStatusPaymentPending
	return n, nil
}

// MarkUnderReview records a paid application awaiting review.
func (p Profile) MarkUnderReview(now time.Time) (Profile, error) {
	if p.status.IsDecided() {
		return p, fmt.Errorf("%w: profile is %s", valueobject.ErrInvalidStatusTransition, p.status)
	}
	n := p.next(now)
	n.status = valueobject.UserStatusUnderReview
	return n, nil
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

func (p Profile) UID() string                            { return p.uid }
func (p Profile) FullName() string                       { return p.fullName }
func (p Profile) Email() string                          { return p.email }
func (p Profile) Phone() valueobject.PhoneNumber         { return p.phone }
func (p Profile) Documents() KYCDocuments                { return p.documents }
func (p Profile) Status() valueobject.UserStatus         { return p.status }
func (p Profile) DeclaredLimit() decimal.Decimal         { return p.declaredLimit }
func (p Profile) EligibleLimit() decimal.Decimal         { return p.eligibleLimit }
func (p Profile) MonthlyIncome() decimal.Decimal         { return p.monthlyIncome }
func (p Profile) BusinessType() valueobject.BusinessType { return p.businessType }
func (p Profile) YearsInBusiness() int                   { return p.yearsInBusiness }
func (p Profile) CreditScore() int                       { return p.creditScore }
func (p Profile) Report() string                         { return p.report }
func (p Profile) Version() int                           { return p.version }
func (p Profile) CreatedAt() time.Time                   { return p.createdAt }
func (p Profile) UpdatedAt() time.Time                   { return p.updatedAt }
func (p Profile) DomainEvents() []event.DomainEvent      { return p.events.Events() }

// ClearEvents returns a copy with an empty event list (call after publishing).
func (p Profile) ClearEvents() Profile {
	n := p
	n.events = events.EventCollector{}
	return n
}
