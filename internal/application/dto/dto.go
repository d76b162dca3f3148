package dto

import (
	"io"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Request DTOs
// ---------------------------------------------------------------------------

// ProjectLimitRequest carries a limit check. SessionID ties the projection to
// the next step; a new one is issued when empty.
type ProjectLimitRequest struct {
	SessionID    string          `json:"session_id"`
	BaseLimit    decimal.Decimal `json:"base_limit"`
	PayFast      bool            `json:"pay_fast"`
	FrequentUser bool            `json:"frequent_user"`
	HighInflow   bool            `json:"high_inflow"`
	Stagnant     bool            `json:"stagnant"`
}

// RegisterProfileRequest creates a profile for an authenticated uid.
type RegisterProfileRequest struct {
	UID       string `json:"uid"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	SessionID string `json:"session_id"`
}

// Upload is one file of a KYC submission.
type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// SubmitKYCRequest carries the three identity documents.
type SubmitKYCRequest struct {
	UID     string
	IDFront Upload
	IDBack  Upload
	Selfie  Upload
}

// RunAssessmentRequest carries the assessment answers.
type RunAssessmentRequest struct {
	UID             string          `json:"uid"`
	MonthlyIncome   decimal.Decimal `json:"monthly_income"`
	BusinessType    string          `json:"business_type"`
	YearsInBusiness int             `json:"years_in_business"`
}

// ListPackagesRequest asks for the tiers available to a user or session.
type ListPackagesRequest struct {
	UID       string `json:"uid"`
	SessionID string `json:"session_id"`
}

// StartCheckoutRequest selects a tier and pushes the fee to a phone. Setting
// CheckoutID retries a failed or timed-out checkout for the same tier.
type StartCheckoutRequest struct {
	UID        string `json:"uid"`
	SessionID  string `json:"session_id"`
	Tier       string `json:"tier"`
	Phone      string `json:"phone"`
	CheckoutID string `json:"checkout_id"`
}

// CheckoutRef identifies a checkout owned by UID.
type CheckoutRef struct {
	UID        string `json:"uid"`
	CheckoutID string `json:"checkout_id"`
}

// PaymentCallback is an out-of-band payment result from the gateway.
type PaymentCallback struct {
	CheckoutRequestID string `json:"checkout_request_id"`
	TransactionID     string `json:"transaction_id"`
	Status            string `json:"status"`
	Reason            string `json:"reason"`
}

// ---------------------------------------------------------------------------
// Response DTOs
// ---------------------------------------------------------------------------

// ProjectionResponse is the outcome of a limit check.
type ProjectionResponse struct {
	SessionID       string          `json:"session_id"`
	BaseLimit       decimal.Decimal `json:"base_limit"`
	ProjectedLimit  decimal.Decimal `json:"projected_limit"`
	IncreasePercent int             `json:"increase_percent"`
	Capped          bool            `json:"capped"`
}

// ProfileResponse is the external representation of a profile.
type ProfileResponse struct {
	UID             string          `json:"uid"`
	FullName        string          `json:"full_name"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	Status          string          `json:"status"`
	IDFrontURL      string          `json:"id_front_url,omitempty"`
	IDBackURL       string          `json:"id_back_url,omitempty"`
	SelfieURL       string          `json:"selfie_url,omitempty"`
	DeclaredLimit   decimal.Decimal `json:"declared_limit"`
	EligibleLimit   decimal.Decimal `json:"eligible_limit"`
	MonthlyIncome   decimal.Decimal `json:"monthly_income"`
	BusinessType    string          `json:"business_type,omitempty"`
	YearsInBusiness int             `json:"years_in_business"`
	CreditScore     int             `json:"credit_score"`
	Report          string          `json:"report,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// AssessmentResponse is the result of an assessment run.
type AssessmentResponse struct {
	CreditScore   int             `json:"credit_score"`
	EligibleLimit decimal.Decimal `json:"eligible_limit"`
	Report        string          `json:"report"`
	Source        string          `json:"source"`
	Profile       ProfileResponse `json:"profile"`
}

// TierResponse is one priced package.
type TierResponse struct {
	ID          string          `json:"id"`
	DisplayName string          `json:"display_name"`
	Limit       decimal.Decimal `json:"limit"`
	Fee         decimal.Decimal `json:"fee"`
	FeeLabel    string          `json:"fee_label"`
}

// PackagesResponse lists the tiers and the limit they were derived from.
type PackagesResponse struct {
	MaxLimit decimal.Decimal `json:"max_limit"`
	Source   string          `json:"source"`
	Tiers    []TierResponse  `json:"tiers"`
}

// CheckoutResponse is the state of a checkout.
type CheckoutResponse struct {
	ID                string        `json:"id"`
	Tier              TierResponse  `json:"tier"`
	State             string        `json:"state"`
	Phone             string        `json:"phone"`
	CheckoutRequestID string        `json:"checkout_request_id,omitempty"`
	FailureReason     string        `json:"failure_reason,omitempty"`
	Attempts          int           `json:"attempts"`
	Remaining         time.Duration `json:"remaining"`
	ApplicationID     string        `json:"application_id,omitempty"`
}

// ApplicationResponse is the external representation of an application.
type ApplicationResponse struct {
	ID                string          `json:"id"`
	Tier              string          `json:"selected_package"`
	RequestedLimit    decimal.Decimal `json:"requested_limit"`
	ServiceFee        decimal.Decimal `json:"service_fee"`
	TransactionID     string          `json:"transaction_id"`
	PaymentStatus     string          `json:"payment_status"`
	ApplicationStatus string          `json:"application_status"`
	CreatedAt         time.Time       `json:"created_at"`
}

// DashboardResponse summarizes a user's standing.
type DashboardResponse struct {
	Profile       ProfileResponse       `json:"profile"`
	ScorePercent  int                   `json:"score_percent"`
	HasPendingApp bool                  `json:"has_pending_application"`
	Applications  []ApplicationResponse `json:"applications"`
}

// ExportResponse points at an exported master record.
type ExportResponse struct {
	URL  string `json:"url"`
	Rows int    `json:"rows"`
}
