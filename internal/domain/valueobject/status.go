package valueobject

import (
	"errors"
	"fmt"
)

// ---------------------------------------------------------------------------
// UserStatus – where a user stands in the boost funnel
// ---------------------------------------------------------------------------

// UserStatus is the lifecycle stage stored on a profile.
type UserStatus struct {
	value string
}

const (
	userStatusUnverified         = "unverified"
	userStatusVerified           = "verified"
	userStatusAssessmentComplete = "assessment_complete"
	userStatusPaymentPending     = "payment_pending"
	userStatusUnderReview        = "under_review"
	userStatusApproved           = "approved"
	userStatusDeclined           = "declined"
)

var (
	UserStatusUnverified         = UserStatus{value: userStatusUnverified}
	UserStatusVerified           = UserStatus{value: userStatusVerified}
	UserStatusAssessmentComplete = UserStatus{value: userStatusAssessmentComplete}
	UserStatusPaymentPending     = UserStatus{value: userStatusPaymentPending}
	UserStatusUnderReview        = UserStatus{value: userStatusUnderReview}
	UserStatusApproved           = UserStatus{value: userStatusApproved}
	UserStatusDeclined           = UserStatus{value: userStatusDeclined}
)

var validUserStatuses = map[string]UserStatus{
	userStatusUnverified:         UserStatusUnverified,
	userStatusVerified:           UserStatusVerified,
	userStatusAssessmentComplete: UserStatusAssessmentComplete,
	userStatusPaymentPending:     UserStatusPaymentPending,
	userStatusUnderReview:        UserStatusUnderReview,
	userStatusApproved:           UserStatusApproved,
	userStatusDeclined:           UserStatusDeclined,
}

// NewUserStatus parses a stored status.
func NewUserStatus(s string) (UserStatus, error) {
	v, ok := validUserStatuses[s]
	if !ok {
		return UserStatus{}, fmt.Errorf("invalid user status: %q", s)
	}
	return v, nil
}

func (s UserStatus) String() string              { return s.value }
func (s UserStatus) IsZero() bool                { return s.value == "" }
func (s UserStatus) Equal(other UserStatus) bool { return s.value == other.value }

// IsDecided is true once a reviewer approved or declined the boost.
func (s UserStatus) IsDecided() bool {
	return s == UserStatusApproved || s == UserStatusDeclined
}

// ---------------------------------------------------------------------------
// CheckoutState – the push-payment state machine around tier selection
// ---------------------------------------------------------------------------

// CheckoutState is the state of a tier checkout.
type CheckoutState struct {
	value string
}

const (
	checkoutIdle       = "idle"
	checkoutProcessing = "processing"
	checkoutWaiting    = "waiting"
	checkoutSuccess    = "success"
	checkoutFailed     = "failed"
	checkoutTimeout    = "timeout"
)

var (
	CheckoutIdle       = CheckoutState{value: checkoutIdle}
	CheckoutProcessing = CheckoutState{value: checkoutProcessing}
	CheckoutWaiting    = CheckoutState{value: checkoutWaiting}
	CheckoutSuccess    = CheckoutState{value: checkoutSuccess}
	CheckoutFailed     = CheckoutState{value: checkoutFailed}
	CheckoutTimeout    = CheckoutState{value: checkoutTimeout}
)

var validCheckoutStates = map[string]CheckoutState{
	checkoutIdle:       CheckoutIdle,
	checkoutProcessing: CheckoutProcessing,
	checkoutWaiting:    CheckoutWaiting,
	checkoutSuccess:    CheckoutSuccess,
	checkoutFailed:     CheckoutFailed,
	checkoutTimeout:    CheckoutTimeout,
}

// NewCheckoutState parses a stored checkout state.
func NewCheckoutState(s string) (CheckoutState, error) {
	v, ok := validCheckoutStates[s]
	if !ok {
		return CheckoutState{}, fmt.Errorf("invalid checkout state: %q", s)
	}
	return v, nil
}

func (s CheckoutState) String() string                 { return s.value }
func (s CheckoutState) IsZero() bool                   { return s.value == "" }
func (s CheckoutState) Equal(other CheckoutState) bool { return s.value == other.value }

// CanStart is true for states from which a push payment may be (re)initiated.
func (s CheckoutState) CanStart() bool {
	return s == CheckoutIdle || s == CheckoutFailed || s == CheckoutTimeout
}

// IsResolved is true once the waiting phase ended, successfully or not.
func (s CheckoutState) IsResolved() bool {
	return s == CheckoutSuccess || s == CheckoutFailed || s == CheckoutTimeout
}

// ---------------------------------------------------------------------------
// PaymentStatus / ApplicationStatus – recorded on an Application
// ---------------------------------------------------------------------------

// PaymentStatus is the fee payment outcome captured on an application.
type PaymentStatus struct {
	value string
}

var (
	PaymentStatusPending = PaymentStatus{value: "pending"}
	PaymentStatusSuccess = PaymentStatus{value: "success"}
	PaymentStatusFailed  = PaymentStatus{value: "failed"}
)

// NewPaymentStatus parses a stored payment status.
func NewPaymentStatus(s string) (PaymentStatus, error) {
	switch s {
	case "pending":
		return PaymentStatusPending, nil
	case "success":
		return PaymentStatusSuccess, nil
	case "failed":
		return PaymentStatusFailed, nil
	}
	return PaymentStatus{}, fmt.Errorf("invalid payment status: %q", s)
}

func (s PaymentStatus) String() string { return s.value }

// ApplicationStatus is the review decision on an application.
type ApplicationStatus struct {
	value string
}

var (
	ApplicationStatusPending  = ApplicationStatus{value: "pending"}
	ApplicationStatusApproved = ApplicationStatus{value: "approved"}
	ApplicationStatusDeclined = ApplicationStatus{value: "declined"}
)

// NewApplicationStatus parses a stored application status.
func NewApplicationStatus(s string) (ApplicationStatus, error) {
	switch s {
	case "pending":
		return ApplicationStatusPending, nil
	case "approved":
		return ApplicationStatusApproved, nil
	case "declined":
		return ApplicationStatusDeclined, nil
	}
	return ApplicationStatus{}, fmt.Errorf("invalid application status: %q", s)
}

func (s ApplicationStatus) String() string { return s.value }

// ---------------------------------------------------------------------------
// Sentinel errors
// ---------------------------------------------------------------------------

var (
	ErrInvalidStatusTransition   = errors.New("invalid status transition")
	ErrInvalidCheckoutTransition = errors.New("invalid checkout transition")
)
