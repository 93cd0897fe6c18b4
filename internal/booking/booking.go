package booking

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"garde-booking/internal/status"
)

const (
	MinDurationHours = 3.0
	MaxDurationHours = 24.0

	MinChildren = 1
	MaxChildren = 10
)

// BookingRequest is the aggregate root: one customer-submitted childcare
// reservation. A record is in exactly one of {active, archived, trashed};
// ArchivedAt and DeletedAt are never both set.
type BookingRequest struct {
	ID     string      `json:"id"`
	Status status.Code `json:"status"`

	ParentName    string `json:"parentName"`
	ParentPhone   string `json:"parentPhone"`
	ParentEmail   string `json:"parentEmail,omitempty"`
	ParentAddress string `json:"parentAddress,omitempty"`

	ServiceType   string  `json:"serviceType"`
	RequestedDate string  `json:"requestedDate"` // YYYY-MM-DD
	StartTime     string  `json:"startTime"`     // HH:MM
	EndTime       string  `json:"endTime"`       // HH:MM
	DurationHours float64 `json:"durationHours"`

	ChildrenCount   int    `json:"childrenCount"`
	ChildrenDetails string `json:"childrenDetails,omitempty"`
	ChildrenAges    string `json:"childrenAges,omitempty"`

	EmergencyContactName  string `json:"emergencyContactName,omitempty"`
	EmergencyContactPhone string `json:"emergencyContactPhone,omitempty"`
	SpecialInstructions   string `json:"specialInstructions,omitempty"`

	EstimatedTotal decimal.Decimal `json:"estimatedTotal"`

	Source          string `json:"source,omitempty"`
	UTMSource       string `json:"utmSource,omitempty"`
	UTMMedium       string `json:"utmMedium,omitempty"`
	UTMCampaign     string `json:"utmCampaign,omitempty"`
	IPAddress       string `json:"ipAddress,omitempty"`
	UserAgent       string `json:"userAgent,omitempty"`
	CaptchaVerified bool   `json:"captchaVerified"`

	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
	ArchivedAt *time.Time `json:"archivedAt,omitempty"`
	DeletedAt  *time.Time `json:"deletedAt,omitempty"`
}

// Summary is the list-view projection used by the dashboard.
type Summary struct {
	ID             string          `json:"id"`
	Status         status.Code     `json:"status"`
	ParentName     string          `json:"parentName"`
	ParentPhone    string          `json:"parentPhone"`
	ServiceType    string          `json:"serviceType"`
	RequestedDate  string          `json:"requestedDate"`
	StartTime      string          `json:"startTime"`
	EndTime        string          `json:"endTime"`
	ChildrenCount  int             `json:"childrenCount"`
	EstimatedTotal decimal.Decimal `json:"estimatedTotal"`
	CreatedAt      time.Time       `json:"createdAt"`
	ArchivedAt     *time.Time      `json:"archivedAt,omitempty"`
	DeletedAt      *time.Time      `json:"deletedAt,omitempty"`
}

// CreateInput is the customer form payload. Struct tags cover shape checks;
// business rules are validated sequentially in Validate.
type CreateInput struct {
	ParentName    string `json:"parentName" validate:"required,max=255"`
	ParentPhone   string `json:"parentPhone" validate:"required,max=30"`
	ParentEmail   string `json:"parentEmail" validate:"omitempty,email"`
	ParentAddress string `json:"parentAddress" validate:"max=500"`

	ServiceType   string `json:"serviceType" validate:"required,max=100"`
	RequestedDate string `json:"requestedDate" validate:"required"`
	StartTime     string `json:"startTime" validate:"required"`
	EndTime       string `json:"endTime" validate:"required"`

	ChildrenCount   int    `json:"childrenCount" validate:"required"`
	ChildrenDetails string `json:"childrenDetails" validate:"max=2000"`
	ChildrenAges    string `json:"childrenAges" validate:"max=255"`

	EmergencyContactName  string `json:"emergencyContactName" validate:"max=255"`
	EmergencyContactPhone string `json:"emergencyContactPhone" validate:"max=30"`
	SpecialInstructions   string `json:"specialInstructions" validate:"max=2000"`

	CaptchaID     string `json:"captchaId"`
	CaptchaAnswer string `json:"captchaAnswer"`

	Source      string `json:"source"`
	UTMSource   string `json:"utmSource"`
	UTMMedium   string `json:"utmMedium"`
	UTMCampaign string `json:"utmCampaign"`
	IPAddress   string `json:"-"`
	UserAgent   string `json:"-"`
}

// DetailsUpdate carries the supplementary fields a requester submits through
// a details-request link. Blank fields leave the stored value untouched.
type DetailsUpdate struct {
	ChildrenDetails       string `json:"childrenDetails" validate:"max=2000"`
	ChildrenAges          string `json:"childrenAges" validate:"max=255"`
	EmergencyContactName  string `json:"emergencyContactName" validate:"max=255"`
	EmergencyContactPhone string `json:"emergencyContactPhone" validate:"max=30"`
	SpecialInstructions   string `json:"specialInstructions" validate:"max=2000"`
}

func (d DetailsUpdate) Empty() bool {
	return strings.TrimSpace(d.ChildrenDetails) == "" &&
		strings.TrimSpace(d.ChildrenAges) == "" &&
		strings.TrimSpace(d.EmergencyContactName) == "" &&
		strings.TrimSpace(d.EmergencyContactPhone) == "" &&
		strings.TrimSpace(d.SpecialInstructions) == ""
}

// Validate enforces the creation business rules and reports the first
// violated one. now anchors the non-past date check.
func (in CreateInput) Validate(now time.Time) error {
	if strings.TrimSpace(in.ParentName) == "" {
		return ValidationError{Code: "PARENT_NAME_REQUIRED", Message: "parent name is required"}
	}
	if strings.TrimSpace(in.ParentPhone) == "" {
		return ValidationError{Code: "PARENT_PHONE_REQUIRED", Message: "parent phone is required"}
	}
	if strings.TrimSpace(in.ServiceType) == "" {
		return ValidationError{Code: "SERVICE_TYPE_REQUIRED", Message: "service type is required"}
	}

	date, err := time.Parse("2006-01-02", in.RequestedDate)
	if err != nil {
		return ValidationError{Code: "REQUESTED_DATE_INVALID", Message: "requested date must be YYYY-MM-DD"}
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if date.Before(today) {
		return ValidationError{Code: "REQUESTED_DATE_PAST", Message: "requested date cannot be in the past"}
	}

	if _, err := parseClock(in.StartTime); err != nil {
		return ValidationError{Code: "START_TIME_INVALID", Message: "start time must be HH:MM"}
	}
	if _, err := parseClock(in.EndTime); err != nil {
		return ValidationError{Code: "END_TIME_INVALID", Message: "end time must be HH:MM"}
	}

	hours, err := DurationHours(in.StartTime, in.EndTime)
	if err != nil {
		return ValidationError{Code: "DURATION_INVALID", Message: err.Error()}
	}
	if hours < MinDurationHours || hours > MaxDurationHours {
		return ValidationError{
			Code:    "DURATION_OUT_OF_RANGE",
			Message: fmt.Sprintf("duration must be between %g and %g hours, got %g", MinDurationHours, MaxDurationHours, hours),
		}
	}

	if in.ChildrenCount < MinChildren || in.ChildrenCount > MaxChildren {
		return ValidationError{
			Code:    "CHILDREN_COUNT_OUT_OF_RANGE",
			Message: fmt.Sprintf("children count must be between %d and %d", MinChildren, MaxChildren),
		}
	}

	return nil
}

// DurationHours computes the booked duration from HH:MM clock times.
// An end time at or before the start time means the garde runs overnight
// into the next day (22:00-02:00 is 4 hours, never negative).
func DurationHours(start, end string) (float64, error) {
	s, err := parseClock(start)
	if err != nil {
		return 0, err
	}
	e, err := parseClock(end)
	if err != nil {
		return 0, err
	}
	if e <= s {
		e += 24 * 60
	}
	return float64(e-s) / 60.0, nil
}

// parseClock parses "HH:MM" into minutes since midnight.
func parseClock(v string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(v), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid time %q", v)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, fmt.Errorf("invalid hour in %q", v)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", v)
	}
	return h*60 + m, nil
}
