package booking

import (
	"errors"
	"testing"
	"time"
)

func TestDurationHours(t *testing.T) {
	cases := []struct {
		start, end string
		want       float64
	}{
		{"09:00", "13:00", 4},
		{"22:00", "02:00", 4}, // overnight wraparound
		{"23:30", "03:00", 3.5},
		{"08:00", "08:00", 24}, // end == start means a full day
		{"00:00", "23:30", 23.5},
	}
	for _, c := range cases {
		got, err := DurationHours(c.start, c.end)
		if err != nil {
			t.Fatalf("%s-%s: unexpected error: %v", c.start, c.end, err)
		}
		if got != c.want {
			t.Fatalf("%s-%s: expected %g hours, got %g", c.start, c.end, c.want, got)
		}
	}
}

func TestDurationHours_InvalidClock(t *testing.T) {
	for _, v := range []string{"25:00", "09:60", "0900", "", "abc"} {
		if _, err := DurationHours(v, "12:00"); err == nil {
			t.Fatalf("expected error for start %q", v)
		}
		if _, err := DurationHours("09:00", v); err == nil {
			t.Fatalf("expected error for end %q", v)
		}
	}
}

func TestValidate_ReportsFirstViolatedRule(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)

	base := CreateInput{
		ParentName:    "Marie Dupont",
		ParentPhone:   "+33612345678",
		ServiceType:   "babysitting",
		RequestedDate: "2026-09-07",
		StartTime:     "09:00",
		EndTime:       "13:00",
		ChildrenCount: 2,
	}

	cases := []struct {
		name   string
		mutate func(*CreateInput)
		code   string
	}{
		{"missing name", func(in *CreateInput) { in.ParentName = "  " }, "PARENT_NAME_REQUIRED"},
		{"missing phone", func(in *CreateInput) { in.ParentPhone = "" }, "PARENT_PHONE_REQUIRED"},
		{"missing service", func(in *CreateInput) { in.ServiceType = "" }, "SERVICE_TYPE_REQUIRED"},
		{"bad date", func(in *CreateInput) { in.RequestedDate = "07/09/2026" }, "REQUESTED_DATE_INVALID"},
		{"past date", func(in *CreateInput) { in.RequestedDate = "2026-08-30" }, "REQUESTED_DATE_PAST"},
		{"bad start", func(in *CreateInput) { in.StartTime = "9h00" }, "START_TIME_INVALID"},
		{"bad end", func(in *CreateInput) { in.EndTime = "26:00" }, "END_TIME_INVALID"},
		{"too short", func(in *CreateInput) { in.EndTime = "10:00" }, "DURATION_OUT_OF_RANGE"},
		{"no children", func(in *CreateInput) { in.ChildrenCount = 0 }, "CHILDREN_COUNT_OUT_OF_RANGE"},
		{"too many children", func(in *CreateInput) { in.ChildrenCount = 11 }, "CHILDREN_COUNT_OUT_OF_RANGE"},
	}

	for _, c := range cases {
		in := base
		c.mutate(&in)
		err := in.Validate(now)
		var verr ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("%s: expected ValidationError, got %v", c.name, err)
		}
		if verr.Code != c.code {
			t.Fatalf("%s: expected code %s, got %s", c.name, c.code, verr.Code)
		}
	}

	if err := base.Validate(now); err != nil {
		t.Fatalf("valid input should pass, got %v", err)
	}
}

func TestValidate_SameDayIsNotPast(t *testing.T) {
	now := time.Date(2026, 8, 31, 23, 0, 0, 0, time.UTC)
	in := CreateInput{
		ParentName:    "Marie Dupont",
		ParentPhone:   "+33612345678",
		ServiceType:   "babysitting",
		RequestedDate: "2026-08-31",
		StartTime:     "09:00",
		EndTime:       "13:00",
		ChildrenCount: 1,
	}
	if err := in.Validate(now); err != nil {
		t.Fatalf("same-day booking should be allowed, got %v", err)
	}
}
