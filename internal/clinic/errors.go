package clinic

import (
	"errors"
	"fmt"
)

var (
	ErrPlanNotFound        = errors.New("plan not found")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("appointment not found")

	ErrPlanIDTaken      = errors.New("plan id already registered")
	ErrTaxIDTaken       = errors.New("tax id already registered")
	ErrLicenseTaken     = errors.New("license number already registered")
	ErrScheduleConflict = errors.New("an appointment already exists for this doctor at this time")
)

// ValidationError marks missing or malformed input on a core operation.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// PlanNotAcceptedError is returned when an appointment names a doctor that
// does not accept the patient's plan.
type PlanNotAcceptedError struct {
	DoctorName string
	PlanName   string
}

func (e *PlanNotAcceptedError) Error() string {
	return fmt.Sprintf("doctor %s does not accept plan %s", e.DoctorName, e.PlanName)
}

// PlanInUseError blocks plan deletion and carries the dependency counts so
// the caller can report exactly which entities are in the way.
type PlanInUseError struct {
	PlanName string
	Doctors  int64
	Patients int64
}

func (e *PlanInUseError) Error() string {
	return fmt.Sprintf("cannot delete plan %q: referenced by %d doctor(s) and %d patient(s)",
		e.PlanName, e.Doctors, e.Patients)
}

// IsRuleViolation reports whether err is a business-rule failure, as opposed
// to a missing entity or a storage problem. The HTTP layer maps these to 400.
func IsRuleViolation(err error) bool {
	var notAccepted *PlanNotAcceptedError
	var inUse *PlanInUseError
	return errors.Is(err, ErrPlanIDTaken) ||
		errors.Is(err, ErrTaxIDTaken) ||
		errors.Is(err, ErrLicenseTaken) ||
		errors.Is(err, ErrScheduleConflict) ||
		errors.As(err, &notAccepted) ||
		errors.As(err, &inUse)
}

// IsNotFound reports whether err means a referenced entity is absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrPlanNotFound) ||
		errors.Is(err, ErrDoctorNotFound) ||
		errors.Is(err, ErrPatientNotFound) ||
		errors.Is(err, ErrAppointmentNotFound)
}
