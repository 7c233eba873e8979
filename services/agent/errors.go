package agent

import "fmt"

const (
	CodePlanNotFound     = "planNotFound"
	CodeNoGeneratedPlans = "noGeneratedPlans"
	CodeIndexOutOfRange  = "indexOutOfRange"
)

type PlanError struct {
	Code    string
	Message string
}

func (e *PlanError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Is matches any PlanError with the same code, so callers can compare with
// the sentinels below.
func (e *PlanError) Is(target error) bool {
	t, ok := target.(*PlanError)
	return ok && t.Code == e.Code
}

var (
	ErrPlanNotFound     = &PlanError{Code: CodePlanNotFound, Message: "travel plan not found"}
	ErrNoGeneratedPlans = &PlanError{Code: CodeNoGeneratedPlans, Message: "plan has no generated variants"}
	ErrIndexOutOfRange  = &PlanError{Code: CodeIndexOutOfRange, Message: "plan index out of range"}
)

func newPlanNotFound(planID string) error {
	return &PlanError{Code: CodePlanNotFound, Message: fmt.Sprintf("travel plan %s not found", planID)}
}

func newIndexOutOfRange(index, count int) error {
	return &PlanError{
		Code:    CodeIndexOutOfRange,
		Message: fmt.Sprintf("plan index %d out of range, plan has %d variants", index, count),
	}
}
