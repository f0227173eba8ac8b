package core

import (
	"fmt"

	apperrors "parkly/pkg/errors"
)

// maxConcurrentCalls caps the total outbound API fan-out across all flows
// running in this process.
const maxConcurrentCalls = 40

var requestLimiter = make(chan struct{}, maxConcurrentCalls)

// RunLimited executes fn while holding a semaphore slot. The deferred
// release keeps the slot from leaking even if fn panics.
func RunLimited(fn func()) {
	requestLimiter <- struct{}{}
	defer func() { <-requestLimiter }()
	fn()
}

func IsMissing(str string) bool {
	return len(str) == 0
}

func MissingParamErr(paramName string) error {
	return apperrors.InvalidInput(fmt.Sprintf("Required param [%v] is missing", paramName))
}
