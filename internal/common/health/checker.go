package health

import "errors"

// Checker reports whether a component is able to do its job.
type Checker interface {
	Check() error
}

// StartupCompleteChecker fails until the owning component marks startup
// complete, keeping readiness probes red while caches warm and connections
// are established.
type StartupCompleteChecker struct {
	complete bool
}

func NewStartupCompleteChecker() *StartupCompleteChecker {
	return &StartupCompleteChecker{complete: false}
}

func (checker *StartupCompleteChecker) Check() error {
	if checker.complete {
		return nil
	}
	return errors.New("startup not complete")
}

func (checker *StartupCompleteChecker) MarkComplete() {
	checker.complete = true
}
