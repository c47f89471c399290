package app

import "fmt"

// DomainError is the error shape the HTTP layer knows how to render: the
// status becomes the response code and Code/Message/Details become the JSON
// error body. Service methods return it for every expected failure, from a
// taken signup email to a verification code with no ledger entry.
type DomainError struct {
	Status  int
	Code    string
	Message string
	Details any
}

func (e *DomainError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func domainError(status int, code, message string, details any) *DomainError {
	return &DomainError{
		Status:  status,
		Code:    code,
		Message: message,
		Details: details,
	}
}
