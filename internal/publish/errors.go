package publish

import (
	"errors"
	"fmt"
	"math/big"
)

// FallbackRequiredError is returned when the sponsored path reports
// insufficient budget and the caller has not yet confirmed the
// user-paid fallback. Nothing has been committed at that point, so
// declining leaves draft and canonical state untouched.
type FallbackRequiredError struct {
	RequiredWei *big.Int
	BalanceWei  *big.Int
}

func (e *FallbackRequiredError) Error() string {
	return "relay budget exhausted; wallet fallback requires confirmation"
}

// MediaUploadError names the field whose upload aborted the publish.
type MediaUploadError struct {
	Field string
	Err   error
}

func (e *MediaUploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Field, e.Err)
}

func (e *MediaUploadError) Unwrap() error { return e.Err }

type MasterUploadError struct {
	Err error
}

func (e *MasterUploadError) Error() string {
	return "upload master document: " + e.Err.Error()
}

func (e *MasterUploadError) Unwrap() error { return e.Err }

var ErrNothingToCommit = errors.New("publish: empty draft")
