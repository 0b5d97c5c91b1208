package util

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrCourseNotFound     = errors.New("course not found")
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")
	ErrConflict           = errors.New("conditional update conflict")
	ErrProgressionPending = errors.New("attempt graded but progression pending")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrInvalidCredentials = errors.New("invalid credentials")
)
