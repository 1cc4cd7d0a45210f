package types

import (
	ierr "github.com/flexprice/subscription-billing/internal/errors"
)

// LoginType describes how a session was established
type LoginType string

const (
	LoginTypeWeb    LoginType = "WEB"
	LoginTypeMobile LoginType = "MOBILE"
	LoginTypeTV     LoginType = "TV"
	LoginTypeOther  LoginType = "OTHER"
)

func (t LoginType) String() string {
	return string(t)
}

func (t LoginType) Validate() error {
	switch t {
	case LoginTypeWeb, LoginTypeMobile, LoginTypeTV, LoginTypeOther:
		return nil
	}
	return ierr.NewErrorf("invalid login type: %s", t).
		WithHint("Login type must be one of WEB, MOBILE, TV or OTHER").
		Mark(ierr.ErrValidation)
}
