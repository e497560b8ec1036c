package domain

import "errors"

// Input lengths accepted by the auth service.
const (
	PhoneLength = 10
	OTPLength   = 6
	PinLength   = 4
)

// Local validation errors. None of them ever reaches the network layer.
var (
	ErrInvalidPhone = errors.New("please enter a valid 10 digit phone number")
	ErrInvalidOTP   = errors.New("otp must be 6 digits")
	ErrInvalidPin   = errors.New("pin must be 4 digits")
	ErrPinMismatch  = errors.New("pins do not match")
)

// ValidatePhone accepts exactly ten ASCII digits.
func ValidatePhone(phone string) error {
	if !allDigits(phone, PhoneLength) {
		return ErrInvalidPhone
	}
	return nil
}

// ValidateOTP accepts exactly six ASCII digits.
func ValidateOTP(otp string) error {
	if !allDigits(otp, OTPLength) {
		return ErrInvalidOTP
	}
	return nil
}

// ValidatePin accepts exactly four ASCII digits.
func ValidatePin(pin string) error {
	if !allDigits(pin, PinLength) {
		return ErrInvalidPin
	}
	return nil
}

// ValidatePinPair checks that pin and confirm match before checking the pin.
func ValidatePinPair(pin, confirm string) error {
	if pin != confirm {
		return ErrPinMismatch
	}
	return ValidatePin(pin)
}

// IsValidation reports whether err is a local validation failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidPhone) ||
		errors.Is(err, ErrInvalidOTP) ||
		errors.Is(err, ErrInvalidPin) ||
		errors.Is(err, ErrPinMismatch) ||
		errors.Is(err, ErrInvalidProfile)
}

func allDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
