package domain

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// ProfileDetails is the personal half of onboarding, posted to
// /api/user/profileDetails.
type ProfileDetails struct {
	Name   string `json:"name" yaml:"name"`
	Email  string `json:"email,omitempty" yaml:"email"`
	DOB    string `json:"dob,omitempty" yaml:"dob"`
	City   string `json:"city,omitempty" yaml:"city"`
	Gender string `json:"gender,omitempty" yaml:"gender"`
}

// EducationDetails is the education half of onboarding, posted to
// /api/user/educationDetails.
type EducationDetails struct {
	CollegeName    string `json:"collegeName" yaml:"collegeName"`
	Degree         string `json:"degree,omitempty" yaml:"degree"`
	Major          string `json:"major,omitempty" yaml:"major"`
	GraduationYear string `json:"graduationYear,omitempty" yaml:"graduationYear"`
}

// ValidGenders are the accepted gender values. Empty is also accepted.
var ValidGenders = []string{"female", "male", "other"}

// ErrInvalidProfile wraps every profile or education validation failure.
var ErrInvalidProfile = errors.New("invalid profile")

// Validate checks the personal details before they are submitted.
func (p ProfileDetails) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidProfile)
	}
	if p.Email != "" {
		if _, err := mail.ParseAddress(p.Email); err != nil {
			return fmt.Errorf("%w: email %q is not valid", ErrInvalidProfile, p.Email)
		}
	}
	if p.DOB != "" {
		if _, err := time.Parse(time.DateOnly, p.DOB); err != nil {
			return fmt.Errorf("%w: dob must be YYYY-MM-DD", ErrInvalidProfile)
		}
	}
	if p.Gender != "" && !validGender(p.Gender) {
		return fmt.Errorf("%w: gender must be one of %s", ErrInvalidProfile, strings.Join(ValidGenders, ", "))
	}
	return nil
}

// Validate checks the education details before they are submitted.
func (e EducationDetails) Validate() error {
	if strings.TrimSpace(e.CollegeName) == "" {
		return fmt.Errorf("%w: college name is required", ErrInvalidProfile)
	}
	if e.GraduationYear != "" && !allDigits(e.GraduationYear, 4) {
		return fmt.Errorf("%w: graduation year must be 4 digits", ErrInvalidProfile)
	}
	return nil
}

// Fields flattens both halves of onboarding into session profile fields.
func Fields(p ProfileDetails, e EducationDetails) ProfileFields {
	return ProfileFields{
		Name:           p.Name,
		Email:          p.Email,
		DOB:            p.DOB,
		City:           p.City,
		Gender:         p.Gender,
		CollegeName:    e.CollegeName,
		Degree:         e.Degree,
		Major:          e.Major,
		GraduationYear: e.GraduationYear,
	}
}

func validGender(g string) bool {
	for _, v := range ValidGenders {
		if v == g {
			return true
		}
	}
	return false
}
