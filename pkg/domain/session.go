package domain

import "encoding/json"

// Session is the client-held record of authentication status and onboarding
// progress. The zero value is the signed-out session.
type Session struct {
	IsAuthenticated bool   `json:"isAuthenticated"`
	Token           string `json:"token,omitempty"`
	User            User   `json:"user"`
	// UserData is the raw user record returned by OTP verification.
	UserData json.RawMessage `json:"userData,omitempty"`
}

// User holds the phone number, onboarding flags and profile fields of the
// session owner. Empty strings mean "not set yet".
type User struct {
	PhoneNumber         string `json:"phoneNumber,omitempty"`
	HasMpin             bool   `json:"hasMpin"`
	HasCompletedProfile bool   `json:"hasCompletedProfile"`
	ProfileFields
}

// ProfileFields are the optional profile attributes merged into a session
// after profile and education submission.
type ProfileFields struct {
	Name           string `json:"name,omitempty" yaml:"name"`
	Email          string `json:"email,omitempty" yaml:"email"`
	Major          string `json:"major,omitempty" yaml:"major"`
	GraduationYear string `json:"graduationYear,omitempty" yaml:"graduationYear"`
	CollegeName    string `json:"collegeName,omitempty" yaml:"collegeName"`
	Degree         string `json:"degree,omitempty" yaml:"degree"`
	DOB            string `json:"dob,omitempty" yaml:"dob"`
	City           string `json:"city,omitempty" yaml:"city"`
	Gender         string `json:"gender,omitempty" yaml:"gender"`
}

// Merge returns f with every non-empty field of other copied over it.
func (f ProfileFields) Merge(other ProfileFields) ProfileFields {
	set := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	set(&f.Name, other.Name)
	set(&f.Email, other.Email)
	set(&f.Major, other.Major)
	set(&f.GraduationYear, other.GraduationYear)
	set(&f.CollegeName, other.CollegeName)
	set(&f.Degree, other.Degree)
	set(&f.DOB, other.DOB)
	set(&f.City, other.City)
	set(&f.Gender, other.Gender)
	return f
}

// Clone returns a deep copy of s.
func (s Session) Clone() Session {
	if s.UserData != nil {
		s.UserData = append(json.RawMessage(nil), s.UserData...)
	}
	return s
}
