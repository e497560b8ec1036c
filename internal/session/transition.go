// Package session owns the canonical careerbox Session. The value changes
// only through the named transitions in this file and is persisted after
// every change.
package session

import (
	"encoding/json"

	"github.com/naveenspark/careerbox/pkg/domain"
)

// Transition is one named, pure change to a Session. Values are built only
// by the constructors below.
type Transition struct {
	name  string
	apply func(domain.Session) domain.Session
}

// Name identifies the transition in logs.
func (t Transition) Name() string { return t.name }

// Apply returns the session that results from applying t to s. s is not modified.
func (t Transition) Apply(s domain.Session) domain.Session {
	if t.apply == nil {
		return s.Clone()
	}
	return t.apply(s.Clone())
}

// Authenticate marks the session signed in with token and the verified user
// record. Token and flag are always set together.
func Authenticate(token string, userData json.RawMessage) Transition {
	return Transition{name: "authenticate", apply: func(s domain.Session) domain.Session {
		s.IsAuthenticated = true
		s.Token = token
		if userData != nil {
			s.UserData = append(json.RawMessage(nil), userData...)
		}
		return s
	}}
}

// SetAuthenticated sets the authenticated flag alone.
func SetAuthenticated(v bool) Transition {
	return Transition{name: "set-authenticated", apply: func(s domain.Session) domain.Session {
		s.IsAuthenticated = v
		return s
	}}
}

// SetToken replaces the bearer token.
func SetToken(token string) Transition {
	return Transition{name: "set-token", apply: func(s domain.Session) domain.Session {
		s.Token = token
		return s
	}}
}

// SetPhoneNumber records the phone number being onboarded.
func SetPhoneNumber(phone string) Transition {
	return Transition{name: "set-phone", apply: func(s domain.Session) domain.Session {
		s.User.PhoneNumber = phone
		return s
	}}
}

// SetHasMpin records whether an MPIN exists for the account.
func SetHasMpin(v bool) Transition {
	return Transition{name: "set-mpin-flag", apply: func(s domain.Session) domain.Session {
		s.User.HasMpin = v
		return s
	}}
}

// SetHasCompletedProfile records whether onboarding details were submitted.
func SetHasCompletedProfile(v bool) Transition {
	return Transition{name: "set-profile-flag", apply: func(s domain.Session) domain.Session {
		s.User.HasCompletedProfile = v
		return s
	}}
}

// UpdateProfile merges the non-empty fields of f into the session user.
func UpdateProfile(f domain.ProfileFields) Transition {
	return Transition{name: "merge-profile-fields", apply: func(s domain.Session) domain.Session {
		s.User.ProfileFields = s.User.ProfileFields.Merge(f)
		return s
	}}
}

// SignedIn records a returning user's sign-in. It starts from the
// signed-out session so nothing of a previous account survives. Having
// signed in with an MPIN implies one exists.
func SignedIn(phone, token string, hasCompletedProfile bool) Transition {
	return Transition{name: "signed-in", apply: func(domain.Session) domain.Session {
		var s domain.Session
		s.IsAuthenticated = true
		s.Token = token
		s.User.PhoneNumber = phone
		s.User.HasMpin = true
		s.User.HasCompletedProfile = hasCompletedProfile
		return s
	}}
}

// Reset restores the signed-out default.
func Reset() Transition {
	return Transition{name: "reset", apply: func(domain.Session) domain.Session {
		return domain.Session{}
	}}
}
