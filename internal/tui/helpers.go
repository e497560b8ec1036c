package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/naveenspark/careerbox/internal/flow"
	"github.com/naveenspark/careerbox/pkg/client"
	"github.com/naveenspark/careerbox/pkg/domain"
)

// truncStr truncates a string to maxLen runes, appending an ellipsis if needed.
func truncStr(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxLen-1]) + "…"
}

// errText turns a flow error into the line shown under a form.
func errText(err error) string {
	var httpErr *client.HTTPError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, domain.ErrInvalidPhone):
		return "Please enter a valid 10 digit phone number."
	case errors.Is(err, domain.ErrInvalidOTP):
		return "Verification otp not valid"
	case errors.Is(err, domain.ErrPinMismatch):
		return "MPIN do not match. Please try again."
	case errors.Is(err, domain.ErrInvalidPin):
		return "PIN must be 4 digits."
	case errors.Is(err, domain.ErrInvalidProfile):
		msg := err.Error()
		if i := strings.Index(msg, domain.ErrInvalidProfile.Error()+": "); i >= 0 {
			msg = msg[i+len(domain.ErrInvalidProfile.Error())+2:]
		}
		return msg
	case errors.Is(err, flow.ErrBusy):
		return "Still working on it..."
	case errors.Is(err, flow.ErrResendCooldown):
		return "Please wait before requesting a new code."
	case errors.Is(err, flow.ErrNotAuthenticated), errors.Is(err, flow.ErrNoPhone):
		return "Your session has ended. Please sign up or sign in again."
	case errors.As(err, &httpErr):
		return truncStr(httpErr.Message, 80)
	default:
		return "Network error: " + truncStr(err.Error(), 60)
	}
}

// formatCountdown renders a resend wait as "0:27".
func formatCountdown(d time.Duration) string {
	s := int(d.Round(time.Second).Seconds())
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// status is the one-line message under each form, in place of toasts.
type status struct {
	text string
	err  bool
}

func okStatus(s string) status { return status{text: s} }
func errStatus(s string) status { return status{text: s, err: true} }

func (s status) View() string {
	if s.text == "" {
		return ""
	}
	if s.err {
		return errorStyle.Render(s.text)
	}
	return successStyle.Render(s.text)
}

// failStatus prefixes server and network failures with title. Local
// validation messages stand on their own.
func failStatus(title string, err error) status {
	if domain.IsValidation(err) || errors.Is(err, flow.ErrBusy) || errors.Is(err, flow.ErrResendCooldown) {
		return errStatus(errText(err))
	}
	return errStatus(title + ". " + errText(err))
}
