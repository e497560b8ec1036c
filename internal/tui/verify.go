package tui

import (
	"context"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/careerbox/internal/flow"
	"github.com/naveenspark/careerbox/pkg/domain"
)

// pasteMsg carries clipboard text for the OTP input.
type pasteMsg struct {
	text string
	err  error
}

// countdownTickMsg refreshes the resend countdown. gen ties the tick to one
// visit of the verify screen so stale chains die out.
type countdownTickMsg struct {
	gen int
}

func countdownTickCmd(gen int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return countdownTickMsg{gen: gen}
	})
}

type verifyModel struct {
	ctrl       *flow.Controller
	phone      string
	otp        string
	submitting bool
	resending  bool
	resendIn   time.Duration
	status     status
}

func newVerifyModel(ctrl *flow.Controller) verifyModel {
	m := verifyModel{ctrl: ctrl}
	if ctrl != nil {
		m.phone = ctrl.Session().User.PhoneNumber
		m.resendIn = ctrl.ResendIn()
	}
	return m
}

func (m verifyModel) refresh() verifyModel {
	if m.ctrl != nil {
		m.resendIn = m.ctrl.ResendIn()
	}
	return m
}

func (m verifyModel) Update(msg tea.Msg) (verifyModel, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		switch msg.step {
		case flow.StepVerify:
			m.submitting = false
			if msg.err != nil {
				m.status = failStatus("Verification OTP failed", msg.err)
			}
		case flow.StepResend:
			m.resending = false
			if msg.err != nil {
				m.status = failStatus("Could not resend OTP", msg.err)
			} else {
				m.otp = ""
				m.status = okStatus("A new OTP has been sent to your number.")
			}
			m = m.refresh()
		}
		return m, nil

	case pasteMsg:
		if msg.err != nil {
			m.status = errStatus("Nothing to paste")
			return m, nil
		}
		if code := digitsOnly(msg.text, domain.OTPLength); code != "" {
			m.otp = code
			m.status = status{}
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			return m.submit()
		case "r":
			return m.resend()
		case "ctrl+v":
			return m, func() tea.Msg {
				text, err := clipboard.ReadAll()
				return pasteMsg{text: text, err: err}
			}
		default:
			if m.submitting {
				return m, nil
			}
			m.otp = editDigits(m.otp, msg.String(), domain.OTPLength)
			m.status = status{}
		}
	}
	return m, nil
}

func (m verifyModel) submit() (verifyModel, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	m.submitting = true
	m.status = status{}
	ctrl, otp := m.ctrl, m.otp
	return m, runStep(flow.StepVerify, func(ctx context.Context) error {
		return ctrl.VerifyOTP(ctx, otp)
	})
}

func (m verifyModel) resend() (verifyModel, tea.Cmd) {
	m = m.refresh()
	if m.resending || m.resendIn > 0 {
		return m, nil
	}
	m.resending = true
	m.status = status{}
	ctrl := m.ctrl
	return m, runStep(flow.StepResend, func(ctx context.Context) error {
		return ctrl.ResendOTP(ctx)
	})
}

func (m verifyModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Verify OTP") + "\n")
	b.WriteString(dimStyle.Render("We have sent a verification code to ") +
		selectedStyle.Render(callingCode+" "+m.phone) + "\n")
	b.WriteString(dimStyle.Render("Please enter it below") + "\n\n")
	b.WriteString(renderField("Enter OTP", m.otp, "######", true) + "\n\n")

	switch {
	case m.resending:
		b.WriteString(dimStyle.Render("sending a new code..."))
	case m.resendIn > 0:
		b.WriteString(metaStyle.Render("Resend OTP in " + formatCountdown(m.resendIn)))
	default:
		b.WriteString(accentStyle.Render("r") + dimStyle.Render(" Resend OTP"))
	}
	b.WriteString("\n\n")

	if m.submitting {
		b.WriteString(dimStyle.Render("verifying..."))
	} else {
		b.WriteString(m.status.View())
	}
	return b.String()
}
