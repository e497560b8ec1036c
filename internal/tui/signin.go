package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/careerbox/internal/flow"
	"github.com/naveenspark/careerbox/pkg/domain"
)

type signInField int

const (
	signInFieldPhone signInField = iota
	signInFieldPin
)

type signInModel struct {
	ctrl       *flow.Controller
	phone      string
	pin        string
	focus      signInField
	showPin    bool
	submitting bool
	status     status
}

func newSignInModel(ctrl *flow.Controller) signInModel {
	m := signInModel{ctrl: ctrl}
	if ctrl != nil {
		m.phone = ctrl.Session().User.PhoneNumber
	}
	if m.phone != "" {
		m.focus = signInFieldPin
	}
	return m
}

func (m signInModel) Update(msg tea.Msg) (signInModel, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		if msg.step != flow.StepSignIn {
			return m, nil
		}
		m.submitting = false
		if msg.err != nil {
			m.pin = ""
			m.status = failStatus("Sign In Failed", msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "up":
			m.focus = signInFieldPhone
		case "down":
			m.focus = signInFieldPin
		case "ctrl+t":
			m.showPin = !m.showPin
		case "enter":
			if m.focus == signInFieldPhone {
				m.focus = signInFieldPin
				return m, nil
			}
			return m.submit()
		default:
			m.status = status{}
			if m.focus == signInFieldPhone {
				m.phone = editDigits(m.phone, msg.String(), domain.PhoneLength)
			} else {
				m.pin = editDigits(m.pin, msg.String(), domain.PinLength)
			}
		}
	}
	return m, nil
}

func (m signInModel) submit() (signInModel, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	m.submitting = true
	m.status = status{}
	ctrl, phone, pin := m.ctrl, m.phone, m.pin
	return m, runStep(flow.StepSignIn, func(ctx context.Context) error {
		return ctrl.SignIn(ctx, phone, pin)
	})
}

func (m signInModel) View() string {
	pin := mask(m.pin)
	if m.showPin {
		pin = m.pin
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render("Career box") + "\n")
	b.WriteString(dimStyle.Render("Build the skills to drive your career") + "\n\n")
	b.WriteString(renderField("Phone Number  "+callingCode, m.phone, "Phone Number", m.focus == signInFieldPhone) + "\n")
	b.WriteString(renderField("Enter Pin        ", pin, "Enter 4 Digit PIN", m.focus == signInFieldPin) + "\n\n")
	if m.submitting {
		b.WriteString(dimStyle.Render("signing in..."))
	} else {
		b.WriteString(m.status.View())
	}
	b.WriteString("\n\n" + dimStyle.Render("Don't Have an account? ") + accentStyle.Render("tab to Sign Up"))
	return b.String()
}
