package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/careerbox/internal/flow"
	"github.com/naveenspark/careerbox/pkg/domain"
)

// callingCode is shown before phone inputs. The service only takes
// ten-digit Indian numbers.
const callingCode = "+91"

type signUpModel struct {
	ctrl       *flow.Controller
	phone      string
	submitting bool
	status     status
}

func newSignUpModel(ctrl *flow.Controller) signUpModel {
	return signUpModel{ctrl: ctrl}
}

func (m signUpModel) Update(msg tea.Msg) (signUpModel, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		if msg.step != flow.StepSignUp {
			return m, nil
		}
		m.submitting = false
		if msg.err != nil {
			m.status = failStatus("Registration failed", msg.err)
		} else {
			m.status = okStatus("User registered successfully")
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "enter" {
			return m.submit()
		}
		if m.submitting {
			return m, nil
		}
		m.phone = editDigits(m.phone, msg.String(), domain.PhoneLength)
		m.status = status{}
	}
	return m, nil
}

func (m signUpModel) submit() (signUpModel, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	m.submitting = true
	m.status = status{}
	ctrl, phone := m.ctrl, m.phone
	return m, runStep(flow.StepSignUp, func(ctx context.Context) error {
		return ctrl.SignUp(ctx, phone)
	})
}

func (m signUpModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Sign Up") + "\n")
	b.WriteString(dimStyle.Render("Build the skills to drive your career") + "\n\n")
	b.WriteString(renderField("Phone Number  "+callingCode, m.phone, "Enter Mobile No.", true) + "\n\n")
	if m.submitting {
		b.WriteString(dimStyle.Render("registering..."))
	} else {
		b.WriteString(m.status.View())
	}
	b.WriteString("\n\n" + dimStyle.Render("Already have an account? ") + accentStyle.Render("tab to Login"))
	return b.String()
}
