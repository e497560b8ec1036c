package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/careerbox/internal/flow"
	"github.com/naveenspark/careerbox/pkg/domain"
)

type pinField int

const (
	pinFieldPin pinField = iota
	pinFieldConfirm
)

type pinModel struct {
	ctrl       *flow.Controller
	pin        string
	confirm    string
	focus      pinField
	submitting bool
	status     status
}

func newPinModel(ctrl *flow.Controller) pinModel {
	return pinModel{ctrl: ctrl}
}

func (m pinModel) Update(msg tea.Msg) (pinModel, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		if msg.step != flow.StepPin {
			return m, nil
		}
		m.submitting = false
		if msg.err != nil {
			m.status = failStatus("MPIN Creation Failed", msg.err)
			if domain.IsValidation(msg.err) {
				m.pin, m.confirm, m.focus = "", "", pinFieldPin
			}
		}
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "up":
			m.focus = pinFieldPin
		case "down":
			m.focus = pinFieldConfirm
		case "enter":
			if m.focus == pinFieldPin {
				m.focus = pinFieldConfirm
				return m, nil
			}
			return m.submit()
		default:
			m.status = status{}
			if m.focus == pinFieldPin {
				m.pin = editDigits(m.pin, msg.String(), domain.PinLength)
				if len(m.pin) == domain.PinLength && msg.String() != "backspace" {
					m.focus = pinFieldConfirm
				}
			} else {
				m.confirm = editDigits(m.confirm, msg.String(), domain.PinLength)
			}
		}
	}
	return m, nil
}

func (m pinModel) submit() (pinModel, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	m.submitting = true
	m.status = status{}
	ctrl, pin, confirm := m.ctrl, m.pin, m.confirm
	return m, runStep(flow.StepPin, func(ctx context.Context) error {
		return ctrl.CreatePin(ctx, pin, confirm)
	})
}

func (m pinModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Create pin") + "\n")
	b.WriteString(dimStyle.Render("Create 4 digit pin for easy login") + "\n\n")
	b.WriteString(renderField("Enter 4 digit pin", mask(m.pin), "####", m.focus == pinFieldPin) + "\n")
	b.WriteString(renderField("Confirm pin      ", mask(m.confirm), "####", m.focus == pinFieldConfirm) + "\n\n")
	if m.submitting {
		b.WriteString(dimStyle.Render("creating pin..."))
	} else {
		b.WriteString(m.status.View())
	}
	b.WriteString("\n\n" + dimStyle.Render("Already have pin? ") + accentStyle.Render("esc Back to login"))
	return b.String()
}

// pinCreatedView is the success screen after the MPIN is set.
func pinCreatedView() string {
	var b strings.Builder
	b.WriteString(checkStyle.Render("✔") + "\n\n")
	b.WriteString(titleStyle.Render("Welcome to Career box!") + "\n")
	b.WriteString(dimStyle.Render("Your MPIN has been set successfully.") + "\n\n")
	b.WriteString(accentStyle.Render("enter") + dimStyle.Render("  Setup Student Profile") + "\n")
	b.WriteString(accentStyle.Render("d") + dimStyle.Render("      Go to My Desk"))
	return b.String()
}
