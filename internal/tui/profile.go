package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/naveenspark/careerbox/internal/flow"
	"github.com/naveenspark/careerbox/pkg/domain"
)

type profileField int

const (
	fieldName profileField = iota
	fieldEmail
	fieldDOB
	fieldCity
	fieldGender
	fieldCollege
	fieldDegree
	fieldMajor
	fieldYear
	numFields
)

var profileLabels = [numFields]string{
	"name", "email", "date of birth", "city", "gender",
	"college", "degree", "major", "graduation year",
}

var profilePlaceholders = [numFields]string{
	"Full name", "you@example.com", "YYYY-MM-DD", "City", "",
	"College name", "B.Tech, B.Sc...", "Computer Science", "2026",
}

type profileModel struct {
	ctrl       *flow.Controller
	fields     [numFields]string
	focus      profileField
	submitting bool
	status     status
}

func newProfileModel(ctrl *flow.Controller) profileModel {
	m := profileModel{ctrl: ctrl}
	if ctrl == nil {
		return m
	}
	// Prefill from anything already saved on this device.
	p := ctrl.Session().User.ProfileFields
	m.fields = [numFields]string{
		p.Name, p.Email, p.DOB, p.City, p.Gender,
		p.CollegeName, p.Degree, p.Major, p.GraduationYear,
	}
	return m
}

func (m profileModel) details() (domain.ProfileDetails, domain.EducationDetails) {
	f := m.fields
	p := domain.ProfileDetails{
		Name:   strings.TrimSpace(f[fieldName]),
		Email:  strings.TrimSpace(f[fieldEmail]),
		DOB:    strings.TrimSpace(f[fieldDOB]),
		City:   strings.TrimSpace(f[fieldCity]),
		Gender: f[fieldGender],
	}
	e := domain.EducationDetails{
		CollegeName:    strings.TrimSpace(f[fieldCollege]),
		Degree:         strings.TrimSpace(f[fieldDegree]),
		Major:          strings.TrimSpace(f[fieldMajor]),
		GraduationYear: strings.TrimSpace(f[fieldYear]),
	}
	return p, e
}

func (m profileModel) Update(msg tea.Msg) (profileModel, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		if msg.step != flow.StepProfile {
			return m, nil
		}
		m.submitting = false
		if msg.err != nil {
			m.status = failStatus("Profile update failed", msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		return m.updateKeys(msg)
	}
	return m, nil
}

func (m profileModel) updateKeys(msg tea.KeyMsg) (profileModel, tea.Cmd) {
	m.status = status{}

	switch msg.String() {
	case "ctrl+s":
		return m.submit()
	case "tab", "down":
		m.focus = (m.focus + 1) % numFields
	case "shift+tab", "up":
		m.focus = (m.focus - 1 + numFields) % numFields
	case "enter":
		if m.focus == numFields-1 {
			return m.submit()
		}
		m.focus++
	default:
		key := msg.String()
		switch m.focus {
		case fieldGender:
			if key == "h" || key == "l" || key == "left" || key == "right" {
				m.fields[fieldGender] = cycleGender(m.fields[fieldGender], key == "l" || key == "right")
			}
		case fieldYear:
			m.fields[fieldYear] = editDigits(m.fields[fieldYear], key, 4)
		default:
			m.fields[m.focus] = editRune(m.fields[m.focus], key)
		}
	}
	return m, nil
}

// cycleGender steps through "" and domain.ValidGenders.
func cycleGender(current string, forward bool) string {
	opts := append([]string{""}, domain.ValidGenders...)
	idx := 0
	for i, g := range opts {
		if g == current {
			idx = i
			break
		}
	}
	if forward {
		idx = (idx + 1) % len(opts)
	} else {
		idx = (idx - 1 + len(opts)) % len(opts)
	}
	return opts[idx]
}

func (m profileModel) submit() (profileModel, tea.Cmd) {
	if m.submitting {
		return m, nil
	}
	m.submitting = true
	p, e := m.details()
	ctrl := m.ctrl
	return m, runStep(flow.StepProfile, func(ctx context.Context) error {
		return ctrl.CompleteProfile(ctx, p, e)
	})
}

func (m profileModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Student Profile") + "\n")
	b.WriteString(dimStyle.Render("Tell us about yourself and your education") + "\n\n")

	for i := profileField(0); i < numFields; i++ {
		if i == fieldCollege {
			b.WriteString("\n")
		}
		label := fmt.Sprintf("%-16s", profileLabels[i])
		if i == fieldGender {
			value := m.fields[i]
			if value == "" {
				value = "not set"
			}
			cursor, style := " ", metaStyle
			if i == m.focus {
				cursor, style = inputPromptStyle.Render(">"), selectedStyle
			}
			fmt.Fprintf(&b, "%s %s  %s  %s\n", cursor, style.Render(label), normalStyle.Render(value), metaStyle.Render("(h/l to cycle)"))
			continue
		}
		b.WriteString(renderField(label, m.fields[i], profilePlaceholders[i], i == m.focus) + "\n")
	}

	b.WriteString("\n")
	if m.submitting {
		b.WriteString(dimStyle.Render("saving profile..."))
	} else {
		b.WriteString(m.status.View())
	}
	return b.String()
}
