package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/naveenspark/careerbox/internal/session"
	"github.com/naveenspark/careerbox/pkg/domain"
)

// deskView renders the signed-in landing screen.
func deskView(s domain.Session, st status) string {
	u := s.User
	name := u.Name
	if name == "" {
		name = callingCode + " " + u.PhoneNumber
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("My Desk") + "\n")
	b.WriteString(dimStyle.Render("Welcome, ") + selectedStyle.Render(name) + "\n\n")

	row := func(label, value string) {
		if value == "" {
			return
		}
		fmt.Fprintf(&b, "  %s %s\n", metaStyle.Render(fmt.Sprintf("%-12s", label)), normalStyle.Render(value))
	}
	row("phone", callingCode+" "+u.PhoneNumber)
	row("email", u.Email)
	row("city", u.City)
	row("college", u.CollegeName)
	row("degree", strings.TrimSpace(u.Degree+" "+u.Major))
	row("graduating", u.GraduationYear)
	if exp, ok := session.TokenExpiry(s.Token); ok {
		row("session", "valid until "+exp.Local().Format(time.DateTime))
	}

	b.WriteString("\n")
	if !u.HasCompletedProfile {
		b.WriteString(accentStyle.Render("p") + dimStyle.Render(" Setup Student Profile") + "\n")
	}
	b.WriteString(st.View())
	return b.String()
}
