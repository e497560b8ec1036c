package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

func printHelp() {
	title := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#60a5fa")).
		Bold(true).
		Render("C A R E E R B O X")

	tagline := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245")).
		Italic(true).
		Render("Build the skills to drive your career")

	cmdStyle := lipgloss.NewStyle().Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	commands := []struct{ cmd, desc string }{
		{"careerbox", "Sign up, sign in or open your desk"},
		{"careerbox --ephemeral", "Same, without saving the session"},
		{"careerbox status", "Show the saved session"},
		{"careerbox logout", "Clear your session"},
		{"careerbox profile import", "Submit profile and education from a YAML file"},
		{"careerbox terms", "Terms of Service"},
		{"careerbox privacy", "Privacy Policy"},
		{"careerbox --version", "Show version"},
		{"careerbox help", "You are here"},
	}

	fmt.Printf("\n  %s\n  %s\n\n  Commands:\n", title, tagline)
	for _, c := range commands {
		fmt.Printf("    %s  %s\n", cmdStyle.Render(fmt.Sprintf("%-26s", c.cmd)), descStyle.Render(c.desc))
	}
	example := descStyle.Render("profile.yaml:\n" +
		"    profile:   {name: Asha, email: asha@example.com, city: Pune}\n" +
		"    education: {collegeName: COEP, degree: B.Tech, graduationYear: \"2026\"}")
	fmt.Printf("\n  %s\n\n", example)
}
