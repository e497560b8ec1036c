// Package tui is the interactive careerbox client: onboarding and sign-in
// screens on top of the flow controller.
package tui

import (
	"context"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/naveenspark/careerbox/internal/browser"
	"github.com/naveenspark/careerbox/internal/flow"
	"github.com/naveenspark/careerbox/pkg/domain"
)

type screen int

const (
	screenSplash screen = iota
	screenSignUp
	screenVerify
	screenPin
	screenPinCreated
	screenSignIn
	screenProfile
	screenDesk
)

// DefaultSplash is how long the logo shows before the first screen.
const DefaultSplash = 1500 * time.Millisecond

// doneMsg reports the outcome of one flow step.
type doneMsg struct {
	step flow.Step
	err  error
}

// runStep runs fn off the UI goroutine and reports back as a doneMsg.
func runStep(step flow.Step, fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return doneMsg{step: step, err: fn(context.Background())}
	}
}

type splashDoneMsg struct{}

type logoutMsg struct {
	err error
}

// Options configures the App.
type Options struct {
	TermsURL   string
	PrivacyURL string
	// Splash is how long the logo shows. Zero means DefaultSplash; negative skips it.
	Splash time.Duration
}

// App is the root Bubbletea model.
type App struct {
	ctrl   *flow.Controller
	opts   Options
	screen screen

	signUp  signUpModel
	verify  verifyModel
	pin     pinModel
	signIn  signInModel
	profile profileModel
	status  status // for screens without a form of their own

	helpOpen   bool
	helpCursor int
	width      int
	height     int
	frame      int // logo shimmer animation frame
	tickGen    int // current resend countdown chain
}

// NewApp creates the TUI over a controller whose store is already loaded.
func NewApp(ctrl *flow.Controller, opts Options) App {
	if opts.Splash == 0 {
		opts.Splash = DefaultSplash
	}
	return App{
		ctrl:    ctrl,
		opts:    opts,
		screen:  screenSplash,
		signUp:  newSignUpModel(ctrl),
		verify:  newVerifyModel(ctrl),
		pin:     newPinModel(ctrl),
		signIn:  newSignInModel(ctrl),
		profile: newProfileModel(ctrl),
	}
}

func (a App) Init() tea.Cmd {
	if a.opts.Splash < 0 {
		return tea.Batch(shimmerTickCmd(), func() tea.Msg { return splashDoneMsg{} })
	}
	return tea.Batch(shimmerTickCmd(), tea.Tick(a.opts.Splash, func(time.Time) tea.Msg {
		return splashDoneMsg{}
	}))
}

// routeScreen maps the session's route onto a screen.
func routeScreen(r domain.Route) screen {
	switch r {
	case domain.RouteCreatePin:
		return screenPin
	case domain.RouteProfile:
		return screenProfile
	case domain.RouteHome:
		return screenDesk
	default:
		return screenSignUp
	}
}

// show switches to s with fresh form state.
func (a App) show(s screen) (App, tea.Cmd) {
	a.screen = s
	a.status = status{}
	switch s {
	case screenSignUp:
		a.signUp = newSignUpModel(a.ctrl)
	case screenVerify:
		a.verify = newVerifyModel(a.ctrl)
		a.tickGen++
		return a, countdownTickCmd(a.tickGen)
	case screenPin:
		a.pin = newPinModel(a.ctrl)
	case screenSignIn:
		a.signIn = newSignInModel(a.ctrl)
	case screenProfile:
		a.profile = newProfileModel(a.ctrl)
	}
	return a, nil
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case shimmerTickMsg:
		a.frame++
		return a, shimmerTickCmd()

	case splashDoneMsg:
		if a.screen != screenSplash {
			return a, nil
		}
		return a.show(routeScreen(a.ctrl.Route()))

	case countdownTickMsg:
		if msg.gen != a.tickGen || a.screen != screenVerify {
			return a, nil
		}
		a.verify = a.verify.refresh()
		return a, countdownTickCmd(msg.gen)

	case doneMsg:
		return a.handleDone(msg)

	case logoutMsg:
		next, cmd := a.show(screenSignUp)
		if msg.err != nil {
			next.signUp.status = errStatus("Signed out, but the session could not be cleared: " + errText(msg.err))
		}
		return next, cmd

	case pasteMsg:
		if a.screen == screenVerify {
			a.verify, _ = a.verify.Update(msg)
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

// handleDone lets the owning screen record the result, then moves on when
// the step succeeded and the user is still on that screen.
func (a App) handleDone(msg doneMsg) (tea.Model, tea.Cmd) {
	switch msg.step {
	case flow.StepSignUp:
		a.signUp, _ = a.signUp.Update(msg)
		if msg.err == nil && a.screen == screenSignUp {
			return a.show(screenVerify)
		}
	case flow.StepVerify, flow.StepResend:
		a.verify, _ = a.verify.Update(msg)
		if msg.step == flow.StepVerify && msg.err == nil {
			next, cmd := a.show(routeScreen(a.ctrl.Route()))
			next.pin.status = okStatus("OTP Verify Successfully")
			return next, cmd
		}
	case flow.StepPin:
		a.pin, _ = a.pin.Update(msg)
		if msg.err == nil {
			return a.show(screenPinCreated)
		}
	case flow.StepSignIn:
		a.signIn, _ = a.signIn.Update(msg)
		if msg.err == nil && a.screen == screenSignIn {
			next, cmd := a.show(routeScreen(a.ctrl.Route()))
			next.status = okStatus("Sign In Successful. Welcome back!")
			next.profile.status = next.status
			return next, cmd
		}
	case flow.StepProfile:
		a.profile, _ = a.profile.Update(msg)
		if msg.err == nil {
			next, cmd := a.show(screenDesk)
			next.status = okStatus("Profile saved.")
			return next, cmd
		}
	}
	return a, nil
}

func (a App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}
	if a.screen == screenSplash {
		return a, nil
	}

	// Help overlay captures all keys when open
	if a.helpOpen {
		items := helpItems(a.opts.TermsURL, a.opts.PrivacyURL)
		switch msg.String() {
		case "h", "esc":
			a.helpOpen = false
		case "q":
			return a, tea.Quit
		case "j", "down":
			if a.helpCursor < len(items)-1 {
				a.helpCursor++
			}
		case "k", "up":
			if a.helpCursor > 0 {
				a.helpCursor--
			}
		case "enter":
			if url := items[a.helpCursor].url; url != "" {
				browser.Open(url) //nolint:errcheck // best-effort browser open
			}
		}
		return a, nil
	}

	// Global keys (only when not editing free text)
	if a.screen != screenProfile {
		switch msg.String() {
		case "h":
			a.helpOpen = true
			a.helpCursor = 0
			return a, nil
		case "q":
			return a, tea.Quit
		}
	}

	var cmd tea.Cmd
	switch a.screen {
	case screenSignUp:
		if msg.String() == "tab" {
			return a.show(screenSignIn)
		}
		a.signUp, cmd = a.signUp.Update(msg)
	case screenVerify:
		if msg.String() == "esc" {
			return a.show(screenSignUp)
		}
		a.verify, cmd = a.verify.Update(msg)
	case screenPin:
		if msg.String() == "esc" {
			return a.show(screenSignIn)
		}
		a.pin, cmd = a.pin.Update(msg)
	case screenPinCreated:
		switch msg.String() {
		case "enter", "p":
			return a.show(screenProfile)
		case "d":
			return a.show(screenDesk)
		}
	case screenSignIn:
		if msg.String() == "tab" {
			return a.show(screenSignUp)
		}
		a.signIn, cmd = a.signIn.Update(msg)
	case screenProfile:
		if msg.String() == "esc" {
			return a.show(screenDesk)
		}
		a.profile, cmd = a.profile.Update(msg)
	case screenDesk:
		switch msg.String() {
		case "p":
			if !a.ctrl.Session().User.HasCompletedProfile {
				return a.show(screenProfile)
			}
		case "x":
			ctrl := a.ctrl
			return a, func() tea.Msg {
				return logoutMsg{err: ctrl.Logout(context.Background())}
			}
		}
	}
	return a, cmd
}

func (a App) View() string {
	logo := renderShimmerLogo(a.frame)
	if a.screen == screenSplash {
		return center(logo, a.width)
	}

	var body, help string
	switch a.screen {
	case screenSignUp:
		body = a.signUp.View()
		help = helpBar("enter", "continue", "tab", "login", "h", "help", "q", "quit")
	case screenVerify:
		body = a.verify.View()
		help = helpBar("enter", "verify", "r", "resend", "ctrl+v", "paste", "esc", "back", "q", "quit")
	case screenPin:
		body = a.pin.View()
		help = helpBar("enter", "next/create", "up/down", "field", "esc", "login", "q", "quit")
	case screenPinCreated:
		body = pinCreatedView()
		help = helpBar("enter", "profile", "d", "desk", "q", "quit")
	case screenSignIn:
		body = a.signIn.View()
		help = helpBar("enter", "login", "up/down", "field", "ctrl+t", "show pin", "tab", "sign up", "q", "quit")
	case screenProfile:
		body = a.profile.View()
		help = helpBar("tab", "next", "h/l", "gender", "ctrl+s", "submit", "esc", "later")
	case screenDesk:
		body = deskView(a.ctrl.Session(), a.status)
		help = helpBar("p", "profile", "x", "logout", "h", "help", "q", "quit")
	}

	if a.helpOpen {
		body = helpView(helpItems(a.opts.TermsURL, a.opts.PrivacyURL), a.helpCursor)
		help = helpBar("j/k", "nav", "enter", "open", "esc", "close")
	}

	// Chrome: logo(1) + blank(1) + help(1)
	const chrome = 3
	body = strings.TrimRight(truncateToHeight(indent(body), a.height-chrome), "\n")
	return center(logo, a.width) + "\n\n" + body + "\n" + help
}

// center pads s so it sits in the middle of width columns.
func center(s string, width int) string {
	pad := (width - lipgloss.Width(s)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + s
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = "  " + l
		}
	}
	return strings.Join(lines, "\n") + "\n"
}
