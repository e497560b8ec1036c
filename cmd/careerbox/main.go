// Command careerbox is the terminal client for Career box: sign up with a
// phone number, verify the OTP, set an MPIN and fill in the student profile.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"gopkg.in/yaml.v3"

	"github.com/naveenspark/careerbox/internal/browser"
	"github.com/naveenspark/careerbox/internal/config"
	"github.com/naveenspark/careerbox/internal/flow"
	"github.com/naveenspark/careerbox/internal/logger"
	"github.com/naveenspark/careerbox/internal/session"
	"github.com/naveenspark/careerbox/internal/tui"
	"github.com/naveenspark/careerbox/pkg/client"
	"github.com/naveenspark/careerbox/pkg/domain"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) > 0 {
		switch args[0] {
		case "--version", "version", "-v":
			fmt.Println("careerbox " + version)
			return nil
		case "help", "--help", "-h":
			printHelp()
			return nil
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger.SetPrefix("client")
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	if len(args) == 0 {
		return runTUI(cfg, false)
	}
	switch args[0] {
	case "--ephemeral":
		return runTUI(cfg, true)
	case "terms":
		return openLegal("Terms of Service", cfg.TermsURL)
	case "privacy":
		return openLegal("Privacy Policy", cfg.PrivacyURL)
	case "logout":
		return runLogout(cfg)
	case "status":
		return runStatus(cfg)
	case "profile":
		if len(args) != 3 || args[1] != "import" {
			return errors.New("usage: careerbox profile import <file.yaml>")
		}
		return runProfileImport(cfg, args[2])
	default:
		return fmt.Errorf("unknown command %q, see careerbox help", args[0])
	}
}

// newPersister picks the session backend: Redis when configured, else the
// session file.
func newPersister(ctx context.Context, cfg *config.Config) (session.Persister, error) {
	if cfg.RedisURL != "" {
		return session.NewRedisPersister(ctx, cfg.RedisURL)
	}
	return session.NewFilePersister(cfg.SessionFile), nil
}

// openStore restores the saved session.
func openStore(ctx context.Context, cfg *config.Config) (*session.Store, error) {
	p, err := newPersister(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return loadStore(ctx, p)
}

func loadStore(ctx context.Context, p session.Persister) (*session.Store, error) {
	st := session.NewStore(p)
	if err := st.Load(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, err
	}
	return st, nil
}

func newController(cfg *config.Config, st *session.Store) *flow.Controller {
	return flow.New(client.New(cfg.APIURL, cfg.Timeout), st,
		flow.WithResendCooldown(cfg.ResendCooldown))
}

// runTUI starts the screens. An ephemeral run keeps the session in memory
// and forgets it on exit.
func runTUI(cfg *config.Config, ephemeral bool) error {
	// The TUI owns the terminal, so diagnostics go to a file.
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o700); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := tea.LogToFile(cfg.LogFile, "careerbox")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close() //nolint:errcheck

	ctx := context.Background()
	var st *session.Store
	if ephemeral {
		st, err = loadStore(ctx, session.NewMemoryPersister())
	} else {
		st, err = openStore(ctx, cfg)
	}
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	logger.Infof("session restored, route=%s", domain.NextRoute(st.Session()))

	app := tui.NewApp(newController(cfg, st), tui.Options{
		TermsURL:   cfg.TermsURL,
		PrivacyURL: cfg.PrivacyURL,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui error: %w", err)
	}
	return nil
}

func runLogout(cfg *config.Config) error {
	ctx := context.Background()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	if !st.Session().IsAuthenticated {
		fmt.Println("Already logged out.")
		return nil
	}
	if err := newController(cfg, st).Logout(ctx); err != nil {
		return err
	}
	fmt.Println("Logged out.")
	return nil
}

func runStatus(cfg *config.Config) error {
	ctx := context.Background()
	p, err := newPersister(ctx, cfg)
	if err != nil {
		return err
	}
	st, err := loadStore(ctx, p)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	printStatus(os.Stdout, st.Session(), time.Now())
	fmt.Printf("stored in:  %s\n", storageLabel(p))
	return nil
}

// storageLabel describes where p keeps the session.
func storageLabel(p session.Persister) string {
	switch p := p.(type) {
	case *session.FilePersister:
		return p.Path()
	case *session.RedisPersister:
		return "redis key " + session.StorageKey
	default:
		return "memory"
	}
}

func runProfileImport(cfg *config.Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read profile: %w", err)
	}
	p, e, err := parseProfileFile(data)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*cfg.Timeout)
	defer cancel()
	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close() //nolint:errcheck
	if err := importProfile(ctx, newController(cfg, st), p, e); err != nil {
		return err
	}
	fmt.Println("Profile saved.")
	return nil
}

// profileFile is the layout accepted by `careerbox profile import`.
type profileFile struct {
	Profile   domain.ProfileDetails   `yaml:"profile"`
	Education domain.EducationDetails `yaml:"education"`
}

func parseProfileFile(data []byte) (domain.ProfileDetails, domain.EducationDetails, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var pf profileFile
	if err := dec.Decode(&pf); err != nil {
		if errors.Is(err, io.EOF) {
			return pf.Profile, pf.Education, errors.New("parse profile: file is empty")
		}
		return pf.Profile, pf.Education, fmt.Errorf("parse profile: %w", err)
	}
	return pf.Profile, pf.Education, nil
}

func importProfile(ctx context.Context, ctrl *flow.Controller, p domain.ProfileDetails, e domain.EducationDetails) error {
	if !ctrl.Session().IsAuthenticated {
		return errors.New("not signed in, run careerbox first")
	}
	return ctrl.CompleteProfile(ctx, p, e)
}

func printStatus(w io.Writer, s domain.Session, now time.Time) {
	yesNo := func(v bool) string {
		if v {
			return "yes"
		}
		return "no"
	}
	phone := s.User.PhoneNumber
	if phone == "" {
		phone = "-"
	}
	fmt.Fprintf(w, "signed in:  %s\n", yesNo(s.IsAuthenticated))
	fmt.Fprintf(w, "next:       %s\n", domain.NextRoute(s))
	fmt.Fprintf(w, "phone:      %s\n", phone)
	fmt.Fprintf(w, "mpin:       %s\n", yesNo(s.User.HasMpin))
	fmt.Fprintf(w, "profile:    %s\n", yesNo(s.User.HasCompletedProfile))
	if s.User.Name != "" {
		fmt.Fprintf(w, "name:       %s\n", s.User.Name)
	}
	if exp, ok := session.TokenExpiry(s.Token); ok {
		state := "valid"
		if !exp.After(now) {
			state = "expired"
		}
		fmt.Fprintf(w, "token:      %s until %s\n", state, exp.Local().Format(time.DateTime))
	}
}

func openLegal(title, url string) error {
	if err := browser.Open(url); err != nil {
		fmt.Printf("Could not open browser. %s:\n  %s\n", title, strings.TrimSpace(url))
	}
	return nil
}
