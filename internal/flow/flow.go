// Package flow sequences the onboarding and sign-in steps. It validates
// input locally, calls the auth API, and records each success in the
// session store. A failed step leaves the session untouched.
package flow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/naveenspark/careerbox/internal/logger"
	"github.com/naveenspark/careerbox/internal/session"
	"github.com/naveenspark/careerbox/pkg/client"
	"github.com/naveenspark/careerbox/pkg/domain"
)

// DefaultResendCooldown is the minimum gap between OTP resends.
const DefaultResendCooldown = 30 * time.Second

var (
	// ErrBusy is returned when the same step is already in flight.
	ErrBusy = errors.New("request already in progress")
	// ErrNoPhone is returned when OTP verification runs before registration.
	ErrNoPhone = errors.New("no phone number registered")
	// ErrNotAuthenticated is returned when a step needs a token and there is none.
	ErrNotAuthenticated = errors.New("not signed in")
	// ErrMissingToken is returned when the server reports success without a token.
	ErrMissingToken = errors.New("server response carried no token")
	// ErrResendCooldown is returned when an OTP resend comes too soon.
	ErrResendCooldown = errors.New("please wait before requesting a new code")
)

// AuthAPI is the remote auth service. *client.Client satisfies it.
type AuthAPI interface {
	Register(ctx context.Context, phone string) error
	Verify(ctx context.Context, phone, otp string) (*client.VerifyResponse, error)
	LogIn(ctx context.Context, phone, pin string) (*client.LoginResponse, error)
	CreateMpin(ctx context.Context, token, pin string) error
	UpdateProfile(ctx context.Context, token string, userData json.RawMessage, p domain.ProfileDetails) error
	UpdateEducation(ctx context.Context, token string, e domain.EducationDetails) error
}

// Step names one guarded action.
type Step string

const (
	StepSignUp  Step = "sign-up"
	StepVerify  Step = "verify-otp"
	StepResend  Step = "resend-otp"
	StepPin     Step = "create-pin"
	StepSignIn  Step = "sign-in"
	StepProfile Step = "complete-profile"
)

// Controller drives a user from signed out to fully onboarded.
type Controller struct {
	api      AuthAPI
	store    *session.Store
	cooldown time.Duration
	now      func() time.Time

	guards sync.Map // Step -> *atomic.Bool

	mu         sync.Mutex
	lastResend time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithResendCooldown overrides DefaultResendCooldown.
func WithResendCooldown(d time.Duration) Option {
	return func(c *Controller) { c.cooldown = d }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New creates a controller over api and store.
func New(api AuthAPI, store *session.Store, opts ...Option) *Controller {
	c := &Controller{
		api:      api,
		store:    store,
		cooldown: DefaultResendCooldown,
		now:      time.Now,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Session returns a copy of the current session.
func (c *Controller) Session() domain.Session {
	return c.store.Session()
}

// Route picks the screen for the current session without changing it.
func (c *Controller) Route() domain.Route {
	return domain.NextRoute(c.store.Session())
}

// Busy reports whether step is in flight.
func (c *Controller) Busy(step Step) bool {
	return c.guard(step).Load()
}

func (c *Controller) guard(step Step) *atomic.Bool {
	g, _ := c.guards.LoadOrStore(step, new(atomic.Bool))
	return g.(*atomic.Bool)
}

// enter claims step, returning a release func, or ErrBusy if it is taken.
func (c *Controller) enter(step Step) (func(), error) {
	g := c.guard(step)
	if !g.CompareAndSwap(false, true) {
		logger.Infof("flow: %s ignored, already in flight", step)
		return nil, ErrBusy
	}
	return func() { g.Store(false) }, nil
}

// SignUp registers phone and remembers it for OTP verification.
func (c *Controller) SignUp(ctx context.Context, phone string) error {
	if err := domain.ValidatePhone(phone); err != nil {
		return fmt.Errorf("flow.SignUp: %w", err)
	}
	release, err := c.enter(StepSignUp)
	if err != nil {
		return fmt.Errorf("flow.SignUp: %w", err)
	}
	defer release()

	if err := c.api.Register(ctx, phone); err != nil {
		logger.Errorf("flow: registration failed: %v", err)
		return fmt.Errorf("flow.SignUp: %w", err)
	}
	c.mu.Lock()
	c.lastResend = c.now()
	c.mu.Unlock()
	// Registering a number starts a new onboarding; drop any credential
	// still held for another account.
	if c.store.Session().IsAuthenticated {
		logger.Infof("flow: sign-up while signed in, clearing previous session")
		return c.store.DispatchAll(ctx, session.Reset(), session.SetPhoneNumber(phone))
	}
	return c.store.Dispatch(ctx, session.SetPhoneNumber(phone))
}

// ResendOTP asks the server to send a new code to the registered phone.
func (c *Controller) ResendOTP(ctx context.Context) error {
	phone := c.store.Session().User.PhoneNumber
	if phone == "" {
		return fmt.Errorf("flow.ResendOTP: %w", ErrNoPhone)
	}
	if wait := c.ResendIn(); wait > 0 {
		return fmt.Errorf("flow.ResendOTP: %w (%s)", ErrResendCooldown, wait.Round(time.Second))
	}
	release, err := c.enter(StepResend)
	if err != nil {
		return fmt.Errorf("flow.ResendOTP: %w", err)
	}
	defer release()

	if err := c.api.Register(ctx, phone); err != nil {
		logger.Errorf("flow: otp resend failed: %v", err)
		return fmt.Errorf("flow.ResendOTP: %w", err)
	}
	c.mu.Lock()
	c.lastResend = c.now()
	c.mu.Unlock()
	return nil
}

// ResendIn returns how long until ResendOTP is allowed again.
func (c *Controller) ResendIn() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastResend.IsZero() {
		return 0
	}
	wait := c.cooldown - c.now().Sub(c.lastResend)
	if wait < 0 {
		return 0
	}
	return wait
}

// VerifyOTP confirms otp for the registered phone and signs the user in.
func (c *Controller) VerifyOTP(ctx context.Context, otp string) error {
	if err := domain.ValidateOTP(otp); err != nil {
		return fmt.Errorf("flow.VerifyOTP: %w", err)
	}
	phone := c.store.Session().User.PhoneNumber
	if phone == "" {
		return fmt.Errorf("flow.VerifyOTP: %w", ErrNoPhone)
	}
	release, err := c.enter(StepVerify)
	if err != nil {
		return fmt.Errorf("flow.VerifyOTP: %w", err)
	}
	defer release()

	resp, err := c.api.Verify(ctx, phone, otp)
	if err != nil {
		logger.Errorf("flow: verification failed: %v", err)
		return fmt.Errorf("flow.VerifyOTP: %w", err)
	}
	if resp.Token == "" {
		logger.Errorf("flow: verification succeeded without a token")
		return fmt.Errorf("flow.VerifyOTP: %w", ErrMissingToken)
	}
	return c.store.Dispatch(ctx, session.Authenticate(resp.Token, resp.User))
}

// CreatePin sets the MPIN once pin and confirm match.
func (c *Controller) CreatePin(ctx context.Context, pin, confirm string) error {
	if err := domain.ValidatePinPair(pin, confirm); err != nil {
		return fmt.Errorf("flow.CreatePin: %w", err)
	}
	s := c.store.Session()
	if !s.IsAuthenticated || s.Token == "" {
		return fmt.Errorf("flow.CreatePin: %w", ErrNotAuthenticated)
	}
	release, err := c.enter(StepPin)
	if err != nil {
		return fmt.Errorf("flow.CreatePin: %w", err)
	}
	defer release()

	if err := c.api.CreateMpin(ctx, s.Token, pin); err != nil {
		logger.Errorf("flow: mpin creation failed: %v", err)
		return fmt.Errorf("flow.CreatePin: %w", err)
	}
	return c.store.Dispatch(ctx, session.SetHasMpin(true))
}

// SignIn signs a returning user in with phone and MPIN.
func (c *Controller) SignIn(ctx context.Context, phone, pin string) error {
	if err := domain.ValidatePhone(phone); err != nil {
		return fmt.Errorf("flow.SignIn: %w", err)
	}
	if err := domain.ValidatePin(pin); err != nil {
		return fmt.Errorf("flow.SignIn: %w", err)
	}
	release, err := c.enter(StepSignIn)
	if err != nil {
		return fmt.Errorf("flow.SignIn: %w", err)
	}
	defer release()

	resp, err := c.api.LogIn(ctx, phone, pin)
	if err != nil {
		logger.Errorf("flow: sign-in failed: %v", err)
		return fmt.Errorf("flow.SignIn: %w", err)
	}
	if resp.Token == "" {
		logger.Errorf("flow: sign-in succeeded without a token")
		return fmt.Errorf("flow.SignIn: %w", ErrMissingToken)
	}
	return c.store.Dispatch(ctx, session.SignedIn(phone, resp.Token, resp.HasCompletedProfile))
}

// CompleteProfile submits profile then education details. The session is
// only updated when both succeed.
func (c *Controller) CompleteProfile(ctx context.Context, p domain.ProfileDetails, e domain.EducationDetails) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("flow.CompleteProfile: %w", err)
	}
	if err := e.Validate(); err != nil {
		return fmt.Errorf("flow.CompleteProfile: %w", err)
	}
	s := c.store.Session()
	if !s.IsAuthenticated || s.Token == "" {
		return fmt.Errorf("flow.CompleteProfile: %w", ErrNotAuthenticated)
	}
	release, err := c.enter(StepProfile)
	if err != nil {
		return fmt.Errorf("flow.CompleteProfile: %w", err)
	}
	defer release()

	if err := c.api.UpdateProfile(ctx, s.Token, s.UserData, p); err != nil {
		logger.Errorf("flow: profile update failed: %v", err)
		return fmt.Errorf("flow.CompleteProfile: %w", err)
	}
	if err := c.api.UpdateEducation(ctx, s.Token, e); err != nil {
		logger.Errorf("flow: education update failed: %v", err)
		return fmt.Errorf("flow.CompleteProfile: %w", err)
	}
	return c.store.DispatchAll(ctx,
		session.UpdateProfile(domain.Fields(p, e)),
		session.SetHasCompletedProfile(true),
	)
}

// Logout clears the session.
func (c *Controller) Logout(ctx context.Context) error {
	c.mu.Lock()
	c.lastResend = time.Time{}
	c.mu.Unlock()
	return c.store.Dispatch(ctx, session.Reset())
}
