package flow

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/naveenspark/careerbox/internal/session"
	"github.com/naveenspark/careerbox/pkg/client"
	"github.com/naveenspark/careerbox/pkg/domain"
)

// fakeAPI records calls and returns canned results.
type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int

	registerErr  error
	verifyResp   *client.VerifyResponse
	verifyErr    error
	loginResp    *client.LoginResponse
	loginErr     error
	pinErr       error
	profileErr   error
	educationErr error

	// block, when set, holds CreateMpin until closed.
	block   chan struct{}
	entered chan struct{}

	lastToken    string
	lastUserData json.RawMessage
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{calls: map[string]int{}}
}

func (f *fakeAPI) record(name string) {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
}

func (f *fakeAPI) count(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) Register(_ context.Context, _ string) error {
	f.record("register")
	return f.registerErr
}

func (f *fakeAPI) Verify(_ context.Context, _, _ string) (*client.VerifyResponse, error) {
	f.record("verify")
	return f.verifyResp, f.verifyErr
}

func (f *fakeAPI) LogIn(_ context.Context, _, _ string) (*client.LoginResponse, error) {
	f.record("login")
	return f.loginResp, f.loginErr
}

func (f *fakeAPI) CreateMpin(_ context.Context, token, _ string) error {
	f.record("create-pin")
	f.mu.Lock()
	f.lastToken = token
	f.mu.Unlock()
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	return f.pinErr
}

func (f *fakeAPI) UpdateProfile(_ context.Context, token string, userData json.RawMessage, _ domain.ProfileDetails) error {
	f.record("profile")
	f.mu.Lock()
	f.lastToken = token
	f.lastUserData = userData
	f.mu.Unlock()
	return f.profileErr
}

func (f *fakeAPI) UpdateEducation(_ context.Context, _ string, _ domain.EducationDetails) error {
	f.record("education")
	return f.educationErr
}

func newTestController(api *fakeAPI, opts ...Option) (*Controller, *session.Store) {
	st := session.NewStore(session.NewMemoryPersister())
	return New(api, st, opts...), st
}

func authenticatedController(t *testing.T, api *fakeAPI, opts ...Option) (*Controller, *session.Store) {
	t.Helper()
	c, st := newTestController(api, opts...)
	if err := st.Dispatch(context.Background(), session.Authenticate("abc", json.RawMessage(`{"phoneNumber":"9876543210"}`))); err != nil {
		t.Fatal(err)
	}
	return c, st
}

func TestSignUpToPinScenario(t *testing.T) {
	api := newFakeAPI()
	api.verifyResp = &client.VerifyResponse{Token: "abc", User: json.RawMessage(`{"phoneNumber":"9876543210"}`)}
	c, _ := newTestController(api)
	ctx := context.Background()

	if got := c.Route(); got != domain.RouteSignUp {
		t.Fatalf("initial Route() = %s, want sign-up", got)
	}
	if err := c.SignUp(ctx, "9876543210"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if err := c.VerifyOTP(ctx, "123456"); err != nil {
		t.Fatalf("VerifyOTP: %v", err)
	}

	s := c.Session()
	if s.Token != "abc" {
		t.Errorf("Token = %q, want %q", s.Token, "abc")
	}
	if s.User.HasMpin {
		t.Error("HasMpin = true, want false")
	}
	if s.User.PhoneNumber != "9876543210" {
		t.Errorf("PhoneNumber = %q", s.User.PhoneNumber)
	}
	if got := c.Route(); got != domain.RouteCreatePin {
		t.Errorf("Route() = %s, want create-pin", got)
	}
}

func TestSignUpRejectsBadPhoneWithoutCallingAPI(t *testing.T) {
	for _, phone := range []string{"", "12345", "98765432101", "98765abcde", " 987654321"} {
		t.Run(phone, func(t *testing.T) {
			api := newFakeAPI()
			c, _ := newTestController(api)
			err := c.SignUp(context.Background(), phone)
			if !errors.Is(err, domain.ErrInvalidPhone) {
				t.Errorf("SignUp(%q) = %v, want ErrInvalidPhone", phone, err)
			}
			if api.count("register") != 0 {
				t.Error("register was called for invalid phone")
			}
			if c.Session().User.PhoneNumber != "" {
				t.Error("session changed after validation failure")
			}
		})
	}
}

func TestSignUpWhileSignedInStartsOver(t *testing.T) {
	api := newFakeAPI()
	c, st := authenticatedController(t, api)
	ctx := context.Background()
	if err := st.Dispatch(ctx, session.SetPhoneNumber("9876543210")); err != nil {
		t.Fatal(err)
	}

	if err := c.SignUp(ctx, "9123456780"); err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	s := st.Session()
	if s.IsAuthenticated || s.Token != "" || s.UserData != nil {
		t.Errorf("previous credential kept: %+v", s)
	}
	if s.User.PhoneNumber != "9123456780" {
		t.Errorf("phone = %q, want 9123456780", s.User.PhoneNumber)
	}
	if got := c.Route(); got != domain.RouteSignUp {
		t.Errorf("Route() = %s, want sign-up", got)
	}
}

func TestSignUpServerErrorLeavesSession(t *testing.T) {
	api := newFakeAPI()
	api.registerErr = &client.HTTPError{StatusCode: 409, Message: "already registered"}
	c, _ := newTestController(api)

	err := c.SignUp(context.Background(), "9876543210")
	if !client.IsStatus(err, 409) {
		t.Fatalf("SignUp() = %v, want HTTP 409", err)
	}
	if c.Session().User.PhoneNumber != "" {
		t.Error("phone stored after failed registration")
	}
	if c.Busy(StepSignUp) {
		t.Error("sign-up guard still held after failure")
	}
}

func TestVerifyOTP(t *testing.T) {
	t.Run("needs registered phone", func(t *testing.T) {
		api := newFakeAPI()
		c, _ := newTestController(api)
		if err := c.VerifyOTP(context.Background(), "123456"); !errors.Is(err, ErrNoPhone) {
			t.Errorf("VerifyOTP() = %v, want ErrNoPhone", err)
		}
		if api.count("verify") != 0 {
			t.Error("verify called without phone")
		}
	})

	t.Run("malformed otp", func(t *testing.T) {
		api := newFakeAPI()
		c, st := newTestController(api)
		st.Dispatch(context.Background(), session.SetPhoneNumber("9876543210")) //nolint:errcheck
		if err := c.VerifyOTP(context.Background(), "12345"); !errors.Is(err, domain.ErrInvalidOTP) {
			t.Errorf("VerifyOTP() = %v, want ErrInvalidOTP", err)
		}
		if api.count("verify") != 0 {
			t.Error("verify called with malformed otp")
		}
	})

	t.Run("missing token", func(t *testing.T) {
		api := newFakeAPI()
		api.verifyResp = &client.VerifyResponse{}
		c, st := newTestController(api)
		st.Dispatch(context.Background(), session.SetPhoneNumber("9876543210")) //nolint:errcheck
		if err := c.VerifyOTP(context.Background(), "123456"); !errors.Is(err, ErrMissingToken) {
			t.Errorf("VerifyOTP() = %v, want ErrMissingToken", err)
		}
		if c.Session().IsAuthenticated {
			t.Error("authenticated without a token")
		}
	})

	t.Run("wrong otp from server", func(t *testing.T) {
		api := newFakeAPI()
		api.verifyErr = &client.HTTPError{StatusCode: 400, Message: "invalid otp"}
		c, st := newTestController(api)
		st.Dispatch(context.Background(), session.SetPhoneNumber("9876543210")) //nolint:errcheck
		if err := c.VerifyOTP(context.Background(), "000000"); !client.IsStatus(err, 400) {
			t.Errorf("VerifyOTP() = %v, want HTTP 400", err)
		}
		if c.Session().IsAuthenticated {
			t.Error("authenticated after rejected otp")
		}
	})
}

func TestCreatePinMismatchNeverCallsAPI(t *testing.T) {
	api := newFakeAPI()
	c, st := authenticatedController(t, api)
	before := st.Session()

	err := c.CreatePin(context.Background(), "1234", "4321")
	if !errors.Is(err, domain.ErrPinMismatch) {
		t.Fatalf("CreatePin() = %v, want ErrPinMismatch", err)
	}
	if !domain.IsValidation(err) {
		t.Error("IsValidation = false for pin mismatch")
	}
	if api.count("create-pin") != 0 {
		t.Error("createMpin called for mismatched pins")
	}
	after := st.Session()
	if after.User != before.User || after.Token != before.Token || after.IsAuthenticated != before.IsAuthenticated {
		t.Errorf("session changed: before %+v after %+v", before, after)
	}
}

func TestCreatePin(t *testing.T) {
	api := newFakeAPI()
	c, _ := authenticatedController(t, api)

	if err := c.CreatePin(context.Background(), "1234", "1234"); err != nil {
		t.Fatalf("CreatePin: %v", err)
	}
	if api.lastToken != "abc" {
		t.Errorf("token sent = %q, want %q", api.lastToken, "abc")
	}
	if !c.Session().User.HasMpin {
		t.Error("HasMpin = false after CreatePin")
	}
	if got := c.Route(); got != domain.RouteProfile {
		t.Errorf("Route() = %s, want profile", got)
	}
}

func TestCreatePinRequiresToken(t *testing.T) {
	api := newFakeAPI()
	c, _ := newTestController(api)
	if err := c.CreatePin(context.Background(), "1234", "1234"); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("CreatePin() = %v, want ErrNotAuthenticated", err)
	}
	if api.count("create-pin") != 0 {
		t.Error("createMpin called without token")
	}
}

func TestCreatePinServerErrorLeavesSession(t *testing.T) {
	api := newFakeAPI()
	api.pinErr = errors.New("do request: timeout")
	c, _ := authenticatedController(t, api)

	if err := c.CreatePin(context.Background(), "1234", "1234"); err == nil {
		t.Fatal("expected error")
	}
	if c.Session().User.HasMpin {
		t.Error("HasMpin set after failed call")
	}
	// A retry after failure is allowed.
	api.pinErr = nil
	if err := c.CreatePin(context.Background(), "1234", "1234"); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestCreatePinReentrancyGuard(t *testing.T) {
	api := newFakeAPI()
	api.block = make(chan struct{})
	api.entered = make(chan struct{}, 1)
	c, _ := authenticatedController(t, api)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.CreatePin(ctx, "1234", "1234") }()

	select {
	case <-api.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first CreatePin never reached the API")
	}
	if !c.Busy(StepPin) {
		t.Error("Busy(StepPin) = false while request in flight")
	}

	if err := c.CreatePin(ctx, "1234", "1234"); !errors.Is(err, ErrBusy) {
		t.Errorf("second CreatePin() = %v, want ErrBusy", err)
	}

	close(api.block)
	if err := <-done; err != nil {
		t.Fatalf("first CreatePin: %v", err)
	}
	if n := api.count("create-pin"); n != 1 {
		t.Errorf("createMpin called %d times, want 1", n)
	}
	if c.Busy(StepPin) {
		t.Error("guard still held after completion")
	}
}

func TestGuardsAreIndependentPerStep(t *testing.T) {
	api := newFakeAPI()
	api.block = make(chan struct{})
	api.entered = make(chan struct{}, 1)
	api.loginResp = &client.LoginResponse{Token: "t"}
	c, _ := authenticatedController(t, api)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.CreatePin(ctx, "1234", "1234") }()
	<-api.entered

	if err := c.SignIn(ctx, "9876543210", "1234"); err != nil {
		t.Errorf("SignIn while CreatePin in flight = %v, want nil", err)
	}
	close(api.block)
	<-done
}

func TestSignIn(t *testing.T) {
	tests := []struct {
		name      string
		completed bool
		wantRoute domain.Route
	}{
		{"profile complete", true, domain.RouteHome},
		{"profile incomplete", false, domain.RouteProfile},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAPI()
			api.loginResp = &client.LoginResponse{Token: "tok", HasCompletedProfile: tt.completed}
			c, _ := newTestController(api)

			if err := c.SignIn(context.Background(), "9876543210", "1234"); err != nil {
				t.Fatalf("SignIn: %v", err)
			}
			s := c.Session()
			if !s.IsAuthenticated || s.Token != "tok" || !s.User.HasMpin || s.User.PhoneNumber != "9876543210" {
				t.Errorf("session = %+v", s)
			}
			if got := c.Route(); got != tt.wantRoute {
				t.Errorf("Route() = %s, want %s", got, tt.wantRoute)
			}
		})
	}
}

func TestSignInAfterVerifyUsesOnlyNewAccount(t *testing.T) {
	api := newFakeAPI()
	api.verifyResp = &client.VerifyResponse{Token: "tokA", User: json.RawMessage(`{"phoneNumber":"9876543210","id":"A"}`)}
	api.loginResp = &client.LoginResponse{Token: "tokB"}
	c, st := newTestController(api)
	ctx := context.Background()

	if err := c.SignUp(ctx, "9876543210"); err != nil {
		t.Fatal(err)
	}
	if err := c.VerifyOTP(ctx, "123456"); err != nil {
		t.Fatal(err)
	}
	if err := c.SignIn(ctx, "9123456780", "2580"); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if s := st.Session(); s.UserData != nil || s.User.PhoneNumber != "9123456780" {
		t.Errorf("session after switching account = %+v", s)
	}

	err := c.CompleteProfile(ctx, domain.ProfileDetails{Name: "Ravi"}, domain.EducationDetails{CollegeName: "VJTI"})
	if err != nil {
		t.Fatalf("CompleteProfile: %v", err)
	}
	if api.lastToken != "tokB" {
		t.Errorf("profile sent with token %q, want tokB", api.lastToken)
	}
	if api.lastUserData != nil {
		t.Errorf("profile sent previous account's user record %s", api.lastUserData)
	}
}

func TestSignInFailures(t *testing.T) {
	t.Run("bad pin format", func(t *testing.T) {
		api := newFakeAPI()
		c, _ := newTestController(api)
		if err := c.SignIn(context.Background(), "9876543210", "12"); !errors.Is(err, domain.ErrInvalidPin) {
			t.Errorf("SignIn() = %v, want ErrInvalidPin", err)
		}
		if api.count("login") != 0 {
			t.Error("login called with malformed pin")
		}
	})

	t.Run("no token in response", func(t *testing.T) {
		api := newFakeAPI()
		api.loginResp = &client.LoginResponse{HasCompletedProfile: true}
		c, _ := newTestController(api)
		if err := c.SignIn(context.Background(), "9876543210", "1234"); !errors.Is(err, ErrMissingToken) {
			t.Errorf("SignIn() = %v, want ErrMissingToken", err)
		}
		if c.Session().IsAuthenticated {
			t.Error("authenticated without token")
		}
	})

	t.Run("wrong credentials", func(t *testing.T) {
		api := newFakeAPI()
		api.loginErr = &client.HTTPError{StatusCode: 401, Message: "invalid credentials"}
		c, _ := newTestController(api)
		if err := c.SignIn(context.Background(), "9876543210", "1234"); !client.IsStatus(err, 401) {
			t.Errorf("SignIn() = %v, want HTTP 401", err)
		}
		if c.Route() != domain.RouteSignUp {
			t.Error("route changed after failed sign-in")
		}
	})
}

func TestCompleteProfile(t *testing.T) {
	api := newFakeAPI()
	c, st := authenticatedController(t, api)
	st.Dispatch(context.Background(), session.SetHasMpin(true)) //nolint:errcheck

	p := domain.ProfileDetails{Name: "Asha", Email: "asha@example.com", City: "Pune"}
	e := domain.EducationDetails{CollegeName: "COEP", Degree: "B.Tech", GraduationYear: "2024"}
	if err := c.CompleteProfile(context.Background(), p, e); err != nil {
		t.Fatalf("CompleteProfile: %v", err)
	}
	if string(api.lastUserData) != `{"phoneNumber":"9876543210"}` {
		t.Errorf("user data sent = %s", api.lastUserData)
	}
	s := c.Session()
	if !s.User.HasCompletedProfile {
		t.Error("HasCompletedProfile = false")
	}
	if s.User.Name != "Asha" || s.User.CollegeName != "COEP" || s.User.GraduationYear != "2024" {
		t.Errorf("profile fields = %+v", s.User.ProfileFields)
	}
	if c.Route() != domain.RouteHome {
		t.Errorf("Route() = %s, want home", c.Route())
	}
}

func TestCompleteProfileEducationFailureLeavesSession(t *testing.T) {
	api := newFakeAPI()
	api.educationErr = &client.HTTPError{StatusCode: 500, Message: "boom"}
	c, _ := authenticatedController(t, api)

	err := c.CompleteProfile(context.Background(),
		domain.ProfileDetails{Name: "Asha"}, domain.EducationDetails{CollegeName: "COEP"})
	if !client.IsStatus(err, 500) {
		t.Fatalf("CompleteProfile() = %v, want HTTP 500", err)
	}
	s := c.Session()
	if s.User.HasCompletedProfile || s.User.Name != "" {
		t.Errorf("session changed after partial failure: %+v", s.User)
	}
}

func TestCompleteProfileValidation(t *testing.T) {
	api := newFakeAPI()
	c, _ := authenticatedController(t, api)

	err := c.CompleteProfile(context.Background(), domain.ProfileDetails{}, domain.EducationDetails{CollegeName: "COEP"})
	if !errors.Is(err, domain.ErrInvalidProfile) {
		t.Errorf("CompleteProfile() = %v, want ErrInvalidProfile", err)
	}
	if api.count("profile") != 0 {
		t.Error("profile endpoint called for invalid input")
	}
}

func TestResendOTPCooldown(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	api := newFakeAPI()
	c, _ := newTestController(api, WithClock(clock), WithResendCooldown(30*time.Second))
	ctx := context.Background()

	if err := c.ResendOTP(ctx); !errors.Is(err, ErrNoPhone) {
		t.Fatalf("ResendOTP before sign-up = %v, want ErrNoPhone", err)
	}
	if err := c.SignUp(ctx, "9876543210"); err != nil {
		t.Fatal(err)
	}

	now = now.Add(10 * time.Second)
	if got := c.ResendIn(); got != 20*time.Second {
		t.Errorf("ResendIn() = %v, want 20s", got)
	}
	if err := c.ResendOTP(ctx); !errors.Is(err, ErrResendCooldown) {
		t.Errorf("ResendOTP during cooldown = %v, want ErrResendCooldown", err)
	}

	now = now.Add(25 * time.Second)
	if err := c.ResendOTP(ctx); err != nil {
		t.Fatalf("ResendOTP after cooldown: %v", err)
	}
	if n := api.count("register"); n != 2 {
		t.Errorf("register called %d times, want 2", n)
	}
	if got := c.ResendIn(); got != 30*time.Second {
		t.Errorf("ResendIn() after resend = %v, want 30s", got)
	}
}

func TestLogout(t *testing.T) {
	api := newFakeAPI()
	c, st := authenticatedController(t, api)
	st.DispatchAll(context.Background(), session.SetHasMpin(true), session.SetHasCompletedProfile(true)) //nolint:errcheck

	if err := c.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	s := c.Session()
	if s.IsAuthenticated || s.Token != "" || s.User != (domain.User{}) {
		t.Errorf("session after logout = %+v", s)
	}
	if c.Route() != domain.RouteSignUp {
		t.Errorf("Route() = %s, want sign-up", c.Route())
	}
}
