// Package devserver is a local stand-in for the careerbox auth service. It
// speaks the same HTTP contract as the hosted API, keeps users in memory,
// hashes MPINs with bcrypt and issues HS256 JWTs as session tokens.
package devserver

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/naveenspark/careerbox/internal/logger"
	"github.com/naveenspark/careerbox/pkg/domain"
)

// Options configures a Server.
type Options struct {
	// FixedOTP, when set, is issued to every registration.
	FixedOTP string
	// Secret signs session tokens.
	Secret []byte
	// TokenTTL is how long an issued token stays valid.
	TokenTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost. Tests use bcrypt.MinCost.
	BcryptCost int
	// Now overrides time.Now.
	Now func() time.Time
}

type user struct {
	ID           string
	Phone        string
	PinHash      []byte
	Profile      domain.ProfileDetails
	Education    domain.EducationDetails
	HasProfile   bool
	HasEducation bool
	RegisteredAt time.Time
	LastSignInAt time.Time

	otp          string
	otpConfirmed bool
}

func (u *user) completed() bool { return u.HasProfile && u.HasEducation }

// publicUser is the user record returned from OTP confirmation. The app sends
// it back verbatim in the "user" header of profile updates.
type publicUser struct {
	ID                  string `json:"id"`
	PhoneNumber         string `json:"phoneNumber"`
	HasMpin             bool   `json:"hasMpin"`
	HasCompletedProfile bool   `json:"hasCompletedProfile"`
}

func (u *user) public() publicUser {
	return publicUser{
		ID:                  u.ID,
		PhoneNumber:         u.Phone,
		HasMpin:             len(u.PinHash) > 0,
		HasCompletedProfile: u.completed(),
	}
}

// Server holds the in-memory user table.
type Server struct {
	opts   Options
	tokens *tokenIssuer

	mu    sync.Mutex
	users map[string]*user
}

// New creates a Server. Secret and TokenTTL are required.
func New(opts Options) (*Server, error) {
	if len(opts.Secret) == 0 {
		return nil, errors.New("devserver: secret is required")
	}
	if opts.TokenTTL <= 0 {
		return nil, errors.New("devserver: token ttl must be positive")
	}
	if opts.BcryptCost == 0 {
		opts.BcryptCost = bcrypt.DefaultCost
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Server{
		opts:   opts,
		tokens: &tokenIssuer{secret: opts.Secret, ttl: opts.TokenTTL, now: opts.Now},
		users:  make(map[string]*user),
	}, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(requestLog)
	r.Use(chimw.Recoverer)

	r.Post("/auth/register", s.register)
	r.Post("/auth/confirm-otp", s.confirmOTP)
	r.Post("/auth/sign-in", s.signIn)

	r.Route("/api/user", func(r chi.Router) {
		r.Use(s.requireToken)
		r.Post("/create-pin", s.createPin)
		r.Post("/profileDetails", s.profileDetails)
		r.Post("/educationDetails", s.educationDetails)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok")) //nolint:errcheck
	})
	return r
}

// OTP returns the code currently pending for phone, if any.
func (s *Server) OTP(phone string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[phone]
	if !ok || u.otp == "" {
		return "", false
	}
	return u.otp, true
}

// Profile returns what phone has submitted so far.
func (s *Server) Profile(phone string) (domain.ProfileDetails, domain.EducationDetails, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[phone]
	if !ok {
		return domain.ProfileDetails{}, domain.EducationDetails{}, false
	}
	return u.Profile, u.Education, true
}

func (s *Server) newOTP() (string, error) {
	if s.opts.FixedOTP != "" {
		return s.opts.FixedOTP, nil
	}
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhoneNumber string `json:"phoneNumber"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := domain.ValidatePhone(req.PhoneNumber); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	otp, err := s.newOTP()
	if err != nil {
		logger.Errorf("generate otp: %v", err)
		writeError(w, http.StatusInternalServerError, "could not send otp")
		return
	}

	s.mu.Lock()
	u, ok := s.users[req.PhoneNumber]
	if ok && len(u.PinHash) > 0 {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "phone number already registered, sign in instead")
		return
	}
	if !ok {
		u = &user{ID: uuid.NewString(), Phone: req.PhoneNumber, RegisteredAt: s.opts.Now()}
		s.users[req.PhoneNumber] = u
	}
	u.otp = otp
	u.otpConfirmed = false
	s.mu.Unlock()

	// There is no SMS gateway; the code goes to the log.
	logger.Infof("otp for %s: %s", req.PhoneNumber, otp)
	writeData(w, http.StatusOK, map[string]string{"message": "OTP sent"})
}

func (s *Server) confirmOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhoneNumber string `json:"phoneNumber"`
		OTP         string `json:"otp"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := domain.ValidateOTP(req.OTP); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	u, ok := s.users[req.PhoneNumber]
	if !ok || u.otp == "" || u.otp != req.OTP {
		s.mu.Unlock()
		writeError(w, http.StatusBadRequest, "invalid otp")
		return
	}
	u.otp = ""
	u.otpConfirmed = true
	pub := u.public()
	s.mu.Unlock()

	tok, _, err := s.tokens.issue(req.PhoneNumber)
	if err != nil {
		logger.Errorf("issue token: %v", err)
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeData(w, http.StatusOK, map[string]any{"token": tok, "user": pub})
}

func (s *Server) signIn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PhoneNumber string `json:"phoneNumber"`
		Mpin        string `json:"mpin"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	s.mu.Lock()
	u, ok := s.users[req.PhoneNumber]
	var hash []byte
	if ok {
		hash = u.PinHash
	}
	s.mu.Unlock()

	if len(hash) == 0 || bcrypt.CompareHashAndPassword(hash, []byte(req.Mpin)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid phone number or mpin")
		return
	}

	tok, _, err := s.tokens.issue(req.PhoneNumber)
	if err != nil {
		logger.Errorf("issue token: %v", err)
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	s.mu.Lock()
	u.LastSignInAt = s.opts.Now()
	completed := u.completed()
	s.mu.Unlock()
	writeData(w, http.StatusOK, map[string]any{"token": tok, "hasCompletedProfile": completed})
}

func (s *Server) createPin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pin string `json:"pin"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if err := domain.ValidatePin(req.Pin); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Pin), s.opts.BcryptCost)
	if err != nil {
		logger.Errorf("hash mpin: %v", err)
		writeError(w, http.StatusInternalServerError, "could not set mpin")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[phoneFrom(r.Context())]
	if u == nil || !u.otpConfirmed {
		writeError(w, http.StatusForbidden, "phone number not verified")
		return
	}
	u.PinHash = hash
	writeData(w, http.StatusOK, map[string]string{"message": "MPIN created"})
}

func (s *Server) profileDetails(w http.ResponseWriter, r *http.Request) {
	if h := r.Header.Get("user"); h != "" && !json.Valid([]byte(h)) {
		writeError(w, http.StatusBadRequest, "user header is not valid JSON")
		return
	}
	var req domain.ProfileDetails
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[phoneFrom(r.Context())]
	if u == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	u.Profile = req
	u.HasProfile = true
	writeData(w, http.StatusOK, u.public())
}

func (s *Server) educationDetails(w http.ResponseWriter, r *http.Request) {
	var req domain.EducationDetails
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[phoneFrom(r.Context())]
	if u == nil {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	u.Education = req
	u.HasEducation = true
	writeData(w, http.StatusOK, u.public())
}

type ctxKey struct{}

func phoneFrom(ctx context.Context) string {
	p, _ := ctx.Value(ctxKey{}).(string)
	return p
}

// requireToken rejects requests whose Authorization header is not a token
// issued by this server.
func (s *Server) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		phone, err := s.tokens.parse(r.Header.Get("Authorization"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, phone)))
	})
}
