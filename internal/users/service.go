package users

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/devblog/devblog-api/internal/config"
	"github.com/devblog/devblog-api/internal/mailer"
	"github.com/devblog/devblog-api/internal/models"
	"github.com/devblog/devblog-api/pkg/logger"
	"github.com/devblog/devblog-api/pkg/metrics"
	"github.com/go-playground/validator/v10"
)

var (
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrInvalidDisplayName = errors.New("invalid display name")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type profileInput struct {
	DisplayName string `validate:"max=100"`
	Email       string `validate:"required,simpleemail"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("simpleemail", func(fl validator.FieldLevel) bool {
		return emailPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(fmt.Sprintf("register simpleemail validation: %v", err))
	}
	return v
}

// Service encapsulates user-related business logic
type Service struct {
	repo      UserRepository
	mail      mailer.Sender
	validate  *validator.Validate
	publicURL string
	ttl       time.Duration
	now       func() time.Time
}

func NewService(r UserRepository, m mailer.Sender, cfg config.VerificationConfig) *Service {
	return &Service{
		repo:      r,
		mail:      m,
		validate:  newValidator(),
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
		ttl:       cfg.TokenTTL,
		now:       time.Now,
	}
}

// UpdateProfile stores displayName, stages email as pending and mails a
// redemption link. The token replaces any earlier unredeemed one.
func (s *Service) UpdateProfile(ctx context.Context, callerID, displayName, email string) error {
	in := profileInput{DisplayName: strings.TrimSpace(displayName), Email: strings.TrimSpace(email)}
	if err := s.validate.Struct(in); err != nil {
		return classify(err)
	}
	token, err := newToken()
	if err != nil {
		return fmt.Errorf("generate token: %w", err)
	}
	err = s.repo.StagePending(ctx, callerID, models.PendingVerification{
		DisplayName: in.DisplayName,
		Email:       in.Email,
		Token:       token,
		ExpiresAt:   s.now().Add(s.ttl),
	})
	if err != nil {
		return err
	}
	if err := s.mail.Send(ctx, mailer.VerificationMessage(in.Email, s.verifyLink(token))); err != nil {
		metrics.VerificationEmails.WithLabelValues("error").Inc()
		return fmt.Errorf("send verification email: %w", err)
	}
	metrics.VerificationEmails.WithLabelValues("sent").Inc()
	logger.Debugf("verification email sent for user %s", callerID)
	return nil
}

// RedeemVerification promotes the pending email of the user holding token.
func (s *Service) RedeemVerification(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	u, err := s.repo.Redeem(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, ErrTokenNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return u, nil
}

// EnsureUser returns the user document for an identity, creating it on first sight.
func (s *Service) EnsureUser(ctx context.Context, id, displayName, email string) (*models.User, error) {
	if id == "" {
		return nil, errors.New("empty identity id")
	}
	return s.repo.Ensure(ctx, &models.User{ID: id, DisplayName: displayName, Email: email})
}

func (s *Service) verifyLink(token string) string {
	return s.publicURL + "/api/user/verify-email?token=" + url.QueryEscape(token)
}

// classify maps a validation failure to the field-level sentinel; email wins.
func classify(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ErrInvalidEmail
	}
	for _, fe := range verrs {
		if fe.Field() == "Email" {
			return ErrInvalidEmail
		}
	}
	return ErrInvalidDisplayName
}

func newToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
