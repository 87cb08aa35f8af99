package application

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"

	"github.com/placeshare/places-api/internal/domain/entity"
	repo "github.com/placeshare/places-api/internal/domain/repository"
	"github.com/placeshare/places-api/pkg/helpers"
	"github.com/placeshare/places-api/pkg/mailer"
)

var (
	// ErrUnknownEmail means no account exists for the login email (401).
	ErrUnknownEmail = errors.New("no user found for email")
	// ErrWrongPassword means the account exists but the password did not
	// match (403). The split mirrors the original API contract.
	ErrWrongPassword = errors.New("invalid password")
	// ErrEmailTaken is returned when signup hits the unique email index (422).
	ErrEmailTaken = errors.New("email already registered")
)

const uniqueViolation = "23505"

// UserService covers signup, login, and user reads. GCS and the queue
// publisher are optional; when unset the corresponding side effects are
// skipped.
type UserService struct {
	Repo        repo.UserRepository
	JWT         *helpers.JWTManager
	GCS         *storage.Client
	GCSBucket   string
	Pub         *helpers.RabbitPublisher
	MailEnabled bool
	Logger      *logrus.Logger
}

func NewUserService(repo repo.UserRepository, jwt *helpers.JWTManager, gcs *storage.Client, gcsBucket string, pub *helpers.RabbitPublisher, mailEnabled bool, logger *logrus.Logger) *UserService {
	return &UserService{
		Repo:        repo,
		JWT:         jwt,
		GCS:         gcs,
		GCSBucket:   gcsBucket,
		Pub:         pub,
		MailEnabled: mailEnabled,
		Logger:      logger,
	}
}

// Token carries an issued bearer token and its expiry.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
	ImageURL string
}

// Signup creates an account and issues a bearer token. The stored credential
// is always the bcrypt hash, never the plaintext.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*entity.User, Token, error) {
	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, Token{}, err
	}

	u := &entity.User{
		Name:         in.Name,
		Email:        normalizeEmail(in.Email),
		PasswordHash: hash,
		ImageURL:     in.ImageURL,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, Token{}, ErrEmailTaken
		}
		return nil, Token{}, err
	}

	tok, err := s.issueToken(u)
	if err != nil {
		return nil, Token{}, err
	}

	s.publishWelcome(ctx, u)
	return u, tok, nil
}

// Login verifies credentials and issues a bearer token. Unknown email and
// wrong password are distinct failures by contract.
func (s *UserService) Login(ctx context.Context, email, password string) (*entity.User, Token, error) {
	u, err := s.Repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, Token{}, ErrUnknownEmail
		}
		return nil, Token{}, err
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, password) {
		return nil, Token{}, ErrWrongPassword
	}

	tok, err := s.issueToken(u)
	if err != nil {
		return nil, Token{}, err
	}
	return u, tok, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (*entity.User, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *UserService) ListUsers(ctx context.Context) ([]*entity.User, error) {
	return s.Repo.List(ctx)
}

// UploadAvatar stores a signup avatar in GCS and returns its public URL.
// Returns "" when object storage is not configured.
func (s *UserService) UploadAvatar(ctx context.Context, r io.Reader, filename, contentType string) (string, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return "", nil
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := "avatars/" + uuid.NewString() + ext
	return helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
}

func (s *UserService) issueToken(u *entity.User) (Token, error) {
	value, exp, err := s.JWT.Issue(u.ID, u.Email)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Error("token signing failed")
		}
		return Token{}, err
	}
	return Token{Value: value, ExpiresAt: exp}, nil
}

func (s *UserService) publishWelcome(ctx context.Context, u *entity.User) {
	if s.Pub == nil || !s.MailEnabled {
		return
	}
	if err := s.Pub.PublishJSON(ctx, mailer.WelcomeJob(u.Email, u.Name)); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("welcome email enqueue failed")
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
