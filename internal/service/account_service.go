package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"account-api/internal/event"
	"account-api/internal/model"
	"account-api/internal/token"
	"account-api/pkg/apierror"
)

const (
	DefaultHashCost = 12
	TokenType       = "Bearer"
)

type UserStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u model.User) error
}

type TokenIssuer interface {
	Issue(userID string, email string) (token.Issued, error)
}

type AccountService struct {
	users    UserStore
	tokens   TokenIssuer
	bus      event.Bus
	hashCost int
	compare  func(hash []byte, password []byte) error
	now      func() time.Time

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAccountService accepts a nil bus when activity events are not wanted.
func NewAccountService(users UserStore, tokens TokenIssuer, bus event.Bus) *AccountService {
	return &AccountService{
		users:    users,
		tokens:   tokens,
		bus:      bus,
		hashCost: DefaultHashCost,
		compare:  bcrypt.CompareHashAndPassword,
		now:      time.Now,
	}
}

func (s *AccountService) Register(ctx context.Context, req model.RegisterRequest) (model.AccountResponse, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return model.AccountResponse{}, apierror.BadRequest("invalid registration request", err.Error())
	}

	taken, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return model.AccountResponse{}, err
	}
	if taken {
		return model.AccountResponse{}, emailTaken()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return model.AccountResponse{}, apierror.BadRequest("password is too long", "password")
	}
	if err != nil {
		return model.AccountResponse{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		DisplayName:  req.DisplayName,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// Issue before storing so a misconfigured key does not leave an account
	// behind that the caller was never told about.
	issued, err := s.issue(user)
	if err != nil {
		return model.AccountResponse{}, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrUserAlreadyExists) {
			return model.AccountResponse{}, emailTaken()
		}
		return model.AccountResponse{}, err
	}

	s.publish(event.TypeAccountRegistered, user.ID, user.Email)
	return accountResponse(user, issued), nil
}

func (s *AccountService) Login(ctx context.Context, req model.LoginRequest) (model.AccountResponse, error) {
	req = req.Normalize()
	if err := req.Validate(); err != nil {
		return model.AccountResponse{}, apierror.BadRequest("invalid login request", err.Error())
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, model.ErrUserNotFound) {
		// Unknown emails pay one bcrypt comparison, like a wrong password.
		_ = s.compare(s.dummyPasswordHash(), []byte(req.Password))
		s.publish(event.TypeAccountLoginFailed, "", req.Email)
		return model.AccountResponse{}, invalidCredentials()
	}
	if err != nil {
		return model.AccountResponse{}, err
	}

	if err := s.compare([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.publish(event.TypeAccountLoginFailed, user.ID, user.Email)
		return model.AccountResponse{}, invalidCredentials()
	}

	issued, err := s.issue(user)
	if err != nil {
		return model.AccountResponse{}, err
	}

	s.publish(event.TypeAccountLoggedIn, user.ID, user.Email)
	return accountResponse(user, issued), nil
}

func (s *AccountService) Me(ctx context.Context, userID string) (model.Profile, error) {
	if userID == "" {
		return model.Profile{}, apierror.Unauthorized("authentication required")
	}

	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.Profile{}, apierror.NotFound("user not found", "")
	}
	if err != nil {
		return model.Profile{}, err
	}

	return user.Profile(), nil
}

// dummyPasswordHash is generated at the service's cost on first use.
func (s *AccountService) dummyPasswordHash() []byte {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.hashCost)
	})
	return s.dummyHash
}

func (s *AccountService) issue(user model.User) (token.Issued, error) {
	issued, err := s.tokens.Issue(user.ID, user.Email)
	if errors.Is(err, token.ErrKeyMissing) || errors.Is(err, token.ErrKeyTooShort) {
		return token.Issued{}, apierror.Wrap(err, apierror.CodeTokenConfiguration,
			"authentication is not configured", http.StatusInternalServerError)
	}
	if err != nil {
		return token.Issued{}, fmt.Errorf("issue token: %w", err)
	}
	return issued, nil
}

func (s *AccountService) publish(t event.Type, userID string, email string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(event.Event{Type: t, ActorID: userID, Email: email, Timestamp: s.now().UTC()})
}

func accountResponse(user model.User, issued token.Issued) model.AccountResponse {
	return model.AccountResponse{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Token:       issued.Token,
		TokenType:   TokenType,
		ExpiresAt:   issued.ExpiresAt,
	}
}

func emailTaken() *apierror.APIError {
	return apierror.Wrap(model.ErrUserAlreadyExists, apierror.CodeEmailTaken,
		"email is already registered", http.StatusConflict)
}

func invalidCredentials() *apierror.APIError {
	return apierror.Wrap(model.ErrInvalidCredentials, apierror.CodeUnauthorized,
		"invalid email or password", http.StatusUnauthorized)
}
