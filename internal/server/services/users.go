package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophplaces/internal/common"
	"github.com/dmitrijs2005/gophplaces/internal/logging"
	"github.com/dmitrijs2005/gophplaces/internal/server/auth"
	"github.com/dmitrijs2005/gophplaces/internal/server/models"
	"github.com/dmitrijs2005/gophplaces/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophplaces/internal/server/storage"
)

const opSignupWriteFailed = "signup_write_failed"

// AuthResult is what signup and login hand back to the client.
type AuthResult struct {
	UserID string
	Email  string
	Token  string
}

type SignupInput struct {
	Name     string
	Email    string
	Password string
	Image    *models.ImageUpload
}

type UserService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	storage     ObjectStorage
	tokens      TokenIssuer
	logger      logging.Logger
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, storage ObjectStorage, tokens TokenIssuer, logger logging.Logger) *UserService {
	return &UserService{
		db:          db,
		repomanager: m,
		storage:     storage,
		tokens:      tokens,
		logger:      logger.With("module", "users"),
	}
}

// dummyHash is checked against when the email is unknown, so that a login
// for a missing user costs the same as one with a wrong password.
var dummyHash = sync.OnceValue(func() string {
	pw, _ := common.MakeRandHexString(16)
	h, _ := auth.HashPassword(pw)
	return h
})

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup creates a user and logs them in. The email is checked before any
// hashing or upload work is done; the unique index settles races.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	repo := s.repomanager.Users(s.db)
	email := normalizeEmail(in.Email)

	_, err := repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, common.ErrEmailTaken
	case !errors.Is(err, common.ErrorNotFound):
		return nil, persistenceFailed(err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: hash password: %v", common.ErrInternal, err)
	}

	var image *models.Image
	if in.Image != nil {
		image, err = s.storage.Upload(ctx, in.Image.Data, in.Image.ContentType, storage.FolderUsers)
		if err != nil {
			return nil, uploadFailed(err)
		}
	}

	user, err := repo.Create(ctx, &models.User{
		Name:         in.Name,
		Email:        email,
		PasswordHash: hash,
		Image:        image,
	})
	if err != nil {
		discardImage(ctx, s.storage, s.logger, image, opSignupWriteFailed)
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrEmailTaken
		}
		s.logger.Error(ctx, "signup failed", "error", err)
		return nil, persistenceFailed(err)
	}

	s.logger.Info(ctx, "user signed up", "user_id", user.ID)
	return s.authResult(user)
}

// Login checks credentials. An unknown email and a wrong password are
// reported identically, as common.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.CheckPassword(password, dummyHash())
			return nil, common.ErrInvalidCredentials
		}
		return nil, persistenceFailed(err)
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, common.ErrInvalidCredentials
	}

	return s.authResult(user)
}

// List returns all users with their place-id sets. Password hashes are
// never included.
func (s *UserService) List(ctx context.Context) ([]*models.User, error) {
	list, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return nil, persistenceFailed(err)
	}
	for _, u := range list {
		u.PasswordHash = ""
	}
	return list, nil
}

func (s *UserService) authResult(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("%w: issue token: %v", common.ErrInternal, err)
	}
	return &AuthResult{UserID: user.ID, Email: user.Email, Token: token}, nil
}
