package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"cliphub/internal/hash"
	"cliphub/internal/model"
	"cliphub/internal/storage"
	"cliphub/internal/token"
	"cliphub/pkg/apierror"
)

// UserStore is the slice of the user repository the services depend on.
type UserStore interface {
	Create(ctx context.Context, u model.User) error
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByUsername(ctx context.Context, username string) (model.User, error)
	FindByUsernameOrEmail(ctx context.Context, username string, email string) (model.User, error)
	ExistsByUsernameOrEmail(ctx context.Context, username string, email string) (bool, error)
	SetRefreshToken(ctx context.Context, userID string, refreshToken string) error
	RotateRefreshToken(ctx context.Context, userID string, old string, next string) (bool, error)
	ClearRefreshToken(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID string, passwordHash string) error
	UpdateProfile(ctx context.Context, userID string, fullName string, email string) (model.User, error)
	UpdateAvatar(ctx context.Context, userID string, avatarURL string) (model.User, error)
	UpdateCoverImage(ctx context.Context, userID string, coverImageURL string) (model.User, error)
}

type AccountService struct {
	users  UserStore
	tokens *token.Service
	store  storage.MediaStore
}

func NewAccountService(users UserStore, tokens *token.Service, store storage.MediaStore) *AccountService {
	return &AccountService{users: users, tokens: tokens, store: store}
}

type RegisterInput struct {
	FullName string
	Username string
	Email    string
	Password string
}

// Register creates a user from validated input plus an uploaded avatar
// (mandatory) and cover image (optional). Validation failures are
// aggregated into a single error listing every violation.
func (s *AccountService) Register(ctx context.Context, in RegisterInput, avatarPath string, coverPath string) (model.PublicUser, error) {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Username = strings.ToLower(strings.TrimSpace(in.Username))
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	var violations []string
	if in.FullName == "" {
		violations = append(violations, "fullName is required")
	}
	if in.Username == "" {
		violations = append(violations, "username is required")
	}
	if in.Email == "" {
		violations = append(violations, "email is required")
	}
	if strings.TrimSpace(in.Password) == "" {
		violations = append(violations, "password is required")
	}
	if avatarPath == "" {
		violations = append(violations, "avatar image is required")
	}
	if len(violations) > 0 {
		return model.PublicUser{}, apierror.Validation("all fields are required", violations...)
	}

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, in.Username, in.Email)
	if err != nil {
		return model.PublicUser{}, err
	}
	if exists {
		return model.PublicUser{}, apierror.Conflict("user with email or username already exists")
	}

	avatarURL, err := s.store.Upload(ctx, avatarPath, "avatar")
	if err != nil || avatarURL == "" {
		return model.PublicUser{}, apierror.UploadFailed("failed to upload avatar image")
	}

	// Cover image is optional: a failed upload degrades to no cover.
	coverURL := ""
	if coverPath != "" {
		coverURL, err = s.store.Upload(ctx, coverPath, "cover")
		if err != nil {
			slog.Warn("cover image upload failed", "error", err)
			coverURL = ""
		}
	}

	passwordHash, err := hash.Password(in.Password)
	if err != nil {
		return model.PublicUser{}, err
	}

	now := time.Now().UTC()
	user := model.User{
		ID:            uuid.NewString(),
		Username:      in.Username,
		Email:         in.Email,
		FullName:      in.FullName,
		PasswordHash:  passwordHash,
		AvatarURL:     avatarURL,
		CoverImageURL: coverURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		// A concurrent registration can slip past the existence check;
		// the unique indexes are the authority.
		if errors.Is(err, model.ErrUserAlreadyExists) {
			return model.PublicUser{}, apierror.Conflict("user with email or username already exists")
		}
		return model.PublicUser{}, err
	}

	return user.Public(), nil
}

func (s *AccountService) Login(ctx context.Context, username string, email string, password string) (model.LoginResult, error) {
	if strings.TrimSpace(username) == "" && strings.TrimSpace(email) == "" {
		return model.LoginResult{}, apierror.Validation("username or email is required")
	}

	user, err := s.users.FindByUsernameOrEmail(ctx, username, email)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.LoginResult{}, apierror.NotFound("user not found")
	}
	if err != nil {
		return model.LoginResult{}, err
	}

	if !hash.Compare(user.PasswordHash, password) {
		return model.LoginResult{}, apierror.Unauthorized("incorrect password")
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return model.LoginResult{}, err
	}

	if err := s.users.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return model.LoginResult{}, err
	}

	return model.LoginResult{
		User:         user.Public(),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

// Logout clears the persisted refresh token. Calling it for a user who is
// already logged out is not an error.
func (s *AccountService) Logout(ctx context.Context, userID string) error {
	return s.users.ClearRefreshToken(ctx, userID)
}

// Refresh exchanges a valid refresh token for a new pair and rotates the
// persisted token. A token that does not match the persisted value — a
// replayed, superseded or cleared one — is rejected.
func (s *AccountService) Refresh(ctx context.Context, presented string) (model.TokenPair, error) {
	presented = strings.TrimSpace(presented)
	if presented == "" {
		return model.TokenPair{}, apierror.Unauthorized("unauthorized request")
	}

	claims, err := s.tokens.VerifyRefresh(presented)
	if err != nil {
		return model.TokenPair{}, apierror.Unauthorized("invalid refresh token")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.TokenPair{}, apierror.Unauthorized("invalid refresh token")
	}
	if err != nil {
		return model.TokenPair{}, err
	}

	if user.RefreshToken == nil || *user.RefreshToken != presented {
		return model.TokenPair{}, apierror.Unauthorized("refresh token is expired or used")
	}

	pair, err := s.tokens.IssuePair(user.ID)
	if err != nil {
		return model.TokenPair{}, err
	}

	rotated, err := s.users.RotateRefreshToken(ctx, user.ID, presented, pair.RefreshToken)
	if err != nil {
		return model.TokenPair{}, err
	}
	if !rotated {
		// Lost a race against a concurrent refresh or logout.
		return model.TokenPair{}, apierror.Unauthorized("refresh token is expired or used")
	}

	return pair, nil
}

// ChangePassword re-hashes and stores the new password. The persisted
// refresh token is cleared alongside, so the session does not outlive the
// credential it was issued under.
func (s *AccountService) ChangePassword(ctx context.Context, userID string, oldPassword string, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return apierror.Validation("new password is required", "newPassword is required")
	}

	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, model.ErrUserNotFound) {
		return apierror.NotFound("user not found")
	}
	if err != nil {
		return err
	}

	if !hash.Compare(user.PasswordHash, oldPassword) {
		return apierror.Unauthorized("incorrect password")
	}

	passwordHash, err := hash.Password(newPassword)
	if err != nil {
		return err
	}

	return s.users.UpdatePassword(ctx, userID, passwordHash)
}

func (s *AccountService) UpdateProfile(ctx context.Context, userID string, fullName string, email string) (model.PublicUser, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))

	var violations []string
	if fullName == "" {
		violations = append(violations, "fullName is required")
	}
	if email == "" {
		violations = append(violations, "email is required")
	}
	if len(violations) > 0 {
		return model.PublicUser{}, apierror.Validation("all fields are required", violations...)
	}

	user, err := s.users.UpdateProfile(ctx, userID, fullName, email)
	if errors.Is(err, model.ErrUserAlreadyExists) {
		return model.PublicUser{}, apierror.Conflict("email already in use")
	}
	if errors.Is(err, model.ErrUserNotFound) {
		return model.PublicUser{}, apierror.NotFound("user not found")
	}
	if err != nil {
		return model.PublicUser{}, err
	}

	return user.Public(), nil
}

func (s *AccountService) UpdateAvatar(ctx context.Context, userID string, localPath string) (model.PublicUser, error) {
	return s.replaceImage(ctx, userID, localPath, "avatar")
}

func (s *AccountService) UpdateCoverImage(ctx context.Context, userID string, localPath string) (model.PublicUser, error) {
	return s.replaceImage(ctx, userID, localPath, "cover")
}

func (s *AccountService) replaceImage(ctx context.Context, userID string, localPath string, resourceType string) (model.PublicUser, error) {
	if localPath == "" {
		return model.PublicUser{}, apierror.Validation(resourceType + " image is required")
	}

	current, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, model.ErrUserNotFound) {
		return model.PublicUser{}, apierror.NotFound("user not found")
	}
	if err != nil {
		return model.PublicUser{}, err
	}

	url, err := s.store.Upload(ctx, localPath, resourceType)
	if err != nil || url == "" {
		return model.PublicUser{}, apierror.UploadFailed("failed to upload " + resourceType + " image")
	}

	previous := current.AvatarURL
	updated := model.User{}
	if resourceType == "avatar" {
		updated, err = s.users.UpdateAvatar(ctx, userID, url)
	} else {
		previous = current.CoverImageURL
		updated, err = s.users.UpdateCoverImage(ctx, userID, url)
	}
	if errors.Is(err, model.ErrUserNotFound) {
		return model.PublicUser{}, apierror.NotFound("user not found")
	}
	if err != nil {
		return model.PublicUser{}, err
	}

	// The new image is already live; losing the old object is a cleanup
	// problem, not a request failure.
	if previous != "" {
		if err := s.store.Delete(ctx, previous); err != nil {
			slog.Warn("failed to delete replaced image", "url", previous, "error", err)
		}
	}

	return updated.Public(), nil
}
