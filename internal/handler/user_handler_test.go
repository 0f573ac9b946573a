package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"cliphub/internal/hash"
	"cliphub/internal/middleware"
	"cliphub/internal/model"
	"cliphub/internal/service"
	"cliphub/internal/storage"
	"cliphub/internal/token"
)

// stubUserStore implements service.UserStore with overridable behavior per
// test. Unconfigured methods fail loudly.
type stubUserStore struct {
	findByID                func(id string) (model.User, error)
	findByUsernameOrEmail   func(username string, email string) (model.User, error)
	existsByUsernameOrEmail func(username string, email string) (bool, error)
	create                  func(u model.User) error
	setRefreshToken         func(userID string, refreshToken string) error
	rotateRefreshToken      func(userID string, old string, next string) (bool, error)
	clearRefreshToken       func(userID string) error
}

func (s *stubUserStore) Create(_ context.Context, u model.User) error {
	if s.create == nil {
		panic("unexpected Create")
	}
	return s.create(u)
}

func (s *stubUserStore) FindByID(_ context.Context, id string) (model.User, error) {
	if s.findByID == nil {
		panic("unexpected FindByID")
	}
	return s.findByID(id)
}

func (s *stubUserStore) FindByUsername(_ context.Context, _ string) (model.User, error) {
	panic("unexpected FindByUsername")
}

func (s *stubUserStore) FindByUsernameOrEmail(_ context.Context, username string, email string) (model.User, error) {
	if s.findByUsernameOrEmail == nil {
		panic("unexpected FindByUsernameOrEmail")
	}
	return s.findByUsernameOrEmail(username, email)
}

func (s *stubUserStore) ExistsByUsernameOrEmail(_ context.Context, username string, email string) (bool, error) {
	if s.existsByUsernameOrEmail == nil {
		panic("unexpected ExistsByUsernameOrEmail")
	}
	return s.existsByUsernameOrEmail(username, email)
}

func (s *stubUserStore) SetRefreshToken(_ context.Context, userID string, refreshToken string) error {
	if s.setRefreshToken == nil {
		panic("unexpected SetRefreshToken")
	}
	return s.setRefreshToken(userID, refreshToken)
}

func (s *stubUserStore) RotateRefreshToken(_ context.Context, userID string, old string, next string) (bool, error) {
	if s.rotateRefreshToken == nil {
		panic("unexpected RotateRefreshToken")
	}
	return s.rotateRefreshToken(userID, old, next)
}

func (s *stubUserStore) ClearRefreshToken(_ context.Context, userID string) error {
	if s.clearRefreshToken == nil {
		panic("unexpected ClearRefreshToken")
	}
	return s.clearRefreshToken(userID)
}

func (s *stubUserStore) UpdatePassword(_ context.Context, _ string, _ string) error {
	panic("unexpected UpdatePassword")
}

func (s *stubUserStore) UpdateProfile(_ context.Context, _ string, _ string, _ string) (model.User, error) {
	panic("unexpected UpdateProfile")
}

func (s *stubUserStore) UpdateAvatar(_ context.Context, _ string, _ string) (model.User, error) {
	panic("unexpected UpdateAvatar")
}

func (s *stubUserStore) UpdateCoverImage(_ context.Context, _ string, _ string) (model.User, error) {
	panic("unexpected UpdateCoverImage")
}

func newTestHandler(t *testing.T, users service.UserStore, store storage.MediaStore) (*UserHandler, *token.Service) {
	t.Helper()

	tokens := token.NewService("test-access", "test-refresh", 15*time.Minute, 240*time.Hour)
	accounts := service.NewAccountService(users, tokens, store)
	channels := service.NewChannelService(users, nil, nil)
	h := NewUserHandler(accounts, channels, 16<<20, t.TempDir(), 15*time.Minute, 240*time.Hour)

	return h, tokens
}

func decodeEnvelope(t *testing.T, body *bytes.Buffer) map[string]any {
	t.Helper()
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(body.Bytes(), &envelope))
	return envelope
}

func cookieByName(cookies []*http.Cookie, name string) *http.Cookie {
	for _, c := range cookies {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func pngUpload(t *testing.T, form *multipart.Writer, field string, name string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	part, err := form.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(buf.Bytes())
	require.NoError(t, err)
}

func TestUserHandler_Register(t *testing.T) {
	t.Run("created with sanitized body", func(t *testing.T) {
		users := &stubUserStore{
			existsByUsernameOrEmail: func(username string, email string) (bool, error) { return false, nil },
			create:                  func(u model.User) error { return nil },
		}
		store := new(storage.MockMediaStore)
		store.On("Upload", mock.Anything, mock.AnythingOfType("string"), "avatar").
			Return("https://cdn.example/a.png", nil)

		h, _ := newTestHandler(t, users, store)

		var body bytes.Buffer
		form := multipart.NewWriter(&body)
		require.NoError(t, form.WriteField("fullName", "Alice Liddell"))
		require.NoError(t, form.WriteField("username", "Alice"))
		require.NoError(t, form.WriteField("email", "alice@x.com"))
		require.NoError(t, form.WriteField("password", "wonderland"))
		pngUpload(t, form, "avatar", "a.png")
		require.NoError(t, form.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", &body)
		req.Header.Set("Content-Type", form.FormDataContentType())
		rec := httptest.NewRecorder()

		h.Register(rec, req)

		require.Equal(t, http.StatusCreated, rec.Code)
		envelope := decodeEnvelope(t, rec.Body)
		assert.Equal(t, float64(201), envelope["statusCode"])
		assert.Equal(t, true, envelope["success"])

		data := envelope["data"].(map[string]any)
		assert.Equal(t, "alice", data["username"])
		assert.NotContains(t, rec.Body.String(), "password")
	})

	t.Run("missing avatar is a validation failure", func(t *testing.T) {
		users := &stubUserStore{
			existsByUsernameOrEmail: func(username string, email string) (bool, error) { return false, nil },
		}
		h, _ := newTestHandler(t, users, new(storage.MockMediaStore))

		var body bytes.Buffer
		form := multipart.NewWriter(&body)
		require.NoError(t, form.WriteField("fullName", "Alice Liddell"))
		require.NoError(t, form.WriteField("username", "alice"))
		require.NoError(t, form.WriteField("email", "alice@x.com"))
		require.NoError(t, form.WriteField("password", "wonderland"))
		require.NoError(t, form.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", &body)
		req.Header.Set("Content-Type", form.FormDataContentType())
		rec := httptest.NewRecorder()

		h.Register(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		envelope := decodeEnvelope(t, rec.Body)
		assert.Equal(t, false, envelope["success"])
		assert.Contains(t, envelope["errors"], "avatar image is required")
	})

	t.Run("conflict leaves no spooled files behind", func(t *testing.T) {
		users := &stubUserStore{
			existsByUsernameOrEmail: func(username string, email string) (bool, error) { return true, nil },
		}
		tokens := token.NewService("test-access", "test-refresh", 15*time.Minute, 240*time.Hour)
		accounts := service.NewAccountService(users, tokens, new(storage.MockMediaStore))
		channels := service.NewChannelService(users, nil, nil)

		tempDir := t.TempDir()
		h := NewUserHandler(accounts, channels, 16<<20, tempDir, 15*time.Minute, 240*time.Hour)

		var body bytes.Buffer
		form := multipart.NewWriter(&body)
		require.NoError(t, form.WriteField("fullName", "Alice Liddell"))
		require.NoError(t, form.WriteField("username", "alice"))
		require.NoError(t, form.WriteField("email", "alice@x.com"))
		require.NoError(t, form.WriteField("password", "wonderland"))
		pngUpload(t, form, "avatar", "a.png")
		require.NoError(t, form.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", &body)
		req.Header.Set("Content-Type", form.FormDataContentType())
		rec := httptest.NewRecorder()

		h.Register(rec, req)

		require.Equal(t, http.StatusConflict, rec.Code)

		entries, err := os.ReadDir(tempDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("non-image avatar is rejected", func(t *testing.T) {
		h, _ := newTestHandler(t, &stubUserStore{}, new(storage.MockMediaStore))

		var body bytes.Buffer
		form := multipart.NewWriter(&body)
		require.NoError(t, form.WriteField("fullName", "Alice Liddell"))
		require.NoError(t, form.WriteField("username", "alice"))
		require.NoError(t, form.WriteField("email", "alice@x.com"))
		require.NoError(t, form.WriteField("password", "wonderland"))
		part, err := form.CreateFormFile("avatar", "a.png")
		require.NoError(t, err)
		_, err = part.Write([]byte("definitely not an image"))
		require.NoError(t, err)
		require.NoError(t, form.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register", &body)
		req.Header.Set("Content-Type", form.FormDataContentType())
		rec := httptest.NewRecorder()

		h.Register(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestUserHandler_Login(t *testing.T) {
	passwordHash, err := hash.Password("correct-horse")
	require.NoError(t, err)

	storedUser := model.User{
		ID:           "user-1",
		Username:     "alice",
		Email:        "alice@x.com",
		PasswordHash: passwordHash,
	}

	t.Run("success sets both cookies and returns tokens", func(t *testing.T) {
		users := &stubUserStore{
			findByUsernameOrEmail: func(username string, email string) (model.User, error) { return storedUser, nil },
			setRefreshToken:       func(userID string, refreshToken string) error { return nil },
		}
		h, tokens := newTestHandler(t, users, new(storage.MockMediaStore))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login",
			strings.NewReader(`{"username":"alice","password":"correct-horse"}`))
		rec := httptest.NewRecorder()

		h.Login(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		envelope := decodeEnvelope(t, rec.Body)
		assert.Equal(t, true, envelope["success"])

		data := envelope["data"].(map[string]any)
		accessToken, _ := data["accessToken"].(string)
		require.NotEmpty(t, accessToken)

		claims, err := tokens.VerifyAccess(accessToken)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)

		cookies := rec.Result().Cookies()
		accessCookie := cookieByName(cookies, "accessToken")
		refreshCookie := cookieByName(cookies, "refreshToken")
		require.NotNil(t, accessCookie)
		require.NotNil(t, refreshCookie)
		assert.True(t, accessCookie.HttpOnly)
		assert.True(t, accessCookie.Secure)
		assert.NotEmpty(t, refreshCookie.Value)
	})

	t.Run("wrong password yields 401 envelope", func(t *testing.T) {
		users := &stubUserStore{
			findByUsernameOrEmail: func(username string, email string) (model.User, error) { return storedUser, nil },
		}
		h, _ := newTestHandler(t, users, new(storage.MockMediaStore))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/login",
			strings.NewReader(`{"username":"alice","password":"wrong"}`))
		rec := httptest.NewRecorder()

		h.Login(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		envelope := decodeEnvelope(t, rec.Body)
		assert.Equal(t, false, envelope["success"])
		assert.Equal(t, float64(401), envelope["statusCode"])

		// The errors array is present even without field-level violations.
		errorsField, present := envelope["errors"]
		require.True(t, present)
		assert.Equal(t, []any{}, errorsField)

		assert.Empty(t, rec.Result().Cookies())
	})
}

func TestUserHandler_Refresh(t *testing.T) {
	t.Run("rotates via cookie", func(t *testing.T) {
		currentToken := ""
		users := &stubUserStore{
			findByID: func(id string) (model.User, error) {
				tokenCopy := currentToken
				return model.User{ID: "user-1", Username: "alice", RefreshToken: &tokenCopy}, nil
			},
			rotateRefreshToken: func(userID string, old string, next string) (bool, error) {
				return old == currentToken, nil
			},
		}
		h, tokens := newTestHandler(t, users, new(storage.MockMediaStore))

		pair, err := tokens.IssuePair("user-1")
		require.NoError(t, err)
		currentToken = pair.RefreshToken

		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", strings.NewReader(`{}`))
		req.AddCookie(&http.Cookie{Name: "refreshToken", Value: currentToken})
		rec := httptest.NewRecorder()

		h.Refresh(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		envelope := decodeEnvelope(t, rec.Body)
		data := envelope["data"].(map[string]any)
		newRefresh, _ := data["refreshToken"].(string)
		require.NotEmpty(t, newRefresh)
		assert.NotEqual(t, currentToken, newRefresh)
	})

	t.Run("missing token yields 401", func(t *testing.T) {
		h, _ := newTestHandler(t, &stubUserStore{}, new(storage.MockMediaStore))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/users/refresh-token", strings.NewReader(`{}`))
		rec := httptest.NewRecorder()

		h.Refresh(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestUserHandler_Logout(t *testing.T) {
	cleared := false
	users := &stubUserStore{
		findByID:          func(id string) (model.User, error) { return model.User{ID: "user-1", Username: "alice"}, nil },
		clearRefreshToken: func(userID string) error { cleared = userID == "user-1"; return nil },
	}
	h, tokens := newTestHandler(t, users, new(storage.MockMediaStore))

	mw := middleware.NewAuthMiddleware(tokens, users)
	pair, err := tokens.IssuePair("user-1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/logout", nil)
	req.Header.Set("Authorization", "Bearer "+pair.AccessToken)
	rec := httptest.NewRecorder()

	mw.RequireAuth(http.HandlerFunc(h.Logout)).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, cleared)

	// Both cookies are expired on logout.
	for _, name := range []string{"accessToken", "refreshToken"} {
		cookie := cookieByName(rec.Result().Cookies(), name)
		require.NotNil(t, cookie, "expected %s cookie", name)
		assert.Empty(t, cookie.Value)
		assert.Negative(t, cookie.MaxAge)
	}
}
