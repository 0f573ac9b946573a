package handler

import (
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"cliphub/internal/middleware"
	"cliphub/internal/model"
	"cliphub/internal/service"
	"cliphub/pkg/apierror"
)

const (
	accessCookieName  = "accessToken"
	refreshCookieName = "refreshToken"
)

type UserHandler struct {
	accounts      *service.AccountService
	channels      *service.ChannelService
	maxUploadSize int64
	tempDir       string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewUserHandler(accounts *service.AccountService, channels *service.ChannelService,
	maxUploadSize int64, tempDir string, accessTTL time.Duration, refreshTTL time.Duration) *UserHandler {
	return &UserHandler{
		accounts:      accounts,
		channels:      channels,
		maxUploadSize: maxUploadSize,
		tempDir:       tempDir,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

// Register handles the multipart registration form: text fields plus a
// mandatory avatar file and an optional coverImage file.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeError(w, apierror.Validation("invalid multipart body"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	in := service.RegisterInput{
		FullName: r.FormValue("fullName"),
		Username: r.FormValue("username"),
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}

	// The store removes spooled files itself; the deferred removals cover
	// requests that fail before the files reach it.
	avatarPath := ""
	if files := r.MultipartForm.File["avatar"]; len(files) > 0 {
		path, err := spoolUpload(h.tempDir, files[0])
		if err != nil {
			writeError(w, err)
			return
		}
		defer os.Remove(path)
		avatarPath = path
	}

	coverPath := ""
	if files := r.MultipartForm.File["coverImage"]; len(files) > 0 {
		path, err := spoolUpload(h.tempDir, files[0])
		if err != nil {
			writeError(w, err)
			return
		}
		defer os.Remove(path)
		coverPath = path
	}

	user, err := h.accounts.Register(r.Context(), in, avatarPath, coverPath)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, user, "user registered successfully")
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.Validation("invalid JSON body"))
		return
	}

	result, err := h.accounts.Login(r.Context(), payload.Username, payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	// Tokens travel both as secure cookies (browsers) and in the body
	// (non-browser clients).
	h.setAuthCookies(w, result.AccessToken, result.RefreshToken)
	writeSuccess(w, http.StatusOK, result, "user logged in successfully")
}

func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("unauthorized request"))
		return
	}

	if err := h.accounts.Logout(r.Context(), user.ID); err != nil {
		writeError(w, err)
		return
	}

	h.clearAuthCookies(w)
	writeSuccess(w, http.StatusOK, map[string]any{}, "user logged out")
}

// Refresh rotates the refresh token. The incoming token is read from the
// refreshToken cookie or the JSON body.
func (h *UserHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	incoming := ""
	if cookie, err := r.Cookie(refreshCookieName); err == nil {
		incoming = cookie.Value
	}
	if incoming == "" {
		var payload model.RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
			incoming = payload.RefreshToken
		}
	}

	pair, err := h.accounts.Refresh(r.Context(), incoming)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setAuthCookies(w, pair.AccessToken, pair.RefreshToken)
	writeSuccess(w, http.StatusOK, pair, "access token refreshed")
}

func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("unauthorized request"))
		return
	}

	var payload model.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.Validation("invalid JSON body"))
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), user.ID, payload.OldPassword, payload.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{}, "password changed successfully")
}

func (h *UserHandler) Current(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("unauthorized request"))
		return
	}

	writeSuccess(w, http.StatusOK, user, "current user fetched successfully")
}

func (h *UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("unauthorized request"))
		return
	}

	var payload model.UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.Validation("invalid JSON body"))
		return
	}

	updated, err := h.accounts.UpdateProfile(r.Context(), user.ID, payload.FullName, payload.Email)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, updated, "account details updated successfully")
}

func (h *UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar")
}

func (h *UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage")
}

func (h *UserHandler) updateImage(w http.ResponseWriter, r *http.Request, field string) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("unauthorized request"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		writeError(w, apierror.Validation("invalid multipart body"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		writeError(w, apierror.Validation(field+" file is required"))
		return
	}

	path, err := spoolUpload(h.tempDir, files[0])
	if err != nil {
		writeError(w, err)
		return
	}
	defer os.Remove(path)

	var updated model.PublicUser
	if field == "avatar" {
		updated, err = h.accounts.UpdateAvatar(r.Context(), user.ID, path)
	} else {
		updated, err = h.accounts.UpdateCoverImage(r.Context(), user.ID, path)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, updated, field+" updated successfully")
}

func (h *UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(chi.URLParam(r, "username"))

	viewerID := ""
	if viewer, ok := middleware.UserFromContext(r.Context()); ok {
		viewerID = viewer.ID
	}

	profile, err := h.channels.GetChannelProfile(r.Context(), viewerID, username)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, profile, "user channel fetched successfully")
}

func (h *UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("unauthorized request"))
		return
	}

	history, err := h.channels.GetWatchHistory(r.Context(), user.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, history, "watch history fetched successfully")
}

func (h *UserHandler) AddWatchHistory(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("unauthorized request"))
		return
	}

	var payload model.WatchHistoryRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.Validation("invalid JSON body"))
		return
	}

	if err := h.channels.AddWatchHistory(r.Context(), user.ID, payload.VideoID); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{}, "watch history updated")
}

func (h *UserHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("unauthorized request"))
		return
	}

	username := strings.TrimSpace(chi.URLParam(r, "username"))
	if err := h.channels.Subscribe(r.Context(), user.ID, username); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{}, "subscribed successfully")
}

func (h *UserHandler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, apierror.Unauthorized("unauthorized request"))
		return
	}

	username := strings.TrimSpace(chi.URLParam(r, "username"))
	if err := h.channels.Unsubscribe(r.Context(), user.ID, username); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{}, "unsubscribed successfully")
}

func (h *UserHandler) setAuthCookies(w http.ResponseWriter, accessToken string, refreshToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessCookieName,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   int(h.accessTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   int(h.refreshTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteNoneMode,
	})
}

func (h *UserHandler) clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{accessCookieName, refreshCookieName} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   true,
			SameSite: http.SameSiteNoneMode,
		})
	}
}
