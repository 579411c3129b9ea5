package api

import (
	"net/http"
	"sharecircle/auth"
	"sharecircle/errors"
	"sharecircle/services"
	"sharecircle/storage"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req auth.RegisterRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	_, err := h.users.Register(req)
	var registrationErr *services.RegistrationError
	switch {
	case err == nil:
		writeMessage(w, http.StatusCreated, "User registered successfully")
	case errors.As(err, &registrationErr):
		writeJSON(w, http.StatusBadRequest, map[string][]auth.FieldError{"errors": registrationErr.Fields})
	case errors.Is(err, errors.ErrUserAlreadyExists):
		writeError(w, http.StatusBadRequest, "Email or username already exists")
	default:
		h.log.Error("Registration failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error registering user")
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req auth.LoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	token, user, err := h.users.Login(req.Email, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, LoginResponse{
			Token: token,
			User:  loggedInUser{ID: user.ID, Username: user.Username, Email: user.Email},
		})
	case errors.Is(err, errors.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, errors.ErrInvalidCredentials):
		writeError(w, http.StatusBadRequest, "Invalid credentials")
	default:
		h.log.Error("Login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error logging in user")
	}
}

func (h *Handler) UserData(w http.ResponseWriter, _ *http.Request) {
	users, err := h.users.Users()
	if err != nil {
		h.log.Error("Listing users failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Error fetching user data")
		return
	}
	response := make([]UserResponse, 0, len(users))
	for _, user := range users {
		response = append(response, toUserResponse(user))
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	if !parseMultipart(w, r, maxAvatarRequestBytes, "No file uploaded") {
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	files := r.MultipartForm.File["avatar"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "No file uploaded")
		return
	}

	avatar, err := h.users.UpdateAvatar(chi.URLParam(r, "id"), files[0])
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"message": "Avatar updated successfully", "avatar": avatar})
	case errors.Is(err, errors.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "User not found")
	case errors.Is(err, errors.ErrUnsupportedMedia):
		writeError(w, http.StatusBadRequest, storage.AvatarRule.RejectMessage)
	case errors.Is(err, errors.ErrFileTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "File too large")
	default:
		h.log.Error("Avatar update failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error. Could not update avatar.")
	}
}
