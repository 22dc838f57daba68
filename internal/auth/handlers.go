package auth

import (
	"MapHub-Backend/internal/domain"
	"MapHub-Backend/internal/handler/request"
	"MapHub-Backend/internal/handler/response"
	"MapHub-Backend/pkg/useragent"
	"net/http"

	"go.uber.org/zap"
)

// AuthHandlers обработчики аутентификации
type AuthHandlers struct {
	accounts       *AccountService
	agents         *useragent.Parser
	maxUploadBytes int64
	log            *zap.Logger
}

// NewAuthHandlers создает новые обработчики аутентификации
func NewAuthHandlers(accounts *AccountService, agents *useragent.Parser, maxUploadBytes int64, log *zap.Logger) *AuthHandlers {
	return &AuthHandlers{
		accounts:       accounts,
		agents:         agents,
		maxUploadBytes: maxUploadBytes,
		log:            log,
	}
}

// RegisterRequest структура запроса регистрации
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=64"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginRequest структура запроса входа
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ResendRequest структура запроса повторной отправки письма
type ResendRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// RefreshRequest структура запроса обновления токенов
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// ResetRequest структура запроса сброса пароля
type ResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ConfirmResetRequest структура запроса установки нового пароля
type ConfirmResetRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// ChangePasswordRequest структура запроса смены пароля
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6,max=72"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

// ChangeNameRequest структура запроса смены имени
type ChangeNameRequest struct {
	Name string `json:"name" validate:"required,max=64"`
}

// UserInfo информация о пользователе
type UserInfo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	IsVerified  bool   `json:"is_verified"`
	CreatedDate string `json:"created_date"`
}

// AuthResponse структура ответа аутентификации
type AuthResponse struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	User         UserInfo `json:"user"`
}

func userInfo(u *domain.User) UserInfo {
	return UserInfo{ID: u.ID, Name: u.Name, Email: u.Email, IsVerified: u.IsVerified, CreatedDate: u.CreatedDate}
}

func authResponse(result *LoginResult) AuthResponse {
	return AuthResponse{AccessToken: result.AccessToken, RefreshToken: result.RefreshToken, User: userInfo(result.User)}
}

// Register обработчик регистрации
//
//	@Summary		Register a new user
//	@Description	Create an unverified account and send the verification email
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RegisterRequest	true	"Registration request"
//	@Success		201		{object}	response.Envelope{data=UserInfo}	"User registered successfully"
//	@Failure		400		{object}	response.Envelope	"Invalid request data"
//	@Failure		409		{object}	response.Envelope	"User already exists"
//	@Failure		422		{object}	response.Envelope	"Offensive user name"
//	@Router			/api/auth/register [post]
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}

	user, err := h.accounts.Register(r.Context(), RegisterInput{Name: req.Name, Email: req.Email, Password: req.Password})
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	response.JSON(w, h.log, http.StatusCreated, userInfo(user))
}

// Login обработчик входа
//
//	@Summary		Login user
//	@Description	Authenticate user and receive a JWT access and refresh token pair
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LoginRequest	true	"Login request"
//	@Success		200		{object}	response.Envelope{data=AuthResponse}	"Login successful"
//	@Failure		401		{object}	response.Envelope	"Invalid credentials"
//	@Failure		403		{object}	response.Envelope	"Account not verified"
//	@Failure		429		{object}	response.Envelope	"Too many attempts"
//	@Router			/api/auth/login [post]
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}

	origin := request.ClientIP(r)
	client := h.agents.Parse(r.UserAgent())

	result, err := h.accounts.Login(r.Context(), LoginInput{
		Email:     req.Email,
		Password:  req.Password,
		Origin:    origin,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		h.log.Debug("login refused",
			append(client.Fields(), zap.String("origin", origin), zap.String("kind", string(domain.KindOf(err))))...)
		response.Error(w, h.log, err)
		return
	}

	h.log.Info("login succeeded", append(client.Fields(), zap.Int64("user_id", result.User.ID))...)
	response.JSON(w, h.log, http.StatusOK, authResponse(result))
}

// Refresh обработчик обновления токенов
//
//	@Summary		Refresh tokens
//	@Description	Exchange a refresh token for a new token pair. The presented token is revoked.
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	response.Envelope{data=AuthResponse}	"Tokens refreshed"
//	@Failure		401		{object}	response.Envelope	"Invalid, expired or reused token"
//	@Router			/api/auth/refresh [post]
func (h *AuthHandlers) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}

	result, err := h.accounts.Refresh(r.Context(), req.RefreshToken, request.ClientIP(r), r.UserAgent())
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusOK, authResponse(result))
}

// Logout обработчик выхода
//
//	@Summary	Logout
//	@Tags		Authentication
//	@Accept		json
//	@Produce	json
//	@Param		request	body		RefreshRequest	true	"Refresh token of the session"
//	@Success	200		{object}	response.Envelope
//	@Router		/api/auth/logout [post]
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	if err := h.accounts.Logout(r.Context(), req.RefreshToken); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusOK, nil)
}

// RequestPasswordReset отправляет письмо со ссылкой для сброса пароля
//
//	@Summary		Request password reset
//	@Description	Always accepted, unknown emails are not disclosed
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ResetRequest	true	"Account email"
//	@Success		202		{object}	response.Envelope
//	@Router			/api/auth/password/reset [post]
func (h *AuthHandlers) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	if err := h.accounts.RequestPasswordReset(r.Context(), req.Email); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusAccepted, nil)
}

// ConfirmPasswordReset устанавливает новый пароль по токену из письма
//
//	@Summary	Confirm password reset
//	@Tags		Authentication
//	@Accept		json
//	@Produce	json
//	@Param		request	body		ConfirmResetRequest	true	"Reset token and new password"
//	@Success	200		{object}	response.Envelope
//	@Failure	400		{object}	response.Envelope	"Invalid or expired token"
//	@Router		/api/auth/password/confirm [post]
func (h *AuthHandlers) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req ConfirmResetRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	if err := h.accounts.ConfirmPasswordReset(r.Context(), req.Token, req.Password); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusOK, nil)
}

// ChangePassword меняет пароль текущего пользователя
//
//	@Summary	Change password
//	@Tags		Account
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		request	body		ChangePasswordRequest	true	"Current and new password"
//	@Success	200		{object}	response.Envelope
//	@Failure	400		{object}	response.Envelope	"Wrong current password or mismatch"
//	@Router		/api/account/password [put]
func (h *AuthHandlers) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		response.Error(w, h.log, domain.Unauthorized("authorization required"))
		return
	}

	var req ChangePasswordRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}

	err := h.accounts.ChangePassword(r.Context(), userID, ChangePasswordInput{
		Current: req.CurrentPassword,
		New:     req.NewPassword,
		Confirm: req.ConfirmPassword,
	})
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusOK, nil)
}

// ChangeName меняет имя текущего пользователя
//
//	@Summary	Change user name
//	@Tags		Account
//	@Accept		json
//	@Produce	json
//	@Security	BearerAuth
//	@Param		request	body		ChangeNameRequest	true	"New name"
//	@Success	200		{object}	response.Envelope
//	@Failure	409		{object}	response.Envelope	"Name taken"
//	@Failure	422		{object}	response.Envelope	"Offensive user name"
//	@Router		/api/account/name [put]
func (h *AuthHandlers) ChangeName(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		response.Error(w, h.log, domain.Unauthorized("authorization required"))
		return
	}

	var req ChangeNameRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	if err := h.accounts.ChangeUserName(r.Context(), userID, req.Name); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusOK, nil)
}

// Profile возвращает публичные данные пользователя
//
//	@Summary	Get user profile
//	@Tags		Users
//	@Produce	json
//	@Param		userID	path		int	true	"User ID"
//	@Success	200		{object}	response.Envelope{data=domain.Profile}
//	@Failure	404		{object}	response.Envelope	"User not found"
//	@Router		/api/users/{userID} [get]
func (h *AuthHandlers) Profile(w http.ResponseWriter, r *http.Request) {
	userID, err := request.IDParam(r, "userID")
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	profile, err := h.accounts.Profile(r.Context(), userID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusOK, profile)
}

// Verify подтверждает аккаунт по токену из письма
//
//	@Summary		Verify account
//	@Tags			Authentication
//	@Produce		json
//	@Param			token	query		string	true	"Verification token"
//	@Success		200		{object}	response.Envelope
//	@Failure		400		{object}	response.Envelope	"Invalid or expired token"
//	@Router			/api/auth/verify [get]
func (h *AuthHandlers) Verify(w http.ResponseWriter, r *http.Request) {
	if err := h.accounts.Verify(r.Context(), r.URL.Query().Get("token")); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusOK, nil)
}

// ResendVerification повторно отправляет письмо с подтверждением
//
//	@Summary		Resend verification email
//	@Tags			Authentication
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ResendRequest	true	"Account email"
//	@Success		202		{object}	response.Envelope
//	@Failure		409		{object}	response.Envelope	"Already verified or cooling down"
//	@Router			/api/auth/resend-verification [post]
func (h *AuthHandlers) ResendVerification(w http.ResponseWriter, r *http.Request) {
	var req ResendRequest
	if err := request.DecodeJSON(r, &req); err != nil {
		response.Error(w, h.log, err)
		return
	}
	if err := h.accounts.ResendVerification(r.Context(), req.Email); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusAccepted, nil)
}

// UploadPicture заменяет фото профиля
//
//	@Summary		Replace profile picture
//	@Tags			Account
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			picture	formData	file	false	"New picture, omit to remove"
//	@Success		200		{object}	response.Envelope
//	@Router			/api/account/picture [put]
func (h *AuthHandlers) UploadPicture(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		response.Error(w, h.log, domain.Unauthorized("authorization required"))
		return
	}

	file, err := request.FormFile(r, "picture", h.maxUploadBytes)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}

	if err := h.accounts.SetProfilePicture(r.Context(), userID, file); err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusOK, nil)
}

// DeleteAccount удаляет аккаунт вместе со всеми картами
//
//	@Summary		Delete account
//	@Tags			Account
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=domain.CleanupReport}
//	@Router			/api/account [delete]
func (h *AuthHandlers) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		response.Error(w, h.log, domain.Unauthorized("authorization required"))
		return
	}

	report, err := h.accounts.DeleteUser(r.Context(), userID)
	if err != nil {
		response.Error(w, h.log, err)
		return
	}
	response.JSON(w, h.log, http.StatusOK, report)
}
