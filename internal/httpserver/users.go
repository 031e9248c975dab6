package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/shop_api/internal/middleware/auth"
	"github.com/Skotchmaster/shop_api/internal/service"
	"github.com/Skotchmaster/shop_api/internal/transport"
	"github.com/Skotchmaster/shop_api/pkg/logging"
)

const resetPath = "/api/users/resetpassword"

type UserHTTP struct {
	Svc *service.UserService
	// PublicURL is the externally visible origin used in reset links.
	// Forgot-password is refused while it is empty.
	PublicURL string
}

func (h *UserHTTP) SignUp(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.signup")

	var req transport.SignUpRequest
	if err := bind(c, l, "signup_error", &req); err != nil {
		return err
	}

	res, err := h.Svc.SignUp(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		return fail(l, "signup_error", err)
	}

	return c.JSON(http.StatusCreated, transport.AuthResponse{
		Message: "User registered successfully",
		Token:   res.Token,
		User:    res.User,
	})
}

func (h *UserHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.login")

	var req transport.LoginRequest
	if err := bind(c, l, "login_error", &req); err != nil {
		return err
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "login_error", err)
	}

	return c.JSON(http.StatusOK, transport.AuthResponse{
		Message: "Login successful",
		Token:   res.Token,
		User:    res.User,
	})
}

func (h *UserHTTP) ForgotPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.forgot_password")

	var req transport.ForgotPasswordRequest
	if err := bind(c, l, "forgot_password_error", &req); err != nil {
		return err
	}

	// the link carries the raw token, so its host never comes from the request
	if h.PublicURL == "" {
		l.Error("forgot_password_error", "status", 500, "reason", "public url not configured")
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	if err := h.Svc.ForgotPassword(ctx, req.Email, h.resetBaseURL()); err != nil {
		return fail(l, "forgot_password_error", err)
	}

	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Password reset email sent"})
}

func (h *UserHTTP) ResetPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.reset_password")

	var req transport.ResetPasswordRequest
	if err := bind(c, l, "reset_password_error", &req); err != nil {
		return err
	}

	if err := h.Svc.ResetPassword(ctx, c.Param("token"), req.Password); err != nil {
		return fail(l, "reset_password_error", err)
	}

	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Password reset successfully"})
}

func (h *UserHTTP) Profile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.profile")

	user, err := h.Svc.Profile(ctx, auth.CurrentUser(c).ID)
	if err != nil {
		return fail(l, "profile_error", err)
	}
	return c.JSON(http.StatusOK, user)
}

func (h *UserHTTP) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.update_profile")

	var req transport.UpdateProfileRequest
	if err := bind(c, l, "update_profile_error", &req); err != nil {
		return err
	}

	user, err := h.Svc.UpdateProfile(ctx, auth.CurrentUser(c).ID, service.ProfileUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return fail(l, "update_profile_error", err)
	}

	return c.JSON(http.StatusOK, transport.UserResponse{Message: "Profile updated successfully", User: user})
}

func (h *UserHTTP) ChangePassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.change_password")

	var req transport.ChangePasswordRequest
	if err := bind(c, l, "change_password_error", &req); err != nil {
		return err
	}

	if err := h.Svc.ChangePassword(ctx, auth.CurrentUser(c).ID, req.OldPassword, req.NewPassword); err != nil {
		return fail(l, "change_password_error", err)
	}

	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "Password changed successfully"})
}

func (h *UserHTTP) DeleteUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.delete")

	id, err := paramID(c, l, "delete_user_error", "id")
	if err != nil {
		return err
	}
	if err := h.Svc.DeleteUser(ctx, id); err != nil {
		return fail(l, "delete_user_error", err)
	}

	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "User deleted successfully"})
}

func (h *UserHTTP) SetStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "user.set_status")

	id, err := paramID(c, l, "set_status_error", "id")
	if err != nil {
		return err
	}
	var req transport.SetStatusRequest
	if err := bind(c, l, "set_status_error", &req); err != nil {
		return err
	}

	user, err := h.Svc.SetEnabled(ctx, id, *req.IsEnabled)
	if err != nil {
		return fail(l, "set_status_error", err)
	}

	msg := "User disabled successfully"
	if user.IsEnabled {
		msg = "User enabled successfully"
	}
	return c.JSON(http.StatusOK, transport.UserResponse{Message: msg, User: user})
}

func (h *UserHTTP) resetBaseURL() string {
	return strings.TrimRight(h.PublicURL, "/") + resetPath
}
