package httpapi

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/common"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/models"
)

type registerRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type tokenRequest struct {
	Token string `json:"token"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type recoverConfirmRequest struct {
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type paymentMethodRequest struct {
	Kind   string `json:"kind"`
	Label  string `json:"label"`
	Holder string `json:"holder,omitempty"`
	Number string `json:"number,omitempty"`
	CVV    string `json:"cvv,omitempty"`
	IBAN   string `json:"iban,omitempty"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
}

type paymentMethodResponse struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Label  string `json:"label"`
	Holder string `json:"holder,omitempty"`
	Number string `json:"number,omitempty"`
	CVV    string `json:"cvv,omitempty"`
	IBAN   string `json:"iban,omitempty"`
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
}

func (s *Server) handleRegister(c fiber.Ctx) error {
	var req registerRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c)
	}

	account, err := s.accounts.Register(c.Context(), req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		return sendError(c, err)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{"id": account.ID, "email": account.Email})
}

func (s *Server) handleVerifyEmail(c fiber.Ctx) error {
	var req tokenRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c)
	}

	if err := s.accounts.VerifyEmail(c.Context(), req.Token); err != nil {
		return sendError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) handleResendVerification(c fiber.Ctx) error {
	var req emailRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c)
	}

	if err := s.accounts.ResendVerification(c.Context(), req.Email); err != nil {
		return sendError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) handleLogin(c fiber.Ctx) error {
	var req loginRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c)
	}

	pair, err := s.accounts.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *Server) handleFederatedLogin(c fiber.Ctx) error {
	var req tokenRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c)
	}

	pair, err := s.accounts.FederatedLogin(c.Context(), req.Token)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *Server) handleRefresh(c fiber.Ctx) error {
	var req refreshRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c)
	}

	pair, err := s.accounts.Refresh(c.Context(), req.RefreshToken)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(tokenPairResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (s *Server) handleLogout(c fiber.Ctx) error {
	var req refreshRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c)
	}

	if err := s.accounts.Logout(c.Context(), req.RefreshToken); err != nil {
		return sendError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) handleLogoutAll(c fiber.Ctx) error {
	if err := s.accounts.LogoutAll(c.Context(), callerID(c)); err != nil {
		return sendError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) handleRecoverRequest(c fiber.Ctx) error {
	var req emailRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c)
	}

	if err := s.accounts.RequestPasswordReset(c.Context(), req.Email); err != nil {
		return sendError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) handleRecoverConfirm(c fiber.Ctx) error {
	var req recoverConfirmRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c)
	}

	if err := s.accounts.ConfirmPasswordReset(c.Context(), req.Code, req.NewPassword); err != nil {
		return sendError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) handleChangePassword(c fiber.Ctx) error {
	var req changePasswordRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c)
	}

	id := callerID(c)
	if err := s.accounts.ChangePassword(c.Context(), id, id, req.CurrentPassword, req.NewPassword); err != nil {
		return sendError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (s *Server) handleAddPaymentMethod(c fiber.Ctx) error {
	var req paymentMethodRequest
	if err := c.Bind().Body(&req); err != nil {
		return badRequest(c)
	}

	method, err := s.payments.Add(c.Context(), &models.PaymentMethod{
		AccountID: callerID(c),
		Kind:      models.PaymentKind(req.Kind),
		Label:     req.Label,
		Holder:    req.Holder,
		Number:    req.Number,
		CVV:       req.CVV,
		IBAN:      req.IBAN,
		Email:     req.Email,
		Phone:     req.Phone,
	})
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(paymentMethodToResponse(method))
}

func (s *Server) handleListPaymentMethods(c fiber.Ctx) error {
	methods, err := s.payments.List(c.Context(), callerID(c))
	if err != nil {
		return sendError(c, err)
	}

	out := make([]paymentMethodResponse, 0, len(methods))
	for _, method := range methods {
		out = append(out, paymentMethodToResponse(method))
	}
	return c.JSON(out)
}

func (s *Server) handleRemovePaymentMethod(c fiber.Ctx) error {
	if err := s.payments.Remove(c.Context(), callerID(c), c.Params("id")); err != nil {
		return sendError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func paymentMethodToResponse(m *models.PaymentMethod) paymentMethodResponse {
	return paymentMethodResponse{
		ID:     m.ID,
		Kind:   string(m.Kind),
		Label:  m.Label,
		Holder: m.Holder,
		Number: m.Number,
		CVV:    m.CVV,
		IBAN:   m.IBAN,
		Email:  m.Email,
		Phone:  m.Phone,
	}
}

func badRequest(c fiber.Ctx) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
}

func sendError(c fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
}

// statusFor maps service sentinels to HTTP statuses. Anything unmapped is
// a 500 with no internal detail beyond the sentinel text.
func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorInvalidCredentials),
		errors.Is(err, common.ErrorInvalidRefreshToken),
		errors.Is(err, common.ErrorInvalidExternalToken),
		errors.Is(err, common.ErrorEmailNotVerified):
		return http.StatusUnauthorized

	case errors.Is(err, common.ErrorForbidden),
		errors.Is(err, common.ErrorAccountInactive),
		errors.Is(err, common.ErrorFederatedLoginDisabled):
		return http.StatusForbidden

	case errors.Is(err, common.ErrorNotFound),
		errors.Is(err, common.ErrorAccountNotFound):
		return http.StatusNotFound

	case errors.Is(err, common.ErrorEmailAlreadyExists):
		return http.StatusConflict

	case errors.Is(err, common.ErrorInvalidVerificationToken),
		errors.Is(err, common.ErrorInvalidPasswordResetToken),
		errors.Is(err, common.ErrorInvalidNewPassword),
		errors.Is(err, common.ErrorEmailAlreadyVerified),
		errors.Is(err, common.ErrorUnknownPaymentKind):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}
