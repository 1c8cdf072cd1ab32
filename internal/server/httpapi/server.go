package httpapi

import (
	"context"

	"github.com/gofiber/fiber/v3"

	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/logging"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/config"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/models"
	"github.com/cesarsm24/ondra-gps-25-26-gb03-usuarios-sub000/internal/server/services"
)

// AccountProvider is the account-lifecycle surface the handlers need.
// Implemented by services.AccountService.
type AccountProvider interface {
	Register(ctx context.Context, email, plainPassword, firstName, lastName string) (*models.Account, error)
	VerifyEmail(ctx context.Context, token string) error
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, email, plainPassword string) (*services.TokenPair, error)
	FederatedLogin(ctx context.Context, rawToken string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	LogoutAll(ctx context.Context, accountID string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ConfirmPasswordReset(ctx context.Context, code, newPassword string) error
	ChangePassword(ctx context.Context, callerID, accountID, currentPassword, newPassword string) error
}

// PaymentProvider is the payment-method surface the handlers need.
// Implemented by services.PaymentService.
type PaymentProvider interface {
	Add(ctx context.Context, method *models.PaymentMethod) (*models.PaymentMethod, error)
	List(ctx context.Context, accountID string) ([]*models.PaymentMethod, error)
	Remove(ctx context.Context, accountID, methodID string) error
}

// Server is the JSON HTTP surface over the account, session, and payment
// services. It owns no business rules: handlers decode, delegate, and
// map sentinel errors to statuses.
type Server struct {
	app      *fiber.App
	accounts AccountProvider
	payments PaymentProvider

	jwtSecret []byte
	addr      string
	logger    logging.Logger
}

func NewServer(accounts AccountProvider, payments PaymentProvider, cfg *config.Config, logger logging.Logger) *Server {
	s := &Server{
		app:       fiber.New(),
		accounts:  accounts,
		payments:  payments,
		jwtSecret: []byte(cfg.JWTSecret),
		addr:      cfg.EndpointAddrHTTP,
		logger:    logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	authGroup := s.app.Group("/auth")
	authGroup.Post("/register", s.handleRegister)
	authGroup.Post("/verify", s.handleVerifyEmail)
	authGroup.Post("/resend", s.handleResendVerification)
	authGroup.Post("/login", s.handleLogin)
	authGroup.Post("/federated", s.handleFederatedLogin)
	authGroup.Post("/refresh", s.handleRefresh)
	authGroup.Post("/logout", s.handleLogout)
	authGroup.Post("/recover", s.handleRecoverRequest)
	authGroup.Post("/recover/confirm", s.handleRecoverConfirm)

	authGroup.Post("/logout-all", s.handleLogoutAll, s.requireAuth)
	authGroup.Post("/password", s.handleChangePassword, s.requireAuth)

	paymentsGroup := s.app.Group("/payment-methods", s.requireAuth)
	paymentsGroup.Post("/", s.handleAddPaymentMethod)
	paymentsGroup.Get("/", s.handleListPaymentMethods)
	paymentsGroup.Delete("/:id", s.handleRemovePaymentMethod)
}

func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(s.addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()

	s.logger.Info(ctx, "http server listening", "addr", s.addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.app.ShutdownWithContext(context.Background())
	}
}
