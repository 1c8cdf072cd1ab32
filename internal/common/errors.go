// Package common contains sentinel errors and random-value helpers
// shared across service components.
package common

import "errors"

var (

	// repository specific errors
	ErrorNotFound = errors.New("not found")

	// service specific errors
	ErrorInternal = errors.New("internal error")

	// registration / verification
	ErrorEmailAlreadyExists       = errors.New("email already exists")
	ErrorInvalidVerificationToken = errors.New("invalid verification token")
	ErrorEmailAlreadyVerified     = errors.New("email already verified")
	ErrorAccountNotFound          = errors.New("account not found")

	// login
	ErrorInvalidCredentials = errors.New("invalid credentials")
	ErrorAccountInactive    = errors.New("account inactive")
	ErrorEmailNotVerified   = errors.New("email not verified")

	// federated login
	ErrorInvalidExternalToken   = errors.New("invalid external token")
	ErrorFederatedLoginDisabled = errors.New("federated login disabled")

	// sessions
	ErrorInvalidRefreshToken = errors.New("invalid refresh token")

	// password recovery / change
	ErrorInvalidPasswordResetToken = errors.New("invalid password reset token")
	ErrorInvalidNewPassword        = errors.New("invalid new password")
	ErrorForbidden                 = errors.New("forbidden")

	// payment methods
	ErrorUnknownPaymentKind = errors.New("unknown payment method kind")
)
