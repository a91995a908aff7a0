package gate

import (
	"context"

	"github.com/nimbuswallet/authgate/keystore"
)

// CredentialStore is the two-tier credential lookup the controller reads
// and writes by logical key. A key absent from every tier yields an empty
// string with no error; callers treat the empty string as "not set".
// keystore.MigratingStore is the production implementation.
type CredentialStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, policy keystore.AccessPolicy) error
}

// Biometric is the platform biometric capability. Hardware and enrollment
// checks have no side effects; Authenticate triggers the platform
// challenge UI.
type Biometric interface {
	HasHardware(ctx context.Context) bool
	IsEnrolled(ctx context.Context) bool
	Authenticate(ctx context.Context, prompt string) (bool, error)
}

// Prompter presents a blocking modal with a single retry action.
type Prompter interface {
	Alert(title string, retry func())
}

// Navigator routes between the PIN screens. Calls are fire-and-forget.
type Navigator interface {
	GoSetPassword()
	GoSetPasswordConfirm()
	GoPassword()
}

// WalletUnlocker consumes secrets the controller has already placed into
// the session's wallet fields.
type WalletUnlocker interface {
	// CheckNewPassword accepts the freshly generated secret from
	// NewPassword/PasswordVerify.
	CheckNewPassword(ctx context.Context) error

	// CheckPassword unlocks the wallet with the secret in Password.
	CheckPassword(ctx context.Context) error
}
