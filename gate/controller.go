// Package gate implements the client-side authentication gate for the
// wallet: PIN capture and verification, biometric unlock, and the
// lifecycle of the machine-generated wallet secret.
package gate

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/nimbuswallet/authgate/keystore"
)

// DefaultPinLength is the fixed PIN length when none is configured.
const DefaultPinLength = 6

// walletSecretBytes is the entropy of the generated wallet secret; the
// stored value is its hex encoding (64 characters).
const walletSecretBytes = 32

// Alert titles for the two user-recoverable failures.
const (
	titlePinMismatch = "PIN doesn't match"
	titleWrongPin    = "Wrong PIN"
)

// Config holds the controller configuration
type Config struct {
	// PinLength is the fixed PIN length L
	PinLength int

	// BiometricPrompt is the message shown with the platform biometric
	// challenge
	BiometricPrompt string
}

// Deps are the named platform capabilities the controller calls into.
// Each is independently replaceable for testing.
type Deps struct {
	Store     CredentialStore
	Biometric Biometric
	Prompt    Prompter
	Nav       Navigator
	Wallet    WalletUnlocker
}

// Controller orchestrates PIN capture, PIN verification, biometric unlock,
// and wallet secret generation and retrieval. Flows are driven by discrete
// user input events and run one at a time; the controller does no internal
// locking.
type Controller struct {
	cfg     Config
	session *Session
	deps    Deps
}

// NewController creates a new auth controller over the given session state.
func NewController(cfg Config, session *Session, deps Deps) *Controller {
	if cfg.PinLength <= 0 {
		cfg.PinLength = DefaultPinLength
	}
	if cfg.BiometricPrompt == "" {
		cfg.BiometricPrompt = "Unlock your wallet"
	}
	return &Controller{
		cfg:     cfg,
		session: session,
		deps:    deps,
	}
}

// InitSetPin clears both set-PIN fields and navigates to the PIN creation
// view.
func (c *Controller) InitSetPin() {
	c.session.resetSetPin()
	c.deps.Nav.GoSetPassword()
}

// InitPin clears the unlock field and navigates to the PIN entry view.
func (c *Controller) InitPin() {
	c.session.resetPin()
	c.deps.Nav.GoPassword()
}

// PushPinDigit appends a digit to the named field. A field already at the
// configured length drops the digit silently. Filling a field triggers the
// next step of its flow: new PIN moves to confirmation, confirmation runs
// CheckNewPin, unlock runs CheckPin.
func (c *Controller) PushPinDigit(ctx context.Context, digit byte, field PinField) error {
	if digit < '0' || digit > '9' {
		return fmt.Errorf("pin digit must be 0-9, got %q", digit)
	}

	buf := c.session.field(field)
	if len(*buf) >= c.cfg.PinLength {
		return nil
	}
	*buf = append(*buf, digit)
	if len(*buf) < c.cfg.PinLength {
		return nil
	}

	switch field {
	case FieldNewPin:
		c.deps.Nav.GoSetPasswordConfirm()
		return nil
	case FieldPinVerify:
		return c.CheckNewPin(ctx)
	case FieldPin:
		return c.CheckPin(ctx)
	}
	return nil
}

// PopPinDigit removes the last digit of the named field. Popping an
// already-empty verify field is treated as a back gesture and resets the
// whole set-PIN flow.
func (c *Controller) PopPinDigit(field PinField) {
	buf := c.session.field(field)
	if len(*buf) == 0 {
		if field == FieldPinVerify {
			c.InitSetPin()
		}
		return
	}
	(*buf)[len(*buf)-1] = 0
	*buf = (*buf)[:len(*buf)-1]
}

// CheckNewPin verifies the confirmation entry against the new PIN. On a
// match the PIN is persisted and a fresh wallet secret is generated; on a
// mismatch both fields are cleared and the user is prompted to retry.
func (c *Controller) CheckNewPin(ctx context.Context) error {
	if len(c.session.NewPin) != c.cfg.PinLength ||
		subtle.ConstantTimeCompare(c.session.NewPin, c.session.PinVerify) != 1 {
		log.Warn().Msg("New PIN confirmation mismatch")
		c.deps.Prompt.Alert(titlePinMismatch, c.InitSetPin)
		c.InitSetPin()
		return nil
	}

	if err := c.setToKeyStore(ctx, keystore.KeyDevicePin, c.session.NewPin.String()); err != nil {
		return fmt.Errorf("persist device pin: %w", err)
	}

	log.Info().Msg("Device PIN set")

	return c.generateWalletPassword(ctx)
}

// CheckPin verifies the entered PIN against the stored credential and, on
// success, hands the stored wallet secret to the wallet unlocker. A stored
// PIN absent from both stores reads back as the empty string, which can
// never equal a full-length entry.
func (c *Controller) CheckPin(ctx context.Context) error {
	stored, err := c.deps.Store.Get(ctx, keystore.KeyDevicePin)
	if err != nil {
		return fmt.Errorf("read device pin: %w", err)
	}

	if subtle.ConstantTimeCompare(c.session.Pin, []byte(stored)) != 1 {
		log.Warn().Msg("PIN check failed")
		c.deps.Prompt.Alert(titleWrongPin, c.InitPin)
		c.InitPin()
		return nil
	}

	return c.unlockWallet(ctx)
}

// TryBiometric attempts a biometric unlock. Missing hardware, no enrolled
// biometric, and a failed or cancelled challenge are all silent no-ops;
// PIN entry stays available as the fallback.
func (c *Controller) TryBiometric(ctx context.Context) error {
	if !c.deps.Biometric.HasHardware(ctx) || !c.deps.Biometric.IsEnrolled(ctx) {
		return nil
	}

	ok, err := c.deps.Biometric.Authenticate(ctx, c.cfg.BiometricPrompt)
	if err != nil {
		log.Warn().Err(err).Msg("Biometric challenge failed")
		return nil
	}
	if !ok {
		return nil
	}

	log.Info().Msg("Biometric challenge passed")

	return c.unlockWallet(ctx)
}

// generateWalletPassword produces the machine-generated wallet secret,
// persists it, mirrors it into the session's wallet fields, and hands it
// to the wallet unlocker. The user never sees or chooses this value.
func (c *Controller) generateWalletPassword(ctx context.Context) error {
	buf := make([]byte, walletSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return fmt.Errorf("generate wallet secret: %w", err)
	}
	secret := hex.EncodeToString(buf)

	if err := c.setToKeyStore(ctx, keystore.KeyWalletPassword, secret); err != nil {
		return fmt.Errorf("persist wallet secret: %w", err)
	}

	c.session.Wallet.NewPassword = secret
	c.session.Wallet.PasswordVerify = secret

	if err := c.deps.Wallet.CheckNewPassword(ctx); err != nil {
		return fmt.Errorf("wallet accept secret: %w", err)
	}

	log.Info().Msg("Wallet secret generated")

	return nil
}

// unlockWallet retrieves the stored wallet secret and hands it to the
// wallet unlocker. Both the PIN and biometric success paths end here.
func (c *Controller) unlockWallet(ctx context.Context) error {
	secret, err := c.deps.Store.Get(ctx, keystore.KeyWalletPassword)
	if err != nil {
		return fmt.Errorf("read wallet secret: %w", err)
	}

	c.session.Wallet.Password = secret

	if err := c.deps.Wallet.CheckPassword(ctx); err != nil {
		return fmt.Errorf("wallet unlock: %w", err)
	}

	log.Info().Msg("Wallet unlocked")

	return nil
}

func (c *Controller) setToKeyStore(ctx context.Context, key, value string) error {
	return c.deps.Store.Set(ctx, key, value, keystore.AccessWhenUnlockedThisDeviceOnly)
}
