// Package main is a development harness for the wallet auth gate. It wires
// the controller to a file-backed credential store and terminal adapters so
// the PIN and migration flows can be exercised end to end.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/nimbuswallet/authgate/gate"
	"github.com/nimbuswallet/authgate/keystore"
)

// Version is set at build time
var Version = "dev"

func main() {
	configPath := flag.String("config", "authgate.yaml", "Path to configuration file")
	setup := flag.Bool("setup", false, "Run the set-PIN flow instead of unlock")
	flag.Parse()

	// Configure logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().
		Str("session_id", uuid.NewString()).
		Logger()

	log.Info().Str("version", Version).Msg("Auth gate harness starting")

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}

	legacy, err := keystore.NewLegacyFileStore(cfg.Store.LegacyPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open legacy store")
	}

	key := keystore.DeriveStoreKey([]byte(cfg.Store.DeviceSecret), cfg.StoreSalt())
	secure, err := keystore.NewSQLiteStore(cfg.Store.Path, key)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open credential store")
	}
	defer secure.Close()

	session := &gate.Session{}
	ui := &consoleUI{}
	ctrl := gate.NewController(
		gate.Config{
			PinLength:       cfg.PinLength,
			BiometricPrompt: cfg.Biometric.PromptMessage,
		},
		session,
		gate.Deps{
			Store:     keystore.NewMigratingStore(secure, legacy),
			Biometric: &stubBiometric{},
			Prompt:    ui,
			Nav:       ui,
			Wallet:    &consoleWallet{session: session},
		},
	)

	ctx := context.Background()

	if *setup {
		ctrl.InitSetPin()
	} else {
		ctrl.InitPin()
		if err := ctrl.TryBiometric(ctx); err != nil {
			log.Fatal().Err(err).Msg("Biometric unlock failed")
		}
	}

	fmt.Println("Type digits to enter your PIN, 'b' to delete, 'q' to quit.")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		for _, ch := range scanner.Text() {
			switch {
			case ch >= '0' && ch <= '9':
				if err := ctrl.PushPinDigit(ctx, byte(ch), ui.field); err != nil {
					log.Fatal().Err(err).Msg("PIN flow failed")
				}
			case ch == 'b':
				ctrl.PopPinDigit(ui.field)
			case ch == 'q':
				log.Info().Msg("Harness exiting")
				return
			}
		}
	}
}

// consoleUI plays both the navigator and the prompter, and remembers which
// PIN field the current screen collects.
type consoleUI struct {
	field gate.PinField
}

func (u *consoleUI) GoSetPassword() {
	u.field = gate.FieldNewPin
	fmt.Println("-- create a PIN --")
}

func (u *consoleUI) GoSetPasswordConfirm() {
	u.field = gate.FieldPinVerify
	fmt.Println("-- confirm your PIN --")
}

func (u *consoleUI) GoPassword() {
	u.field = gate.FieldPin
	fmt.Println("-- enter your PIN --")
}

func (u *consoleUI) Alert(title string, retry func()) {
	fmt.Printf("!! %s -- TRY AGAIN\n", title)
	retry()
}

// consoleWallet stands in for the wallet unlock collaborator.
type consoleWallet struct {
	session *gate.Session
}

func (w *consoleWallet) CheckNewPassword(ctx context.Context) error {
	log.Info().
		Int("secret_len", len(w.session.Wallet.NewPassword)).
		Msg("Wallet accepted generated secret")
	return nil
}

func (w *consoleWallet) CheckPassword(ctx context.Context) error {
	log.Info().
		Int("secret_len", len(w.session.Wallet.Password)).
		Msg("Wallet unlocked with stored secret")
	return nil
}

// stubBiometric reports no biometric hardware; the harness always falls
// back to PIN entry.
type stubBiometric struct{}

func (stubBiometric) HasHardware(ctx context.Context) bool { return false }
func (stubBiometric) IsEnrolled(ctx context.Context) bool  { return false }

func (stubBiometric) Authenticate(ctx context.Context, prompt string) (bool, error) {
	return false, nil
}
