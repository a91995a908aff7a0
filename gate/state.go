package gate

// SensitiveBytes is a []byte wrapper that can be zeroed after use
// SECURITY: Use this type for PIN digits so the underlying memory can be
// cleared on reset
type SensitiveBytes []byte

// Zero overwrites the underlying bytes with zeros
func (s SensitiveBytes) Zero() {
	for i := range s {
		s[i] = 0
	}
}

// String returns the string representation (use sparingly)
func (s SensitiveBytes) String() string {
	return string(s)
}

// PinField names one of the session's PIN entry fields.
type PinField int

const (
	// FieldNewPin collects the first entry of a new PIN.
	FieldNewPin PinField = iota
	// FieldPinVerify collects the confirmation entry of a new PIN.
	FieldPinVerify
	// FieldPin collects the unlock PIN.
	FieldPin
)

// Session holds the ephemeral authentication state for one user session.
// It is owned by the embedding application and handed to NewController;
// the controller is its only mutator. Nothing in it is ever persisted.
type Session struct {
	NewPin    SensitiveBytes
	PinVerify SensitiveBytes
	Pin       SensitiveBytes

	Wallet WalletSecretState
}

// WalletSecretState mirrors the machine-generated wallet secret into the
// fields the wallet unlock collaborator consumes. The secret is always
// generated, never user-chosen, so NewPassword and PasswordVerify are
// identical by construction.
type WalletSecretState struct {
	NewPassword    string
	PasswordVerify string
	Password       string
}

// field returns the buffer backing the named PIN field.
func (s *Session) field(f PinField) *SensitiveBytes {
	switch f {
	case FieldNewPin:
		return &s.NewPin
	case FieldPinVerify:
		return &s.PinVerify
	default:
		return &s.Pin
	}
}

// resetSetPin zeros and empties both set-PIN fields.
func (s *Session) resetSetPin() {
	s.NewPin.Zero()
	s.NewPin = s.NewPin[:0]
	s.PinVerify.Zero()
	s.PinVerify = s.PinVerify[:0]
}

// resetPin zeros and empties the unlock field.
func (s *Session) resetPin() {
	s.Pin.Zero()
	s.Pin = s.Pin[:0]
}
