package util

import (
	"encoding/hex"
	"strings"

	"github.com/pkg/errors"
)

// EthereumAddress is a 20-byte account address. The zero value is the zero
// address.
type EthereumAddress struct {
	address [20]byte
}

// ZeroAddress is the all-zeroes address.
var ZeroAddress = EthereumAddress{}

// BurnAddress is the conventional dead address. Value sent there is
// unrecoverable, so the ledger treats it like the zero address.
var BurnAddress = MustNewEthereumAddressFromString("0x000000000000000000000000000000000000dEaD")

// NewEthereumAddressFromString parses a 0x-prefixed 40-character hex string.
func NewEthereumAddressFromString(s string) (EthereumAddress, error) {
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return EthereumAddress{}, errors.Errorf("address must be a 0x-prefixed 40-character hex string, got %q", s)
	}
	raw, err := hex.DecodeString(s[2:])
	if err != nil {
		return EthereumAddress{}, errors.Wrapf(err, "address %q contains invalid hex", s)
	}
	return NewEthereumAddressFromBytes(raw)
}

// NewEthereumAddressFromBytes builds an address from exactly 20 raw bytes.
func NewEthereumAddressFromBytes(b []byte) (EthereumAddress, error) {
	if len(b) != 20 {
		return EthereumAddress{}, errors.Errorf("address must be exactly 20 bytes, got %d", len(b))
	}
	var a EthereumAddress
	copy(a.address[:], b)
	return a, nil
}

// MustNewEthereumAddressFromString is NewEthereumAddressFromString for
// package-level constants and tests.
func MustNewEthereumAddressFromString(s string) EthereumAddress {
	a, err := NewEthereumAddressFromString(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Address returns the lowercase 0x-prefixed hex representation.
func (e EthereumAddress) Address() string {
	return "0x" + hex.EncodeToString(e.address[:])
}

// Bytes returns a copy of the raw 20 bytes.
func (e EthereumAddress) Bytes() []byte {
	b := make([]byte, 20)
	copy(b, e.address[:])
	return b
}

// IsZero reports whether the address is the zero address.
func (e EthereumAddress) IsZero() bool {
	return e == ZeroAddress
}

// IsZeroOrBurn reports whether the address is the zero or burn address.
// Neither is a valid payment or asset receiver.
func (e EthereumAddress) IsZeroOrBurn() bool {
	return e == ZeroAddress || e == BurnAddress
}

func (e EthereumAddress) String() string {
	return e.Address()
}

// MarshalText implements encoding.TextMarshaler so addresses serialize as
// hex strings in JSON payloads.
func (e EthereumAddress) MarshalText() ([]byte, error) {
	return []byte(e.Address()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *EthereumAddress) UnmarshalText(text []byte) error {
	a, err := NewEthereumAddressFromString(string(text))
	if err != nil {
		return err
	}
	*e = a
	return nil
}
