package auth

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrBadSignature = errors.New("signature does not match address")
	ErrBadMessage   = errors.New("malformed sign-in message")
)

// SignInMessage is the EIP-4361 style structured message the wallet
// signs during login.
type SignInMessage struct {
	Domain    string
	Address   string
	Statement string
	URI       string
	Version   string
	ChainID   int
	Nonce     string
	IssuedAt  time.Time
}

// Prepare renders the message in its canonical signing form.
func (m SignInMessage) Prepare() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s wants you to sign in with your Ethereum account:\n%s\n\n", m.Domain, m.Address)
	if m.Statement != "" {
		fmt.Fprintf(&b, "%s\n\n", m.Statement)
	}
	fmt.Fprintf(&b, "URI: %s\n", m.URI)
	fmt.Fprintf(&b, "Version: %s\n", m.Version)
	fmt.Fprintf(&b, "Chain ID: %d\n", m.ChainID)
	fmt.Fprintf(&b, "Nonce: %s\n", m.Nonce)
	fmt.Fprintf(&b, "Issued At: %s", m.IssuedAt.UTC().Format(time.RFC3339))
	return b.String()
}

// ParseSignInMessage extracts the fields this service cares about
// (address, nonce, chain id) from a prepared message.
func ParseSignInMessage(raw string) (*SignInMessage, error) {
	lines := strings.Split(raw, "\n")
	if len(lines) < 2 || !strings.Contains(lines[0], "wants you to sign in") {
		return nil, ErrBadMessage
	}
	m := &SignInMessage{}
	m.Domain = strings.TrimSuffix(lines[0], " wants you to sign in with your Ethereum account:")
	m.Address = strings.TrimSpace(lines[1])
	if !common.IsHexAddress(m.Address) {
		return nil, ErrBadMessage
	}
	for _, line := range lines[2:] {
		switch {
		case strings.HasPrefix(line, "URI: "):
			m.URI = strings.TrimPrefix(line, "URI: ")
		case strings.HasPrefix(line, "Version: "):
			m.Version = strings.TrimPrefix(line, "Version: ")
		case strings.HasPrefix(line, "Chain ID: "):
			id, err := strconv.Atoi(strings.TrimPrefix(line, "Chain ID: "))
			if err != nil {
				return nil, ErrBadMessage
			}
			m.ChainID = id
		case strings.HasPrefix(line, "Nonce: "):
			m.Nonce = strings.TrimPrefix(line, "Nonce: ")
		case strings.HasPrefix(line, "Issued At: "):
			ts, err := time.Parse(time.RFC3339, strings.TrimPrefix(line, "Issued At: "))
			if err != nil {
				return nil, ErrBadMessage
			}
			m.IssuedAt = ts
		}
	}
	if m.Nonce == "" {
		return nil, ErrBadMessage
	}
	return m, nil
}

// VerifySignature recovers the signer of an EIP-191 personal-sign
// signature over message and checks it against the claimed address.
func VerifySignature(message, signature, address string) error {
	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != 65 {
		return ErrBadSignature
	}
	// Wallets return v as 27/28; recovery wants 0/1.
	if sig[64] >= 27 {
		sig[64] -= 27
	}
	hash := accounts.TextHash([]byte(message))
	pub, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return ErrBadSignature
	}
	recovered := crypto.PubkeyToAddress(*pub)
	if recovered != common.HexToAddress(address) {
		return ErrBadSignature
	}
	return nil
}
