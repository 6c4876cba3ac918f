package wallet

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/btcsuite/btcutil/base58"
	"github.com/tyler-smith/go-bip39"
	"go.uber.org/zap"

	"mintflow/internal/chain"
)

// EmbeddedSigner is the custodial signer. The key is derived from the
// operator-provisioned mnemonic; signing happens locally and the signed
// transaction is broadcast through the chain RPC client.
type EmbeddedSigner struct {
	priv    ed25519.PrivateKey
	address string
	rpc     *chain.Client
	logger  *zap.Logger
}

// NewEmbeddedSigner derives the custodial key from a BIP-39 mnemonic
func NewEmbeddedSigner(mnemonic string, rpc *chain.Client, logger *zap.Logger) (*EmbeddedSigner, error) {
	if !bip39.IsMnemonicValid(mnemonic) {
		return nil, fmt.Errorf("invalid wallet mnemonic")
	}

	seed := bip39.NewSeed(mnemonic, "")
	priv := ed25519.NewKeyFromSeed(seed[:ed25519.SeedSize])
	address := base58.Encode(priv.Public().(ed25519.PublicKey))

	logger.Info("Embedded wallet initialized", zap.String("address", address))

	return &EmbeddedSigner{
		priv:    priv,
		address: address,
		rpc:     rpc,
		logger:  logger.Named("embedded"),
	}, nil
}

// Address returns the base58 public key of the custodial wallet
func (s *EmbeddedSigner) Address() string {
	return s.address
}

// SignAndSend signs the transaction locally, reports the broadcast phase
// through onBroadcast, then sends it to the cluster
func (s *EmbeddedSigner) SignAndSend(ctx context.Context, unsignedTx []byte, onBroadcast func()) (string, error) {
	sig := ed25519.Sign(s.priv, unsignedTx)

	// Wire layout: signature count, signatures, then the message bytes
	signed := make([]byte, 0, 1+ed25519.SignatureSize+len(unsignedTx))
	signed = append(signed, 1)
	signed = append(signed, sig...)
	signed = append(signed, unsignedTx...)

	if onBroadcast != nil {
		onBroadcast()
	}

	netSig, err := s.rpc.SendTransaction(ctx, signed)
	if err != nil {
		return "", mapRPCError(err)
	}

	s.logger.Debug("Transaction signed and broadcast", zap.String("signature", netSig))
	return netSig, nil
}
