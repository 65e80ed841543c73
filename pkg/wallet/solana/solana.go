package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
)

var (
	ErrMissingPrivateKey = fmt.Errorf("missing private key")
	ErrMissingTx         = fmt.Errorf(
		"either raw transaction or transfer must be provided",
	)
	ErrAmbiguousTx = fmt.Errorf(
		"raw transaction and transfer are mutually exclusive",
	)
	ErrInvalidRecipient = fmt.Errorf("invalid transfer recipient")
	ErrInvalidBlockhash = fmt.Errorf("invalid recent blockhash")
	ErrZeroAmount       = fmt.Errorf("transfer amount must be positive")
	ErrNotSigner        = fmt.Errorf("key is not a required signer of the transaction")
)

// Address returns the base58 encoded public key.
func Address(key ed25519.PublicKey) string {
	return solana.PublicKeyFromBytes(key).String()
}

// Transfer describes a native SOL transfer from the signing key.
type Transfer struct {
	To              string
	Lamports        uint64
	RecentBlockhash string
}

// Transaction is either a base64 serialized transaction built elsewhere, or a
// transfer to be built and signed here.
type Transaction struct {
	RawBase64 string
	Transfer  *Transfer
}

func (t Transaction) validate() error {
	if t.RawBase64 == "" && t.Transfer == nil {
		return ErrMissingTx
	}
	if t.RawBase64 != "" && t.Transfer != nil {
		return ErrAmbiguousTx
	}
	if t.Transfer != nil {
		if _, err := solana.PublicKeyFromBase58(t.Transfer.To); err != nil {
			return ErrInvalidRecipient
		}
		if _, err := solana.HashFromBase58(t.Transfer.RecentBlockhash); err != nil {
			return ErrInvalidBlockhash
		}
		if t.Transfer.Lamports == 0 {
			return ErrZeroAmount
		}
	}
	return nil
}

func (t Transaction) build(payer solana.PublicKey) (*solana.Transaction, error) {
	if t.Transfer == nil {
		buf, err := base64.StdEncoding.DecodeString(t.RawBase64)
		if err != nil {
			return nil, fmt.Errorf("invalid raw transaction: %w", err)
		}
		tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(buf))
		if err != nil {
			return nil, fmt.Errorf("invalid raw transaction: %w", err)
		}
		return tx, nil
	}

	to, _ := solana.PublicKeyFromBase58(t.Transfer.To)
	blockhash, _ := solana.HashFromBase58(t.Transfer.RecentBlockhash)
	return solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(t.Transfer.Lamports, payer, to).Build(),
		},
		blockhash,
		solana.TransactionPayer(payer),
	)
}

// SignedTransaction is the base64 serialized signed transaction and its
// first signature, that is the transaction id.
type SignedTransaction struct {
	Raw  string
	Hash string
}

// SignTransaction adds the signature of key to the transaction. Signatures
// of other signers, if any, are left untouched.
func SignTransaction(
	key ed25519.PrivateKey, tx Transaction,
) (*SignedTransaction, error) {
	if len(key) != ed25519.PrivateKeySize {
		return nil, ErrMissingPrivateKey
	}
	if err := tx.validate(); err != nil {
		return nil, err
	}

	prvkey := solana.PrivateKey(key)
	solTx, err := tx.build(prvkey.PublicKey())
	if err != nil {
		return nil, err
	}

	signerIndex := -1
	numSigners := int(solTx.Message.Header.NumRequiredSignatures)
	for i := 0; i < numSigners && i < len(solTx.Message.AccountKeys); i++ {
		if solTx.Message.AccountKeys[i].Equals(prvkey.PublicKey()) {
			signerIndex = i
			break
		}
	}
	if signerIndex < 0 {
		return nil, ErrNotSigner
	}

	msg, err := solTx.Message.MarshalBinary()
	if err != nil {
		return nil, err
	}
	sig, err := prvkey.Sign(msg)
	if err != nil {
		return nil, err
	}
	if len(solTx.Signatures) != numSigners {
		sigs := make([]solana.Signature, numSigners)
		copy(sigs, solTx.Signatures)
		solTx.Signatures = sigs
	}
	solTx.Signatures[signerIndex] = sig

	raw, err := solTx.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return &SignedTransaction{
		Raw:  base64.StdEncoding.EncodeToString(raw),
		Hash: solTx.Signatures[0].String(),
	}, nil
}
