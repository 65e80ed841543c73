package liquid

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/ecdsa"
	"github.com/btcsuite/btcd/txscript"
	"github.com/vulpemventures/go-elements/network"
	"github.com/vulpemventures/go-elements/payment"
	"github.com/vulpemventures/go-elements/psetv2"
)

var (
	ErrMissingPrivateKey = fmt.Errorf("missing private key")
	ErrMissingPset       = fmt.Errorf("missing pset base64")
	ErrNoInputsToSign    = fmt.Errorf("no input of the pset is owned by key")
)

// Address returns the unconfidential native segwit address of the key.
func Address(key *btcec.PublicKey, net *network.Network) (string, error) {
	if net == nil {
		net = &network.Liquid
	}
	return payment.FromPublicKey(key, net, nil).WitnessPubKeyHash()
}

// Script returns the P2WPKH output script of the key.
func Script(key *btcec.PublicKey) []byte {
	return payment.FromPublicKey(key, nil, nil).WitnessScript
}

// Pset is a partial transaction to be signed.
type Pset struct {
	PsetBase64  string
	SigHashType txscript.SigHashType
}

func (p Pset) validate() (*psetv2.Pset, error) {
	if p.PsetBase64 == "" {
		return nil, ErrMissingPset
	}
	return psetv2.NewPsetFromBase64(p.PsetBase64)
}

func (p Pset) sighashType() txscript.SigHashType {
	if p.SigHashType == 0 {
		return txscript.SigHashAll
	}
	return p.SigHashType
}

// SignedPset is the base64 encoded partial transaction with the added
// signatures, and the hash of the unsigned transaction.
type SignedPset struct {
	Raw  string
	Hash string
}

// SignPset signs all inputs of the partial transaction whose prevout script
// is the P2WPKH script of key.
func SignPset(key *btcec.PrivateKey, args Pset) (*SignedPset, error) {
	if key == nil {
		return nil, ErrMissingPrivateKey
	}
	ptx, err := args.validate()
	if err != nil {
		return nil, err
	}

	script := Script(key.PubKey())
	signed := 0
	for i, in := range ptx.Inputs {
		prevout := in.GetUtxo()
		if prevout == nil || !bytes.Equal(prevout.Script, script) {
			continue
		}
		if err := signInput(ptx, i, key, args.sighashType()); err != nil {
			return nil, err
		}
		signed++
	}
	if signed == 0 {
		return nil, ErrNoInputsToSign
	}

	unsignedTx, err := ptx.UnsignedTx()
	if err != nil {
		return nil, err
	}
	raw, err := ptx.ToBase64()
	if err != nil {
		return nil, err
	}
	return &SignedPset{
		Raw:  raw,
		Hash: unsignedTx.TxHash().String(),
	}, nil
}

func signInput(
	ptx *psetv2.Pset, inIndex int, prvkey *btcec.PrivateKey,
	sighashType txscript.SigHashType,
) error {
	signer, err := psetv2.NewSigner(ptx)
	if err != nil {
		return err
	}

	if ptx.Inputs[inIndex].SigHashType == 0 {
		if err := signer.AddInSighashType(inIndex, sighashType); err != nil {
			return err
		}
	}
	input := ptx.Inputs[inIndex]
	pubkey := prvkey.PubKey()

	pay, err := payment.FromScript(input.GetUtxo().Script, nil, nil)
	if err != nil {
		return err
	}

	unsignedTx, err := ptx.UnsignedTx()
	if err != nil {
		return err
	}
	hashForSignature := unsignedTx.HashForWitnessV0(
		inIndex, pay.Script, input.GetUtxo().Value, input.SigHashType,
	)

	signature := ecdsa.Sign(prvkey, hashForSignature[:])
	if !signature.Verify(hashForSignature[:], pubkey) {
		return fmt.Errorf(
			"signature verification failed for input %d", inIndex,
		)
	}

	sigWithSigHashType := append(signature.Serialize(), byte(input.SigHashType))
	return signer.SignInput(
		inIndex, sigWithSigHashType, pubkey.SerializeCompressed(), nil, nil,
	)
}
