package evm

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

const domainType = "EIP712Domain"

// domain fields in canonical order, with their solidity type.
var domainFields = []Field{
	{"name", "string"},
	{"version", "string"},
	{"chainId", "uint256"},
	{"verifyingContract", "address"},
	{"salt", "bytes32"},
}

// Field is a named member of a typed data struct type.
type Field struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// TypedData is an EIP-712 payload. Any EIP712Domain entry of Types is
// ignored and rebuilt from the populated fields of Domain. If PrimaryType is
// empty it's inferred as the only type not referenced by any other type.
type TypedData struct {
	Types       map[string][]Field     `json:"types"`
	PrimaryType string                 `json:"primaryType"`
	Domain      map[string]interface{} `json:"domain"`
	Message     map[string]interface{} `json:"message"`
}

func (d TypedData) validate() error {
	if len(d.Types) <= 0 {
		return ErrMissingTypes
	}
	if d.Message == nil {
		return ErrMissingMessage
	}
	for name, fields := range d.Types {
		for _, f := range fields {
			if f.Name == "" || f.Type == "" {
				return fmt.Errorf("%w in type %s", ErrInvalidTypedDataField, name)
			}
		}
	}
	return nil
}

// HashTypedData returns keccak256("\x19\x01" || domainSeparator || hashStruct(message)).
func HashTypedData(data TypedData) ([]byte, error) {
	if err := data.validate(); err != nil {
		return nil, err
	}

	types := make(map[string][]Field, len(data.Types)+1)
	for name, fields := range data.Types {
		if name == domainType {
			continue
		}
		types[name] = fields
	}
	types[domainType] = populatedDomainFields(data.Domain)

	primaryType := data.PrimaryType
	if primaryType == "" {
		inferred, err := inferPrimaryType(types)
		if err != nil {
			return nil, err
		}
		primaryType = inferred
	}
	if _, ok := types[primaryType]; !ok || primaryType == domainType {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPrimaryType, primaryType)
	}

	buf, err := json.Marshal(map[string]interface{}{
		"types":       types,
		"primaryType": primaryType,
		"domain":      data.Domain,
		"message":     data.Message,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal typed data: %w", err)
	}
	var td apitypes.TypedData
	if err := json.Unmarshal(buf, &td); err != nil {
		return nil, fmt.Errorf("failed to parse typed data: %w", err)
	}

	domainSeparator, err := td.HashStruct(domainType, td.Domain.Map())
	if err != nil {
		return nil, fmt.Errorf("failed to hash domain: %w", err)
	}
	typedDataHash, err := td.HashStruct(td.PrimaryType, td.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to hash message: %w", err)
	}

	rawData := []byte(fmt.Sprintf("\x19\x01%s%s", string(domainSeparator), string(typedDataHash)))
	return crypto.Keccak256(rawData), nil
}

// SignTypedData returns the 0x-prefixed hex signature of the EIP-712 hash
// of data.
func SignTypedData(key *btcec.PrivateKey, data TypedData) (string, error) {
	if key == nil {
		return "", ErrMissingPrivateKey
	}
	hash, err := HashTypedData(data)
	if err != nil {
		return "", err
	}
	return signHash(key, hash)
}

// RecoverTypedDataSigner returns the address that produced the given
// signature of data.
func RecoverTypedDataSigner(data TypedData, signature string) (string, error) {
	hash, err := HashTypedData(data)
	if err != nil {
		return "", err
	}
	return recoverSigner(hash, signature)
}

func populatedDomainFields(domain map[string]interface{}) []Field {
	fields := make([]Field, 0, len(domainFields))
	for _, f := range domainFields {
		if v, ok := domain[f.Name]; ok && v != nil && v != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

func inferPrimaryType(types map[string][]Field) (string, error) {
	referenced := make(map[string]struct{})
	for name, fields := range types {
		if name == domainType {
			continue
		}
		for _, f := range fields {
			referenced[baseType(f.Type)] = struct{}{}
		}
	}

	candidates := make([]string, 0, 1)
	for name := range types {
		if name == domainType {
			continue
		}
		if _, ok := referenced[name]; !ok {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) != 1 {
		sort.Strings(candidates)
		return "", fmt.Errorf("%w, candidates: %v", ErrAmbiguousPrimaryType, candidates)
	}
	return candidates[0], nil
}

// baseType strips any array suffix, ie. Person[] or Person[2] -> Person.
func baseType(typ string) string {
	if i := strings.Index(typ, "["); i >= 0 {
		return typ[:i]
	}
	return typ
}
