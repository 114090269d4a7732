package jsonmap

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pilacorp/go-merklekey-sdk/credential/common/crypto"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/dto"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/jsoncanonicalizer"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/merklekey"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/schema"
	"github.com/pilacorp/go-merklekey-sdk/credential/common/util"
	verificationmethod "github.com/pilacorp/go-merklekey-sdk/credential/common/verification-method"
)

const (
	dataIntegrityProofType = "DataIntegrityProof"
	ecdsaCryptosuite       = "ecdsa-rdfc-2019"

	fieldProof          = "proof"
	fieldSignatureValue = "signatureValue"
)

var (
	ErrNoProof              = errors.New("jsonmap: document has no proof")
	ErrUnsupportedProofType = errors.New("jsonmap: unsupported proof type")
	ErrInvalidProof         = errors.New("jsonmap: invalid proof")
)

// JSONMap represents a JSON object as a map.
type JSONMap map[string]interface{}

// ToJSON serializes the JSONMap to JSON.
func (m *JSONMap) ToJSON() ([]byte, error) {
	if m == nil {
		return nil, fmt.Errorf("JSONMap is nil")
	}

	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSONMap: %w", err)
	}
	return data, nil
}

// withoutProof returns a JSON round-tripped copy of m without the proof field.
func (m *JSONMap) withoutProof() (map[string]interface{}, error) {
	mCopy := make(JSONMap)
	for k, v := range *m {
		if k != fieldProof {
			mCopy[k] = v
		}
	}

	encoded, err := json.Marshal(mCopy)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSONMap copy: %w", err)
	}

	var doc map[string]interface{}
	if err := json.Unmarshal(encoded, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSONMap copy: %w", err)
	}
	return doc, nil
}

// Canonicalize returns the SHA-256 digest of the URDNA2015 form of the
// JSONMap, excluding the proof field.
func (m *JSONMap) Canonicalize() ([]byte, error) {
	doc, err := m.withoutProof()
	if err != nil {
		return nil, err
	}

	canonicalDoc, err := schema.CanonicalizeDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to canonicalize document: %w", err)
	}

	return schema.ComputeDigest(canonicalDoc)
}

// CanonicalizeJCS returns the JCS form of the JSONMap, excluding the proof
// field.
func (m *JSONMap) CanonicalizeJCS() ([]byte, error) {
	doc, err := m.withoutProof()
	if err != nil {
		return nil, err
	}
	return jsoncanonicalizer.Marshal(doc)
}

// signingInput is the document with the proof options in place of the
// proof. The signature value itself is never part of it.
func (m *JSONMap) signingInput(proofOptions map[string]interface{}) (map[string]interface{}, error) {
	doc, err := m.withoutProof()
	if err != nil {
		return nil, err
	}
	options := make(map[string]interface{}, len(proofOptions))
	for k, v := range proofOptions {
		if k != fieldSignatureValue {
			options[k] = v
		}
	}
	doc[fieldProof] = options
	return doc, nil
}

func newProof(proofType, verificationMethod, proofPurpose string) (*dto.Proof, error) {
	if verificationMethod == "" {
		return nil, fmt.Errorf("verification method is required")
	}
	if proofPurpose == "" {
		return nil, fmt.Errorf("proof purpose is required")
	}
	return &dto.Proof{
		Type:               proofType,
		Created:            time.Now().UTC().Format(time.RFC3339),
		VerificationMethod: verificationMethod,
		ProofPurpose:       proofPurpose,
	}, nil
}

// addSignedProof signs the document with the proof options and stores the
// proof with its signature value.
func (m *JSONMap) addSignedProof(proof *dto.Proof, sign func(input map[string]interface{}) (string, error)) error {
	if m == nil {
		return fmt.Errorf("JSONMap is nil")
	}
	options, ok := util.SerializeProofs([]dto.Proof{*proof}).(util.JSONMap)
	if !ok {
		return fmt.Errorf("failed to serialize proof options")
	}
	input, err := m.signingInput(options)
	if err != nil {
		return err
	}
	value, err := sign(input)
	if err != nil {
		return err
	}
	proof.SignatureValue = value
	(*m)[fieldProof] = util.SerializeProofs([]dto.Proof{*proof})
	return nil
}

// AddMerkleKeyProof signs the JSONMap with one key of a Merkle key
// collection and attaches a MerkleKeySignature2021 proof.
func (m *JSONMap) AddMerkleKeyProof(key *merklekey.SigningKey, verificationMethod, proofPurpose string) error {
	proof, err := newProof(merklekey.SignatureType, verificationMethod, proofPurpose)
	if err != nil {
		return err
	}
	return m.addSignedProof(proof, func(input map[string]interface{}) (string, error) {
		return merklekey.Sign(input, key)
	})
}

// AddJcsEd25519Proof signs the JSONMap with a single Ed25519 key and
// attaches a JcsEd25519Signature2020 proof.
func (m *JSONMap) AddJcsEd25519Proof(private []byte, verificationMethod, proofPurpose string) error {
	proof, err := newProof(crypto.JcsEd25519SignatureType, verificationMethod, proofPurpose)
	if err != nil {
		return err
	}
	return m.addSignedProof(proof, func(input map[string]interface{}) (string, error) {
		return crypto.JcsEd25519Sign(input, private)
	})
}

// AddECDSAProof adds an ecdsa-rdfc-2019 proof after checking that priv
// belongs to the verification method.
func (m *JSONMap) AddECDSAProof(ctx context.Context, priv, verificationMethod, proofPurpose string, resolver *verificationmethod.Resolver) error {
	if m == nil {
		return fmt.Errorf("JSONMap is nil")
	}
	proof, err := newProof(dataIntegrityProofType, verificationMethod, proofPurpose)
	if err != nil {
		return err
	}
	proof.Cryptosuite = ecdsaCryptosuite

	isValid, err := resolver.CheckVerificationMethod(ctx, priv, verificationMethod)
	if err != nil {
		return fmt.Errorf("failed to verify Private key and verification method: %w", err)
	}
	if !isValid {
		return fmt.Errorf("private key and verification method do not match")
	}

	signData, err := m.Canonicalize()
	if err != nil {
		return fmt.Errorf("failed to canonicalize JSONMap: %w", err)
	}

	signature, err := crypto.ECDSASign(signData, priv)
	if err != nil {
		return fmt.Errorf("failed to sign ECDSA proof: %w", err)
	}
	proof.ProofValue = hex.EncodeToString(signature)
	(*m)[fieldProof] = util.SerializeProofs([]dto.Proof{*proof})
	return nil
}

// AddCustomProof adds custom proof to the JSONMap.
func (m *JSONMap) AddCustomProof(proof *dto.Proof) error {
	if m == nil {
		return fmt.Errorf("JSONMap is nil")
	}
	if proof == nil {
		return fmt.Errorf("proof is nil")
	}
	(*m)[fieldProof] = util.SerializeProofs([]dto.Proof{*proof})

	return nil
}

// rawProof returns the first proof object of the JSONMap.
func (m *JSONMap) rawProof() (map[string]interface{}, error) {
	if m == nil {
		return nil, fmt.Errorf("JSONMap is nil")
	}
	raw, exists := (*m)[fieldProof]
	if !exists {
		return nil, ErrNoProof
	}
	if list, ok := raw.([]interface{}); ok {
		if len(list) == 0 {
			return nil, ErrNoProof
		}
		raw = list[0]
	}
	switch p := raw.(type) {
	case map[string]interface{}:
		return p, nil
	case []map[string]interface{}:
		if len(p) == 0 {
			return nil, ErrNoProof
		}
		return p[0], nil
	default:
		return nil, fmt.Errorf("%w: expected an object, got %T", ErrInvalidProof, raw)
	}
}

// signedProof returns the proof of the expected type with the signing input
// it covers.
func (m *JSONMap) signedProof(proofType string) (dto.Proof, map[string]interface{}, error) {
	raw, err := m.rawProof()
	if err != nil {
		return dto.Proof{}, nil, err
	}
	proof, err := util.ParseProof(raw)
	if err != nil {
		return dto.Proof{}, nil, fmt.Errorf("%w: %v", ErrInvalidProof, err)
	}
	if proof.Type != proofType {
		return dto.Proof{}, nil, fmt.Errorf("%w: got %q, want %q", ErrInvalidProof, proof.Type, proofType)
	}
	if proof.SignatureValue == "" {
		return dto.Proof{}, nil, fmt.Errorf("%w: missing signatureValue", ErrInvalidProof)
	}
	input, err := m.signingInput(raw)
	if err != nil {
		return dto.Proof{}, nil, err
	}
	return proof, input, nil
}

// VerifyMerkleKeyProof checks a MerkleKeySignature2021 proof against vkey.
func (m *JSONMap) VerifyMerkleKeyProof(vkey *merklekey.VerificationKey, opts ...merklekey.VerifierOption) error {
	proof, input, err := m.signedProof(merklekey.SignatureType)
	if err != nil {
		return err
	}
	return merklekey.NewVerifier(opts...).Verify(input, proof.SignatureValue, vkey)
}

// VerifyJcsEd25519Proof checks a JcsEd25519Signature2020 proof against an
// Ed25519 public key.
func (m *JSONMap) VerifyJcsEd25519Proof(public []byte) error {
	proof, input, err := m.signedProof(crypto.JcsEd25519SignatureType)
	if err != nil {
		return err
	}
	return crypto.JcsEd25519Verify(input, proof.SignatureValue, public)
}

// VerifyECDSA verifies an ECDSA-signed JSONMap.
func (m *JSONMap) VerifyECDSA(ctx context.Context, resolver *verificationmethod.Resolver) (bool, error) {
	raw, err := m.rawProof()
	if err != nil {
		return false, err
	}

	doc, err := m.Canonicalize()
	if err != nil {
		return false, fmt.Errorf("failed to canonicalize JSONMap: %w", err)
	}

	proof, err := ParseRawToProof(raw)
	if err != nil {
		return false, fmt.Errorf("failed to parse proof: %w", err)
	}

	publicKey, err := resolver.GetPublicKey(ctx, proof.VerificationMethod)
	if err != nil {
		return false, fmt.Errorf("failed to resolve public key: %w", err)
	}

	return crypto.ECDSAVerifySignature(publicKey, proof.ProofValue, doc)
}

// VerifyProof resolves the proof's verification method and checks the proof
// with the suite its type names.
func (m *JSONMap) VerifyProof(ctx context.Context, resolver *verificationmethod.Resolver, opts ...merklekey.VerifierOption) error {
	raw, err := m.rawProof()
	if err != nil {
		return err
	}
	proof, err := ParseRawToProof(raw)
	if err != nil {
		return err
	}

	switch proof.Type {
	case merklekey.SignatureType:
		vkey, err := resolver.GetMerkleVerificationKey(ctx, proof.VerificationMethod)
		if err != nil {
			return fmt.Errorf("failed to resolve merkle key: %w", err)
		}
		return m.VerifyMerkleKeyProof(vkey, opts...)
	case crypto.JcsEd25519SignatureType:
		vm, err := resolver.GetVerificationMethod(ctx, proof.VerificationMethod)
		if err != nil {
			return fmt.Errorf("failed to resolve verification method: %w", err)
		}
		public, err := vm.KeyData()
		if err != nil {
			return err
		}
		return m.VerifyJcsEd25519Proof(public)
	case dataIntegrityProofType:
		ok, err := m.VerifyECDSA(ctx, resolver)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: ECDSA signature mismatch", ErrInvalidProof)
		}
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedProofType, proof.Type)
	}
}

// ParseRawToProof converts a JSON object to a Proof struct.
func ParseRawToProof(proof interface{}) (dto.Proof, error) {
	var result dto.Proof
	var proofMap map[string]interface{}
	switch p := proof.(type) {
	case map[string]interface{}:
		proofMap = p
	default:
		return result, fmt.Errorf("%w: expected map[string]interface{}, got %T", ErrInvalidProof, proof)
	}

	if t, ok := proofMap["type"].(string); ok {
		result.Type = t
	}
	if created, ok := proofMap["created"].(string); ok {
		result.Created = created
	}
	if purpose, ok := proofMap["proofPurpose"].(string); ok {
		result.ProofPurpose = purpose
	}
	if vm, ok := proofMap["verificationMethod"].(string); ok {
		result.VerificationMethod = vm
	}
	if pv, ok := proofMap["proofValue"].(string); ok {
		result.ProofValue = pv
	}
	if sv, ok := proofMap[fieldSignatureValue].(string); ok {
		result.SignatureValue = sv
	}
	if cs, ok := proofMap["cryptosuite"].(string); ok {
		result.Cryptosuite = cs
	}
	return result, nil
}
