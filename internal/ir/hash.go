package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// The version suffix allows the record layout to change later.
const (
	DomainType      = "contentpipe/type/v1"
	DomainAttribute = "contentpipe/attribute/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data) as hex.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TypeFingerprint hashes the canonical form of a type, nested types
// included. Two types with the same members and bodies share a fingerprint
// regardless of the order maps were built in.
func TypeFingerprint(t *TypeDef) (string, error) {
	rec, err := RecordOf(t)
	if err != nil {
		return "", fmt.Errorf("TypeFingerprint: %w", err)
	}
	return fingerprint(DomainType, rec)
}

// AttributeFingerprint hashes an attribute application.
func AttributeFingerprint(a *CustomAttribute) (string, error) {
	rec, err := AttributeRecordOf(a)
	if err != nil {
		return "", fmt.Errorf("AttributeFingerprint: %w", err)
	}
	return fingerprint(DomainAttribute, rec)
}

func fingerprint(domain string, rec any) (string, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	v, err := UnmarshalValue(data)
	if err != nil {
		return "", fmt.Errorf("decode record: %w", err)
	}
	canonical, err := MarshalCanonical(v)
	if err != nil {
		return "", fmt.Errorf("canonicalize record: %w", err)
	}
	return hashWithDomain(domain, canonical), nil
}
