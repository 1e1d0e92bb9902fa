package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainConfig      = "omnikeys/config/v1"
	DomainProductions = "omnikeys/productions/v1"
	DomainOutput      = "omnikeys/output/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// ConfigHash computes the content address of raw config source bytes.
func ConfigHash(source []byte) string {
	return hashWithDomain(DomainConfig, source)
}

// ProductionSetHash computes the content address of a compiled production set.
// Production order is significant and fixed by the compiler; everything else
// goes through MarshalCanonical.
func ProductionSetHash(set *ProductionSet) (string, error) {
	data, err := MarshalCanonical(set)
	if err != nil {
		return "", fmt.Errorf("ProductionSetHash: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProductions, data), nil
}

// OutputHash computes the content address of rendered target JSON.
func OutputHash(output []byte) string {
	return hashWithDomain(DomainOutput, output)
}
