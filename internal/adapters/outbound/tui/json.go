package tui

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/gowebpki/jcs"

	"github.com/openkraft/licensekraft/internal/domain"
)

// CanonicalJSON marshals v and returns its RFC 8785 canonical form.
func CanonicalJSON(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	out, err := jcs.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	return out, nil
}

// Digest returns the sha256 hex digest of the canonical form of v.
func Digest(v any) (string, error) {
	canonical, err := CanonicalJSON(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

// reportEnvelope pairs a report with the digest of its canonical form.
type reportEnvelope struct {
	Digest string         `json:"digest"`
	Report *domain.Report `json:"report"`
}

// RenderJSON renders the report as canonical JSON followed by a newline.
func RenderJSON(report *domain.Report) ([]byte, error) {
	digest, err := Digest(report)
	if err != nil {
		return nil, err
	}
	out, err := CanonicalJSON(reportEnvelope{Digest: digest, Report: report})
	if err != nil {
		return nil, err
	}
	return append(out, '\n'), nil
}
