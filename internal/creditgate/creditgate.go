// Package creditgate is the capability boundary to the zero-knowledge credit
// verifier. The gate only ever reveals a pass/fail outcome; the underlying
// score never crosses this interface, so the ZK backend can be swapped
// without touching the loan manager.
package creditgate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrVerificationUnavailable means the proof could not be checked at all.
// Callers treat this conservatively (not eligible), never as a hard failure
// that blocks the protocol.
var ErrVerificationUnavailable = errors.New("credit verification unavailable")

type Gate interface {
	// Verify is idempotent and side-effect-free from the caller's view.
	Verify(ctx context.Context, borrowerID, attestation string) (bool, error)
}

// HTTPGate calls the external verifier service with a bounded timeout.
type HTTPGate struct {
	baseURL string
	client  *http.Client
}

func NewHTTPGate(baseURL string, timeout time.Duration) *HTTPGate {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPGate{baseURL: baseURL, client: &http.Client{Timeout: timeout}}
}

type verifyRequest struct {
	BorrowerID string `json:"borrower_id"`
	ProofHash  string `json:"proof_hash"`
}

type verifyResponse struct {
	Eligible bool `json:"eligible"`
}

func (g *HTTPGate) Verify(ctx context.Context, borrowerID, attestation string) (bool, error) {
	body, err := json.Marshal(verifyRequest{BorrowerID: borrowerID, ProofHash: attestation})
	if err != nil {
		return false, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/zk/verify", bytes.NewReader(body))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrVerificationUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		var out verifyResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return false, fmt.Errorf("%w: decode response: %v", ErrVerificationUnavailable, err)
		}
		return out.Eligible, nil
	case resp.StatusCode >= 500:
		return false, fmt.Errorf("%w: verifier returned %d", ErrVerificationUnavailable, resp.StatusCode)
	default:
		// 4xx: the verifier understood the proof and rejected it.
		return false, nil
	}
}

// StaticGate returns canned outcomes, for dev mode and tests.
type StaticGate struct {
	Eligible map[string]bool
	Default  bool
}

func (g *StaticGate) Verify(_ context.Context, borrowerID, _ string) (bool, error) {
	if v, ok := g.Eligible[borrowerID]; ok {
		return v, nil
	}
	return g.Default, nil
}
