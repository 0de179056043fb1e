// Package ingest parses claim files in JSON, CSV, and XLSX form into raw
// documents ready for bundle construction.
package ingest

import (
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"

	"github.com/healthpay/claimcheck/internal/bundle"
)

// ClaimInput is one claim as it arrives from the extraction stage: an
// identifier plus the raw documents that were uploaded for it.
type ClaimInput struct {
	ClaimID   string               `json:"claim_id"`
	Documents []bundle.RawDocument `json:"documents"`
}

// ReadClaimJSON decodes a single claim object.
func ReadClaimJSON(r io.Reader) (*ClaimInput, error) {
	var claim ClaimInput
	if err := json.NewDecoder(r).Decode(&claim); err != nil {
		return nil, eris.Wrap(err, "ingest: decode claim")
	}
	if claim.ClaimID == "" {
		return nil, eris.New("ingest: claim_id is required")
	}
	if len(claim.Documents) == 0 {
		return nil, eris.New("ingest: claim has no documents")
	}
	return &claim, nil
}

// StreamClaimsJSON decodes a JSON array of claims, sending each claim to a
// channel. Expects input in the form [{...},{...}].
// Both channels are closed when processing completes.
func StreamClaimsJSON(ctx context.Context, r io.Reader) (<-chan ClaimInput, <-chan error) {
	outCh := make(chan ClaimInput, 16)
	errCh := make(chan error, 1)

	go func() {
		defer close(outCh)
		defer close(errCh)

		decoder := json.NewDecoder(r)

		// Expect opening bracket
		tok, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				return
			}
			errCh <- eris.Wrap(err, "ingest: read opening token")
			return
		}

		delim, ok := tok.(json.Delim)
		if !ok || delim != '[' {
			errCh <- eris.Errorf("ingest: expected '[', got %v", tok)
			return
		}

		for decoder.More() {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "ingest: context cancelled")
				return
			}

			var claim ClaimInput
			if err := decoder.Decode(&claim); err != nil {
				errCh <- eris.Wrap(err, "ingest: decode claim element")
				return
			}
			if claim.ClaimID == "" {
				errCh <- eris.New("ingest: claim_id is required")
				return
			}

			select {
			case outCh <- claim:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "ingest: context cancelled")
				return
			}
		}

		// Consume closing bracket
		if _, err := decoder.Token(); err != nil && err != io.EOF {
			errCh <- eris.Wrap(err, "ingest: read closing token")
		}
	}()

	return outCh, errCh
}
