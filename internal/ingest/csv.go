package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/healthpay/claimcheck/internal/bundle"
)

// claimColumns is the required CSV/XLSX header. Column order is free; the
// header row decides which column is which.
var claimColumns = []string{"claim_id", "document_id", "document_type", "field", "value", "confidence"}

type columnIndex map[string]int

func indexHeader(header []string) (columnIndex, error) {
	idx := make(columnIndex, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, col := range claimColumns {
		if col == "confidence" {
			continue // optional
		}
		if _, ok := idx[col]; !ok {
			return nil, eris.Errorf("ingest: missing column %q in header", col)
		}
	}
	return idx, nil
}

func (idx columnIndex) get(row []string, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ReadClaimsCSV parses a flat claims file where each row is one extracted
// field. Rows are grouped into claims and documents in first-seen order.
// A missing or empty confidence column defaults to 1.
func ReadClaimsCSV(ctx context.Context, r io.Reader) ([]ClaimInput, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // allow variable fields

	header, err := reader.Read()
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read csv header")
	}
	idx, err := indexHeader(header)
	if err != nil {
		return nil, err
	}

	acc := newClaimAccumulator()
	line := 1
	for {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "ingest: context cancelled")
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrap(err, "ingest: read csv row")
		}
		line++

		if err := acc.addRow(idx, row); err != nil {
			return nil, eris.Wrapf(err, "ingest: csv line %d", line)
		}
	}

	return acc.claims(), nil
}

// claimAccumulator groups per-field rows into claims and documents while
// preserving the order they first appear in.
type claimAccumulator struct {
	order  []string
	byID   map[string]*ClaimInput
	docIdx map[string]map[string]int // claim id -> document id -> index in Documents
}

func newClaimAccumulator() *claimAccumulator {
	return &claimAccumulator{
		byID:   make(map[string]*ClaimInput),
		docIdx: make(map[string]map[string]int),
	}
}

func (a *claimAccumulator) addRow(idx columnIndex, row []string) error {
	claimID := idx.get(row, "claim_id")
	docID := idx.get(row, "document_id")
	if claimID == "" || docID == "" {
		return eris.New("claim_id and document_id are required")
	}

	confidence := 1.0
	if raw := idx.get(row, "confidence"); raw != "" {
		c, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return eris.Wrapf(err, "parse confidence %q", raw)
		}
		confidence = c
	}

	claim, ok := a.byID[claimID]
	if !ok {
		claim = &ClaimInput{ClaimID: claimID}
		a.byID[claimID] = claim
		a.docIdx[claimID] = make(map[string]int)
		a.order = append(a.order, claimID)
	}

	docs := a.docIdx[claimID]
	di, ok := docs[docID]
	if !ok {
		di = len(claim.Documents)
		docs[docID] = di
		claim.Documents = append(claim.Documents, bundle.RawDocument{
			DocumentID: docID,
			Type:       idx.get(row, "document_type"),
		})
	}

	claim.Documents[di].Fields = append(claim.Documents[di].Fields, bundle.RawField{
		Name:       idx.get(row, "field"),
		Value:      idx.get(row, "value"),
		Confidence: confidence,
	})
	return nil
}

func (a *claimAccumulator) claims() []ClaimInput {
	out := make([]ClaimInput, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, *a.byID[id])
	}
	return out
}
