package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthpay/claimcheck/internal/model"
)

const testClaimJSON = `{
  "claim_id": "CLM-1001",
  "documents": [
    {
      "document_id": "doc-1",
      "document_type": "bill",
      "fields": [
        {"name": "patient_name", "value": "John Smith", "confidence": 0.92},
        {"name": "total_charge", "value": "45,000.00", "confidence": 0.85}
      ]
    },
    {
      "document_id": "doc-2",
      "document_type": "discharge_summary",
      "fields": [
        {"name": "patient_name", "value": "jon smith", "confidence": 0.78},
        {"name": "admission_date", "value": "2024-03-01", "confidence": 0.9},
        {"name": "discharge_date", "value": "2024-03-07", "confidence": 0.9}
      ]
    }
  ]
}`

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func execute(t *testing.T, args ...string) error {
	t.Helper()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

func TestValidateCommand(t *testing.T) {
	claimPath := writeTempFile(t, "claim.json", testClaimJSON)
	outPath := filepath.Join(t.TempDir(), "run.json")

	err := execute(t, "validate", "--file", claimPath, "--output", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var run model.Run
	require.NoError(t, json.Unmarshal(data, &run))
	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Result)
	assert.True(t, run.Result.Report.IsConsistent)
}

func TestValidateCommand_MissingFile(t *testing.T) {
	err := execute(t, "validate", "--file", filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}

func TestBatchCommand_CSV(t *testing.T) {
	csvPath := writeTempFile(t, "claims.csv",
		"claim_id,document_id,document_type,field,value,confidence\n"+
			"CLM-1,doc-1,bill,patient_name,John Smith,0.9\n"+
			"CLM-1,doc-2,discharge_summary,patient_name,John Smith,0.9\n")
	outPath := filepath.Join(t.TempDir(), "summary.json")

	err := execute(t, "batch", "--file", csvPath, "--output", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var summary struct {
		Succeeded int `json:"succeeded"`
		Failed    int `json:"failed"`
	}
	require.NoError(t, json.Unmarshal(data, &summary))
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 0, summary.Failed)
}

func TestBatchCommand_UnsupportedExtension(t *testing.T) {
	path := writeTempFile(t, "claims.txt", "x")

	err := execute(t, "batch", "--file", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported claims file extension")
}

func TestClassifyCommand(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "classify.json")

	err := execute(t, "classify", "hospital_bill_march.pdf", "--output", outPath)
	require.NoError(t, err)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)

	var result struct {
		DocumentType string  `json:"document_type"`
		Confidence   float64 `json:"confidence"`
	}
	require.NoError(t, json.Unmarshal(data, &result))
	assert.Equal(t, "bill", result.DocumentType)
	assert.Equal(t, 0.8, result.Confidence)
}
