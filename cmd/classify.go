package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/healthpay/claimcheck/internal/bundle"
	"github.com/healthpay/claimcheck/internal/classifier"
)

var (
	classifyContent string
	classifyOutput  string
)

var classifyCmd = &cobra.Command{
	Use:   "classify FILENAME",
	Short: "Classify a claim document by filename and extracted text",
	Long: `Guesses the document type from its filename, optionally combined with
extracted text content. When content is given, the grand total is also
extracted from it if present.

Examples:
  claimcheck classify hospital_bill_march.pdf
  claimcheck classify scan0001.pdf --content extracted.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		filename := args[0]

		var content string
		if classifyContent != "" {
			data, err := os.ReadFile(classifyContent)
			if err != nil {
				return eris.Wrapf(err, "read %s", classifyContent)
			}
			content = string(data)
		}

		result := classifier.Classify(filename, content)

		out := map[string]any{
			"filename":      filename,
			"document_type": result.Type,
			"confidence":    result.Confidence,
			"reasoning":     result.Reasoning,
		}
		if total, ok := bundle.ExtractTotal(content); ok {
			out["total_charge"] = total
		}

		return printJSON(out, classifyOutput)
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyContent, "content", "", "file with extracted document text")
	classifyCmd.Flags().StringVar(&classifyOutput, "output", "", "write result JSON to file instead of stdout")
	rootCmd.AddCommand(classifyCmd)
}
