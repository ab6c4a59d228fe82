package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/saas-classifier/internal/model"
	"github.com/sells-group/saas-classifier/internal/textextract"
)

var (
	extractContentType string
	extractJSON        bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <url>",
	Short: "Fetch a URL and print its cleaned text",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("extract"); err != nil {
			return err
		}
		ct, err := textextract.ParseContentType(extractContentType)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		env, err := initEnv(ctx, "", true)
		if err != nil {
			return err
		}
		defer env.Close()

		doc, err := env.Extractor.ExtractURL(ctx, args[0], ct)
		if err != nil {
			return err
		}
		if extractJSON {
			return writeIndentedJSON(cmd.OutOrStdout(), struct {
				Success bool `json:"success"`
				*model.Document
			}{true, doc})
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), doc.Text)
		return err
	},
}

func init() {
	extractCmd.Flags().StringVar(&extractContentType, "content-type", "", "html, pdf, or text (default: detect)")
	extractCmd.Flags().BoolVar(&extractJSON, "json", false, "print the document with length and word count as JSON")
	rootCmd.AddCommand(extractCmd)
}
