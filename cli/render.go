package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nftmarket/indexer-query/core/catalog"
)

// RenderOptions holds the render flags.
type RenderOptions struct {
	File        string
	MaxPageSize int
}

// renderOutput is the json form of a rendered document.
type renderOutput struct {
	Type  catalog.QueryType `json:"type"`
	Query string            `json:"query"`
}

// NewRenderCommand creates the render command.
func NewRenderCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render <type>",
		Short: "Print the GraphQL document of a query",
		Long: `Print the GraphQL document the catalog composes for a query type.

The request is read as YAML from --file ("-" reads stdin). Without a file
the query is rendered with an empty request.`,
		Example: `  nftquery render nfts -f listing.yaml
  echo 'id: "42"' | nftquery render nft -f -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(rootOpts, opts, catalog.QueryType(args[0]), cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.File, "file", "f", "", "YAML request file")
	cmd.Flags().IntVar(&opts.MaxPageSize, "max-page-size", catalog.DefaultMaxPageSize, "largest page the listings request")

	return cmd
}

func runRender(rootOpts *RootOptions, opts *RenderOptions, t catalog.QueryType, cmd *cobra.Command) error {
	var decode func(v any) error
	if opts.File != "" {
		raw, err := readRequest(opts.File, cmd.InOrStdin())
		if err != nil {
			return err
		}
		decode = func(v any) error { return yaml.Unmarshal(raw, v) }
	}

	cat := catalog.New(catalog.Config{MaxPageSize: opts.MaxPageSize})
	doc, err := cat.Build(t, decode)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if rootOpts.Format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(renderOutput{Type: t, Query: doc.String()})
	}
	_, err = io.WriteString(out, doc.String())
	return err
}

func readRequest(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read request from stdin: %w", err)
		}
		return raw, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file: %w", err)
	}
	return raw, nil
}

// NewTypesCommand creates the types command.
func NewTypesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the query types render accepts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if rootOpts.Format == "json" {
				return json.NewEncoder(out).Encode(catalog.QueryTypes)
			}
			for _, t := range catalog.QueryTypes {
				if _, err := fmt.Fprintln(out, t); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
