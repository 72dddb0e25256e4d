package commands

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Foxprodev/core/internal/serializer"
	"github.com/spf13/cobra"
)

// maxInputSize bounds the documents read by normalize
const maxInputSize = 10 * 1024 * 1024

func newNormalizeCommand(e *env) *cobra.Command {
	var (
		format      string
		inputFormat string
		groups      []string
		skipNull    bool
	)

	cmd := &cobra.Command{
		Use:   "normalize <class> [file]",
		Short: "Denormalize a document into a resource and write it back",
		Long: `Read a document describing one object of a resource class, denormalize it
and write the resulting object in the requested format. The document is
read from file, or from stdin when no file is given.

Examples:
  apicore normalize Book book.json --format jsonapi
  echo 'title: Dune' | apicore normalize Book --input-format yaml`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			k, err := e.kernel(ctx)
			if err != nil {
				return err
			}
			defer k.Close()

			input, err := readInput(cmd, args[1:])
			if err != nil {
				return err
			}

			resourceClass := args[0]
			object, err := k.Serializer.Deserialize(ctx, bytes.NewReader(input), resourceClass, inputFormat, &serializer.Context{
				ResourceClass: resourceClass,
				Groups:        groups,
			})
			if err != nil {
				return fmt.Errorf("failed to denormalize %s: %w", resourceClass, err)
			}

			return k.Serializer.Serialize(ctx, cmd.OutOrStdout(), object, format, &serializer.Context{
				ResourceClass:  resourceClass,
				Groups:         groups,
				SkipNullValues: skipNull,
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", serializer.FormatJSON, "Output format ("+strings.Join(formatNames, ", ")+")")
	cmd.Flags().StringVarP(&inputFormat, "input-format", "i", serializer.FormatJSON, "Format of the input document")
	cmd.Flags().StringSliceVarP(&groups, "groups", "g", nil, "Serialization groups")
	cmd.Flags().BoolVar(&skipNull, "skip-null", false, "Omit null values")

	return cmd
}

var formatNames = []string{
	serializer.FormatJSON,
	serializer.FormatJSONAPI,
	serializer.FormatHAL,
	serializer.FormatYAML,
	serializer.FormatXML,
	serializer.FormatCSV,
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	var r io.Reader = cmd.InOrStdin()
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
	}

	data, err := io.ReadAll(io.LimitReader(r, maxInputSize+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxInputSize {
		return nil, fmt.Errorf("input exceeds %d bytes", maxInputSize)
	}
	return data, nil
}
