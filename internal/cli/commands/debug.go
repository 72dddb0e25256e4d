package commands

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/Foxprodev/core/internal/cli/ui"
	"github.com/Foxprodev/core/internal/kernel"
	"github.com/Foxprodev/core/internal/metadata/property"
	"github.com/Foxprodev/core/internal/metadata/resource"
	"github.com/graphql-go/graphql"
	"github.com/spf13/cobra"
)

func newDebugResourceCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "debug:resource [class]",
		Short: "Show the metadata of a resource",
		Long: `Show the operations and properties of a resource class as resolved from
struct tags, declarations and resource configuration files.

Without an argument the resource is picked interactively.

Examples:
  apicore debug:resource Book
  apicore debug:resource`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			k, err := e.kernel(ctx)
			if err != nil {
				return err
			}
			defer k.Close()

			var resourceClass string
			if len(args) == 1 {
				resourceClass = args[0]
			} else if resourceClass, err = pickResource(k); err != nil {
				return err
			}
			return debugResource(ctx, cmd.OutOrStdout(), k, resourceClass, e.noColor)
		},
	}
}

func pickResource(k *kernel.Kernel) (string, error) {
	classes := k.Classes.Classes()
	if len(classes) == 0 {
		return "", fmt.Errorf("no resource is registered")
	}
	var selected string
	prompt := &survey.Select{
		Message: "Resource:",
		Options: classes,
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", err
	}
	return selected, nil
}

func debugResource(ctx context.Context, w io.Writer, k *kernel.Kernel, resourceClass string, noColor bool) error {
	if !k.Classes.IsResourceClass(resourceClass) {
		fmt.Fprint(w, ui.ResourceNotFoundError(resourceClass, ui.FindSimilar(resourceClass, k.Classes.Classes(), nil), noColor))
		return fmt.Errorf("resource %q not found", resourceClass)
	}

	collection, err := k.Resources.Create(ctx, resourceClass)
	if err != nil {
		return err
	}

	for _, md := range collection.Metadata {
		header := ui.NewKeyValueTable(w, noColor)
		header.AddRow("Class", md.Class())
		header.AddRow("Short name", md.ShortName())
		if md.Description() != "" {
			header.AddRow("Description", md.Description())
		}
		header.AddRow("GraphQL", enabled(!md.GraphQLDisabled()))
		header.Render()
		fmt.Fprintln(w)

		ui.Title(w, "Operations", noColor)
		renderOperations(w, md.Operations(), noColor)
		fmt.Fprintln(w)

		if md.GraphQLOperations().Len() > 0 {
			ui.Title(w, "GraphQL operations", noColor)
			renderOperations(w, md.GraphQLOperations(), noColor)
			fmt.Fprintln(w)
		}
	}

	names, err := k.Names.Create(ctx, resourceClass, property.Options{})
	if err != nil {
		return err
	}
	ui.Title(w, "Properties", noColor)
	table := ui.NewTable(w, []string{"NAME", "TYPE", "READ", "WRITE", "REQUIRED", "IDENTIFIER", "GROUPS"}, &ui.TableOptions{NoColor: noColor})
	for _, name := range names.Names() {
		md, err := k.Properties.Create(ctx, resourceClass, name, property.Options{})
		if err != nil {
			return err
		}
		typ := "mixed"
		if md.Type() != nil {
			typ = md.Type().String()
		}
		table.AddRow(name, typ, yesNo(md.IsReadable()), yesNo(md.IsWritable()), yesNo(md.IsRequired()), yesNo(md.IsIdentifier()), strings.Join(md.Groups(), ","))
	}
	table.Render()
	return nil
}

func renderOperations(w io.Writer, ops resource.Operations, noColor bool) {
	table := ui.NewTable(w, []string{"NAME", "KIND", "METHOD", "URI TEMPLATE", "SECURITY"}, &ui.TableOptions{NoColor: noColor})
	for _, op := range ops.All() {
		table.AddRow(op.Name(), string(op.Kind()), op.Method(), op.UriTemplate(), op.Security())
	}
	table.Render()
}

func newDebugGraphQLCommand(e *env) *cobra.Command {
	var typeName string

	cmd := &cobra.Command{
		Use:   "debug:graphql",
		Short: "Show the generated GraphQL schema",
		Long: `Build the GraphQL schema of the registered resources and list its types,
or the fields of one type.

Examples:
  apicore debug:graphql
  apicore debug:graphql --type Query`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			k, err := e.kernel(ctx)
			if err != nil {
				return err
			}
			defer k.Close()

			s, err := k.GraphQLSchema(ctx)
			if err != nil {
				return err
			}
			if typeName != "" {
				return debugGraphQLType(cmd.OutOrStdout(), s, typeName, e.noColor)
			}
			debugGraphQLTypes(cmd.OutOrStdout(), s, e.noColor)
			return nil
		},
	}

	cmd.Flags().StringVarP(&typeName, "type", "t", "", "Show the fields of this type")

	return cmd
}

func debugGraphQLTypes(w io.Writer, s graphql.Schema, noColor bool) {
	names := make([]string, 0, len(s.TypeMap()))
	for name := range s.TypeMap() {
		if strings.HasPrefix(name, "__") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	table := ui.NewTable(w, []string{"TYPE", "KIND", "DESCRIPTION"}, &ui.TableOptions{NoColor: noColor})
	for _, name := range names {
		t := s.TypeMap()[name]
		table.AddRow(name, graphQLKind(t), firstLine(t.Description()))
	}
	table.Render()
}

func debugGraphQLType(w io.Writer, s graphql.Schema, name string, noColor bool) error {
	t := s.Type(name)
	if t == nil {
		candidates := make([]string, 0, len(s.TypeMap()))
		for n := range s.TypeMap() {
			candidates = append(candidates, n)
		}
		suggestions := ui.FindSimilar(name, candidates, nil)
		if len(suggestions) > 0 {
			return fmt.Errorf("type %q not found, did you mean %s?", name, strings.Join(suggestions, ", "))
		}
		return fmt.Errorf("type %q not found", name)
	}

	table := ui.NewTable(w, []string{"FIELD", "TYPE", "ARGUMENTS"}, &ui.TableOptions{NoColor: noColor})
	switch t := t.(type) {
	case *graphql.Object:
		addFieldRows(table, t.Fields())
	case *graphql.Interface:
		addFieldRows(table, t.Fields())
	case *graphql.InputObject:
		fields := t.Fields()
		for _, name := range sortedKeys(fields) {
			table.AddRow(name, fields[name].Type.String(), "")
		}
	case *graphql.Enum:
		for _, v := range t.Values() {
			table.AddRow(v.Name, "", "")
		}
	default:
		fmt.Fprintf(w, "%s is a %s\n", name, graphQLKind(t))
		return nil
	}
	table.Render()
	return nil
}

func addFieldRows(table *ui.Table, fields graphql.FieldDefinitionMap) {
	for _, name := range sortedKeys(fields) {
		f := fields[name]
		args := make([]string, 0, len(f.Args))
		for _, a := range f.Args {
			args = append(args, a.Name()+": "+a.Type.String())
		}
		table.AddRow(name, f.Type.String(), strings.Join(args, ", "))
	}
}

func graphQLKind(t graphql.Type) string {
	switch t.(type) {
	case *graphql.Object:
		return "object"
	case *graphql.Interface:
		return "interface"
	case *graphql.InputObject:
		return "input"
	case *graphql.Enum:
		return "enum"
	case *graphql.Union:
		return "union"
	case *graphql.Scalar:
		return "scalar"
	}
	return "type"
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func enabled(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}
