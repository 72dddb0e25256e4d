// Package migrate creates the tables of the resource schemas and keeps the
// history of applied migrations.
package migrate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Foxprodev/core/internal/database"
	"github.com/Foxprodev/core/internal/orm/schema"
)

// Generator generates DDL statements for one dialect
type Generator struct {
	dialect database.Dialect
}

// NewGenerator creates a generator
func NewGenerator(dialect database.Dialect) *Generator {
	return &Generator{dialect: dialect}
}

// Generate builds a migration creating every table of schemas. Tables are
// ordered so that belongs-to targets are created first, join tables come
// last and the down SQL drops them in reverse.
func (g *Generator) Generate(version int64, name string, schemas *schema.Registry) (*Migration, error) {
	ordered, err := dependencyOrder(schemas)
	if err != nil {
		return nil, err
	}

	var up, down []string
	for _, sch := range ordered {
		stmt, err := g.CreateTable(sch, schemas)
		if err != nil {
			return nil, err
		}
		up = append(up, stmt)
		down = append([]string{g.DropTable(sch.TableName)}, down...)
	}

	joins := make(map[string]bool)
	for _, sch := range ordered {
		for _, rel := range sortedRelationships(sch) {
			if rel.Type != schema.RelationshipHasManyThrough || joins[rel.JoinTable] {
				continue
			}
			joins[rel.JoinTable] = true
			stmt, err := g.CreateJoinTable(sch, rel, schemas)
			if err != nil {
				return nil, err
			}
			up = append(up, stmt)
			down = append([]string{g.DropTable(rel.JoinTable)}, down...)
		}
	}

	return &Migration{
		Version: version,
		Name:    name,
		Up:      strings.Join(up, "\n\n"),
		Down:    strings.Join(down, "\n"),
	}, nil
}

// CreateTable generates the CREATE TABLE statement of sch. Belongs-to
// relations become foreign key columns referencing their target.
func (g *Generator) CreateTable(sch *schema.ResourceSchema, schemas *schema.Registry) (string, error) {
	var defs []string
	for _, name := range sch.FieldOrder {
		field := sch.Fields[name]
		if field.Primary {
			defs = append(defs, QuoteIdentifier(field.Column)+" "+g.primaryKeyType(field.Type))
			continue
		}
		defs = append(defs, QuoteIdentifier(field.Column)+" "+g.columnType(field.Type)+nullability(field.Nullable))
	}

	for _, rel := range sortedRelationships(sch) {
		if rel.Type != schema.RelationshipBelongsTo || containsColumn(sch, rel.ForeignKey) {
			continue
		}
		target, err := schemas.MustGet(rel.TargetResource)
		if err != nil {
			return "", fmt.Errorf("%s.%s: %w", sch.Name, rel.FieldName, err)
		}
		onDelete := "CASCADE"
		if rel.Nullable {
			onDelete = "SET NULL"
		}
		defs = append(defs, fmt.Sprintf("%s %s%s REFERENCES %s (%s) ON DELETE %s",
			QuoteIdentifier(rel.ForeignKey),
			g.referenceType(target),
			nullability(rel.Nullable),
			QuoteIdentifier(target.TableName),
			QuoteIdentifier(target.PrimaryKeyColumn()),
			onDelete,
		))
	}

	if len(defs) == 0 {
		return "", fmt.Errorf("resource %s has no columns", sch.Name)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", QuoteIdentifier(sch.TableName), strings.Join(defs, ",\n  ")), nil
}

// CreateJoinTable generates the join table of a has-many-through relation
func (g *Generator) CreateJoinTable(sch *schema.ResourceSchema, rel *schema.Relationship, schemas *schema.Registry) (string, error) {
	target, err := schemas.MustGet(rel.TargetResource)
	if err != nil {
		return "", fmt.Errorf("%s.%s: %w", sch.Name, rel.FieldName, err)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s %s NOT NULL REFERENCES %s (%s) ON DELETE CASCADE,\n  %s %s NOT NULL REFERENCES %s (%s) ON DELETE CASCADE,\n  PRIMARY KEY (%s, %s)\n);",
		QuoteIdentifier(rel.JoinTable),
		QuoteIdentifier(rel.ForeignKey), g.referenceType(sch), QuoteIdentifier(sch.TableName), QuoteIdentifier(sch.PrimaryKeyColumn()),
		QuoteIdentifier(rel.AssociationKey), g.referenceType(target), QuoteIdentifier(target.TableName), QuoteIdentifier(target.PrimaryKeyColumn()),
		QuoteIdentifier(rel.ForeignKey), QuoteIdentifier(rel.AssociationKey),
	), nil
}

// DropTable generates a DROP TABLE statement
func (g *Generator) DropTable(table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s;", QuoteIdentifier(table))
}

func (g *Generator) columnType(t schema.PrimitiveType) string {
	if g.dialect == database.SQLite {
		switch t {
		case schema.TypeInt, schema.TypeBigInt, schema.TypeBool:
			return "INTEGER"
		case schema.TypeFloat:
			return "REAL"
		case schema.TypeTimestamp:
			return "TIMESTAMP"
		case schema.TypeDate:
			return "DATE"
		default:
			return "TEXT"
		}
	}

	switch t {
	case schema.TypeString:
		return "VARCHAR(255)"
	case schema.TypeText:
		return "TEXT"
	case schema.TypeInt:
		return "INTEGER"
	case schema.TypeBigInt:
		return "BIGINT"
	case schema.TypeFloat:
		return "DOUBLE PRECISION"
	case schema.TypeBool:
		return "BOOLEAN"
	case schema.TypeTimestamp:
		return "TIMESTAMP WITH TIME ZONE"
	case schema.TypeDate:
		return "DATE"
	case schema.TypeUUID:
		return "UUID"
	default:
		return "JSONB"
	}
}

// primaryKeyType makes integer keys generated by the database
func (g *Generator) primaryKeyType(t schema.PrimitiveType) string {
	switch {
	case g.dialect == database.SQLite && (t == schema.TypeInt || t == schema.TypeBigInt):
		return "INTEGER PRIMARY KEY AUTOINCREMENT"
	case t == schema.TypeInt:
		return "SERIAL PRIMARY KEY"
	case t == schema.TypeBigInt:
		return "BIGSERIAL PRIMARY KEY"
	}
	return g.columnType(t) + " PRIMARY KEY"
}

func (g *Generator) referenceType(target *schema.ResourceSchema) string {
	if pk, ok := target.Fields[target.PrimaryKey]; ok {
		return g.columnType(pk.Type)
	}
	return g.columnType(schema.TypeInt)
}

func nullability(nullable bool) string {
	if nullable {
		return ""
	}
	return " NOT NULL"
}

func containsColumn(sch *schema.ResourceSchema, column string) bool {
	for _, f := range sch.Fields {
		if f.Column == column {
			return true
		}
	}
	return false
}

func sortedRelationships(sch *schema.ResourceSchema) []*schema.Relationship {
	names := make([]string, 0, len(sch.Relationships))
	for name := range sch.Relationships {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*schema.Relationship, len(names))
	for i, name := range names {
		out[i] = sch.Relationships[name]
	}
	return out
}

// dependencyOrder sorts schemas by name, then moves belongs-to targets
// before the tables referencing them. Self references are ignored.
func dependencyOrder(schemas *schema.Registry) ([]*schema.ResourceSchema, error) {
	const (
		visiting = 1
		done     = 2
	)
	state := make(map[string]int)
	var out []*schema.ResourceSchema

	var visit func(name string) error
	visit = func(name string) error {
		switch state[name] {
		case done:
			return nil
		case visiting:
			return fmt.Errorf("circular belongs_to relationship involving %s", name)
		}
		sch, err := schemas.MustGet(name)
		if err != nil {
			return err
		}
		state[name] = visiting
		for _, rel := range sortedRelationships(sch) {
			if rel.Type == schema.RelationshipBelongsTo && rel.TargetResource != name {
				if err := visit(rel.TargetResource); err != nil {
					return err
				}
			}
		}
		state[name] = done
		out = append(out, sch)
		return nil
	}

	for _, name := range schemas.List() {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// QuoteIdentifier wraps a SQL identifier in double quotes and escapes internal quotes
func QuoteIdentifier(identifier string) string {
	return `"` + strings.ReplaceAll(identifier, `"`, `""`) + `"`
}
