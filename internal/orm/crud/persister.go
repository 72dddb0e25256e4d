// Package crud writes resources to the database: inserts, updates and
// deletes driven by the ORM schema of their class, run in a transaction
// with lifecycle hooks.
package crud

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/Foxprodev/core/internal/apierr"
	"github.com/Foxprodev/core/internal/class"
	"github.com/Foxprodev/core/internal/orm/query"
	"github.com/Foxprodev/core/internal/orm/schema"
	"github.com/Foxprodev/core/internal/orm/transaction"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Persister writes resource structs. Objects with a zero primary key are
// inserted, others updated. Belongs-to relations are written through their
// foreign key; other relations are left to the related side.
type Persister struct {
	classes *class.Registry
	schemas *schema.Registry
	tx      *transaction.Manager
	logger  *zap.Logger
	now     func() time.Time
}

// NewPersister creates a persister
func NewPersister(classes *class.Registry, schemas *schema.Registry, tx *transaction.Manager, logger *zap.Logger) *Persister {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Persister{
		classes: classes,
		schemas: schemas,
		tx:      tx,
		logger:  logger,
		now:     time.Now,
	}
}

// Persist inserts or updates object and returns it with its generated
// primary key
func (p *Persister) Persist(ctx context.Context, object interface{}) (interface{}, error) {
	object, sch, err := p.resolve(object)
	if err != nil {
		return nil, err
	}

	id, err := class.GetValue(object, sch.PrimaryKey)
	if err != nil {
		return nil, err
	}

	err = p.tx.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if isZero(id) {
			return p.insert(ctx, tx, sch, object)
		}
		return p.update(ctx, tx, sch, object, id)
	})
	if err != nil {
		return nil, err
	}
	return object, nil
}

// Remove deletes object, or marks it deleted when its table has a
// deleted_at column
func (p *Persister) Remove(ctx context.Context, object interface{}) error {
	object, sch, err := p.resolve(object)
	if err != nil {
		return err
	}
	id, err := class.GetValue(object, sch.PrimaryKey)
	if err != nil {
		return err
	}

	return p.tx.WithTransaction(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := runHooks(ctx, object, BeforeDelete); err != nil {
			return err
		}

		var stmt string
		var args []interface{}
		if col, ok := deletedAtColumn(sch); ok {
			stmt = fmt.Sprintf("UPDATE %s SET %s = $1 WHERE %s = $2", sch.TableName, col, sch.PrimaryKeyColumn())
			args = []interface{}{p.now(), columnValue(sch.Fields[sch.PrimaryKey], id)}
		} else {
			stmt = fmt.Sprintf("DELETE FROM %s WHERE %s = $1", sch.TableName, sch.PrimaryKeyColumn())
			args = []interface{}{columnValue(sch.Fields[sch.PrimaryKey], id)}
		}
		if err := p.execOne(ctx, tx, sch, stmt, args); err != nil {
			return err
		}
		return runHooks(ctx, object, AfterDelete)
	})
}

// resolve finds the schema of object and makes sure it is addressable
func (p *Persister) resolve(object interface{}) (interface{}, *schema.ResourceSchema, error) {
	if object == nil {
		return nil, nil, apierr.InvalidArgument("Cannot write a null object.")
	}
	resourceClass, ok := p.classes.ClassOf(object)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %T", apierr.ErrResourceClassNotSupported, object)
	}
	sch, err := p.schemas.MustGet(resourceClass)
	if err != nil {
		return nil, nil, err
	}

	v := reflect.ValueOf(object)
	if v.Kind() != reflect.Ptr {
		ptr := reflect.New(v.Type())
		ptr.Elem().Set(v)
		object = ptr.Interface()
	}
	return object, sch, nil
}

func (p *Persister) insert(ctx context.Context, tx *sql.Tx, sch *schema.ResourceSchema, object interface{}) error {
	now := p.now()
	pk := sch.Fields[sch.PrimaryKey]
	if pk != nil && pk.Type == schema.TypeUUID {
		id := uuid.New()
		if err := class.SetValue(object, pk.Name, id); err != nil {
			if err := class.SetValue(object, pk.Name, id.String()); err != nil {
				return err
			}
		}
	}
	for _, col := range []string{"created_at", "updated_at"} {
		if err := p.touch(object, sch, col, now, false); err != nil {
			return err
		}
	}

	if err := runHooks(ctx, object, BeforeCreate, BeforeSave); err != nil {
		return err
	}

	columns, values, err := p.columns(sch, object)
	if err != nil {
		return err
	}
	id, _ := class.GetValue(object, sch.PrimaryKey)
	generated := isZero(id)
	if generated {
		columns, values = without(columns, values, sch.PrimaryKeyColumn())
	}

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	stmt := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", sch.TableName, strings.Join(columns, ", "), strings.Join(placeholders, ", "))
	if len(columns) == 0 {
		stmt = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", sch.TableName)
	}

	p.logger.Debug("inserting", zap.String("resource", sch.Name), zap.String("sql", stmt))
	if generated {
		var newID interface{}
		row := tx.QueryRowContext(ctx, stmt+" RETURNING "+sch.PrimaryKeyColumn(), values...)
		if err := row.Scan(&newID); err != nil {
			return query.ConvertDBError(err)
		}
		if b, ok := newID.([]byte); ok {
			newID = string(b)
		}
		if err := class.SetValue(object, sch.PrimaryKey, newID); err != nil {
			return err
		}
	} else if _, err := tx.ExecContext(ctx, stmt, values...); err != nil {
		return query.ConvertDBError(err)
	}

	return runHooks(ctx, object, AfterSave)
}

func (p *Persister) update(ctx context.Context, tx *sql.Tx, sch *schema.ResourceSchema, object, id interface{}) error {
	if err := p.touch(object, sch, "updated_at", p.now(), true); err != nil {
		return err
	}
	if err := runHooks(ctx, object, BeforeUpdate, BeforeSave); err != nil {
		return err
	}

	columns, values, err := p.columns(sch, object)
	if err != nil {
		return err
	}
	pkColumn := sch.PrimaryKeyColumn()
	columns, values = without(columns, values, pkColumn)
	columns, values = without(columns, values, "created_at")
	if len(columns) == 0 {
		return runHooks(ctx, object, AfterSave)
	}

	sets := make([]string, len(columns))
	for i, col := range columns {
		sets[i] = fmt.Sprintf("%s = $%d", col, i+1)
	}
	stmt := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d", sch.TableName, strings.Join(sets, ", "), pkColumn, len(columns)+1)
	values = append(values, columnValue(sch.Fields[sch.PrimaryKey], id))

	p.logger.Debug("updating", zap.String("resource", sch.Name), zap.String("sql", stmt))
	if err := p.execOne(ctx, tx, sch, stmt, values); err != nil {
		return err
	}
	return runHooks(ctx, object, AfterSave)
}

// execOne runs a statement that must affect exactly one row
func (p *Persister) execOne(ctx context.Context, tx *sql.Tx, sch *schema.ResourceSchema, stmt string, args []interface{}) error {
	res, err := tx.ExecContext(ctx, stmt, args...)
	if err != nil {
		return query.ConvertDBError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apierr.NotFound("%s with id %v not found.", class.ShortName(sch.Name), args[len(args)-1])
	}
	return nil
}

// columns returns the columns and values of object in field order, then
// the foreign keys of belongs-to relations by name
func (p *Persister) columns(sch *schema.ResourceSchema, object interface{}) ([]string, []interface{}, error) {
	var columns []string
	var values []interface{}
	for _, name := range sch.FieldOrder {
		field := sch.Fields[name]
		v, err := class.GetValue(object, name)
		if err != nil {
			return nil, nil, err
		}
		columns = append(columns, field.Column)
		values = append(values, columnValue(field, v))
	}

	names := make([]string, 0, len(sch.Relationships))
	for name, rel := range sch.Relationships {
		if rel.Type == schema.RelationshipBelongsTo {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		rel := sch.Relationships[name]
		if containsColumn(columns, rel.ForeignKey) {
			continue
		}
		related, err := class.GetValue(object, name)
		if err != nil {
			return nil, nil, err
		}
		var fk interface{}
		if !isZero(related) {
			target, err := p.schemas.MustGet(rel.TargetResource)
			if err != nil {
				return nil, nil, err
			}
			id, err := class.GetValue(related, target.PrimaryKey)
			if err != nil {
				return nil, nil, err
			}
			fk = columnValue(target.Fields[target.PrimaryKey], id)
		}
		columns = append(columns, rel.ForeignKey)
		values = append(values, fk)
	}
	return columns, values, nil
}

// touch sets the timestamp field mapped to column, unless it is already
// set and force is false
func (p *Persister) touch(object interface{}, sch *schema.ResourceSchema, column string, now time.Time, force bool) error {
	for _, name := range sch.FieldOrder {
		field := sch.Fields[name]
		if field.Column != column || field.Type != schema.TypeTimestamp {
			continue
		}
		if !force {
			if v, _ := class.GetValue(object, name); !isZero(v) {
				return nil
			}
		}
		return class.SetValue(object, name, now)
	}
	return nil
}

func deletedAtColumn(sch *schema.ResourceSchema) (string, bool) {
	for _, name := range sch.FieldOrder {
		if f := sch.Fields[name]; f.Column == "deleted_at" {
			return f.Column, true
		}
	}
	return "", false
}

// columnValue converts a property value into a driver argument
func columnValue(field *schema.Field, v interface{}) interface{} {
	rv := reflect.ValueOf(v)
	for rv.IsValid() && rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
		v = rv.Interface()
	}
	if field != nil && field.Type == schema.TypeJSON {
		switch t := v.(type) {
		case nil:
			return nil
		case json.RawMessage:
			return []byte(t)
		case []byte:
			return t
		}
		data, err := json.Marshal(v)
		if err != nil {
			return nil
		}
		return data
	}
	return v
}

func without(columns []string, values []interface{}, column string) ([]string, []interface{}) {
	for i, c := range columns {
		if c == column {
			return append(columns[:i:i], columns[i+1:]...), append(values[:i:i], values[i+1:]...)
		}
	}
	return columns, values
}

func containsColumn(columns []string, column string) bool {
	for _, c := range columns {
		if c == column {
			return true
		}
	}
	return false
}

func isZero(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Ptr && rv.IsNil() {
		return true
	}
	return rv.IsZero()
}
