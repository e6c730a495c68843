package sql

import (
	"context"
	"fmt"
	"strings"

	"ariga.io/atlas/sql/migrate"
	"ariga.io/atlas/sql/mysql"
	"ariga.io/atlas/sql/postgres"
	"ariga.io/atlas/sql/schema"
	"ariga.io/atlas/sql/sqlite"

	"github.com/syssam/entityhistory/dialect"
)

// SchemaTable returns the atlas description of the history table.
func (s *Store[S]) SchemaTable() *schema.Table {
	var (
		id      *schema.Column
		ts      schema.Type
		parse func(string) (schema.Type, error)
	)
	switch s.drv.Dialect() {
	case dialect.Postgres:
		id = schema.NewColumn("id").SetType(&postgres.SerialType{T: postgres.TypeBigSerial})
		ts = &schema.TimeType{T: postgres.TypeTimestampWTZ}
		parse = postgres.ParseType
	case dialect.MySQL:
		id = schema.NewIntColumn("id", mysql.TypeBigInt).AddAttrs(&mysql.AutoIncrement{})
		ts = &schema.TimeType{T: mysql.TypeDateTime}
		parse = mysql.ParseType
	default:
		id = schema.NewIntColumn("id", "integer").AddAttrs(&sqlite.AutoIncrement{})
		ts = &schema.TimeType{T: "datetime"}
		parse = sqlite.ParseType
	}
	state, err := parse(strings.ToLower(s.column))
	if err != nil {
		state = &schema.UnsupportedType{T: s.column}
	}
	var (
		name      = s.table
		qualifier string
	)
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		qualifier, name = name[:i], name[i+1:]
	}
	createdAt := schema.NewColumn("created_at").SetType(ts)
	updatedAt := schema.NewColumn("updated_at").SetType(ts)
	t := schema.NewTable(name).
		AddColumns(
			id,
			schema.NewNullColumn("state").SetType(state),
			createdAt,
			updatedAt,
		).
		SetPrimaryKey(schema.NewPrimaryKey(id)).
		AddIndexes(schema.NewIndex(name + "_updated_at").AddColumns(updatedAt))
	if qualifier != "" {
		t.SetSchema(schema.New(qualifier))
	}
	return t
}

// Plan returns the migration plan creating the history table and its
// index, as planned by atlas for the store dialect.
func (s *Store[S]) Plan(ctx context.Context) (*migrate.Plan, error) {
	t := s.SchemaTable()
	var planner migrate.PlanApplier
	switch s.drv.Dialect() {
	case dialect.Postgres:
		planner = postgres.DefaultPlan
	case dialect.MySQL:
		planner = mysql.DefaultPlan
	default:
		planner = sqlite.DefaultPlan
	}
	plan, err := planner.PlanChanges(ctx, "create_"+strings.ReplaceAll(s.table, ".", "_"), []schema.Change{
		&schema.AddTable{T: t, Extra: []schema.Clause{&schema.IfNotExists{}}},
	})
	if err != nil {
		return nil, fmt.Errorf("dialect/sql: plan %s: %w", s.table, err)
	}
	return plan, nil
}

// WriteMigration writes the plan of the history table to a versioned
// migration directory, along with its checksum file.
func (s *Store[S]) WriteMigration(ctx context.Context, dir migrate.Dir, version string) error {
	plan, err := s.Plan(ctx)
	if err != nil {
		return err
	}
	plan.Version = version
	if err := migrate.NewPlanner(nil, dir).WritePlan(plan); err != nil {
		return fmt.Errorf("dialect/sql: write migration %s: %w", s.table, err)
	}
	return nil
}
