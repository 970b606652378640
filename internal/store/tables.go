package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	kvTable     = "kv_entries"
	eventsTable = "events"
)

var (
	// KVColumns holds the columns of the kv_entries table.
	KVColumns = []*schema.Column{
		{Name: "key", Type: field.TypeString, Unique: true},
		{Name: "value", Type: field.TypeBytes},
		{Name: "updated_at", Type: field.TypeInt64},
	}
	// KVTable holds the progress cache entries.
	KVTable = &schema.Table{
		Name:       kvTable,
		Columns:    KVColumns,
		PrimaryKey: []*schema.Column{KVColumns[0]},
	}

	// EventsColumns holds the columns of the events table.
	EventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "kind", Type: field.TypeString},
		{Name: "subject", Type: field.TypeString},
		{Name: "success", Type: field.TypeBool},
		{Name: "timestamp", Type: field.TypeInt64},
		{Name: "data", Type: field.TypeJSON},
	}
	// EventsTable is the append-only log of sync and submission outcomes.
	EventsTable = &schema.Table{
		Name:       eventsTable,
		Columns:    EventsColumns,
		PrimaryKey: []*schema.Column{EventsColumns[0]},
		Indexes: []*schema.Index{
			{
				Name:    "event_kind_timestamp",
				Unique:  false,
				Columns: []*schema.Column{EventsColumns[1], EventsColumns[4]},
			},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		KVTable,
		EventsTable,
	}
)
