package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
)

// KVEntry is one cached value of the local progress cache, keyed by
// progress:<user>:<lesson>.
type KVEntry struct {
	ent.Schema
}

func (KVEntry) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("key").
			NotEmpty().
			Immutable().
			Comment("Cache key"),
		field.Bytes("value").
			Comment("Versioned JSON progress payload"),
		field.Int64("updated_at").
			Comment("Unix milliseconds of the last write"),
	}
}
