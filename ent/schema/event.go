package schema

import (
	"encoding/json"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Event records the outcome of one remote progress write or quiz
// submission.
type Event struct {
	ent.Schema
}

func (Event) Fields() []ent.Field {
	return []ent.Field{
		field.String("kind").
			Comment("progress_sync or quiz_submit"),
		field.String("subject").
			Comment("Lesson slug, or quiz:<id> for submissions"),
		field.Bool("success").
			Comment("Whether the remote call succeeded"),
		field.Int64("timestamp").
			Immutable().
			Comment("Unix milliseconds when the call finished"),
		field.JSON("data", json.RawMessage{}).
			Comment("Kind-specific payload"),
	}
}

func (Event) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("kind", "timestamp"),
	}
}
