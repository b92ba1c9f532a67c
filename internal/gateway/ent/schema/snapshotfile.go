package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// SnapshotFile holds one archived file of a completed run by (run_id, path).
type SnapshotFile struct {
	ent.Schema
}

func (SnapshotFile) Fields() []ent.Field {
	return []ent.Field{
		field.Int("id").
			Unique().
			Immutable(),
		field.String("run_id").
			NotEmpty(),
		field.String("path").
			NotEmpty(),
		field.Bytes("content").
			Default([]byte{}),
		field.Int64("size").
			NonNegative(),
		field.Time("created_at").
			Default(time.Now),
	}
}

func (SnapshotFile) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("run_id", "path").Unique(),
		index.Fields("run_id"),
	}
}
