package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/edge"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// ProjectFile holds one synced editor file within a project.
type ProjectFile struct {
	ent.Schema
}

func (ProjectFile) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			StorageKey("file_id").
			Unique().
			Immutable(),
		field.String("project_id").
			NotEmpty(),
		field.String("name").
			NotEmpty(),
		field.String("language").
			Default("plaintext"),
		field.Text("content").
			Default(""),
		field.Int("position").
			NonNegative().
			Default(0),
	}
}

func (ProjectFile) Edges() []ent.Edge {
	return []ent.Edge{
		edge.From("project", Project.Type).
			Ref("files").
			Unique(),
	}
}

func (ProjectFile) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("project_id", "name").Unique(),
		index.Fields("project_id"),
	}
}
