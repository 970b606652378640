package schema

import (
	"testing"

	"entgo.io/ent"
	entschema "entgo.io/ent/dialect/sql/schema"

	"github.com/abhisek/mathportal/internal/store"
)

func columnsOf(fields []ent.Field) []string {
	var names []string
	for _, f := range fields {
		d := f.Descriptor()
		name := d.StorageKey
		if name == "" {
			name = d.Name
		}
		names = append(names, name)
	}
	return names
}

func tableColumns(cols []*entschema.Column, skipID bool) []string {
	var names []string
	for _, c := range cols {
		if skipID && c.Name == "id" {
			continue
		}
		names = append(names, c.Name)
	}
	return names
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// The store migrates hand-written tables; they must stay in step with the
// entity definitions.
func TestKVEntryMatchesTable(t *testing.T) {
	got := columnsOf(KVEntry{}.Fields())
	want := tableColumns(store.KVColumns, false)
	if !equal(got, want) {
		t.Errorf("KVEntry columns = %v, table has %v", got, want)
	}
}

func TestEventMatchesTable(t *testing.T) {
	got := columnsOf(Event{}.Fields())
	want := tableColumns(store.EventsColumns, true)
	if !equal(got, want) {
		t.Errorf("Event columns = %v, table has %v", got, want)
	}
}

func TestEventIndexes(t *testing.T) {
	idx := Event{}.Indexes()
	if len(idx) != 1 {
		t.Fatalf("Event indexes = %d, want 1", len(idx))
	}
	if got := idx[0].Descriptor().Fields; !equal(got, []string{"kind", "timestamp"}) {
		t.Errorf("index fields = %v", got)
	}
}
