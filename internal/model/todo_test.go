package model

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestSnapshotCounts(t *testing.T) {
	s := Snapshot{Items: []Todo{{IsDone: true}, {}, {IsDone: true}}}
	if s.Len() != 3 || s.Completed() != 2 {
		t.Errorf("Len=%d Completed=%d", s.Len(), s.Completed())
	}
	if (Snapshot{}).Completed() != 0 {
		t.Error("empty snapshot has completed items")
	}
}

func TestTodoOmitsBackendFields(t *testing.T) {
	b, err := json.Marshal(Todo{ID: "1", Content: "x", Date: "2026-10-15T08:00:00.000Z", Breakdown: []string{}})
	if err != nil {
		t.Fatal(err)
	}
	got := string(b)
	for _, k := range []string{"owner", "createdAt", "updatedAt"} {
		if strings.Contains(got, k) {
			t.Errorf("%s present in %s", k, got)
		}
	}
	if !strings.Contains(got, `"breakdown":[]`) || !strings.Contains(got, `"isDone":false`) {
		t.Errorf("json = %s", got)
	}
}

func TestSnapshotWireFormat(t *testing.T) {
	var s Snapshot
	if err := json.Unmarshal([]byte(`{"items":[{"id":"a","content":"c","isDone":true}],"isSynced":true}`), &s); err != nil {
		t.Fatal(err)
	}
	if !s.Synced || s.Len() != 1 || !s.Items[0].IsDone {
		t.Errorf("snapshot = %+v", s)
	}
}
