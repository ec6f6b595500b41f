package items

import (
	"encoding/json"
	"testing"
)

func TestNewResponse_DerivesGeneralTasks(t *testing.T) {
	resp := NewResponse([]ActionItem{
		{Action: "Ship report", Assignee: "Alice", Deadline: "2024-01-01"},
		{Action: "Clean up the backlog", Assignee: GeneralAssignee, Deadline: NoDeadline},
	})
	if len(resp.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(resp.Items))
	}
	if len(resp.GeneralTasks) != 1 || resp.GeneralTasks[0].Action != "Clean up the backlog" {
		t.Fatalf("unexpected general tasks: %+v", resp.GeneralTasks)
	}
}

func TestNewResponse_NilEncodesAsEmptyArray(t *testing.T) {
	b, err := json.Marshal(NewResponse(nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"items":[]}` {
		t.Fatalf("unexpected encoding: %s", b)
	}
}
