// Package items holds the wire shapes exchanged with the extraction endpoint.
package items

// Defaults used by extraction engines when a field cannot be determined.
const (
	GeneralAssignee = "General"
	NoDeadline      = "No deadline"
)

// ExtractionRequest is the body posted to the extraction endpoint. Notes is
// the verbatim contents of the notes field; empty is a legal value.
type ExtractionRequest struct {
	Notes string `json:"notes"`
}

// ActionItem is one extracted task.
type ActionItem struct {
	Action   string `json:"action"`
	Assignee string `json:"assignee"`
	Deadline string `json:"deadline"`
}

// ExtractionResponse is the parsed response body. Items keeps the order in
// which the server returned them.
type ExtractionResponse struct {
	Items []ActionItem `json:"items"`
	// GeneralTasks lists the items without a named assignee. Clients that only
	// render Items may ignore it.
	GeneralTasks []ActionItem `json:"general_tasks,omitempty"`
}

// IsGeneral reports whether the item has no named assignee.
func (a ActionItem) IsGeneral() bool {
	return a.Assignee == "" || a.Assignee == GeneralAssignee
}

// NewResponse builds a response for items and derives GeneralTasks from it.
// A nil slice is normalized to an empty one so it encodes as [].
func NewResponse(list []ActionItem) ExtractionResponse {
	if list == nil {
		list = []ActionItem{}
	}
	general := make([]ActionItem, 0)
	for _, it := range list {
		if it.IsGeneral() {
			general = append(general, it)
		}
	}
	return ExtractionResponse{Items: list, GeneralTasks: general}
}
