package command

// UpdateTaskCommand is a PATCH body. A field left out of the JSON stays nil
// and is not updated.
type UpdateTaskCommand struct {
	Name     *string `json:"name,omitempty"`
	Priority *string `json:"priority,omitempty"`
}

type UpdateTaskCommandResult struct {
	Updated bool `json:"updated"`
}

type DeleteTaskCommandResult struct {
	Deleted int64 `json:"deleted"`
}
