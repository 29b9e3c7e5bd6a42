package models

// Project groups tasks under an owner and an optional set of collaborators.
type Project struct {
	// ID is the unique identifier for this project.
	ID string `json:"id"`
	// Name is the project name.
	Name string `json:"name"`
	// Description provides detail about the project's purpose.
	Description string `json:"description,omitempty"`
	// OwnerID is the user who owns the project.
	OwnerID string `json:"owner_id"`
	// Collaborators lists user IDs with access to the project.
	Collaborators []string `json:"collaborators,omitempty"`
}

// Comment is a user comment attached to a task.
type Comment struct {
	// ID is the unique identifier for this comment.
	ID string `json:"id"`
	// TaskID is the task the comment is attached to.
	TaskID string `json:"task_id"`
	// UserID is the author of the comment.
	UserID string `json:"user_id"`
	// Content is the comment body.
	Content string `json:"content"`
}
