package teacher

import "time"

// Teacher represents a teacher record exposed through the generic CRUD resource.
type Teacher struct {
	ID        int64
	FirstName string
	LastName  string
	Email     string
	Subject   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SortableFields maps API field names to storage columns.
var SortableFields = map[string]string{
	"id":        "id",
	"firstName": "first_name",
	"lastName":  "last_name",
	"email":     "email",
	"subject":   "subject",
}
