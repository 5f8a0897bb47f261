package model

// Tag is a user-scoped label attached to items. Names are unique within
// an owner's scope.
type Tag struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	OwnerID int64  `json:"-"`
}

// Location is a user-scoped place where items are kept. Names are unique
// within an owner's scope.
type Location struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	OwnerID int64  `json:"-"`
}
