package catalog

// NullMarker is the dataset's placeholder for an absent value.
const NullMarker = `\N`

// WorkRow is one row of the works table.
type WorkRow struct {
	ID        uint64
	Title     string
	TitleType string
	StartYear string
	Genres    string
	// Rating is empty when the catalog has no rating for the work.
	Rating    string
	ParentID  uint64
	HasParent bool
}

// PersonRow is one row of the persons table.
type PersonRow struct {
	ID   uint64
	Name string
	Born string
}

// CreditRow is a credit edge joined to the credited person's display name.
type CreditRow struct {
	PersonID uint64
	WorkID   uint64
	Category string
	Job      string
	Name     string
}

// Stats summarizes catalog contents.
type Stats struct {
	Path     string
	Works    int64
	SubWorks int64
	Persons  int64
	Credits  int64
}
