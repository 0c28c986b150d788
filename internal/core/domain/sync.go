package domain

// Resolution tells the reconciliation pass what to do with a local business
// whose name collides with an existing cloud business owned by the caller.
type Resolution string

const (
	// ResolutionMerge reuses the existing cloud business as the write target
	// without overwriting any of its fields.
	ResolutionMerge Resolution = "MERGE"
	// ResolutionReplace deletes the cloud business's child records and
	// overwrites its fields with the local business's fields.
	ResolutionReplace Resolution = "REPLACE"
	// ResolutionKeepSeparate creates a new cloud business under a
	// disambiguated name.
	ResolutionKeepSeparate Resolution = "KEEP_SEPARATE"
)

// BusinessRef is the minimal identification of a business in conflict reports.
type BusinessRef struct {
	BusinessID string `json:"businessID"`
	Name       string `json:"name"`
}

// NameConflict pairs a local business with the cloud business it collides with.
type NameConflict struct {
	Local BusinessRef `json:"local"`
	Cloud BusinessRef `json:"cloud"`
}

// LocalSnapshot is a device's offline dataset submitted for reconciliation.
// AllowedBusinessIDs, when non-nil, prunes caller-owned cloud businesses not
// on the list (plan-downgrade enforcement).
type LocalSnapshot struct {
	Businesses         []Business
	Products           []Product
	Sales              []Sale
	Expenses           []Expense
	Resolutions        map[string]Resolution
	AllowedBusinessIDs []string
}

// SyncCounts reports how many child records of each type were applied.
type SyncCounts struct {
	Products int `json:"products"`
	Sales    int `json:"sales"`
	Expenses int `json:"expenses"`
}

// SyncResult is the outcome of a fully-applied reconciliation pass.
type SyncResult struct {
	Businesses []Business `json:"businesses"`
	Counts     SyncCounts `json:"counts"`
}
