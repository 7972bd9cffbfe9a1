package reconcile

// Status is the observed sync state of one project, recomputed on every
// check; nothing here is persisted.
type Status struct {
	ProjectID     string `json:"project_id"`
	PrimaryExists bool   `json:"primary_exists"`
	BackendExists bool   `json:"backend_exists"`
	BackendID     string `json:"backend_id,omitempty"`
	NeedsSync     bool   `json:"needs_sync"`
}

// Result is the outcome of syncing a single project. Sync never panics or
// returns an error for the sync itself; batch callers aggregate Results.
type Result struct {
	ProjectID string `json:"project_id"`
	BackendID string `json:"backend_id,omitempty"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`
}

// Summary aggregates one batch run.
type Summary struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// Consistency reports cross-store drift. The counts carry information the
// missing-ID set cannot: an orphaned backend copy plus one missing registry
// sync leaves the set empty while the counts disagree.
type Consistency struct {
	PrimaryCount     int      `json:"primary_count"`
	BackendCount     int      `json:"backend_count"`
	Consistent       bool     `json:"consistent"`
	MissingInBackend []string `json:"missing_in_backend"`
}

// FailurePolicy decides what happens to a freshly created registry row when
// its initial sync fails terminally.
type FailurePolicy string

const (
	// KeepOnFailure keeps the registry row; the backend copy arrives on a
	// later manual or batch sync. This is the default.
	KeepOnFailure FailurePolicy = "keep"
	// RollbackOnFailure compensates by deleting the registry row and
	// surfacing the failure to the caller.
	RollbackOnFailure FailurePolicy = "rollback"
)
