package pkg

// Core types for the voice inventory pipeline.

// Intent identifies one kind of inventory mutation or query.
type Intent string

const (
	IntentAdd       Intent = "ADD"
	IntentRemove    Intent = "REMOVE"
	IntentFind      Intent = "FIND"
	IntentAddBox    Intent = "ADD_BOX"
	IntentRemoveBox Intent = "REMOVE_BOX"
	IntentClearBox  Intent = "CLEAR_BOX"
	IntentMove      Intent = "MOVE"
)

// Valid reports whether the intent is one of the known inventory intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentAdd, IntentRemove, IntentFind, IntentAddBox, IntentRemoveBox, IntentClearBox, IntentMove:
		return true
	}
	return false
}

// Op is one decomposed unit of user intent: a single mutation or query
// extracted from an utterance. Ops are owned by exactly one pipeline run.
type Op struct {
	Intent     Intent `json:"intent"`
	ObjectName string `json:"object_name,omitempty"`
	// Quantity is decimal text, never negative. Empty means unspecified.
	Quantity   string `json:"quantity,omitempty"`
	ToBox      string `json:"to_box,omitempty"`
	FromBox    string `json:"from_box,omitempty"`
	RemoveAll  bool   `json:"remove_all,omitempty"`
	Everything bool   `json:"everything,omitempty"`

	// ResolvedItem short-circuits semantic resolution once a concrete store
	// record has been picked (e.g. after a disambiguation selection).
	ResolvedItem *Item `json:"-"`
}

// Item is a transient copy of a store record. The store owns identity;
// quantity reaching zero means deletion, never a zero-quantity row.
type Item struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	CanonicalName string `json:"canonical_name"`
	Quantity      int    `json:"quantity"`
	BoxID         string `json:"box_id"`
	CreatedAt     string `json:"created_at,omitempty"`
}

// Box is a transient copy of a store box record.
type Box struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Suggestion is one ranked near-match offered when no definite match clears
// the similarity threshold.
type Suggestion struct {
	Item  Item
	Score float64
}
