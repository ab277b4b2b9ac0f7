package brightdata

// Result is one slot of a batch operation's output. Slot i always
// corresponds to input i. Exactly one of Value and Err is set; Err is
// tagged with the originating Input.
type Result struct {
	// Input is the URL or query that produced this slot.
	Input string
	// Value is the decoded response: a map or slice for json format,
	// a string for raw.
	Value any
	// Err is the item's classified error under the isolate policy.
	Err error
}
