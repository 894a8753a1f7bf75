package history

type WorkflowTaskStartedAttributes struct {
	// SuggestContinueAsNew is set when the history size crossed the
	// configured suggestion threshold at the time the task was started. It is
	// recorded as part of the event so the flag replays deterministically.
	SuggestContinueAsNew bool `json:"suggest_continue_as_new,omitempty"`

	// HistorySizeSuggestion is the history length that triggered the
	// suggestion, for diagnostics.
	HistorySizeSuggestion int64 `json:"history_size_suggestion,omitempty"`
}
