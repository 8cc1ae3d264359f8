package models

// Chat roles accepted in a conversation.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ConversationMessage is one turn of the chat history, passed by value per request.
type ConversationMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RecommendationEntry is a single numbered recommendation parsed from model text,
// before it has been matched against the catalog.
type RecommendationEntry struct {
	Title         string     `json:"title"`
	MediaTypeHint *MediaType `json:"mediaTypeHint,omitempty"`
	Year          int        `json:"year,omitempty"`
	Reason        string     `json:"reason,omitempty"`
}

// ResolvedRecommendation is a catalog item chosen for the user plus the model's reason.
// The catalog ID is its identity.
type ResolvedRecommendation struct {
	CatalogItem
	AIReason string `json:"aiReason,omitempty"`
}

// EnvelopeStatus is the lifecycle state of a recommendation envelope.
type EnvelopeStatus string

const (
	StatusProcessing EnvelopeStatus = "processing"
	StatusComplete   EnvelopeStatus = "complete"
	StatusError      EnvelopeStatus = "error"
)

// RecommendationEnvelope is the unit delivered to the UI for one user turn.
// Recommendations holds at most MaxRecommendations entries with distinct catalog IDs
// and is always empty when Status is StatusError.
type RecommendationEnvelope struct {
	ID              string                   `json:"id,omitempty"`
	Explanation     string                   `json:"explanation"`
	Recommendations []ResolvedRecommendation `json:"recommendations,omitempty"`
	Status          EnvelopeStatus           `json:"status"`
}

// MaxRecommendations caps the recommendation list of an envelope.
const MaxRecommendations = 5
