package chatease

// Status keys accepted by the board API. The scheduled_for_* family requires
// a TimeLimit date; waiting_for_reply ignores it.
const (
	StatusScheduledForProof      = "scheduled_for_proof"
	StatusScheduledForResponse   = "scheduled_for_response"
	StatusScheduledForCompletion = "scheduled_for_completion"
	StatusWaitingForReply        = "waiting_for_reply"
)

// scheduledStatusKeys is the closed set of status keys that require a
// TimeLimit in YYYY-MM-DD form.
var scheduledStatusKeys = map[string]struct{}{
	StatusScheduledForProof:      {},
	StatusScheduledForResponse:   {},
	StatusScheduledForCompletion: {},
}

// nonScheduledStatusKeys is the closed set of status keys whose TimeLimit is
// ignored by the API.
var nonScheduledStatusKeys = map[string]struct{}{
	StatusWaitingForReply: {},
}

// Guest identifies the visitor a board is created for.
type Guest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// InitialStatus is the lifecycle state assigned to a newly created board.
// TimeLimit is required for scheduled_for_* keys and must be a real calendar
// date in YYYY-MM-DD form.
type InitialStatus struct {
	StatusKey string `json:"statusKey"`
	TimeLimit string `json:"timeLimit,omitempty"`
}

// InitialGuestComment seeds the board with the visitor's first message.
type InitialGuestComment struct {
	Content string `json:"content"`
}

// BoardRequest is the payload for creating a board. BoardUniqueKey must be a
// non-empty, whitespace-free string of at most 255 bytes, generated fresh per
// submission attempt.
type BoardRequest struct {
	Title               string               `json:"title"`
	Guest               Guest                `json:"guest"`
	BoardUniqueKey      string               `json:"boardUniqueKey"`
	InReplyTo           string               `json:"inReplyTo,omitempty"`
	InitialStatus       *InitialStatus       `json:"initialStatus,omitempty"`
	InitialGuestComment *InitialGuestComment `json:"initialGuestComment,omitempty"`
}

// Board is the successful result of a board creation: the remote board slug
// and the host/guest access URLs.
type Board struct {
	Slug     string `json:"slug"`
	HostURL  string `json:"hostURL"`
	GuestURL string `json:"guestURL"`
}
