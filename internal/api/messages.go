package api

import "time"

type Recurrence struct {
	Type          string     `json:"type"`
	Interval      int        `json:"interval,omitempty"`
	Weekdays      []int      `json:"weekdays,omitempty"`
	LastCompleted *time.Time `json:"lastCompleted,omitempty"`
	NextReset     *time.Time `json:"nextReset,omitempty"`
}

type DayRecord struct {
	Completed   bool     `json:"completed"`
	CompletedBy []string `json:"completedBy"`
}

type Item struct {
	ID                string               `json:"id"`
	Text              string               `json:"text"`
	SpaceID           string               `json:"spaceId"`
	CreatedByID       string               `json:"createdById"`
	CreatedAt         time.Time            `json:"createdAt"`
	CompletedBy       []string             `json:"completedBy"`
	DeletedBy         []string             `json:"deletedBy"`
	Completed         bool                 `json:"completed"`
	StruckThrough     bool                 `json:"struckThrough"`
	Recurrence        Recurrence           `json:"recurrence"`
	CompletionHistory map[string]DayRecord `json:"completionHistory"`
}

type DayCell struct {
	Date             string   `json:"date"`
	Completed        bool     `json:"completed"`
	CompletedBy      []string `json:"completedBy"`
	CreatorCompleted bool     `json:"creatorCompleted"`
	OthersCompleted  bool     `json:"othersCompleted"`
	IsToday          bool     `json:"isToday"`
}

type Statistics struct {
	CompletionRate int `json:"completionRate"`
	CompletedDays  int `json:"completedDays"`
	CurrentStreak  int `json:"currentStreak"`
	MaxStreak      int `json:"maxStreak"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type AddItemRequest struct {
	SpaceID    string     `json:"spaceId"`
	Text       string     `json:"text"`
	Recurrence Recurrence `json:"recurrence"`
}

// ItemRequest addresses a single item: GetItem, ToggleCompletion and
// ToggleDeletion take it.
type ItemRequest struct {
	ItemID string `json:"itemId"`
}

type ItemResponse struct {
	Item *Item `json:"item"`
}

type ListItemsRequest struct {
	SpaceID string `json:"spaceId"`
}

type ListItemsResponse struct {
	Items []*Item `json:"items"`
}

type ToggleDeletionResponse struct {
	Removed bool  `json:"removed"`
	Item    *Item `json:"item,omitempty"`
}

// EditItemRequest leaves the recurrence alone when Recurrence is nil.
type EditItemRequest struct {
	ItemID     string      `json:"itemId"`
	Text       string      `json:"text"`
	Recurrence *Recurrence `json:"recurrence,omitempty"`
}

// YearGridRequest with an empty CreatorID reports the item creator's votes
// separately.
type YearGridRequest struct {
	ItemID    string `json:"itemId"`
	Year      int    `json:"year"`
	CreatorID string `json:"creatorId,omitempty"`
}

type YearGridResponse struct {
	Days       []DayCell  `json:"days"`
	Statistics Statistics `json:"statistics"`
}

type ScanAndResetRequest struct {
	SpaceID string `json:"spaceId"`
}

type ScanAndResetResponse struct {
	Candidates int `json:"candidates"`
	Reset      int `json:"reset"`
	Skipped    int `json:"skipped"`
	Failed     int `json:"failed"`
}

type ExportHistoryRequest struct {
	ItemID    string `json:"itemId"`
	Year      int    `json:"year"`
	CreatorID string `json:"creatorId,omitempty"`
}

type ExportHistoryResponse struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type SubscribeRequest struct {
	SpaceID string `json:"spaceId"`
}

// Snapshot is the full item list of a space at one moment.
type Snapshot struct {
	SpaceID string  `json:"spaceId"`
	Items   []*Item `json:"items"`
}
