package models

// Verse is one ayah of a page as served by the content provider.
// Audio maps a narrator identifier to the recitation audio URL.
type Verse struct {
	Number int               `json:"number"`
	Text   string            `json:"text"`
	Audio  map[string]string `json:"audio"`
}

// SessionRecord is the write-only audit row stored for every
// completed play-through.
type SessionRecord struct {
	ID             string `bson:"_id,omitempty" json:"id"`
	UserName       string `bson:"user_name" json:"user_name"`
	PageID         string `bson:"page_id" json:"page_id"`
	Narrator       string `bson:"narrator" json:"narrator"`
	Score          int    `bson:"score" json:"score"`
	TotalQuestions int    `bson:"total_questions" json:"total_questions"`
	XPEarned       int    `bson:"xp_earned" json:"xp_earned"`
	LeveledUp      bool   `bson:"leveled_up" json:"leveled_up"`
	CompletedAt    int64  `bson:"completed_at" json:"completed_at"`
}
