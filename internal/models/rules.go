package models

// LevelTier is one step of the level curve. Tiers are ordered by
// ascending ThresholdXP; crossing a tier's threshold for the first
// time grants its Reward in diamonds.
type LevelTier struct {
	ThresholdXP int    `bson:"threshold_xp" json:"threshold_xp"`
	Title       string `bson:"title" json:"title"`
	Reward      int    `bson:"reward" json:"reward"`
}

// RuleTable is the remote game configuration. Loaded once at startup
// and read-only afterwards.
type RuleTable struct {
	AllowedPages        []string    `json:"allowed_pages"`
	QuestionsPerSession int         `json:"questions_per_session"`
	BaseXP              int         `json:"base_xp"`
	LevelCurve          []LevelTier `json:"level_curve"`
}

// PageAllowed reports whether the page id is playable under these rules.
func (r *RuleTable) PageAllowed(pageID string) bool {
	for _, p := range r.AllowedPages {
		if p == pageID {
			return true
		}
	}
	return false
}

type StoreItem struct {
	ID          string `bson:"_id" json:"id"`
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description" json:"description"`
	Price       int    `bson:"price" json:"price"`
}

// LevelInfo is derived from XP by the progression engine, never stored.
type LevelInfo struct {
	Level           int    `json:"level"`
	Title           string `json:"title"`
	ProgressPercent int    `json:"progress_percent"`
	Reward          int    `json:"reward,omitempty"`
}
