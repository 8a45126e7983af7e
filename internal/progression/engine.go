package progression

import (
	"math"

	"recitation-service/internal/models"
)

// Engine maps accumulated XP onto the level curve. It holds no mutable
// state; every method is a pure function of its inputs and the curve.
type Engine struct {
	curve []models.LevelTier
	// baseXP is the experience granted for a perfect session.
	baseXP int
}

// NewEngine builds an engine from the loaded rule table. An empty curve
// degrades to a single zero-threshold tier so ComputeLevel always has a
// level 1 to report.
func NewEngine(rules *models.RuleTable) *Engine {
	curve := rules.LevelCurve
	if len(curve) == 0 {
		curve = []models.LevelTier{{ThresholdXP: 0, Title: "Beginner", Reward: 0}}
	}
	baseXP := rules.BaseXP
	if baseXP <= 0 {
		baseXP = 100
	}
	return &Engine{curve: curve, baseXP: baseXP}
}

// ComputeLevel returns the level reached at the given XP. Level is the
// count of curve tiers whose threshold does not exceed xp, never below 1.
// Progress is the linear position between the current tier's threshold
// and the next one, 100 once the final tier is reached.
func (e *Engine) ComputeLevel(xp int) models.LevelInfo {
	if xp < 0 {
		xp = 0
	}

	level := 1
	for i, tier := range e.curve {
		if xp >= tier.ThresholdXP {
			level = i + 1
		}
	}

	current := e.curve[level-1]
	info := models.LevelInfo{
		Level:           level,
		Title:           current.Title,
		ProgressPercent: 100,
	}

	// Progress runs from the current tier's floor to the next
	// threshold. A curve whose first tier sits above 0 still reports
	// level 1 below it; that stretch interpolates from 0 up to the
	// first threshold.
	floor, next := current.ThresholdXP, -1
	if xp < e.curve[0].ThresholdXP {
		floor, next = 0, e.curve[0].ThresholdXP
	} else if level < len(e.curve) {
		next = e.curve[level].ThresholdXP
	}
	if next > floor {
		info.ProgressPercent = clampPercent((xp - floor) * 100 / (next - floor))
	}
	return info
}

func clampPercent(p int) int {
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return p
}

// Award applies gained XP and reports any level-up. The returned
// LevelInfo, when non-nil, describes the new level; its Reward is the
// sum of rewards of every tier crossed by this award, so a single large
// gain that jumps several tiers still grants each tier's diamonds.
func (e *Engine) Award(xp, gained int) (int, *models.LevelInfo) {
	if xp < 0 {
		xp = 0
	}
	if gained < 0 {
		gained = 0
	}

	before := e.ComputeLevel(xp)
	newXP := xp + gained
	after := e.ComputeLevel(newXP)

	if after.Level <= before.Level {
		return newXP, nil
	}

	reward := 0
	for i := before.Level; i < after.Level; i++ {
		reward += e.curve[i].Reward
	}
	after.Reward = reward
	return newXP, &after
}

// ExperienceForScore converts a session score into XP, proportional to
// the share of correct answers.
func (e *Engine) ExperienceForScore(score, total int) int {
	if total <= 0 || score <= 0 {
		return 0
	}
	if score > total {
		score = total
	}
	return int(math.Round(float64(score) / float64(total) * float64(e.baseXP)))
}
