// Package gamification holds the level ladder, the challenge catalog and the
// daily streak transition.
package gamification

import (
	"errors"
	"fmt"
)

// Level is a named points threshold.
type Level struct {
	Name      string `json:"name"`
	MinPoints int    `json:"min_points"`
}

// DefaultLevels is the production ladder.
var DefaultLevels = []Level{
	{Name: "Newcomer", MinPoints: 0},
	{Name: "Scribbler", MinPoints: 50},
	{Name: "Writer", MinPoints: 150},
	{Name: "Columnist", MinPoints: 400},
	{Name: "Author", MinPoints: 1000},
	{Name: "Storyteller", MinPoints: 2500},
	{Name: "Legend", MinPoints: 5000},
}

// Progress describes where a points total sits on the ladder.
type Progress struct {
	Level    Level  `json:"level"`
	Next     *Level `json:"next_level"`
	Percent  int    `json:"progress"`
	Required int    `json:"required"`
}

// Ladder is an immutable ascending sequence of levels starting at 0 points.
type Ladder struct {
	levels []Level
}

// NewLadder validates and copies levels.
func NewLadder(levels []Level) (*Ladder, error) {
	if len(levels) == 0 {
		return nil, errors.New("level ladder is empty")
	}
	if levels[0].MinPoints != 0 {
		return nil, fmt.Errorf("first level %q must start at 0 points", levels[0].Name)
	}
	for i := 1; i < len(levels); i++ {
		if levels[i].MinPoints <= levels[i-1].MinPoints {
			return nil, fmt.Errorf("level %q must require more points than %q", levels[i].Name, levels[i-1].Name)
		}
	}
	cp := make([]Level, len(levels))
	copy(cp, levels)
	return &Ladder{levels: cp}, nil
}

// DefaultLadder returns the ladder built from DefaultLevels.
func DefaultLadder() *Ladder {
	l, err := NewLadder(DefaultLevels)
	if err != nil {
		panic(err)
	}
	return l
}

// Levels returns a copy of the ladder.
func (l *Ladder) Levels() []Level {
	cp := make([]Level, len(l.levels))
	copy(cp, l.levels)
	return cp
}

// LevelFor returns the index and level with the highest MinPoints <= points.
// Anything below the first threshold maps to the first level.
func (l *Ladder) LevelFor(points int) (int, Level) {
	idx := 0
	for i, lv := range l.levels {
		if lv.MinPoints > points {
			break
		}
		idx = i
	}
	return idx, l.levels[idx]
}

// ProgressToNext reports the percentage progress towards the next level.
// On the last level progress is 100 and Required is the current points.
func (l *Ladder) ProgressToNext(points int) Progress {
	idx, cur := l.LevelFor(points)
	if idx == len(l.levels)-1 {
		return Progress{Level: cur, Percent: 100, Required: points}
	}
	next := l.levels[idx+1]
	pct := 100 * (points - cur.MinPoints) / (next.MinPoints - cur.MinPoints)
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return Progress{Level: cur, Next: &next, Percent: pct, Required: next.MinPoints}
}
