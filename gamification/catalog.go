package gamification

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/cppla/inkpost/calendar"
	"github.com/cppla/inkpost/models"
	"github.com/cppla/inkpost/utils"
)

// ChallengeDef is an immutable catalog entry.
type ChallengeDef struct {
	Key         string `json:"key"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// DefaultChallenges is the built-in pool.
var DefaultChallenges = []ChallengeDef{
	{Key: "draft-300", Title: "Quick draft", Description: "Write a 300-word draft today."},
	{Key: "comment-3", Title: "Join the conversation", Description: "Leave thoughtful comments on three posts."},
	{Key: "follow-new", Title: "New voices", Description: "Follow an author you have never read before."},
	{Key: "edit-old", Title: "Second look", Description: "Revise one of your older posts."},
	{Key: "share-tip", Title: "Pass it on", Description: "Publish a short post sharing one writing tip."},
	{Key: "read-5", Title: "Bookworm", Description: "Read five posts from your feed."},
	{Key: "headline", Title: "Headline hunter", Description: "Write three alternative titles for your next post."},
}

// Selection policies.
const (
	SelectRandom     = "random"
	SelectRoundRobin = "round_robin"
)

// Catalog hands out challenges from a fixed pool.
type Catalog struct {
	defs   []ChallengeDef
	policy string
	next   atomic.Uint64
}

// NewCatalog builds a catalog. Round robin walks a shuffled copy when shuffle is set.
func NewCatalog(defs []ChallengeDef, policy string, shuffle bool) (*Catalog, error) {
	if len(defs) == 0 {
		return nil, fmt.Errorf("challenge catalog is empty")
	}
	policy = strings.ToLower(strings.TrimSpace(policy))
	switch policy {
	case "":
		policy = SelectRandom
	case SelectRandom, SelectRoundRobin:
	default:
		return nil, fmt.Errorf("unknown challenge selection policy %q", policy)
	}
	cp := make([]ChallengeDef, len(defs))
	copy(cp, defs)
	if shuffle {
		cp = utils.Shuffle(cp)
	}
	return &Catalog{defs: cp, policy: policy}, nil
}

// Definitions returns a copy of the pool.
func (c *Catalog) Definitions() []ChallengeDef {
	cp := make([]ChallengeDef, len(c.defs))
	copy(cp, c.defs)
	return cp
}

// Policy returns the selection policy.
func (c *Catalog) Policy() string {
	return c.policy
}

// Assign selects a definition and returns a fresh instance assigned on today.
func (c *Catalog) Assign(today calendar.Date) *models.Challenge {
	var def ChallengeDef
	if c.policy == SelectRoundRobin {
		def = c.defs[(c.next.Add(1)-1)%uint64(len(c.defs))]
	} else {
		def, _ = utils.Pick(c.defs)
	}
	return &models.Challenge{
		ID:          uuid.NewString(),
		Key:         def.Key,
		Title:       def.Title,
		Description: def.Description,
		AssignedOn:  today,
	}
}
