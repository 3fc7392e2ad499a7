package mee6

// LeaderboardEntry is one row of a guild's leaderboard.
type LeaderboardEntry struct {
	ID            string   `json:"id"`
	Username      string   `json:"username"`
	Discriminator string   `json:"discriminator"`
	Avatar        string   `json:"avatar"`
	Level         int      `json:"level"`
	XP            int64    `json:"xp"`
	MessageCount  int64    `json:"message_count"`
	DetailedXP    [3]int64 `json:"detailed_xp"`
}

// RoleReward is a role granted at a leaderboard rank.
type RoleReward struct {
	Rank int `json:"rank"`
	Role struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"role"`
}

// Player is a user's position on a guild's leaderboard.
type Player struct {
	LeaderboardEntry
	// Rank is zero-based: the leaderboard's top user has rank 0.
	Rank        int
	RoleRewards []*RoleReward
}

// LevelXP returns the XP earned within the current level.
func (p *Player) LevelXP() int64 {
	return p.DetailedXP[0]
}

// LevelTotalXP returns the XP required to finish the current level.
func (p *Player) LevelTotalXP() int64 {
	return p.DetailedXP[1]
}

// Progress returns the completion of the current level in [0, 1].
func (p *Player) Progress() float64 {
	total := p.LevelTotalXP()
	if total <= 0 {
		return 0
	}
	return float64(p.LevelXP()) / float64(total)
}

// NextReward returns the first role reward at a higher level than the
// player's, or nil when there is none.
func (p *Player) NextReward() *RoleReward {
	var next *RoleReward
	for _, reward := range p.RoleRewards {
		if reward.Rank <= p.Level {
			continue
		}
		if next == nil || reward.Rank < next.Rank {
			next = reward
		}
	}
	return next
}

// XPForLevel returns the total XP needed to reach level from zero, using
// Mee6's published progression formula.
func XPForLevel(level int) int64 {
	l := float64(level)
	return int64(5.0 / 6.0 * l * (2*l*l + 27*l + 91))
}

// leaderboardPage matches the API's wire shape.
type leaderboardPage struct {
	Players     []*LeaderboardEntry `json:"players"`
	RoleRewards []*RoleReward       `json:"role_rewards"`
}
