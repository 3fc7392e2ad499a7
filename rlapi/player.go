package rlapi

// PlaylistKey identifies a ranked playlist.
type PlaylistKey int

// Ranked playlists exposed by the API.
const (
	SoloDuel     PlaylistKey = 10
	Doubles      PlaylistKey = 11
	SoloStandard PlaylistKey = 12
	Standard     PlaylistKey = 13
	Hoops        PlaylistKey = 27
	Rumble       PlaylistKey = 28
	Dropshot     PlaylistKey = 29
	SnowDay      PlaylistKey = 30
)

// FriendlyName returns the playlist's human-readable name.
func (k PlaylistKey) FriendlyName() string {
	switch k {
	case SoloDuel:
		return "Solo Duel"
	case Doubles:
		return "Doubles"
	case SoloStandard:
		return "Solo Standard"
	case Standard:
		return "Standard"
	case Hoops:
		return "Hoops"
	case Rumble:
		return "Rumble"
	case Dropshot:
		return "Dropshot"
	case SnowDay:
		return "Snow Day"
	}
	return "Unknown"
}

var rankNames = []string{
	"Unranked",
	"Bronze I", "Bronze II", "Bronze III",
	"Silver I", "Silver II", "Silver III",
	"Gold I", "Gold II", "Gold III",
	"Platinum I", "Platinum II", "Platinum III",
	"Diamond I", "Diamond II", "Diamond III",
	"Champion I", "Champion II", "Champion III",
	"Grand Champion",
}

var divisionNames = []string{"I", "II", "III", "IV", "V"}

const maxTier = 19

// Playlist holds a player's skill rating in one ranked playlist.
type Playlist struct {
	Key           PlaylistKey `json:"playlist"`
	Tier          int         `json:"tier"`
	Division      int         `json:"division"`
	Skill         int         `json:"skill"`
	WinStreak     int         `json:"win_streak"`
	MatchesPlayed int         `json:"matches_played"`
}

// RankName formats the playlist rank the way the game presents it.
func (p *Playlist) RankName() string {
	if p.Tier < 0 || p.Tier >= len(rankNames) {
		return rankNames[0]
	}
	// Unranked and Grand Champion have no divisions.
	if p.Tier == 0 || p.Tier == maxTier {
		return rankNames[p.Tier]
	}
	division := "I"
	if p.Division >= 0 && p.Division < len(divisionNames) {
		division = divisionNames[p.Division]
	}
	return rankNames[p.Tier] + " Div " + division
}

// SeasonRewards holds season reward progress.
type SeasonRewards struct {
	Level       int  `json:"level"`
	Wins        int  `json:"wins"`
	RewardReady bool `json:"-"`
}

// Player is one player's ranked profile on a single platform.
type Player struct {
	UserName      string                    `json:"user_name"`
	UserID        string                    `json:"user_id"`
	Platform      Platform                  `json:"platform"`
	Playlists     map[PlaylistKey]*Playlist `json:"playlists"`
	SeasonRewards SeasonRewards             `json:"season_rewards"`
	HighestTier   int                       `json:"highest_tier"`
}

// Playlist returns the player's entry for key, or nil when the player has
// not played that playlist.
func (p *Player) Playlist(key PlaylistKey) *Playlist {
	return p.Playlists[key]
}

// playerPayload matches the API's wire shape before conversion to Player.
type playerPayload struct {
	UserName      string      `json:"user_name"`
	UserID        string      `json:"user_id"`
	PlayerSkills  []*Playlist `json:"player_skills"`
	SeasonRewards struct {
		Level *int `json:"season_level"`
		Wins  *int `json:"wins"`
	} `json:"season_rewards"`
}

func (pp *playerPayload) toPlayer(platform Platform) *Player {
	player := &Player{
		UserName:  pp.UserName,
		UserID:    pp.UserID,
		Platform:  platform,
		Playlists: make(map[PlaylistKey]*Playlist, len(pp.PlayerSkills)),
	}
	if player.UserID == "" {
		player.UserID = pp.UserName
	}

	for _, playlist := range pp.PlayerSkills {
		player.Playlists[playlist.Key] = playlist
		if playlist.Tier > player.HighestTier {
			player.HighestTier = playlist.Tier
		}
	}

	if pp.SeasonRewards.Level != nil {
		player.SeasonRewards.Level = *pp.SeasonRewards.Level
	}
	if pp.SeasonRewards.Wins != nil {
		player.SeasonRewards.Wins = *pp.SeasonRewards.Wins
	}
	player.SeasonRewards.RewardReady = player.SeasonRewards.Level == 0 ||
		player.SeasonRewards.Level*3 < player.HighestTier

	return player
}
