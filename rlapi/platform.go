package rlapi

import "regexp"

// Platform identifies the gaming platform a player account lives on.
type Platform string

// Platforms recognized by the Rocket League API.
const (
	PlatformSteam   Platform = "steam"
	PlatformPS4     Platform = "ps4"
	PlatformXboxOne Platform = "xboxone"
	PlatformEpic    Platform = "epic"
)

// AllPlatforms lists every platform in lookup order.
var AllPlatforms = []Platform{PlatformSteam, PlatformPS4, PlatformXboxOne, PlatformEpic}

// DisplayName returns the platform's human-readable name.
func (p Platform) DisplayName() string {
	switch p {
	case PlatformSteam:
		return "Steam"
	case PlatformPS4:
		return "Playstation 4"
	case PlatformXboxOne:
		return "Xbox One"
	case PlatformEpic:
		return "Epic Games"
	}
	return string(p)
}

func (p Platform) String() string {
	return string(p)
}

var platformPatterns = map[Platform]*regexp.Regexp{
	PlatformSteam:   regexp.MustCompile(`^(?:(?:https?://(?:www\.)?)?steamcommunity\.com/(?:id|profiles)/)?([a-zA-Z0-9_-]{2,32})/?$`),
	PlatformPS4:     regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]{2,15}$`),
	PlatformXboxOne: regexp.MustCompile(`^[a-zA-Z](?:[a-zA-Z0-9-_]+ ?){0,15}$`),
	PlatformEpic:    regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9 _.-]{1,14}[a-zA-Z0-9]$`),
}

// normalizePlayerID validates id against the platform's username rules and
// strips any Steam profile URL prefix.
func normalizePlayerID(platform Platform, id string) (string, error) {
	pattern, ok := platformPatterns[platform]
	if !ok {
		return "", &PlayerNotFoundError{PlayerID: id, Platform: platform}
	}
	match := pattern.FindStringSubmatch(id)
	if match == nil {
		return "", ErrIllegalUsername
	}
	if len(match) > 1 && match[1] != "" {
		return match[1], nil
	}
	return id, nil
}
