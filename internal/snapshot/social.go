package snapshot

import (
	"math"
	"regexp"
	"strings"

	"github.com/token-trust-scanner/internal/models"
)

// Social score weights
const (
	twitterPoints  = 20
	telegramPoints = 15
	websitePoints  = 5

	maxEngagementRate    = 10.0
	engagementMultiplier = 2

	botRatioHigh   = 0.5
	botRatioMedium = 0.2
	botPenaltyHigh = 30
	botPenaltyMed  = 15

	// SuspiciousBotThreshold flags social activity as likely botted
	SuspiciousBotThreshold = 30

	organicVolumeMin = 1000
	buzzVolumeMax    = 50000
	buzzVolumeStep   = 10000
	maxBuzz          = 5
)

type tier struct {
	above  int
	points int
}

var commentTiers = []tier{{100, 20}, {50, 15}, {20, 10}, {5, 5}}

var linkPattern = regexp.MustCompile(`https?://`)

// channels reports presence from flags, then from links in the description
func channels(twitter, telegram, website bool, description string) (bool, bool, bool) {
	d := strings.ToLower(description)
	if strings.Contains(d, "twitter.com") || strings.Contains(d, "x.com") {
		twitter = true
	}
	if strings.Contains(d, "t.me/") || strings.Contains(d, "telegram") {
		telegram = true
	}
	if linkPattern.MatchString(d) {
		website = true
	}
	return twitter, telegram, website
}

// estimateFollowers guesses audience size from market cap and channel count
func estimateFollowers(marketCap float64, channelCount int) int {
	if marketCap <= 0 {
		return 0
	}
	return int(math.Floor(math.Sqrt(marketCap) * 2 * float64(channelCount)))
}

// scoreSocial fills the derived fields of s from its channel flags and
// comment count
func scoreSocial(s *models.SocialSignals, marketCap, volume24h float64) {
	score := 0.0
	if s.HasTwitter {
		score += twitterPoints
	}
	if s.HasTelegram {
		score += telegramPoints
	}
	if s.HasWebsite {
		score += websitePoints
	}
	for _, t := range commentTiers {
		if s.CommentCount > t.above {
			score += float64(t.points)
			break
		}
	}

	followers := estimateFollowers(marketCap, s.ChannelCount())
	s.EstimatedFollowers = followers
	if followers > 0 {
		comments := float64(s.CommentCount)
		s.EngagementRate = math.Min(comments/float64(followers)*100, maxEngagementRate)
		score += s.EngagementRate * engagementMultiplier

		if s.CommentCount > 0 {
			switch ratio := comments / float64(followers); {
			case ratio > botRatioHigh:
				s.BotSuspicion = botPenaltyHigh
			case ratio > botRatioMedium:
				s.BotSuspicion = botPenaltyMed
			}
			score -= float64(s.BotSuspicion)
		}
	}

	s.SocialScore = math.Max(0, math.Min(100, score))
	s.MentionVelocity = s.CommentCount
	s.OrganicGrowth = volume24h > organicVolumeMin
	s.BuzzLevel = buzzLevel(volume24h)
	s.Suspicious = s.BotSuspicion >= SuspiciousBotThreshold
}

func buzzLevel(volume24h float64) int {
	if volume24h > buzzVolumeMax {
		return maxBuzz
	}
	return max(1, int(math.Ceil(volume24h/buzzVolumeStep)))
}
