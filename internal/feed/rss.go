// Package feed renders a user's ready podcasts as an RSS feed.
package feed

import (
	"fmt"
	"time"

	"github.com/eduncan911/podcast"

	"castforge/internal/db"
	"castforge/internal/models"
)

// GenerateRSS builds the RSS document for a user's ready episodes.
// Episodes are expected newest first; item order is preserved.
func GenerateRSS(user *models.User, episodes []db.ReadyEpisode, baseURL string) (string, error) {
	title := fmt.Sprintf("%s's Podcasts", user.DisplayName)
	if user.DisplayName == "" {
		title = "Generated Podcasts"
	}
	now := time.Now()
	p := podcast.New(
		title,
		fmt.Sprintf("%s/rss/%s", baseURL, user.RSSUUID),
		"Podcasts generated from your source material.",
		&now, &now,
	)

	for _, ep := range episodes {
		item := podcast.Item{
			Title:       ep.Title,
			Description: ep.Description,
			Link:        fmt.Sprintf("%s/podcasts/%s", baseURL, ep.PodcastID),
			PubDate:     &ep.UpdatedAt,
		}
		item.AddDuration(int64(ep.AudioDurationSeconds))
		// TODO: transcode to MP3 via ffmpeg at publish time; until then the
		// enclosure points at WAV audio under an MP3 type, which most
		// players tolerate.
		item.AddEnclosure(ep.AudioURL, podcast.MP3, ep.AudioSizeBytes)
		if _, err := p.AddItem(item); err != nil {
			return "", fmt.Errorf("failed to add feed item for podcast %s: %w", ep.PodcastID, err)
		}
	}

	return p.String(), nil
}
