package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/tunematch/internal/matcher"
	"github.com/desertthunder/tunematch/internal/models"
)

var _ list.Item = matchItem{}

// matchItem wraps [models.MatchRecord] to implement [list.Item].
type matchItem struct {
	record *models.MatchRecord
	band   matcher.Band
}

func (i matchItem) FilterValue() string { return i.record.SourceTitle + " " + i.record.TargetTitle }

func (i matchItem) Title() string {
	mark := " "
	if i.record.ManuallyVerified {
		mark = "✓"
	}
	return fmt.Sprintf("%s %s", mark, i.record.SourceTrack().String())
}

func (i matchItem) Description() string {
	return fmt.Sprintf("→ %s • %s %.2f %s",
		i.record.TargetTrack().String(), i.record.TargetPlatform, i.record.Confidence, i.band)
}
