package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/uidx/internal/models"
)

var _ list.Item = groupItem{}

// groupItem wraps [models.DuplicateGroup] to implement [list.Item].
type groupItem struct {
	group models.DuplicateGroup
}

func (i groupItem) FilterValue() string { return i.group.UId }
func (i groupItem) Title() string       { return i.group.UId }
func (i groupItem) Description() string {
	return fmt.Sprintf("%d tracks • survivor %d", len(i.group.TrackIDs), i.group.Survivor())
}
