package service

import (
	"sort"
	"strings"

	"github.com/KDim67/boostflow-backend/internal/common"
)

// DirectMessageSeparator joins the two user ids of a DM channel id.
// User ids containing it are rejected so the id stays unambiguous.
const DirectMessageSeparator = "_"

// DirectMessageChannelID returns the id shared by every DM between a and b,
// independent of argument order.
func DirectMessageChannelID(a, b string) (string, error) {
	if a == "" || b == "" {
		return "", common.ErrInvalidInput
	}
	if strings.Contains(a, DirectMessageSeparator) || strings.Contains(b, DirectMessageSeparator) {
		return "", common.ErrInvalidInput
	}
	if a == b {
		return "", common.ErrSelfDirectMessage
	}
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, DirectMessageSeparator), nil
}

func directMessageName(channelID string) string {
	return "dm-" + channelID
}
