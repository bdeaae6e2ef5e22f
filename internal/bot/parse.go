package bot

import (
	"regexp"
	"strings"
)

// hashRe matches the short-hash stand-in for an oversized repository identity.
var hashRe = regexp.MustCompile(`^[a-f0-9]{8}$`)

// callbackPayload is a decoded callback_data value,
// "action:owner/repo[:sectionId]" or "action:hash[:sectionId]".
type callbackPayload struct {
	Action    string
	Identity  string
	SectionID string
	IsHash    bool
}

// parseCallback decodes a callback payload. Returns false when the payload
// does not have at least an action and an identity.
func parseCallback(data string) (callbackPayload, bool) {
	parts := strings.SplitN(data, ":", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return callbackPayload{}, false
	}

	p := callbackPayload{
		Action:   parts[0],
		Identity: parts[1],
		IsHash:   hashRe.MatchString(parts[1]),
	}
	if len(parts) == 3 {
		p.SectionID = parts[2]
	}
	return p, true
}
