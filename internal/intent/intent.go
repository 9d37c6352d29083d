// Package intent extracts device/action commands from generated model replies.
//
// The model is treated as an untrusted free-text generator: any reply is
// valid input. Classification never fails; a reply without a recognizable
// keyword degrades to IntentNone and phone resolution degrades to an absent
// number rather than an error.
package intent

import (
	"strings"

	"github.com/baseer-ai/baseer/internal/models"
)

// Classify scans reply for the first intent keyword in the fixed priority
// order and removes exactly one occurrence of it. The priority enumeration,
// not the keyword's position in the text, breaks ties when a reply contains
// several keywords. A reply with no keyword yields (IntentNone, reply)
// unchanged.
func Classify(reply string) (models.Intent, string) {
	for _, it := range models.IntentPriority {
		if strings.Contains(reply, string(it)) {
			return it, strings.Replace(reply, string(it), "", 1)
		}
	}
	return models.IntentNone, reply
}

// Normalize tidies formatting artifacts the model may emit: newlines and
// hyphens become single spaces and outer whitespace is trimmed. It must run
// after keyword removal, since removal leaves a gap that normalization then
// cleans up.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\n", " ")
	text = strings.ReplaceAll(text, "-", " ")
	return strings.TrimSpace(text)
}

// ResolvePhone finds the first contact, in directory order, whose name occurs
// as a substring of text. It removes one occurrence of the name and returns
// the contact's phone number alongside the cleaned text. No match is a valid
// terminal outcome: the phone is empty and the text comes back unchanged.
func ResolvePhone(contacts []models.Contact, text string) (string, string) {
	for _, c := range contacts {
		if c.Name != "" && strings.Contains(text, c.Name) {
			return c.Phone, strings.Replace(text, c.Name, "", 1)
		}
	}
	return "", text
}
