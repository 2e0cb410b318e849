// Package thread holds the task discussion engine: mention extraction over
// arbitrarily deep reply trees and the flat persisted form of a tree.
package thread

import (
	"regexp"
	"sort"

	"collab-go/app/models"
)

// Letters and digits of any script plus underscore count as word characters.
var mentionPattern = regexp.MustCompile(`@([\p{L}\p{N}_]+)`)

// ExtractMentions returns the distinct handles written as @handle in body,
// in order of first appearance. Case is preserved.
func ExtractMentions(body string) []string {
	matches := mentionPattern.FindAllStringSubmatch(body, -1)
	if len(matches) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(matches))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		if _, ok := seen[m[1]]; ok {
			continue
		}
		seen[m[1]] = struct{}{}
		out = append(out, m[1])
	}
	return out
}

// MentionsInTree returns the sorted union of mentions across every message
// and reply in messages. The walk uses an explicit stack, so depth is bounded
// only by memory.
func MentionsInTree(messages []models.TaskMessage) []string {
	seen := make(map[string]struct{})
	stack := make([]*models.TaskMessage, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		stack = append(stack, &messages[i])
	}
	for len(stack) > 0 {
		msg := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, name := range ExtractMentions(msg.Text) {
			seen[name] = struct{}{}
		}
		for i := len(msg.Replies) - 1; i >= 0; i-- {
			stack = append(stack, &msg.Replies[i])
		}
	}
	return sortedKeys(seen)
}

// MentionsInRecords is MentionsInTree for the flat form.
func MentionsInRecords(records []Record) []string {
	seen := make(map[string]struct{})
	for _, r := range records {
		for _, name := range ExtractMentions(r.Text) {
			seen[name] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
