package thread

import (
	"fmt"
	"strconv"
	"time"

	"collab-go/app/errs"
	"collab-go/app/models"
)

// TimestampLayout is the text form timestamps are rendered in.
const TimestampLayout = time.RFC3339Nano

// NoParent marks a top-level record.
const NoParent = -1

// Record is one message of a flattened thread. Records are stored in
// depth-first pre-order, so a record's Parent index always precedes it.
type Record struct {
	ID        string
	Text      string
	Sender    string
	Timestamp time.Time
	// ParentID is the display parent supplied by the client; it is kept as is.
	// HasParentID distinguishes an explicit "" from an absent field.
	ParentID    string
	HasParentID bool
	// Parent is the index of the enclosing record, or NoParent.
	Parent int
	Depth  int
}

// ParseTimestamp accepts RFC 3339 text, with or without fractional seconds,
// and normalizes it to UTC. An offset that pushes the instant outside the
// four digit years 0000-9999 is rejected, since it could not be rendered back.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, err
	}
	t = t.UTC()
	if y := t.Year(); y < 0 || y > 9999 {
		return time.Time{}, fmt.Errorf("timestamp %q is outside years 0000-9999 in UTC", s)
	}
	return t, nil
}

// FormatTimestamp renders t the way the read representation expects.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

type frame struct {
	msg    *models.TaskMessage
	parent int
	depth  int
	path   string
}

// Flatten validates messages and converts them to pre-order records.
// The first malformed node aborts the conversion with an *errs.ValidationError
// naming its path, e.g. messages[0].replies[2].timestamp.
func Flatten(messages []models.TaskMessage) ([]Record, error) {
	records := make([]Record, 0, len(messages))
	stack := make([]frame, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		stack = append(stack, frame{msg: &messages[i], parent: NoParent, path: "messages[" + strconv.Itoa(i) + "]"})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		rec, err := toRecord(f)
		if err != nil {
			return nil, err
		}
		idx := len(records)
		records = append(records, rec)

		replies := f.msg.Replies
		for i := len(replies) - 1; i >= 0; i-- {
			stack = append(stack, frame{
				msg:    &replies[i],
				parent: idx,
				depth:  f.depth + 1,
				path:   f.path + ".replies[" + strconv.Itoa(i) + "]",
			})
		}
	}
	return records, nil
}

func toRecord(f frame) (Record, error) {
	field, tag, err := models.FirstInvalid(f.msg)
	if err != nil {
		return Record{}, errs.Validation(f.path, "%v", err)
	}
	if field != "" {
		return Record{}, errs.Validation(f.path+"."+field, "failed %q validation", tag)
	}
	ts, err := ParseTimestamp(f.msg.Timestamp)
	if err != nil {
		return Record{}, errs.Validation(f.path+".timestamp", "not an RFC 3339 timestamp within years 0000-9999 UTC: %q", f.msg.Timestamp)
	}
	rec := Record{
		ID:        f.msg.ID,
		Text:      f.msg.Text,
		Sender:    f.msg.Sender,
		Timestamp: ts,
		Parent:    f.parent,
		Depth:     f.depth,
	}
	if f.msg.ParentID != nil {
		rec.ParentID, rec.HasParentID = *f.msg.ParentID, true
	}
	return rec, nil
}

// Build reassembles the nested read representation from pre-order records.
func Build(records []Record) ([]models.TaskMessage, error) {
	nodes := make([]models.TaskMessage, len(records))
	children := make([][]int, len(records))
	roots := make([]int, 0)

	for i, r := range records {
		switch {
		case r.Parent == NoParent:
			roots = append(roots, i)
		case r.Parent < 0 || r.Parent >= i:
			return nil, fmt.Errorf("thread: record %d (%s) has parent %d out of order", i, r.ID, r.Parent)
		default:
			children[r.Parent] = append(children[r.Parent], i)
		}
		nodes[i] = models.TaskMessage{
			ID:        r.ID,
			Text:      r.Text,
			Sender:    r.Sender,
			Timestamp: FormatTimestamp(r.Timestamp),
			Replies:   []models.TaskMessage{},
		}
		if r.HasParentID {
			pid := r.ParentID
			nodes[i].ParentID = &pid
		}
	}

	// Descendants follow their ancestors, so walking backwards finishes every
	// subtree before its parent copies it.
	for i := len(records) - 1; i >= 0; i-- {
		if len(children[i]) == 0 {
			continue
		}
		replies := make([]models.TaskMessage, len(children[i]))
		for j, c := range children[i] {
			replies[j] = nodes[c]
		}
		nodes[i].Replies = replies
	}

	out := make([]models.TaskMessage, len(roots))
	for j, r := range roots {
		out[j] = nodes[r]
	}
	return out, nil
}

// MaxDepth returns the deepest nesting level in records, or -1 when empty.
func MaxDepth(records []Record) int {
	depth := -1
	for _, r := range records {
		if r.Depth > depth {
			depth = r.Depth
		}
	}
	return depth
}
