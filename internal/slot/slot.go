// Package slot parses the interview slots submitted from a card form and
// renders them into the human-readable lines echoed back to the candidate
// and persisted as the availability record.
//
// Wire format of a submitted selection:
//
//	"Slot 1|2025-02-15T14:00,Slot 2|2025-02-16T10:30"
//
// Items are comma separated. Each item is an identifier and an ISO-8601
// start time separated by the first "|". An item without "|" is a bare
// timestamp with an empty identifier.
package slot

import (
	"strings"
	"time"
)

const (
	// InterviewDuration is the fixed length of every interview slot.
	InterviewDuration = 45 * time.Minute

	// ManualLabel is the identifier given to a manually entered date and time.
	// It is a fixed label, not a sequence number.
	ManualLabel = "Slot 4"

	itemSeparator = ","
	idSeparator   = "|"

	dateLayout = "Mon, 02 Jan"
	timeLayout = "3:04 PM"
)

// Parsed is one submitted slot before formatting.
// Start is kept as the raw submitted text so a bad value can be echoed back.
type Parsed struct {
	ID    string
	Start string
}

// Parse turns the raw form values into an ordered list of slots.
// Input order is preserved and duplicates are kept. A manual entry is only
// added when both manualDate and manualTime are non-empty, and always last.
// An empty result means nothing was submitted.
func Parse(selected, manualDate, manualTime string) []Parsed {
	var slots []Parsed

	if selected != "" {
		for part := range strings.SplitSeq(selected, itemSeparator) {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if id, start, ok := strings.Cut(part, idSeparator); ok {
				slots = append(slots, Parsed{ID: id, Start: start})
			} else {
				slots = append(slots, Parsed{Start: part})
			}
		}
	}

	if manualDate != "" && manualTime != "" {
		slots = append(slots, Parsed{
			ID:    ManualLabel,
			Start: manualDate + "T" + manualTime,
		})
	}

	return slots
}

// Format renders a single slot. A start time that cannot be parsed yields an
// "(invalid datetime: ...)" line carrying the raw value instead of an error.
func Format(p Parsed) string {
	start, err := ParseTimestamp(p.Start)
	if err != nil {
		return "- " + p.ID + " : (invalid datetime: " + p.Start + ")"
	}

	end := End(start)
	span := start.Format(dateLayout) + " - " + start.Format(timeLayout) + " to " + end.Format(timeLayout)

	if p.ID != "" {
		return "- " + p.ID + " : " + span
	}
	return "- " + span
}

// FormatAll renders every slot in order. len(result) == len(slots).
func FormatAll(slots []Parsed) []string {
	lines := make([]string, 0, len(slots))
	for _, s := range slots {
		lines = append(lines, Format(s))
	}
	return lines
}

// End returns the end of the interview that starts at start.
func End(start time.Time) time.Time {
	return start.Add(InterviewDuration)
}
