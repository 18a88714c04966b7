package lyrics

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

const utf8BOM = "\ufeff"

// Line is a single timed lyric entry.
type Line struct {
	TimestampMillis int64
	Text            string
}

// Document is an immutable, time-ordered set of lyric lines for one track.
// The zero value and a nil *Document are both valid empty documents.
type Document struct {
	lines []Line
	tags  map[string]string
}

// NewDocument builds a document from already-timed lines. The lines are
// copied and stably sorted by timestamp.
func NewDocument(lines []Line) *Document {
	sorted := slices.Clone(lines)
	slices.SortStableFunc(sorted, func(a, b Line) int {
		switch {
		case a.TimestampMillis < b.TimestampMillis:
			return -1
		case a.TimestampMillis > b.TimestampMillis:
			return 1
		}
		return 0
	})
	return &Document{lines: sorted}
}

// Parse reads an LRC-style document. It never fails: lines without a
// recognizable time tag are dropped, and input without any yields an empty
// document.
func Parse(raw string) *Document {
	raw = strings.TrimPrefix(raw, utf8BOM)
	if strings.TrimSpace(raw) == "" {
		return &Document{}
	}

	var lines []Line
	tags := make(map[string]string)

	for _, rawLine := range strings.Split(raw, "\n") {
		trimmed := strings.TrimSpace(rawLine)
		if trimmed == "" {
			continue
		}

		stamps, text, idTag := splitTags(trimmed)
		if idTag != "" {
			if key, value, ok := strings.Cut(idTag, ":"); ok {
				tags[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
			}
			continue
		}

		for _, ms := range stamps {
			lines = append(lines, Line{TimestampMillis: ms, Text: text})
		}
	}

	doc := NewDocument(lines)
	if len(tags) > 0 {
		doc.tags = tags
	}
	return doc
}

// splitTags peels the leading [..] tags off a line. Time tags are returned
// as milliseconds; a leading ID tag such as [ar:Someone] is returned as-is
// when the line carries no time tags.
func splitTags(line string) ([]int64, string, string) {
	var stamps []int64
	rest := line

	for strings.HasPrefix(rest, "[") {
		end := strings.Index(rest, "]")
		if end <= 1 {
			break
		}

		tag := rest[1:end]
		ms, ok := parseTimestamp(tag)
		if !ok {
			if len(stamps) == 0 && isIDTag(tag) {
				return nil, "", tag
			}
			break
		}

		stamps = append(stamps, ms)
		rest = rest[end+1:]
	}

	return stamps, strings.TrimSpace(rest), ""
}

// parseTimestamp accepts mm:ss.xx (centiseconds) and mm:ss.xxx (milliseconds).
func parseTimestamp(tag string) (int64, bool) {
	minPart, secPart, ok := strings.Cut(tag, ":")
	if !ok || !allDigits(minPart) {
		return 0, false
	}

	wholePart, fracPart, ok := strings.Cut(secPart, ".")
	if !ok || len(wholePart) != 2 || !allDigits(wholePart) || !allDigits(fracPart) {
		return 0, false
	}
	if len(fracPart) != 2 && len(fracPart) != 3 {
		return 0, false
	}

	minutes, err := strconv.ParseInt(minPart, 10, 64)
	if err != nil {
		return 0, false
	}
	seconds, _ := strconv.ParseInt(wholePart, 10, 64)
	if seconds >= 60 {
		return 0, false
	}
	frac, _ := strconv.ParseInt(fracPart, 10, 64)
	if len(fracPart) == 2 {
		frac *= 10
	}

	return minutes*60_000 + seconds*1000 + frac, true
}

func isIDTag(tag string) bool {
	key, _, ok := strings.Cut(tag, ":")
	if !ok || key == "" {
		return false
	}
	for _, r := range key {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return len(d.lines)
}

func (d *Document) IsEmpty() bool { return d.Len() == 0 }

// Line returns the i-th line; callers must stay within [0, Len()).
func (d *Document) Line(i int) Line { return d.lines[i] }

// Lines returns a copy of all lines.
func (d *Document) Lines() []Line {
	if d == nil {
		return nil
	}
	return slices.Clone(d.lines)
}

// Tag returns an LRC ID tag (ti, ar, al, by, offset ...) seen while parsing.
func (d *Document) Tag(key string) (string, bool) {
	if d == nil || d.tags == nil {
		return "", false
	}
	value, ok := d.tags[strings.ToLower(key)]
	return value, ok
}

// OffsetTag reports the [offset:] tag in milliseconds. It is informational;
// timestamps are never shifted by it.
func (d *Document) OffsetTag() (int64, bool) {
	raw, ok := d.Tag("offset")
	if !ok {
		return 0, false
	}
	value, err := strconv.ParseInt(strings.TrimPrefix(raw, "+"), 10, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

// indexAt returns the index of the last line due at positionMillis, or -1.
func (d *Document) indexAt(positionMillis int64) int {
	if d == nil {
		return -1
	}
	i, _ := slices.BinarySearchFunc(d.lines, positionMillis+1, func(l Line, target int64) int {
		switch {
		case l.TimestampMillis < target:
			return -1
		case l.TimestampMillis > target:
			return 1
		}
		return 0
	})
	return i - 1
}

// String renders the document back to LRC text, one tag per line.
func (d *Document) String() string {
	var sb strings.Builder
	for _, line := range d.Lines() {
		sb.WriteString(FormatTimestamp(line.TimestampMillis))
		sb.WriteString(line.Text)
		sb.WriteByte('\n')
	}
	return sb.String()
}

// FormatTimestamp renders milliseconds as an [mm:ss.xx] tag.
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	minutes := ms / 60_000
	seconds := (ms % 60_000) / 1000
	centis := (ms % 1000) / 10
	return fmt.Sprintf("[%02d:%02d.%02d]", minutes, seconds, centis)
}
