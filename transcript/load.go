package transcript

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Load reads segments from a transcript file. The format is chosen by extension:
// .srt for SubRip, anything else is treated as JSON.
func Load(path string) ([]Segment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript: %w", err)
	}
	defer f.Close()

	var segments []Segment
	switch strings.ToLower(filepath.Ext(path)) {
	case ".srt":
		segments, err = ParseSRT(f)
	default:
		segments, err = ParseJSON(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := Validate(segments); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return segments, nil
}

// rawSegment accepts both the whisper field names and our own.
type rawSegment struct {
	Start     *float64 `json:"start"`
	End       *float64 `json:"end"`
	StartTime *float64 `json:"start_time"`
	EndTime   *float64 `json:"end_time"`
	Text      string   `json:"text"`
	Keywords  []string `json:"keywords"`
}

func (r rawSegment) segment() Segment {
	s := Segment{Text: strings.TrimSpace(r.Text), Keywords: r.Keywords}
	switch {
	case r.StartTime != nil:
		s.Start = *r.StartTime
	case r.Start != nil:
		s.Start = *r.Start
	}
	switch {
	case r.EndTime != nil:
		s.End = *r.EndTime
	case r.End != nil:
		s.End = *r.End
	}
	return s
}

// ParseJSON decodes a whisper result object ({"segments": [...]}) or a bare segment array.
func ParseJSON(r io.Reader) ([]Segment, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var raws []rawSegment
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal([]byte(trimmed), &raws); err != nil {
			return nil, fmt.Errorf("failed to parse segment array: %w", err)
		}
	} else {
		var doc struct {
			Segments []rawSegment `json:"segments"`
		}
		if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
			return nil, fmt.Errorf("failed to parse transcript: %w", err)
		}
		raws = doc.Segments
	}

	segments := make([]Segment, 0, len(raws))
	for _, raw := range raws {
		segments = append(segments, raw.segment())
	}
	return segments, nil
}

var srtTiming = regexp.MustCompile(`(\d+):(\d{2}):(\d{2})[,.](\d{1,3})\s*-->\s*(\d+):(\d{2}):(\d{2})[,.](\d{1,3})`)

// ParseSRT reads SubRip cues. Cue numbers are ignored; text lines are joined with spaces.
func ParseSRT(r io.Reader) ([]Segment, error) {
	var segments []Segment
	var current *Segment
	var text []string

	flush := func() {
		if current != nil {
			current.Text = strings.Join(text, " ")
			segments = append(segments, *current)
		}
		current = nil
		text = text[:0]
	}

	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		l := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))

		if m := srtTiming.FindStringSubmatch(l); m != nil {
			flush()
			current = &Segment{
				Start: srtSeconds(m[1:5]),
				End:   srtSeconds(m[5:9]),
			}
			continue
		}

		switch {
		case l == "":
			flush()
		case current == nil:
			// Cue index
			if _, err := strconv.Atoi(l); err != nil {
				return nil, fmt.Errorf("line %d: unexpected text outside a cue: %q", line, l)
			}
		default:
			text = append(text, l)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return segments, nil
}

func srtSeconds(parts []string) float64 {
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	s, _ := strconv.Atoi(parts[2])
	ms := parts[3]
	for len(ms) < 3 {
		ms += "0"
	}
	frac, _ := strconv.Atoi(ms)
	return float64(h*3600+m*60+s) + float64(frac)/1000
}
