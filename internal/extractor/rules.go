package extractor

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"

	"github.com/hyperifyio/goactions/internal/deadline"
	"github.com/hyperifyio/goactions/internal/items"
)

// Rules is a deterministic, dictionary-based engine. A sentence becomes an
// action item when it carries an obligation cue ("will", "needs to", ...) or
// starts with an imperative verb.
type Rules struct {
	// Now returns the reference time for relative deadlines. Defaults to time.Now.
	Now func() time.Time
}

func (r *Rules) Name() string { return "rules" }

func (r *Rules) now() time.Time {
	if r != nil && r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Rules) Extract(_ context.Context, notes string) (items.ExtractionResponse, error) {
	return items.NewResponse(r.Items(notes)), nil
}

const namePart = `[A-Z][\p{L}'-]+`

var (
	bulletRe  = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)]|\[[ xX]?\])\s+`)
	speakerRe = regexp.MustCompile(`^(` + namePart + `(?:\s+` + namePart + `)?)\s*:\s*(.*)$`)
	cueRe     = regexp.MustCompile(`(?i)\b(?:will|shall|should|must|needs?\s+to|has\s+to|have\s+to|going\s+to|to\s+do|todo|please|action\s+item|follow[- ]up|let's|assigned|assign)\b`)
	noDueRe   = regexp.MustCompile(`(?i)\bno deadline\b`)
	mentionRe = regexp.MustCompile(`@([\p{L}][\p{L}\d._-]*)`)
	assignRe  = regexp.MustCompile(`\b(?:[Aa]ssigned\s+to|[Aa]ssign(?:ed)?\s+(?:it|this)\s+to|[Oo]wner:?|[Oo]wned\s+by|[Aa]sk|[Aa]ssign|to)\s+(` + namePart + `(?:\s+` + namePart + `)?)`)
	subjectRe = regexp.MustCompile(`\b(` + namePart + `(?:\s+` + namePart + `)?)\s+(?:will|shall|should|must|needs?|has\s+to|is\s+going\s+to|can|to)\b`)
)

// Labels that look like a speaker prefix but are not people.
var nonSpeakers = map[string]bool{
	"action": true, "actions": true, "action item": true, "action items": true,
	"todo": true, "note": true, "notes": true, "agenda": true, "decision": true,
	"decisions": true, "update": true, "fyi": true, "re": true, "summary": true,
	"attendees": true, "next steps": true, "deadline": true, "owner": true,
}

// Capitalized words that are never assignees.
var notNames = map[string]bool{
	"i": true, "we": true, "you": true, "they": true, "he": true, "she": true,
	"it": true, "someone": true, "somebody": true, "everyone": true,
	"everybody": true, "team": true, "the": true, "this": true, "that": true,
	"these": true, "those": true, "please": true, "let's": true, "also": true,
	"then": true, "and": true, "but": true, "all": true, "nobody": true,
	"no": true, "none": true, "who": true, "next": true, "action": true,
	"todo": true, "general": true, "today": true, "tomorrow": true,
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
	"friday": true, "saturday": true, "sunday": true,
}

var imperatives = map[string]bool{
	"prepare": true, "send": true, "review": true, "update": true, "fix": true,
	"schedule": true, "call": true, "email": true, "write": true, "finish": true,
	"complete": true, "follow": true, "share": true, "create": true, "set": true,
	"book": true, "draft": true, "check": true, "organize": true, "organise": true,
	"plan": true, "deploy": true, "ship": true, "submit": true, "investigate": true,
	"contact": true, "reach": true, "confirm": true, "test": true, "document": true,
	"merge": true, "migrate": true, "deliver": true, "present": true,
	"research": true, "arrange": true, "order": true, "clean": true, "file": true,
	"publish": true, "release": true, "remind": true, "add": true, "remove": true,
	"need": true, "make": true, "get": true, "ask": true, "assign": true,
}

// Casers keep state and must not be shared between goroutines, so each call
// builds its own.
func lower(s string) string { return cases.Lower(language.English).String(s) }

func title(s string) string { return cases.Title(language.English).String(s) }

// Items returns the extracted items in the order they appear in notes.
func (r *Rules) Items(notes string) []items.ActionItem {
	today := deadline.Midnight(r.now())
	out := make([]items.ActionItem, 0)
	for _, line := range strings.Split(norm.NFKC.String(notes), "\n") {
		line = bulletRe.ReplaceAllString(strings.TrimSpace(line), "")
		if line == "" {
			continue
		}
		speaker := ""
		if m := speakerRe.FindStringSubmatch(line); m != nil && !nonSpeakers[lower(m[1])] {
			speaker = m[1]
			line = m[2]
		} else if i := strings.Index(line, ":"); i > 0 && nonSpeakers[lower(strings.TrimSpace(line[:i]))] {
			line = strings.TrimSpace(line[i+1:])
		}
		for _, sentence := range splitSentences(line) {
			if !isActionable(sentence) || noDueRe.MatchString(sentence) {
				continue
			}
			out = append(out, items.ActionItem{
				Action:   sentence,
				Assignee: findAssignee(sentence, speaker),
				Deadline: deadline.Format(sentence, today, items.NoDeadline),
			})
		}
	}
	return out
}

// splitSentences splits on '.', '!' or '?' followed by whitespace or the end
// of the text, so dates and decimals stay intact.
func splitSentences(s string) []string {
	var out []string
	runes := []rune(s)
	start := 0
	for i, c := range runes {
		if c != '.' && c != '!' && c != '?' {
			continue
		}
		if i+1 < len(runes) && !unicode.IsSpace(runes[i+1]) {
			continue
		}
		if part := strings.TrimSpace(string(runes[start : i+1])); part != "" {
			out = append(out, part)
		}
		start = i + 1
	}
	if part := strings.TrimSpace(string(runes[start:])); part != "" {
		out = append(out, part)
	}
	return out
}

func isActionable(sentence string) bool {
	if cueRe.MatchString(sentence) {
		return true
	}
	first := strings.FieldsFunc(sentence, func(r rune) bool { return !unicode.IsLetter(r) && r != '\'' })
	return len(first) > 0 && imperatives[lower(first[0])]
}

// findAssignee prefers an @mention, then an explicit assignment, then the
// subject of an obligation, then the speaker of the line.
func findAssignee(sentence, speaker string) string {
	if m := mentionRe.FindStringSubmatch(sentence); m != nil {
		return title(m[1])
	}
	if name := firstName(assignRe, sentence); name != "" {
		return name
	}
	if name := firstName(subjectRe, sentence); name != "" {
		return name
	}
	if speaker != "" && !notNames[lower(speaker)] {
		return speaker
	}
	return items.GeneralAssignee
}

// firstName returns the first capture of re that still names someone once
// stop words and imperative verbs are dropped from it.
func firstName(re *regexp.Regexp, s string) string {
	for _, m := range re.FindAllStringSubmatch(s, -1) {
		var kept []string
		for _, part := range strings.Fields(m[1]) {
			if notNames[lower(part)] || isImperative(part) {
				continue
			}
			kept = append(kept, part)
		}
		if len(kept) > 0 {
			return strings.Join(kept, " ")
		}
	}
	return ""
}

func isImperative(word string) bool {
	return imperatives[lower(word)]
}
