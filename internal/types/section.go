package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// SectionKey addresses one optimizable unit of the CV: a free-text section
// ("summary", "skills", ...) or a single experience entry ("experience_<i>").
type SectionKey string

// Free-text section keys, in display order.
const (
	SectionSummary      SectionKey = "summary"
	SectionSkills       SectionKey = "skills"
	SectionEducation    SectionKey = "education"
	SectionLanguages    SectionKey = "languages"
	SectionAchievements SectionKey = "achievements"
	SectionDevelopment  SectionKey = "development"
	SectionMemberships  SectionKey = "memberships"
)

// TextSectionKeys lists every free-text section key.
var TextSectionKeys = []SectionKey{
	SectionSummary,
	SectionSkills,
	SectionEducation,
	SectionLanguages,
	SectionAchievements,
	SectionDevelopment,
	SectionMemberships,
}

const experiencePrefix = "experience_"

// ExperienceKey builds the key addressing the experience entry at index i.
func ExperienceKey(i int) SectionKey {
	return SectionKey(experiencePrefix + strconv.Itoa(i))
}

// ExperienceIndex reports whether k addresses an experience entry and, if so,
// which index. The index is positional: callers must re-resolve it whenever
// the experience slice changes shape.
func (k SectionKey) ExperienceIndex() (int, bool) {
	rest, ok := strings.CutPrefix(string(k), experiencePrefix)
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(rest)
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

// Valid reports whether k names a known text section or an experience entry.
func (k SectionKey) Valid() bool {
	if _, ok := k.ExperienceIndex(); ok {
		return true
	}
	for _, t := range TextSectionKeys {
		if k == t {
			return true
		}
	}
	return false
}

// SectionContent is the tagged union of the two section shapes: free text or
// a list of positions. Exactly one alternative is set; dispatch is by the
// section key, never by runtime type inspection of raw data.
type SectionContent struct {
	Text      string
	Positions []Position
	kind      contentKind
}

type contentKind int

const (
	kindText contentKind = iota
	kindExperience
)

// TextContent wraps a free-text section value.
func TextContent(s string) SectionContent {
	return SectionContent{Text: s, kind: kindText}
}

// ExperienceContent wraps a position-list section value.
func ExperienceContent(ps []Position) SectionContent {
	return SectionContent{Positions: ps, kind: kindExperience}
}

// IsExperience reports whether the content holds positions rather than text.
func (c SectionContent) IsExperience() bool { return c.kind == kindExperience }

// MarshalJSON encodes text content as a JSON string and experience content as
// a JSON array of positions, matching the wire shape of the section routes.
func (c SectionContent) MarshalJSON() ([]byte, error) {
	if c.IsExperience() {
		return json.Marshal(c.Positions)
	}
	return json.Marshal(c.Text)
}

// UnmarshalJSON accepts either shape and tags the union accordingly.
func (c *SectionContent) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var ps []Position
		if err := json.Unmarshal(trimmed, &ps); err != nil {
			return err
		}
		*c = ExperienceContent(ps)
		return nil
	}
	var s string
	if err := json.Unmarshal(trimmed, &s); err != nil {
		return err
	}
	*c = TextContent(s)
	return nil
}

// SectionContentOf extracts the content addressed by key from the CV.
// Experience keys yield a single-element position list.
func SectionContentOf(cv CVDocument, key SectionKey) (SectionContent, error) {
	if i, ok := key.ExperienceIndex(); ok {
		if i >= len(cv.Experience) {
			return SectionContent{}, fmt.Errorf("experience index %d out of range (have %d positions)", i, len(cv.Experience))
		}
		return ExperienceContent([]Position{cv.Experience[i]}), nil
	}
	switch key {
	case SectionSummary:
		return TextContent(cv.Summary), nil
	case SectionSkills:
		return TextContent(cv.Skills), nil
	case SectionEducation:
		return TextContent(cv.Education), nil
	case SectionLanguages:
		return TextContent(cv.Languages), nil
	case SectionAchievements:
		return TextContent(cv.Achievements), nil
	case SectionDevelopment:
		return TextContent(cv.Development), nil
	case SectionMemberships:
		return TextContent(cv.Memberships), nil
	}
	return SectionContent{}, fmt.Errorf("unknown section key: %s", key)
}

// ApplySectionContent returns a copy of cv with the section addressed by key
// replaced by content. The experience slice keeps its length and order; only
// the addressed index changes.
func ApplySectionContent(cv CVDocument, key SectionKey, content SectionContent) (CVDocument, error) {
	if i, ok := key.ExperienceIndex(); ok {
		if !content.IsExperience() || len(content.Positions) != 1 {
			return cv, fmt.Errorf("section %s requires exactly one position", key)
		}
		if i >= len(cv.Experience) {
			return cv, fmt.Errorf("experience index %d out of range (have %d positions)", i, len(cv.Experience))
		}
		updated := make([]Position, len(cv.Experience))
		copy(updated, cv.Experience)
		updated[i] = content.Positions[0]
		cv.Experience = updated
		return cv, nil
	}
	if content.IsExperience() {
		return cv, fmt.Errorf("section %s takes free text, not positions", key)
	}
	switch key {
	case SectionSummary:
		cv.Summary = content.Text
	case SectionSkills:
		cv.Skills = content.Text
	case SectionEducation:
		cv.Education = content.Text
	case SectionLanguages:
		cv.Languages = content.Text
	case SectionAchievements:
		cv.Achievements = content.Text
	case SectionDevelopment:
		cv.Development = content.Text
	case SectionMemberships:
		cv.Memberships = content.Text
	default:
		return cv, fmt.Errorf("unknown section key: %s", key)
	}
	return cv, nil
}

// SectionKeysFor returns every addressable section key for cv: the text
// sections followed by one key per experience entry.
func SectionKeysFor(cv CVDocument) []SectionKey {
	keys := make([]SectionKey, 0, len(TextSectionKeys)+len(cv.Experience))
	keys = append(keys, TextSectionKeys...)
	for i := range cv.Experience {
		keys = append(keys, ExperienceKey(i))
	}
	return keys
}
