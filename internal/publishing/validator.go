package publishing

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/newsflowhq/newsflow-api/internal/models"
)

// Per-platform content ceilings, counted in runes the way the platforms
// count them.
const (
	TwitterMaxRunes   = 280
	ThreadsMaxRunes   = 500
	LinkedinMaxRunes  = 3000
	InstagramMaxRunes = 2200
)

// ContentValidation is the ephemeral result of checking one platform's
// rendered content. It is computed at dispatch time and never persisted.
type ContentValidation struct {
	Platform string   `json:"platform"`
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

var htmlTagPattern = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

func MaxRunesFor(platform string) int {
	switch platform {
	case models.PlatformTwitter:
		return TwitterMaxRunes
	case models.PlatformThreads:
		return ThreadsMaxRunes
	case models.PlatformLinkedin:
		return LinkedinMaxRunes
	case models.PlatformInstagram:
		return InstagramMaxRunes
	default:
		return 0
	}
}

// ValidateContent checks one platform's content against its rules. It never
// fails with an error; callers decide whether a result blocks dispatch.
func ValidateContent(platform, content string, mediaCount int) *ContentValidation {
	v := &ContentValidation{Platform: platform}

	max := MaxRunesFor(platform)
	if max == 0 {
		v.Errors = append(v.Errors, fmt.Sprintf("unknown platform %q", platform))
		return v
	}

	trimmed := strings.TrimSpace(content)
	length := utf8.RuneCountInString(content)

	switch platform {
	case models.PlatformInstagram:
		// Image-only platform: the caption may be empty but media may not.
		if mediaCount == 0 {
			v.Errors = append(v.Errors, "instagram requires at least one image")
		}
	default:
		if trimmed == "" {
			v.Errors = append(v.Errors, "content is empty")
		}
	}

	if length > max {
		v.Errors = append(v.Errors, fmt.Sprintf("content is %d characters, limit is %d", length, max))
	} else if length > max*9/10 && trimmed != "" {
		v.Warnings = append(v.Warnings, fmt.Sprintf("content is within 10%% of the %d character limit", max))
	}

	if htmlTagPattern.MatchString(content) {
		v.Errors = append(v.Errors, "content contains HTML markup")
	}

	v.IsValid = len(v.Errors) == 0
	return v
}
