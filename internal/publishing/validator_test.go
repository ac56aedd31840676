package publishing

import (
	"strings"
	"testing"

	"github.com/newsflowhq/newsflow-api/internal/models"
	"github.com/stretchr/testify/require"
)

func TestValidateContentLimits(t *testing.T) {
	v := ValidateContent(models.PlatformTwitter, strings.Repeat("a", 280), 0)
	require.True(t, v.IsValid)

	v = ValidateContent(models.PlatformTwitter, strings.Repeat("a", 281), 0)
	require.False(t, v.IsValid)
	require.Len(t, v.Errors, 1)

	v = ValidateContent(models.PlatformThreads, strings.Repeat("a", 500), 0)
	require.True(t, v.IsValid)

	v = ValidateContent(models.PlatformLinkedin, strings.Repeat("a", 3001), 0)
	require.False(t, v.IsValid)
}

func TestValidateContentCountsRunes(t *testing.T) {
	// 280 multibyte runes are exactly at the limit.
	v := ValidateContent(models.PlatformTwitter, strings.Repeat("é", 280), 0)
	require.True(t, v.IsValid)
}

func TestValidateContentEmpty(t *testing.T) {
	v := ValidateContent(models.PlatformTwitter, "   ", 0)
	require.False(t, v.IsValid)
	require.Contains(t, v.Errors[0], "empty")
}

func TestValidateContentNearLimitWarns(t *testing.T) {
	v := ValidateContent(models.PlatformTwitter, strings.Repeat("a", 260), 0)
	require.True(t, v.IsValid)
	require.Len(t, v.Warnings, 1)
}

func TestValidateContentRejectsHTML(t *testing.T) {
	v := ValidateContent(models.PlatformTwitter, "hello <b>world</b>", 0)
	require.False(t, v.IsValid)
	require.Contains(t, v.Errors[0], "HTML")
}

func TestValidateContentInstagramNeedsMedia(t *testing.T) {
	v := ValidateContent(models.PlatformInstagram, "caption", 0)
	require.False(t, v.IsValid)

	v = ValidateContent(models.PlatformInstagram, "caption", 1)
	require.True(t, v.IsValid)

	// Caption may be empty when media is attached.
	v = ValidateContent(models.PlatformInstagram, "", 2)
	require.True(t, v.IsValid)
}

func TestValidateContentUnknownPlatform(t *testing.T) {
	v := ValidateContent("myspace", "hello", 0)
	require.False(t, v.IsValid)
}
