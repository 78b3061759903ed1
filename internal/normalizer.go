package internal

import (
	"strconv"
	"unicode/utf8"
)

// NormalizeTweet backfills fields that older viewers require but newer
// exports (and legacy conversions) may omit. Fields already present are
// never overwritten, even when they look incomplete. Records without a
// nested tweet object pass through untouched.
func NormalizeTweet(wrapper Record) Record {
	tweet := mapValue(wrapper, "tweet")
	if tweet == nil {
		return wrapper
	}

	tweetID := stringValue(tweet, "id_str")
	if tweetID == "" {
		tweetID = numberString(tweet, "id", "0")
	}
	fullText := stringValue(tweet, "full_text")

	if _, ok := tweet["edit_info"]; !ok {
		// An already-expired, edit-ineligible stub keeps viewers that
		// expect edit history from failing
		tweet["edit_info"] = Record{
			"initial": Record{
				"editTweetIds":   []interface{}{tweetID},
				"editableUntil":  "1970-01-01T00:00:00.000Z",
				"isEditEligible": false,
			},
		}
	}

	if _, ok := tweet["display_text_range"]; !ok {
		// The range is measured in code points, not bytes
		tweet["display_text_range"] = []interface{}{"0", strconv.Itoa(utf8.RuneCountInString(fullText))}
	}

	for _, flag := range []string{"retweeted", "truncated", "possibly_sensitive", "favorited"} {
		if _, ok := tweet[flag]; !ok {
			tweet[flag] = false
		}
	}

	if _, ok := tweet["entities"]; !ok {
		tweet["entities"] = Record{
			"hashtags":      []interface{}{},
			"symbols":       []interface{}{},
			"user_mentions": []interface{}{},
			"urls":          []interface{}{},
		}
	}

	if _, ok := tweet["lang"]; !ok {
		tweet["lang"] = "en"
	}

	return wrapper
}
