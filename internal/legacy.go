package internal

import (
	"path/filepath"
	"time"
)

const (
	// created_at layouts of the two schema generations
	legacyDateLayout = "2006-01-02 15:04:05 -0700"
	modernDateLayout = "Mon Jan 02 15:04:05 -0700 2006"
)

// convertLegacyDate reformats a legacy created_at string into the modern
// layout. Unparsable strings pass through unchanged.
func convertLegacyDate(createdAt string) string {
	t, err := time.Parse(legacyDateLayout, createdAt)
	if err != nil {
		return createdAt
	}
	return t.Format(modernDateLayout)
}

// ConvertLegacyTweet converts one legacy-shaped tweet into the modern
// wrapper shape consumed by current viewers
func ConvertLegacyTweet(old Record) Record {
	tweet := Record{
		"id_str":         numberString(old, "id_str", numberString(old, "id", "")),
		"id":             numberString(old, "id", ""),
		"full_text":      stringValue(old, "text"),
		"created_at":     convertLegacyDate(stringValue(old, "created_at")),
		"source":         stringValue(old, "source"),
		"favorite_count": numberString(old, "favorite_count", "0"),
		"retweet_count":  numberString(old, "retweet_count", "0"),
	}

	if entities := mapValue(old, "entities"); entities != nil {
		tweet["entities"] = entities
	} else {
		tweet["entities"] = Record{}
	}

	// Reply linkage is copied only when present; absent fields must not
	// appear as empty strings on the converted tweet
	if v := numberString(old, "in_reply_to_status_id_str", ""); v != "" {
		tweet["in_reply_to_status_id_str"] = v
		tweet["in_reply_to_status_id"] = numberString(old, "in_reply_to_status_id", "")
	}
	if v := numberString(old, "in_reply_to_user_id_str", ""); v != "" {
		tweet["in_reply_to_user_id_str"] = v
		tweet["in_reply_to_user_id"] = numberString(old, "in_reply_to_user_id", "")
	}
	if v := stringValue(old, "in_reply_to_screen_name"); v != "" {
		tweet["in_reply_to_screen_name"] = v
	}

	// A nested retweeted_status only flags the tweet; its content is not
	// unwrapped
	if mapValue(old, "retweeted_status") != nil {
		tweet["retweeted"] = true
	}

	return Record{"tweet": tweet}
}

// LoadLegacyTweets reads every per-month file named by the tweet index and
// converts its tweets to the modern shape. Missing or malformed month files
// reduce the count; they do not abort the load.
func LoadLegacyTweets(root string, index []TweetIndexEntry) []Record {
	var all []Record

	for _, entry := range index {
		path := filepath.Join(root, filepath.FromSlash(entry.FileName))
		records, err := loadRecordsFile(path, grailbirdPattern)
		if err != nil {
			LogWarn("skipping legacy month file: %v", err)
			continue
		}
		for _, old := range records {
			all = append(all, ConvertLegacyTweet(old))
		}
	}

	return all
}
