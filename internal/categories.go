package internal

// Static lookup tables reconciling the two export schema generations. The
// normalizer logic consults these; the data never changes at runtime.

// categoryAliases maps schema-specific category names to their canonical
// form. Canonicalization is idempotent: canonical names are absent as keys.
var categoryAliases = map[string]string{
	"tweet":       "tweets",
	"tweetHeader": "tweetHeaders",
}

// mediaDirAliases maps legacy media directory names to their canonical
// form. Unmapped directories pass through unchanged.
var mediaDirAliases = map[string]string{
	"data/tweet_media": "data/tweets_media",
}

// fileNameOverrides holds output file names for categories whose multi-word
// names do not follow the plain underscore-to-hyphen rule
var fileNameOverrides = map[string]string{
	"directMessages":      "direct-messages.js",
	"directMessagesGroup": "direct-messages-group.js",
	"emailAddressChange":  "email-address-change.js",
	"screenNameChange":    "screen-name-change.js",
	"deletedTweets":       "deleted-tweets.js",
	"tweetHeaders":        "tweet-headers.js",
}

// singletonCategories represent current-state account facts, not historical
// ledgers. Merging keeps only the entry from the newest archive.
var singletonCategories = map[string]bool{
	"profile":           true,
	"account":           true,
	"ageinfo":           true,
	"accountTimezone":   true,
	"accountCreationIp": true,
}

// dedupKeys maps a category to its identity-key extractor. Categories
// without an extractor and outside the singleton set merge with no
// duplicate removal at all.
var dedupKeys = map[string]func(Record) string{
	"tweets": func(r Record) string {
		return stringValue(mapValue(r, "tweet"), "id_str")
	},
	"like": func(r Record) string {
		return stringValue(mapValue(r, "like"), "tweetId")
	},
	"follower": func(r Record) string {
		return stringValue(mapValue(r, "follower"), "accountId")
	},
	"following": func(r Record) string {
		return stringValue(mapValue(r, "following"), "accountId")
	},
	"directMessages": func(r Record) string {
		return stringValue(mapValue(r, "dmConversation"), "conversationId")
	},
	"directMessagesGroup": func(r Record) string {
		return stringValue(mapValue(r, "dmConversation"), "conversationId")
	},
}

// CanonicalCategory resolves a schema-specific category name to its
// canonical name
func CanonicalCategory(name string) string {
	if canonical, ok := categoryAliases[name]; ok {
		return canonical
	}
	return name
}

// sourceNamesFor returns every name under which a category may appear in an
// archive's declarations: the canonical name plus any aliases. An archive
// should never declare both, but when one does, both contributions are read.
func sourceNamesFor(canonical string) []string {
	names := []string{canonical}
	for alias, target := range categoryAliases {
		if target == canonical {
			names = append(names, alias)
		}
	}
	return names
}

// NormalizeMediaDir resolves a declared media directory to its canonical
// output directory name
func NormalizeMediaDir(dir string) string {
	if normalized, ok := mediaDirAliases[dir]; ok {
		return normalized
	}
	return dir
}

// IsSingletonCategory reports whether a category keeps only its newest entry
func IsSingletonCategory(name string) bool {
	return singletonCategories[name]
}

// DedupKeyFunc returns the identity-key extractor for a category, or nil
// when the category has none
func DedupKeyFunc(category string) func(Record) string {
	return dedupKeys[category]
}
