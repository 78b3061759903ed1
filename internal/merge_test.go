package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/lecram2025/twitter-archive-combiner/testutil"
)

func makeTweets(start, n int) []map[string]interface{} {
	tweets := make([]map[string]interface{}, 0, n)
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("%d", start+i)
		tweets = append(tweets, testutil.TweetWrapper(id, "tweet "+id))
	}
	return tweets
}

func makeLikes(start, n int) []map[string]interface{} {
	likes := make([]map[string]interface{}, 0, n)
	for i := 0; i < n; i++ {
		likes = append(likes, testutil.LikeRecord(fmt.Sprintf("%d", start+i)))
	}
	return likes
}

func runMerge(t *testing.T, out string, roots ...string) *MergeSession {
	t.Helper()
	session := NewMergeSession(out, nil)
	for _, root := range roots {
		if _, err := session.AddArchive(root); err != nil {
			t.Fatalf("AddArchive(%s) error: %v", root, err)
		}
	}
	if err := session.Run(); err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	return session
}

func TestMergeFirstSeenWins(t *testing.T) {
	base := testutil.CreateTempDir(t)
	older := filepath.Join(base, "older")
	newer := filepath.Join(base, "newer")
	out := filepath.Join(base, "out")

	shared := testutil.TweetWrapper("100", "original text")
	replacement := testutil.TweetWrapper("100", "rewritten text")

	testutil.WriteModernArchive(t, older, testutil.ModernArchiveSpec{
		UserName:       "alice",
		GenerationDate: "2022-01-01T00:00:00.000Z",
		Categories: map[string][]map[string]interface{}{
			"tweets": {shared},
		},
	})
	testutil.WriteModernArchive(t, newer, testutil.ModernArchiveSpec{
		UserName:       "alice",
		GenerationDate: "2023-06-01T00:00:00.000Z",
		Categories: map[string][]map[string]interface{}{
			"tweets": {replacement, testutil.TweetWrapper("200", "newer only")},
		},
	})

	// Registration order should not matter; chronological order does
	session := runMerge(t, out, newer, older)

	if got := session.CategoryCount("tweets"); got != 2 {
		t.Fatalf("tweets count = %d, want 2", got)
	}

	tweets := LoadDataFile(filepath.Join(out, "data", "tweets.js"))
	if len(tweets) != 2 {
		t.Fatalf("output tweets.js has %d records, want 2", len(tweets))
	}
	first := mapValue(tweets[0], "tweet")
	if got := stringValue(first, "full_text"); got != "original text" {
		t.Errorf("duplicate key kept %q, want the older archive's record", got)
	}
}

func TestMergeSingletonKeepsNewest(t *testing.T) {
	base := testutil.CreateTempDir(t)
	older := filepath.Join(base, "older")
	newer := filepath.Join(base, "newer")
	out := filepath.Join(base, "out")

	testutil.WriteModernArchive(t, older, testutil.ModernArchiveSpec{
		UserName:       "alice",
		GenerationDate: "2022-01-01T00:00:00.000Z",
		Categories: map[string][]map[string]interface{}{
			"profile": {{"profile": map[string]interface{}{"description": map[string]interface{}{"bio": "old bio"}}}},
		},
	})
	testutil.WriteModernArchive(t, newer, testutil.ModernArchiveSpec{
		UserName:       "alice",
		GenerationDate: "2023-06-01T00:00:00.000Z",
		Categories: map[string][]map[string]interface{}{
			"profile": {{"profile": map[string]interface{}{"description": map[string]interface{}{"bio": "new bio"}}}},
		},
	})

	session := runMerge(t, out, older, newer)

	if got := session.CategoryCount("profile"); got != 1 {
		t.Fatalf("profile count = %d, want 1", got)
	}
	records := LoadDataFile(filepath.Join(out, "data", "profile.js"))
	profile := mapValue(records[0], "profile")
	description := mapValue(profile, "description")
	if got := stringValue(description, "bio"); got != "new bio" {
		t.Errorf("singleton kept %q, want the newest archive's entry", got)
	}
}

func TestMergeEmptyKeyAlwaysRetained(t *testing.T) {
	base := testutil.CreateTempDir(t)
	a := filepath.Join(base, "a")
	b := filepath.Join(base, "b")
	out := filepath.Join(base, "out")

	// Structurally identical records with no extractable key
	keyless := map[string]interface{}{"tweet": map[string]interface{}{"full_text": "no id here"}}

	testutil.WriteModernArchive(t, a, testutil.ModernArchiveSpec{
		UserName:       "alice",
		GenerationDate: "2022-01-01T00:00:00.000Z",
		Categories:     map[string][]map[string]interface{}{"tweets": {keyless}},
	})
	testutil.WriteModernArchive(t, b, testutil.ModernArchiveSpec{
		UserName:       "alice",
		GenerationDate: "2023-01-01T00:00:00.000Z",
		Categories:     map[string][]map[string]interface{}{"tweets": {keyless}},
	})

	session := runMerge(t, out, a, b)
	if got := session.CategoryCount("tweets"); got != 2 {
		t.Errorf("keyless records deduplicated: count = %d, want 2", got)
	}
}

func TestMergePassthroughCategory(t *testing.T) {
	base := testutil.CreateTempDir(t)
	a := filepath.Join(base, "a")
	b := filepath.Join(base, "b")
	out := filepath.Join(base, "out")

	moment := map[string]interface{}{"moment": map[string]interface{}{"momentId": "m1"}}
	for i, root := range []string{a, b} {
		testutil.WriteModernArchive(t, root, testutil.ModernArchiveSpec{
			UserName:       "alice",
			GenerationDate: fmt.Sprintf("202%d-01-01T00:00:00.000Z", i+2),
			Categories:     map[string][]map[string]interface{}{"moment": {moment}},
		})
	}

	// No key extractor and not a singleton: duplicates pass through
	session := runMerge(t, out, a, b)
	if got := session.CategoryCount("moment"); got != 2 {
		t.Errorf("passthrough category count = %d, want 2", got)
	}
}

func TestMergeSameArchiveTwice(t *testing.T) {
	base := testutil.CreateTempDir(t)
	root := filepath.Join(base, "archive")
	out := filepath.Join(base, "out")

	testutil.WriteModernArchive(t, root, testutil.ModernArchiveSpec{
		UserName:       "alice",
		GenerationDate: "2023-01-01T00:00:00.000Z",
		Categories: map[string][]map[string]interface{}{
			"tweets": makeTweets(1, 10),
			"like":   makeLikes(1, 4),
			"moment": {{"moment": map[string]interface{}{"momentId": "m1"}}},
		},
	})

	session := runMerge(t, out, root, root)

	// Keyed categories collapse back to the single-archive count
	if got := session.CategoryCount("tweets"); got != 10 {
		t.Errorf("tweets count = %d, want 10", got)
	}
	if got := session.CategoryCount("like"); got != 4 {
		t.Errorf("like count = %d, want 4", got)
	}
	// Categories with no registered key double
	if got := session.CategoryCount("moment"); got != 2 {
		t.Errorf("moment count = %d, want 2", got)
	}
}

func TestMergeEndToEnd(t *testing.T) {
	base := testutil.CreateTempDir(t)
	archiveA := filepath.Join(base, "a")
	archiveB := filepath.Join(base, "b")
	out := filepath.Join(base, "out")

	// A (older): 100 tweets, 5 likes. B (newer): 120 tweets of which 90
	// overlap A, 8 likes of which 3 overlap A.
	testutil.WriteModernArchive(t, archiveA, testutil.ModernArchiveSpec{
		UserName:       "alice",
		DisplayName:    "Old Alice",
		AccountID:      "12345",
		GenerationDate: "2022-01-01T00:00:00.000Z",
		Categories: map[string][]map[string]interface{}{
			"tweets": makeTweets(1, 100),
			"like":   makeLikes(1, 5),
		},
	})
	testutil.WriteModernArchive(t, archiveB, testutil.ModernArchiveSpec{
		UserName:       "alice",
		DisplayName:    "New Alice",
		AccountID:      "12345",
		GenerationDate: "2023-06-01T00:00:00.000Z",
		Categories: map[string][]map[string]interface{}{
			"tweets": makeTweets(11, 120), // ids 11..130, 90 overlap with 1..100
			"like":   makeLikes(3, 8),     // ids 3..10, 3 overlap with 1..5
		},
	})

	session := runMerge(t, out, archiveA, archiveB)

	if got := session.CategoryCount("tweets"); got != 130 {
		t.Fatalf("tweets count = %d, want 130", got)
	}
	if got := session.CategoryCount("like"); got != 10 {
		t.Fatalf("like count = %d, want 10", got)
	}

	// The regenerated manifest must agree, carry the newest identity, and
	// include the legacy dual-write entry
	desc, err := LoadDescriptor(out)
	if err != nil {
		t.Fatalf("output archive unreadable: %v", err)
	}
	if desc.Manifest.UserInfo.DisplayName != "New Alice" {
		t.Errorf("manifest identity = %q, want the newest archive's", desc.Manifest.UserInfo.DisplayName)
	}
	if desc.Manifest.ArchiveInfo.IsPartialArchive {
		t.Error("merged manifest must not be flagged partial")
	}
	if desc.Manifest.ArchiveInfo.MaxPartSizeBytes != "53687091200" {
		t.Errorf("maxPartSizeBytes = %q", desc.Manifest.ArchiveInfo.MaxPartSizeBytes)
	}

	tweetsEntry := desc.Manifest.DataTypes["tweets"]
	if tweetsEntry == nil || len(tweetsEntry.Files) != 1 {
		t.Fatal("manifest missing tweets entry")
	}
	if tweetsEntry.Files[0].Count != "130" {
		t.Errorf("manifest tweets count = %q, want 130", tweetsEntry.Files[0].Count)
	}

	legacyEntry := desc.Manifest.DataTypes["tweet"]
	if legacyEntry == nil || len(legacyEntry.Files) != 1 {
		t.Fatal("manifest missing legacy tweet entry")
	}
	if legacyEntry.Files[0].FileName != "data/tweet.js" || legacyEntry.Files[0].Count != "130" {
		t.Errorf("legacy entry = %+v", legacyEntry.Files[0])
	}

	// Both data files exist with identical record counts
	for _, name := range []string{"tweets.js", "tweet.js"} {
		records := LoadDataFile(filepath.Join(out, "data", name))
		if len(records) != 130 {
			t.Errorf("%s has %d records, want 130", name, len(records))
		}
	}

	// Viewer shell copied verbatim
	if _, err := os.Stat(filepath.Join(out, "Your archive.html")); err != nil {
		t.Error("viewer shell not copied")
	}
}

func TestMergeLegacyAndModern(t *testing.T) {
	base := testutil.CreateTempDir(t)
	legacyRoot := filepath.Join(base, "legacy")
	modernRoot := filepath.Join(base, "modern")
	out := filepath.Join(base, "out")

	testutil.WriteLegacyArchive(t, legacyRoot, testutil.LegacyArchiveSpec{
		ScreenName: "alice",
		Months: []testutil.LegacyMonth{
			{Year: 2018, Month: 5, Tweets: []map[string]interface{}{
				{"id": 100, "id_str": "100", "text": "legacy era", "created_at": "2018-05-23 18:45:05 +0000"},
				{"id": 101, "id_str": "101", "text": "another", "created_at": "2018-05-24 09:00:00 +0000"},
			}},
		},
	})
	testutil.WriteModernArchive(t, modernRoot, testutil.ModernArchiveSpec{
		UserName:       "alice",
		DisplayName:    "Alice",
		GenerationDate: "2023-06-01T00:00:00.000Z",
		Categories: map[string][]map[string]interface{}{
			// id 100 also present in the legacy archive
			"tweets": {testutil.TweetWrapper("100", "modern duplicate"), testutil.TweetWrapper("500", "modern only")},
			"like":   makeLikes(1, 2),
		},
	})

	session := runMerge(t, out, modernRoot, legacyRoot)

	// 2 legacy + 2 modern - 1 duplicate
	if got := session.CategoryCount("tweets"); got != 3 {
		t.Fatalf("tweets count = %d, want 3", got)
	}
	if got := session.CategoryCount("like"); got != 2 {
		t.Errorf("like count = %d, want 2", got)
	}

	// Legacy archive is older, so its version of the duplicate wins
	tweets := LoadDataFile(filepath.Join(out, "data", "tweets.js"))
	var dupText string
	for _, wrapper := range tweets {
		tweet := mapValue(wrapper, "tweet")
		if stringValue(tweet, "id_str") == "100" {
			dupText = stringValue(tweet, "full_text")
		}
		// Converted tweets are normalized like any others
		if mapValue(tweet, "edit_info") == nil {
			t.Error("output tweet missing edit_info after normalization")
		}
	}
	if dupText != "legacy era" {
		t.Errorf("duplicate id 100 kept %q, want the legacy record", dupText)
	}
}

func TestMergeDoubleDeclaredCategory(t *testing.T) {
	base := testutil.CreateTempDir(t)
	root := filepath.Join(base, "archive")
	out := filepath.Join(base, "out")

	// An archive should never declare "tweet" and "tweets" side by side,
	// but when one does, both contributions are read
	testutil.WriteModernArchive(t, root, testutil.ModernArchiveSpec{
		UserName:       "alice",
		GenerationDate: "2023-01-01T00:00:00.000Z",
		Categories: map[string][]map[string]interface{}{
			"tweets": {testutil.TweetWrapper("1", "canonical")},
			"tweet":  {testutil.TweetWrapper("2", "alias")},
		},
	})

	session := runMerge(t, out, root)
	if got := session.CategoryCount("tweets"); got != 2 {
		t.Errorf("tweets count = %d, want both declarations merged", got)
	}
	if got := session.CategoryCount("tweet"); got != 0 {
		t.Errorf("alias category written separately: count = %d", got)
	}
}

func TestMergeRunWithoutArchives(t *testing.T) {
	session := NewMergeSession(filepath.Join(testutil.CreateTempDir(t), "out"), nil)
	if err := session.Run(); err == nil {
		t.Error("Run() with no archives should fail")
	}
}

func TestAddArchiveRejectsUnrecognized(t *testing.T) {
	session := NewMergeSession(filepath.Join(testutil.CreateTempDir(t), "out"), nil)
	if _, err := session.AddArchive(testutil.CreateTempDir(t)); err == nil {
		t.Fatal("AddArchive() on an empty directory should fail")
	}
	if len(session.Archives()) != 0 {
		t.Error("rejected archive was registered")
	}
}
