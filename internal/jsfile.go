package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// Archive data lives in JavaScript files that assign a JSON literal to a
// fixed global. The payload is recovered by matching the assignment prefix
// and decoding the remainder as JSON.
var (
	manifestPattern    = regexp.MustCompile(`(?s)window\.__THAR_CONFIG\s*=\s*(\{.*\});?`)
	dataPattern        = regexp.MustCompile(`(?s)window\.YTD\.[^=]+=\s*(\[.*\]);?`)
	tweetIndexPattern  = regexp.MustCompile(`(?s)var\s+tweet_index\s*=\s*(\[.*\])`)
	userDetailsPattern = regexp.MustCompile(`(?s)var\s+user_details\s*=\s*(\{.*\})`)
	grailbirdPattern   = regexp.MustCompile(`(?s)Grailbird\.data\.[^=]+=\s*(\[.*\])`)
)

// extractPayload returns the JSON literal captured by pattern
func extractPayload(content []byte, pattern *regexp.Regexp) ([]byte, error) {
	m := pattern.FindSubmatch(content)
	if m == nil {
		return nil, fmt.Errorf("no %s assignment found", pattern.String())
	}
	return m[1], nil
}

// decodeRecords decodes a JSON array payload into records. Numbers are kept
// as json.Number so 64-bit tweet and account ids survive intact.
func decodeRecords(payload []byte) ([]Record, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.UseNumber()

	var records []Record
	if err := dec.Decode(&records); err != nil {
		return nil, err
	}
	return records, nil
}

// loadRecordsFile reads one data file and decodes its record array. A
// missing file yields no records and no error; a malformed file yields a
// DataFileError that callers absorb as an empty contribution.
func loadRecordsFile(path string, pattern *regexp.Regexp) ([]Record, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, &DataFileError{Path: path, Op: "read", Err: err}
	}

	payload, err := extractPayload(content, pattern)
	if err != nil {
		return nil, &DataFileError{Path: path, Op: "parse", Err: err}
	}

	records, err := decodeRecords(payload)
	if err != nil {
		return nil, &DataFileError{Path: path, Op: "parse", Err: err}
	}
	return records, nil
}

// LoadDataFile loads a modern per-category data file (window.YTD.* = [...]).
// Soft failures are logged and produce an empty record list.
func LoadDataFile(path string) []Record {
	records, err := loadRecordsFile(path, dataPattern)
	if err != nil {
		LogWarn("skipping unreadable data file: %v", err)
		return nil
	}
	return records
}

// encodeAssignment renders "window.<globalName> = <pretty JSON>;" without
// escaping HTML characters, matching what archive viewers expect
func encodeAssignment(globalName string, value interface{}) ([]byte, error) {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "window.%s = ", globalName)

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(value); err != nil {
		return nil, err
	}

	// Encoder appends a newline; the assignment ends with a bare semicolon
	b := bytes.TrimRight(buf.Bytes(), "\n")
	return append(b, ';'), nil
}

// WriteAssignment writes a data or manifest file in assignment form
func WriteAssignment(path, globalName string, value interface{}) error {
	data, err := encodeAssignment(globalName, value)
	if err != nil {
		return &WriteError{Path: path, Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
