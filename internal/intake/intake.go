// Package intake turns local files into RawInput for the pipeline. It owns
// the filesystem boundary so the parsers never touch disk: channel inference
// from the filename, CSV extraction, and content fingerprinting happen here.
package intake

import (
	"bytes"
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"salesmerge/internal/parser"
	"salesmerge/pkg/canonical"
)

// Fingerprint hashes raw content. Renamed-but-identical files keep their
// fingerprint; same-named files with new content get a new one.
func Fingerprint(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ChannelFromName infers the channel tag from a file name, the way the
// upload flow labels exports.
func ChannelFromName(name string) (canonical.Channel, error) {
	lower := strings.ToLower(name)
	for _, c := range canonical.Channels() {
		if strings.Contains(lower, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("cannot infer channel from file name %q", name)
}

// FromFile builds one RawInput from a local file. CSV files become a single
// sheet named after the file; JSON files become feed pages.
func FromFile(path string, receivedAt time.Time) (parser.RawInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return parser.RawInput{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	name := filepath.Base(path)
	channel, err := ChannelFromName(name)
	if err != nil {
		return parser.RawInput{}, err
	}
	return FromBytes(channel, name, data, receivedAt)
}

// FromBytes builds one RawInput from already-loaded content.
func FromBytes(channel canonical.Channel, name string, data []byte, receivedAt time.Time) (parser.RawInput, error) {
	in := parser.RawInput{
		Channel:     channel,
		Name:        name,
		Fingerprint: Fingerprint(data),
		ReceivedAt:  receivedAt,
	}

	if channel == canonical.Shopify {
		pages, err := splitPages(data)
		if err != nil {
			return parser.RawInput{}, fmt.Errorf("feed file %s: %w", name, err)
		}
		in.Pages = pages
		return in, nil
	}

	rows, err := readCSV(data)
	if err != nil {
		return parser.RawInput{}, fmt.Errorf("spreadsheet file %s: %w", name, err)
	}
	in.Sheets = []parser.Sheet{{Name: name, Rows: rows}}
	return in, nil
}

// LoadDir collects every .csv and .json input under dir, sorted by name so
// batches are deterministic.
func LoadDir(dir string, receivedAt time.Time) ([]parser.RawInput, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input dir %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".csv", ".json":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	inputs := make([]parser.RawInput, 0, len(names))
	for _, n := range names {
		in, err := FromFile(filepath.Join(dir, n), receivedAt)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, in)
	}
	return inputs, nil
}

// splitPages accepts either one feed page object or a JSON array of pages
// (the format the fetch command dumps).
func splitPages(data []byte) ([][]byte, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty feed payload")
	}
	if trimmed[0] != '[' {
		return [][]byte{trimmed}, nil
	}
	var pages []json.RawMessage
	if err := json.Unmarshal(trimmed, &pages); err != nil {
		return nil, fmt.Errorf("bad feed page array: %w", err)
	}
	out := make([][]byte, len(pages))
	for i, p := range pages {
		out[i] = []byte(p)
	}
	return out, nil
}

func readCSV(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1 // vendor exports pad rows unevenly
	r.LazyQuotes = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("bad csv: %w", err)
	}
	return rows, nil
}
