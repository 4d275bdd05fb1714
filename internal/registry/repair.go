package registry

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/geraldfingburke/autopress/internal/atomicfile"
	"github.com/geraldfingburke/autopress/internal/models"
)

// loadWithRepair implements the self-repair chain from §4.B: a registry
// file that fails to parse cleanly is not fatal. Each step below is tried
// in order and the first one that produces valid JSON wins; if every step
// fails, the corrupt file is backed up and a fresh, empty registry is
// returned so the pipeline can keep running. The returned bool reports
// whether any repair step fired, so the caller can immediately re-persist
// the recovered document per §4.B ("any successful repair is immediately
// re-persisted") instead of leaving the corrupt bytes on disk until the
// next mutation.
func loadWithRepair(path string) (*models.Registry, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return models.NewRegistry(), false, nil
	}
	if err != nil {
		return nil, false, err
	}

	if doc, ok := tryParse(data); ok {
		return doc, false, nil
	}

	trimmed := []byte(strings.TrimSpace(string(data)))
	if doc, ok := tryParse(trimmed); ok {
		log.Warn().Str("path", path).Msg("registry required whitespace trim to parse")
		return doc, true, nil
	}

	if truncated, ok := truncateToBalancedBraces(trimmed); ok {
		if doc, ok := tryParse(truncated); ok {
			log.Warn().Str("path", path).Msg("registry truncated to last balanced object to parse")
			return doc, true, nil
		}
	}

	if extracted, ok := extractArticlesKey(trimmed); ok {
		if doc, ok := tryParse(extracted); ok {
			log.Warn().Str("path", path).Msg("registry repaired by re-extracting the articles key")
			return doc, true, nil
		}
	}

	backupPath, backupErr := atomicfile.BackupCorrupt(path)
	if backupErr != nil {
		log.Error().Err(backupErr).Str("path", path).Msg("failed to back up corrupt registry before reinitializing")
	} else {
		log.Error().Str("path", path).Str("backup", backupPath).Msg("registry unparsable after all repair attempts, reinitializing empty")
	}
	return models.NewRegistry(), true, nil
}

func tryParse(data []byte) (*models.Registry, bool) {
	var doc models.Registry
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, false
	}
	if doc.Articles == nil {
		doc.Articles = make(map[string]*models.ArticleMetadata)
	}
	return &doc, true
}

// truncateToBalancedBraces handles a document cut short mid-write (e.g. the
// process was killed after opening an object but before closing it): it
// walks the bytes tracking brace depth outside of string literals and
// truncates at the last point depth returned to zero.
func truncateToBalancedBraces(data []byte) ([]byte, bool) {
	depth := 0
	inString := false
	escaped := false
	lastBalanced := -1

	for i, b := range data {
		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}

		switch b {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}', ']':
			depth--
			if depth == 0 {
				lastBalanced = i
			}
		}
	}

	if lastBalanced <= 0 {
		return nil, false
	}
	return data[:lastBalanced+1], true
}

// extractArticlesKey is the last-resort repair: it locates the `"articles"`
// key and the matching closing brace of its object value, and rebuilds a
// minimal valid registry document around just that slice. This recovers
// cases where trailing bytes after the articles map were corrupted but the
// map itself is intact.
func extractArticlesKey(data []byte) ([]byte, bool) {
	idx := strings.Index(string(data), `"articles"`)
	if idx == -1 {
		return nil, false
	}

	rest := data[idx:]
	colon := strings.IndexByte(string(rest), ':')
	if colon == -1 {
		return nil, false
	}
	rest = rest[colon+1:]

	start := -1
	for i, b := range rest {
		if b == '{' {
			start = i
			break
		}
		if b != ' ' && b != '\t' && b != '\n' && b != '\r' {
			return nil, false
		}
	}
	if start == -1 {
		return nil, false
	}

	depth := 0
	inString := false
	escaped := false
	end := -1
	for i := start; i < len(rest); i++ {
		b := rest[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				end = i
			}
		}
		if end != -1 {
			break
		}
	}
	if end == -1 {
		return nil, false
	}

	rebuilt := append([]byte(`{"articles":`), rest[start:end+1]...)
	rebuilt = append(rebuilt, '}')
	return rebuilt, true
}
