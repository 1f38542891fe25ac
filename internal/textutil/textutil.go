// Package textutil shapes scraped job text for display: date strings,
// description previews and the lowerCamel keys of the JSON API.
package textutil

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

var (
	reCompactDate = regexp.MustCompile(`^(\d{4})(\d{2})(\d{2})$`)
	reDashedDate  = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

	reLeadingStamp  = regexp.MustCompile(`^\s*\W*\d{8}\s*\n?`)
	reRelativeAge   = regexp.MustCompile(`(?i)^\s*\d+\s*(minutes?|hours?|days?|weeks?)\s+ago\s+[^\w\s]\s*`)
	reDetailsHeader = regexp.MustCompile(`(?i)^\s*Details\s*\n+`)

	reWord     = regexp.MustCompile(`[\p{L}\p{N}_]+`)
	reCamelCut = regexp.MustCompile(`[^A-Za-z0-9]+`)
)

// FormatJobDate renders source date strings as YYYY.MM.DD. Both the
// compact 20250825 and dashed 2025-08-25 forms are recognized; anything
// else passes through trimmed.
func FormatJobDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if m := reCompactDate.FindStringSubmatch(s); m != nil {
		return m[1] + "." + m[2] + "." + m[3]
	}
	if m := reDashedDate.FindStringSubmatch(s); m != nil {
		return m[1] + "." + m[2] + "." + m[3]
	}
	return s
}

// CleanDescription strips the scraper artifacts that lead many raw
// descriptions: an 8-digit date stamp, a "3 hours ago -" prefix, a
// standalone Details header line.
func CleanDescription(text string) string {
	if text == "" {
		return ""
	}
	t := reLeadingStamp.ReplaceAllString(text, "")
	t = reRelativeAge.ReplaceAllString(t, "")
	t = reDetailsHeader.ReplaceAllString(t, "")
	return strings.TrimSpace(t)
}

// Preview cleans a raw description and reduces it to its two most
// representative sentences.
func Preview(text string) string {
	return SummarizeTwoSentences(CleanDescription(text))
}

// SummarizeTwoSentences picks the two sentences whose words occur most
// often across the whole text, stopwords excluded, and returns them in
// their original order. Texts of fewer than two sentences come back
// unchanged.
func SummarizeTwoSentences(text string) string {
	s := strings.TrimSpace(text)
	if s == "" {
		return ""
	}
	sentences := splitSentences(s)
	if len(sentences) < 2 {
		return s
	}

	freqs := make(map[string]int)
	for _, w := range reWord.FindAllString(strings.ToLower(s), -1) {
		if !stopwords[w] {
			freqs[w]++
		}
	}

	type scored struct {
		text  string
		score float64
		index int
	}
	var ranked []scored
	seen := make(map[string]bool)
	for i, sent := range sentences {
		if seen[sent] {
			continue
		}
		seen[sent] = true
		tokens := reWord.FindAllString(strings.ToLower(sent), -1)
		if len(tokens) == 0 {
			continue
		}
		sum := 0
		for _, w := range tokens {
			if !stopwords[w] {
				sum += freqs[w]
			}
		}
		ranked = append(ranked, scored{text: sent, score: float64(sum) / float64(len(tokens)), index: i})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].index < ranked[j].index
	})
	if len(ranked) > 2 {
		ranked = ranked[:2]
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].index < ranked[j].index })

	parts := make([]string, len(ranked))
	for i, r := range ranked {
		parts[i] = r.text
	}
	return strings.Join(parts, " ")
}

// splitSentences cuts at whitespace runs that follow ., ! or ?.
func splitSentences(s string) []string {
	runes := []rune(s)
	var out []string
	start := 0
	i := 0
	for i < len(runes) {
		r := runes[i]
		if (r == '.' || r == '!' || r == '?') && i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			out = append(out, string(runes[start:i+1]))
			j := i + 1
			for j < len(runes) && unicode.IsSpace(runes[j]) {
				j++
			}
			start = j
			i = j
			continue
		}
		i++
	}
	if start < len(runes) {
		out = append(out, string(runes[start:]))
	}
	return out
}

// LowerCamel rewrites identifier-ish strings as lowerCamel for JSON
// payloads: "job_title" -> "jobTitle", "Salary Min" -> "salaryMin".
// Strings with no alphanumeric content pass through.
func LowerCamel(s string) string {
	parts := reCamelCut.Split(s, -1)
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return s
	}
	var b strings.Builder
	b.WriteString(strings.ToLower(kept[0]))
	for _, p := range kept[1:] {
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(strings.ToLower(p[1:]))
	}
	return b.String()
}

// Stopwords shared by the summarizer, English plus a minimal ES/FR set.
var stopwords = buildStopwords()

func buildStopwords() map[string]bool {
	words := []string{
		"a", "about", "above", "after", "again", "against", "all", "am", "an", "and", "any", "are", "as", "at",
		"be", "because", "been", "before", "being", "below", "between", "both", "but", "by", "can", "could",
		"did", "do", "does", "doing", "down", "during", "each", "few", "for", "from", "further", "had", "has",
		"have", "having", "he", "her", "here", "hers", "herself", "him", "himself", "his", "how", "i", "if", "in",
		"into", "is", "it", "its", "itself", "me", "more", "most", "my", "myself", "no", "nor", "not", "of", "off",
		"on", "once", "only", "or", "other", "our", "ours", "ourselves", "out", "over", "own", "same", "she", "should",
		"so", "some", "such", "than", "that", "the", "their", "theirs", "them", "themselves", "then", "there", "these",
		"they", "this", "those", "through", "to", "too", "under", "until", "up", "very", "was", "we", "were", "what",
		"when", "where", "which", "while", "who", "whom", "why", "with", "you", "your", "yours", "yourself", "yourselves",
		"de", "la", "el", "en", "y", "los", "las", "que", "es", "un", "una", "con", "por", "para", "le", "et", "à",
		"les", "des", "est", "pour", "dans",
	}
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
