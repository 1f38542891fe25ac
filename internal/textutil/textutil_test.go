package textutil_test

import (
	"testing"

	"github.com/Catalitium/catalitiumJobs/internal/textutil"
)

// ── dates ─────────────────────────────────────────────────────────────────

func TestFormatJobDate(t *testing.T) {
	cases := []struct{ in, want string }{
		{"20250825", "2025.08.25"},
		{"2025-08-25", "2025.08.25"},
		{"  2025-08-25  ", "2025.08.25"},
		{"Aug 25", "Aug 25"},
		{"202508", "202508"},
		{"", ""},
		{"   ", ""},
	}
	for _, c := range cases {
		if got := textutil.FormatJobDate(c.in); got != c.want {
			t.Errorf("FormatJobDate(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

// ── description cleanup ───────────────────────────────────────────────────

func TestCleanDescription(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"date stamp line", "20251009\nGreat role at a great team", "Great role at a great team"},
		{"punctuated date stamp", "- 20251009 Great role", "Great role"},
		{"relative age prefix", "11 hours ago - Apply now", "Apply now"},
		{"relative age case-insensitive", "3 Days Ago - Apply now", "Apply now"},
		{"details header", "Details\nThe role involves Go", "The role involves Go"},
		{"all three stacked", "20251009\n3 days ago - Details\nBody text", "Body text"},
		{"clean text untouched", "Plain description.", "Plain description."},
		{"empty", "", ""},
	}
	for _, c := range cases {
		if got := textutil.CleanDescription(c.in); got != c.want {
			t.Errorf("%s: CleanDescription(%q) = %q, want %q", c.name, c.in, got, c.want)
		}
	}
}

// ── summarizer ────────────────────────────────────────────────────────────

func TestSummarizeTwoSentences_PicksRepresentative(t *testing.T) {
	text := "Go engineers build servers. Cats sleep all day. Go servers scale well."
	want := "Go engineers build servers. Go servers scale well."
	if got := textutil.SummarizeTwoSentences(text); got != want {
		t.Errorf("SummarizeTwoSentences = %q, want %q", got, want)
	}
}

func TestSummarizeTwoSentences_KeepsOriginalOrder(t *testing.T) {
	// The strongest sentence comes last in the input; the summary must
	// not move it to the front.
	text := "Filler words only here. Go Go Go servers servers. Go servers again and again."
	got := textutil.SummarizeTwoSentences(text)
	if got != "Go Go Go servers servers. Go servers again and again." {
		t.Errorf("SummarizeTwoSentences = %q, want the two Go sentences in input order", got)
	}
}

func TestSummarizeTwoSentences_ShortTextsPassThrough(t *testing.T) {
	cases := []string{
		"",
		"Single sentence without terminator",
		"Single sentence with terminator.",
	}
	for _, in := range cases {
		want := in
		if in == "" {
			want = ""
		}
		if got := textutil.SummarizeTwoSentences(in); got != want {
			t.Errorf("SummarizeTwoSentences(%q) = %q, want unchanged", in, got)
		}
	}
}

func TestPreview_CleansBeforeSummarizing(t *testing.T) {
	text := "Details\nGo engineers build servers. Cats sleep all day. Go servers scale well."
	want := "Go engineers build servers. Go servers scale well."
	if got := textutil.Preview(text); got != want {
		t.Errorf("Preview = %q, want %q", got, want)
	}
}

// ── lowerCamel ────────────────────────────────────────────────────────────

func TestLowerCamel(t *testing.T) {
	cases := []struct{ in, want string }{
		{"job_title", "jobTitle"},
		{"Job Title", "jobTitle"},
		{"salary-min", "salaryMin"},
		{"URL", "url"},
		{"perPage", "perpage"},
		{"job_title_norm", "jobTitleNorm"},
		{"", ""},
		{"___", "___"},
	}
	for _, c := range cases {
		if got := textutil.LowerCamel(c.in); got != c.want {
			t.Errorf("LowerCamel(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
