package crawler

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/nao1215/wikicrawl/internal/model"
)

// IsRelevant reports whether subject occurs in text, ignoring case and
// differences in whitespace. An empty subject matches nothing.
func IsRelevant(text, subject string) bool {
	needle := fold(subject)
	if needle == "" {
		return false
	}
	return strings.Contains(fold(text), needle)
}

// fold case-folds s and collapses whitespace.
// cases.Caser is stateful, so each call gets its own.
func fold(s string) string {
	return collapseSpace(cases.Fold().String(s))
}

// RelevanceFilter applies the relevance test for one subject.
type RelevanceFilter struct {
	subject            string
	needle             string
	requireAnchorMatch bool
}

// NewRelevanceFilter creates a filter for subject. When requireAnchorMatch
// is set, AdmitLink only admits links whose anchor text names the subject.
func NewRelevanceFilter(subject string, requireAnchorMatch bool) *RelevanceFilter {
	return &RelevanceFilter{
		subject:            subject,
		needle:             fold(subject),
		requireAnchorMatch: requireAnchorMatch,
	}
}

// Subject returns the subject as given.
func (f *RelevanceFilter) Subject() string {
	return f.subject
}

// MatchPage reports whether the page text mentions the subject.
func (f *RelevanceFilter) MatchPage(text string) bool {
	return f.match(text)
}

// AdmitLink reports whether a child link may be scheduled.
func (f *RelevanceFilter) AdmitLink(link model.Link) bool {
	if !f.requireAnchorMatch {
		return true
	}
	return f.match(link.Text)
}

func (f *RelevanceFilter) match(text string) bool {
	if f.needle == "" {
		return false
	}
	return strings.Contains(fold(text), f.needle)
}
