package search

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Faffo96/news-exercise-front/internal/catalog"
)

const (
	weightTitle      = 4.0
	weightAuthor     = 2.0
	weightCategories = 1.5
	weightBody       = 1.0
)

// Engine scores news in memory without an index.
type Engine struct {
	source Source
}

func NewEngine(source Source) *Engine {
	return &Engine{source: source}
}

func (e *Engine) Search(query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}
	terms := tokenize(query)
	if len(terms) == 0 {
		return []*Result{}, nil
	}

	var results []*Result
	for _, n := range e.source.News() {
		if r := scoreNews(n, terms); r != nil {
			results = append(results, r)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func scoreNews(n catalog.News, terms []string) *Result {
	fields := []struct {
		name   string
		text   string
		weight float64
	}{
		{"title", n.Title, weightTitle},
		{"author", n.Author, weightAuthor},
		{"categories", categoriesText(n), weightCategories},
		{"body", n.Body, weightBody},
	}

	r := &Result{News: n}
	for _, f := range fields {
		score := scoreField(f.text, terms) * f.weight
		if score <= 0 {
			continue
		}
		text := f.text
		if f.name == "body" {
			text = bestSnippet(f.text, terms, 160)
		}
		r.Matches = append(r.Matches, Match{Field: f.name, Text: text, Weight: score})
		r.Score += score
	}
	if r.Score == 0 {
		return nil
	}
	return r
}

// categoriesText joins every taxonomy label of n.
func categoriesText(n catalog.News) string {
	parts := []string{n.MainCategory}
	parts = append(parts, n.OtherCategoriesList...)
	for _, s := range n.SubcategoriesList {
		parts = append(parts, s.Subcategory)
	}
	return strings.Join(parts, " ")
}

func scoreField(text string, terms []string) float64 {
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	matched := 0
	for _, term := range terms {
		for _, word := range words {
			switch {
			case word == term:
				score += 1.5
				matched++
			case strings.HasPrefix(word, term):
				score += 1.0
				matched++
			case strings.Contains(word, term):
				score += 0.5
				matched++
			}
		}
	}
	if matched == 0 {
		return 0
	}
	if len(terms) > 1 {
		score *= 1.0 + float64(min(matched, len(terms)))/float64(len(terms))
	}
	tf := float64(matched) / float64(len(words))
	return score * (1.0 + math.Log1p(tf))
}

func bestSnippet(text string, terms []string, maxLen int) string {
	words := strings.Fields(text)
	window := maxLen / 8
	if window >= len(words) {
		return truncate(text, maxLen)
	}

	best, bestAt := -1, 0
	for i := 0; i+window <= len(words); i++ {
		chunk := strings.ToLower(strings.Join(words[i:i+window], " "))
		hits := 0
		for _, t := range terms {
			if strings.Contains(chunk, t) {
				hits++
			}
		}
		if hits > best {
			best, bestAt = hits, i
		}
	}
	return truncate(strings.Join(words[bestAt:bestAt+window], " "), maxLen)
}

// tokenize lowercases text and splits it into terms of two or more runes.
func tokenize(text string) []string {
	var terms []string
	var cur strings.Builder
	flush := func() {
		if utf8.RuneCountInString(cur.String()) > 1 {
			terms = append(terms, cur.String())
		}
		cur.Reset()
	}
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			cur.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()
	return terms
}

func truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen-1]) + "…"
}
