// Package intent decides how a question about the model is answered.
package intent

import (
	"regexp"
	"strings"

	"bim-rag/internal/ifc"
	"bim-rag/internal/models"
)

type Kind int

const (
	SemanticFallback Kind = iota
	Count
	Area
	StoreyCount
)

func (k Kind) String() string {
	switch k {
	case Count:
		return "count"
	case Area:
		return "area"
	case StoreyCount:
		return "storeys"
	}
	return "semantic"
}

type Language int

const (
	Polish Language = iota
	English
)

// Decision is the outcome of classifying one question
type Decision struct {
	Kind     Kind
	Language Language
	// Token is the word captured from the question, as written
	Token string
	Type  ifc.ElementType
	// Err is set for an area question on an unknown word
	Err *UnrecognizedTypeError
}

var (
	countRegex = regexp.MustCompile(models.CountRegex)
	areaRegex  = regexp.MustCompile(models.AreaRegex)
)

// Normalize lowercases and trims a question
func Normalize(question string) string {
	return strings.ToLower(strings.TrimSpace(question))
}

// DetectLanguage picks English when the question contains "how many",
// Polish otherwise
func DetectLanguage(q string) Language {
	if strings.Contains(strings.ToLower(q), models.EnglishMarker) {
		return English
	}
	return Polish
}

// Classify tries the count pattern, then the area pattern, then falls back
// to retrieval. A count match on an unknown word continues to the area
// pattern.
func Classify(question string) Decision {
	q := Normalize(question)
	lang := DetectLanguage(q)

	if m := countRegex.FindStringSubmatch(q); m != nil {
		token := m[3]
		if t, err := Lookup(token); err == nil {
			if IsStoreyWord(token) {
				return Decision{Kind: StoreyCount, Language: lang, Token: token, Type: ifc.BuildingStorey}
			}
			return Decision{Kind: Count, Language: lang, Token: token, Type: t}
		}
	}

	if m := areaRegex.FindStringSubmatch(q); m != nil {
		token := m[1]
		t, err := Lookup(token)
		if err != nil {
			return Decision{Kind: Area, Language: lang, Token: token, Err: err.(*UnrecognizedTypeError)}
		}
		return Decision{Kind: Area, Language: lang, Token: token, Type: t}
	}

	return Decision{Kind: SemanticFallback, Language: lang}
}
