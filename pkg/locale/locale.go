// Package locale guesses a BCP-47-ish locale tag from page text. It backs
// the "auto" locale setting: when the user has not pinned a locale, the
// inference request carries the detected page language instead.
package locale

import (
	"github.com/pemistahl/lingua-go"
)

// Detector wraps a lingua language detector restricted to the languages the
// meaning classifier is realistically asked about. Building the underlying
// models is expensive; construct once and reuse.
type Detector struct {
	detector lingua.LanguageDetector
}

var localeTags = map[lingua.Language]string{
	lingua.Japanese: "ja-JP",
	lingua.English:  "en-US",
	lingua.Chinese:  "zh-CN",
	lingua.Korean:   "ko-KR",
	lingua.French:   "fr-FR",
	lingua.German:   "de-DE",
	lingua.Spanish:  "es-ES",
}

// NewDetector builds the detector.
func NewDetector() *Detector {
	languages := make([]lingua.Language, 0, len(localeTags))
	for lang := range localeTags {
		languages = append(languages, lang)
	}
	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromLanguages(languages...).
			Build(),
	}
}

// Detect returns the locale tag for the text's language, or fallback when
// the text is empty or no language can be determined with confidence.
func (d *Detector) Detect(text, fallback string) string {
	if text == "" {
		return fallback
	}
	lang, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return fallback
	}
	if tag, ok := localeTags[lang]; ok {
		return tag
	}
	return fallback
}
