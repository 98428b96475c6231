// Package language lists the target languages narrator can translate into and
// resolves user-supplied codes against that list.
package language

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// supportedCodes mirrors the languages covered by the multilingual synthesis
// model.
var supportedCodes = []string{
	"ar", "bg", "cs", "da", "de", "el", "en", "es", "fi", "fil",
	"fr", "hi", "hr", "id", "it", "ja", "ko", "ms", "nl", "pl",
	"pt", "ro", "ru", "sk", "sv", "ta", "tr", "uk", "zh",
}

// Language describes one supported target language.
type Language struct {
	Code       string
	Name       string
	NativeName string
}

var (
	supported []Language
	byCode    map[string]Language
)

func init() {
	english := display.English.Languages()
	supported = make([]Language, 0, len(supportedCodes))
	byCode = make(map[string]Language, len(supportedCodes))
	for _, code := range supportedCodes {
		tag := language.MustParse(code)
		lang := Language{
			Code:       code,
			Name:       english.Name(tag),
			NativeName: display.Self.Name(tag),
		}
		supported = append(supported, lang)
		byCode[code] = lang
	}
}

// Supported returns the supported languages ordered by code.
func Supported() []Language {
	cp := make([]Language, len(supported))
	copy(cp, supported)
	return cp
}

// Lookup resolves a code such as "es", "ES" or "pt-BR" to a supported
// language. Regional variants resolve to their base language.
func Lookup(code string) (Language, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Language{}, false
	}
	if lang, ok := byCode[strings.ToLower(code)]; ok {
		return lang, true
	}
	tag, err := language.Parse(code)
	if err != nil {
		return Language{}, false
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return Language{}, false
	}
	lang, ok := byCode[base.String()]
	return lang, ok
}

// IsSupported reports whether code resolves to a supported language.
func IsSupported(code string) bool {
	_, ok := Lookup(code)
	return ok
}
