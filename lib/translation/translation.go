package translation

import (
	"strings"

	"github.com/leonelquinteros/gotext"
)

const domain = "default"

// Configure loads the catalogue for lang from dir/<lang>/default.po. Message ids
// are the English texts, so a missing catalogue falls back to English.
func Configure(dir, lang string) {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if i := strings.IndexAny(lang, ".@"); i >= 0 {
		lang = lang[:i]
	}
	gotext.Configure(dir, lang, domain)
}

func GetLanguage() string {
	lang := gotext.GetLanguage()

	if lang == "und" || lang == "" {
		return "en"
	}

	return lang
}

func Translate(msgID string, vars ...interface{}) string {
	return gotext.Get(msgID, vars...)
}
