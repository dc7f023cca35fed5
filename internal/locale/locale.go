// Package locale reads the process locale from the POSIX environment.
package locale

import (
	"os"
	"strings"

	"golang.org/x/text/language"
)

// Detect returns the locale named by LC_ALL, LC_MESSAGES or LANG, the
// first one set winning. "C" and "POSIX" yield language.Und.
func Detect() language.Tag {
	for _, env := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(env); v != "" {
			return Parse(v)
		}
	}
	return language.Und
}

// Parse converts a POSIX locale name such as "zh_CN.UTF-8@latin" into a tag.
func Parse(name string) language.Tag {
	if i := strings.IndexAny(name, ".@"); i >= 0 {
		name = name[:i]
	}
	if name == "" || name == "C" || name == "POSIX" {
		return language.Und
	}
	tag, err := language.Parse(strings.ReplaceAll(name, "_", "-"))
	if err != nil {
		return language.Und
	}
	return tag
}

// PrefersChinese reports whether tag's base language is Chinese.
func PrefersChinese(tag language.Tag) bool {
	base, conf := tag.Base()
	if conf == language.No {
		return false
	}
	zh, _ := language.Chinese.Base()
	return base == zh
}
