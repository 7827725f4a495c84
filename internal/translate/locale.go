package translate

import (
	"errors"
	"strings"

	"golang.org/x/text/language"
)

// ErrBadLocale indicates a locale path segment that does not parse as a
// language tag.
var ErrBadLocale = errors.New("translate: invalid locale")

// CanonicalLocale normalizes a locale segment to the ll_RR form used as a
// privilege token ("nl-nl" -> "nl_NL"). The privilege comparison in the
// grant table is exact string membership, so every route must canonicalize
// before the gate derives the privilege.
func CanonicalLocale(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrBadLocale
	}
	tag, err := language.Parse(strings.ReplaceAll(raw, "_", "-"))
	if err != nil {
		return "", ErrBadLocale
	}
	base, confBase := tag.Base()
	region, confRegion := tag.Region()
	if confBase == language.No || confRegion == language.No {
		return "", ErrBadLocale
	}
	return base.String() + "_" + region.String(), nil
}
