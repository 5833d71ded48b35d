package handler

import (
	"fmt"

	"golang.org/x/text/language"
)

// LocaleResolver resolves the locale of a request from its Accept-Language
// header.
type LocaleResolver struct {
	defaultTag language.Tag
	supported  []language.Tag
	matcher    language.Matcher
}

// NewLocaleResolver returns a resolver that falls back to defaultLocale. If
// supported is not empty, resolved locales are restricted to those tags.
func NewLocaleResolver(defaultLocale string, supported []string) (*LocaleResolver, error) {
	def, err := language.Parse(defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("failed parsing default locale '%s': %w", defaultLocale, err)
	}

	lr := &LocaleResolver{defaultTag: def}
	for _, s := range supported {
		tag, err := language.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("failed parsing supported locale '%s': %w", s, err)
		}
		lr.supported = append(lr.supported, tag)
	}
	if len(lr.supported) > 0 {
		lr.matcher = language.NewMatcher(lr.supported)
	}

	return lr, nil
}

// Default returns the fallback locale.
func (lr *LocaleResolver) Default() language.Tag {
	return lr.defaultTag
}

// Resolve returns the client's highest priority locale from the given
// Accept-Language header value. If supported locales are configured, the best
// matching supported locale is returned instead. The default locale is
// returned if the header is empty, malformed, only contains a wildcard, or
// doesn't match any supported locale.
func (lr *LocaleResolver) Resolve(acceptLanguage string) language.Tag {
	if acceptLanguage == "" {
		return lr.defaultTag
	}

	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 || tags[0] == language.Und {
		return lr.defaultTag
	}

	if lr.matcher == nil {
		return tags[0]
	}

	_, idx, conf := lr.matcher.Match(tags...)
	if conf == language.No {
		return lr.defaultTag
	}

	return lr.supported[idx]
}
