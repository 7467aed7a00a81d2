// Package i18n resolves the content language of a request. Classes,
// materials and achievements are stored per language and are never served
// from a fallback language, so every read takes an explicit code.
package i18n

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
)

var DefaultSupported = []string{"pt-BR", "en-US", "es-ES", "fr-FR"}

type Resolver struct {
	codes    []string
	fallback string
	matcher  language.Matcher
}

// NewResolver builds a resolver over supported codes. fallback must be one of
// them; it is used when nothing else matches.
func NewResolver(supported []string, fallback string) (*Resolver, error) {
	if len(supported) == 0 {
		supported = DefaultSupported
	}

	codes := make([]string, 0, len(supported))
	tags := make([]language.Tag, 0, len(supported)+1)

	fb, err := language.Parse(fallback)
	if err != nil {
		return nil, fmt.Errorf("invalid default language %q: %w", fallback, err)
	}
	// The matcher treats its first tag as the fallback.
	tags = append(tags, fb)
	codes = append(codes, fb.String())

	for _, code := range supported {
		tag, err := language.Parse(code)
		if err != nil {
			return nil, fmt.Errorf("invalid supported language %q: %w", code, err)
		}
		if tag.String() == fb.String() {
			continue
		}
		tags = append(tags, tag)
		codes = append(codes, tag.String())
	}

	found := false
	for _, code := range supported {
		if strings.EqualFold(code, fallback) {
			found = true
		}
	}
	if !found {
		return nil, fmt.Errorf("default language %q is not in the supported set", fallback)
	}

	return &Resolver{codes: codes, fallback: fb.String(), matcher: language.NewMatcher(tags)}, nil
}

func (r *Resolver) Default() string { return r.fallback }

// Supported returns the codes in canonical form, default first.
func (r *Resolver) Supported() []string {
	out := make([]string, len(r.codes))
	copy(out, r.codes)
	return out
}

// Normalize returns the canonical form of code if it is supported, matching
// case-insensitively ("pt-br" -> "pt-BR").
func (r *Resolver) Normalize(code string) (string, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return "", false
	}
	for _, c := range r.codes {
		if strings.EqualFold(c, code) {
			return c, true
		}
	}
	return "", false
}

func (r *Resolver) IsSupported(code string) bool {
	_, ok := r.Normalize(code)
	return ok
}

// Match picks the best supported code for an Accept-Language header. A bare
// language ("pt") matches its regional variant ("pt-BR").
func (r *Resolver) Match(acceptLanguage string) (string, bool) {
	if strings.TrimSpace(acceptLanguage) == "" {
		return "", false
	}
	desired, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(desired) == 0 {
		return "", false
	}
	_, idx, conf := r.matcher.Match(desired...)
	if conf == language.No {
		return "", false
	}
	return r.codes[idx], true
}

// Resolve applies, in order: an explicit request value, the user's stored
// preference, the Accept-Language header, the default. An explicit value that
// is not supported is an error; a stale stored preference is skipped.
func (r *Resolver) Resolve(explicit, stored, acceptLanguage string) (string, error) {
	if strings.TrimSpace(explicit) != "" {
		code, ok := r.Normalize(explicit)
		if !ok {
			return "", fmt.Errorf("unsupported language %q", explicit)
		}
		return code, nil
	}
	if code, ok := r.Normalize(stored); ok {
		return code, nil
	}
	if code, ok := r.Match(acceptLanguage); ok {
		return code, nil
	}
	return r.fallback, nil
}
