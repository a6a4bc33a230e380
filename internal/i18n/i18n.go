// internal/i18n/i18n.go
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github-showcase/internal/model"
)

//go:embed locales/*.json
var localeFS embed.FS

// Message ids.
const (
	ShareToggleOpen  = "messages.share.toggleOpen"
	ShareToggleClose = "messages.share.toggleClose"
	UpdateUnknown    = "messages.update.unknown"
	UpdateSuccess    = "messages.update.success"
	UpdateRepos      = "messages.update.repos"
	UpdateCommits    = "messages.update.commits"
	UpdateFailed     = "messages.update.failed"
	UpdatePending    = "messages.update.pending"
	UpdateFrequent   = "messages.update.frequent"
	ResumeSaved      = "messages.resume.saved"
	ResumeNotFound   = "messages.resume.notFound"
	AuthRequired     = "messages.auth.required"
	AuthForbidden    = "messages.auth.forbidden"
	ErrorInternal    = "messages.error.internal"
)

var statusMessages = map[int]string{
	model.StatusUnknown:         UpdateUnknown,
	model.StatusSuccess:         UpdateSuccess,
	model.StatusUpdatingRepos:   UpdateRepos,
	model.StatusUpdatingCommits: UpdateCommits,
	model.StatusFailed:          UpdateFailed,
}

// StatusMessage returns the message id describing an update status code,
// or "" for codes without one.
func StatusMessage(status int) string {
	return statusMessages[status]
}

// Translator resolves message ids for the locales preferred by a request.
type Translator struct {
	bundle  *goi18n.Bundle
	matcher language.Matcher
}

// New loads the embedded message files. defaultLocale is used when none of
// a request's locales is available.
func New(defaultLocale string) (*Translator, error) {
	tag, err := language.Parse(defaultLocale)
	if err != nil {
		return nil, fmt.Errorf("parse default locale %q: %w", defaultLocale, err)
	}
	bundle := goi18n.NewBundle(tag)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)

	files, err := fs.Glob(localeFS, "locales/*.json")
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if _, err := bundle.LoadMessageFileFS(localeFS, f); err != nil {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	// The default locale goes first so that it wins unmatched requests.
	tags := []language.Tag{tag}
	for _, t := range bundle.LanguageTags() {
		if t != tag {
			tags = append(tags, t)
		}
	}
	return &Translator{bundle: bundle, matcher: language.NewMatcher(tags)}, nil
}

// T localizes id. langs are locale names or Accept-Language values, most
// preferred first. Unknown ids are returned unchanged.
func (t *Translator) T(id string, langs ...string) string {
	msg, err := goi18n.NewLocalizer(t.bundle, langs...).Localize(&goi18n.LocalizeConfig{MessageID: id})
	if err != nil {
		return id
	}
	return msg
}

// Locale returns the base language best matching langs, such as "en".
func (t *Translator) Locale(langs ...string) string {
	tag, _ := language.MatchStrings(t.matcher, langs...)
	base, _ := tag.Base()
	return base.String()
}
