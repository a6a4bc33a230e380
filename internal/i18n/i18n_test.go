// internal/i18n/i18n_test.go
package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github-showcase/internal/model"
)

func TestTranslator(t *testing.T) {
	tr, err := New("en")
	require.NoError(t, err)

	assert.Equal(t, "Sharing is now on", tr.T(ShareToggleOpen, "en"))
	assert.Equal(t, "已开启分享", tr.T(ShareToggleOpen, "zh"))
	assert.Equal(t, "已关闭分享", tr.T(ShareToggleClose, "zh-CN,zh;q=0.9,en;q=0.8"))
	assert.Equal(t, "Sharing is now off", tr.T(ShareToggleClose, "fr"), "falls back to the default locale")
	assert.Equal(t, "messages.nope", tr.T("messages.nope", "en"))

	assert.Equal(t, "zh", tr.Locale("zh-CN"))
	assert.Equal(t, "en", tr.Locale("fr"))
	assert.Equal(t, "en", tr.Locale())
}

func TestStatusMessage(t *testing.T) {
	assert.Equal(t, UpdateSuccess, StatusMessage(model.StatusSuccess))
	assert.Equal(t, UpdateRepos, StatusMessage(model.StatusUpdatingRepos))
	assert.Equal(t, UpdateFailed, StatusMessage(model.StatusFailed))
	assert.Empty(t, StatusMessage(42))
}

func TestNew_InvalidLocale(t *testing.T) {
	_, err := New("not a locale!")
	assert.Error(t, err)
}
