package engines

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"task-helper/api/internal/config"
	"task-helper/api/internal/ocr"
	"task-helper/api/internal/ocr/tesseract"
)

func TestFromConfig(t *testing.T) {
	assert.Equal(t, "stub", FromConfig(config.OCRConfig{}).Name())
	assert.Equal(t, "stub", FromConfig(config.OCRConfig{Engine: "nope"}).Name())
	assert.Equal(t, "stub", FromConfig(config.OCRConfig{Engine: "yandex"}).Name())
	assert.Equal(t, "yandex", FromConfig(config.OCRConfig{Engine: "Yandex", YCOAuth: "o", YCFolderID: "f"}).Name())

	e := FromConfig(config.OCRConfig{Engine: "tesseract"})
	if tesseract.Available {
		assert.Equal(t, "tesseract", e.Name())
	} else {
		assert.Equal(t, ocr.Stub{}, e)
	}
}

func TestAll(t *testing.T) {
	names := func(es []ocr.Engine) []string {
		var out []string
		for _, e := range es {
			out = append(out, e.Name())
		}
		return out
	}
	want := []string{"stub"}
	if tesseract.Available {
		want = append(want, "tesseract")
	}
	assert.Equal(t, want, names(All(config.OCRConfig{})))
	assert.Contains(t, names(All(config.OCRConfig{YCOAuth: "o", YCFolderID: "f"})), "yandex")
}
