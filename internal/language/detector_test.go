package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetect_Languages(t *testing.T) {
	d := NewDetector([]string{"en", "ru", "de", "fr", "es"})

	tests := []struct {
		name string
		text string
		want string
	}{
		{"english", "The quick brown fox is jumping over the lazy dog and it was not seen", "en"},
		{"russian", "Он сказал, что это не так, но мы не поверили ему и они ушли", "ru"},
		{"german", "Der Hund ist nicht mit der Katze in das Haus gegangen und die Tür war zu", "de"},
		{"french", "Le chat est dans la maison et les enfants sont dans le jardin pour jouer", "fr"},
		{"spanish", "El perro es grande y la casa de los vecinos es más grande que la nuestra", "es"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lang, confidence := d.Detect(tt.text)
			assert.Equal(t, tt.want, lang)
			assert.Greater(t, confidence, 0.0)
		})
	}
}

func TestDetect_EmptyText(t *testing.T) {
	d := NewDetector(nil)

	lang, confidence := d.Detect("   ")
	assert.Equal(t, "en", lang)
	assert.Equal(t, 0.0, confidence)
}

func TestDetect_NoSignalFallsBackToEnglish(t *testing.T) {
	d := NewDetector([]string{"en", "ru"})

	lang, confidence := d.Detect("12345 67890")
	assert.Equal(t, "en", lang)
	assert.Equal(t, 0.0, confidence)
}

func TestDetect_CyrillicShortcut(t *testing.T) {
	d := NewDetector([]string{"en", "ru"})

	lang, confidence := d.Detect("Привет мир")
	assert.Equal(t, "ru", lang)
	assert.GreaterOrEqual(t, confidence, 0.9)
}

func TestIsSupported(t *testing.T) {
	d := NewDetector([]string{"en", "ru"})

	assert.True(t, d.IsSupported("en"))
	assert.True(t, d.IsSupported("ru"))
	assert.False(t, d.IsSupported("zh"))
}
