// internal/i18n/i18n_test.go
package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTranslate(t *testing.T) {
	assert.Equal(t, "Invalid invite code.", Translate(KeyInvalidCode, "en"))
	assert.Equal(t, "Code d'invitation invalide.", Translate(KeyInvalidCode, "fr"))
	assert.Equal(t, "Code d'invitation invalide.", Translate(KeyInvalidCode, "fr-CA"))
	assert.Equal(t, "Código de convite inválido.", Translate(KeyInvalidCode, "pt_BR"))
}

func TestTranslateFallbacks(t *testing.T) {
	// Unknown locale falls back to English.
	assert.Equal(t, "You are already in a game.", Translate(KeyAlreadyInGame, "zz"))
	assert.Equal(t, "You are already in a game.", Translate(KeyAlreadyInGame, ""))
	// Unknown key falls back to the key itself.
	assert.Equal(t, "lobby.nope", Translate("lobby.nope", "en"))
}
