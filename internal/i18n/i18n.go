// internal/i18n/i18n.go

// Package i18n renders the small set of notify messages the lobby sends.
// Unknown locales fall back to English; unknown keys fall back to the key
// itself so a missing translation is visible rather than silent.
package i18n

import "strings"

// Message keys used by the lobby.
const (
	KeyAlreadyInGame      = "lobby.already_in_game"
	KeyVerificationNeeded = "lobby.verification_needed"
	KeyServerRestarting   = "lobby.server_restarting"
	KeyUnderMaintenance   = "lobby.under_maintenance"
	KeyGameAborted        = "lobby.game_aborted"
	KeyInvalidCode        = "lobby.invalid_code"
)

// DefaultLocale is used when a connection declares no usable locale.
const DefaultLocale = "en"

var messages = map[string]map[string]string{
	"en": {
		KeyAlreadyInGame:      "You are already in a game.",
		KeyVerificationNeeded: "Please verify your account to play rated games.",
		KeyServerRestarting:   "The server is restarting soon. New games are paused.",
		KeyUnderMaintenance:   "The server is under maintenance. New games are paused.",
		KeyGameAborted:        "That game is no longer available.",
		KeyInvalidCode:        "Invalid invite code.",
	},
	"fr": {
		KeyAlreadyInGame:      "Vous êtes déjà en partie.",
		KeyVerificationNeeded: "Veuillez vérifier votre compte pour jouer en classé.",
		KeyServerRestarting:   "Le serveur va bientôt redémarrer. Les nouvelles parties sont suspendues.",
		KeyUnderMaintenance:   "Le serveur est en maintenance. Les nouvelles parties sont suspendues.",
		KeyGameAborted:        "Cette partie n'est plus disponible.",
		KeyInvalidCode:        "Code d'invitation invalide.",
	},
	"pt": {
		KeyAlreadyInGame:      "Você já está em uma partida.",
		KeyVerificationNeeded: "Verifique sua conta para jogar partidas ranqueadas.",
		KeyServerRestarting:   "O servidor será reiniciado em breve. Novas partidas estão pausadas.",
		KeyUnderMaintenance:   "O servidor está em manutenção. Novas partidas estão pausadas.",
		KeyGameAborted:        "Essa partida não está mais disponível.",
		KeyInvalidCode:        "Código de convite inválido.",
	},
}

// Translate resolves key in the given locale. Region subtags are ignored, so
// "fr-CA" resolves through "fr".
func Translate(key, locale string) string {
	lang := locale
	if idx := strings.IndexAny(lang, "-_"); idx != -1 {
		lang = lang[:idx]
	}
	lang = strings.ToLower(lang)

	if table, ok := messages[lang]; ok {
		if msg, ok := table[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[DefaultLocale][key]; ok {
		return msg
	}
	return key
}
