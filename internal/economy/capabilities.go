package economy

// Capability identifiers consumed by the presentation layer. Narrator
// capabilities unhide audio narrator choices, theme capabilities unhide
// visual themes.
const (
	CapNarratorAlafasy = "narrator:ar.alafasy"
	CapNarratorHusary  = "narrator:ar.husary"
	CapThemeLight      = "theme:light"
	CapThemeDark       = "theme:dark"
	CapThemeGreen      = "theme:green"
)

// itemCapabilities maps a purchasable item id to the capability it
// unlocks. Unknown inventory entries unlock nothing.
var itemCapabilities = map[string]string{
	"qari_husary": CapNarratorHusary,
	"bg_dark":     CapThemeDark,
	"bg_green":    CapThemeGreen,
}

// UnlockedCapabilities projects an inventory onto the set of unlocked
// capability identifiers. The default narrator and theme are always
// present; owned items add theirs. Order is stable: defaults first,
// then unlocks in inventory order.
func UnlockedCapabilities(inventory []string) []string {
	caps := []string{CapNarratorAlafasy, CapThemeLight}
	seen := map[string]bool{}
	for _, itemID := range inventory {
		capability, ok := itemCapabilities[itemID]
		if !ok || seen[capability] {
			continue
		}
		seen[capability] = true
		caps = append(caps, capability)
	}
	return caps
}
