package synth

// keywordPoint maps a trigger substring found in retrieved chunk text to a
// canned key point. Used only on the context-only tier, when the model gave
// us nothing usable. Coverage here is configuration, not a hard boundary.
type keywordPoint struct {
	trigger string
	point   string
}

var contextKeywordPoints = []keywordPoint{
	{"120hz", "Supports a 120Hz refresh rate for smooth motion in games and sports."},
	{"144hz", "High 144Hz refresh rate suited to fast-paced gaming."},
	{"hdmi 2.1", "HDMI 2.1 ports enable 4K at 120fps from current-gen consoles."},
	{"oled", "OLED panel with per-pixel lighting for deep blacks and high contrast."},
	{"qled", "QLED panel with quantum-dot color and high peak brightness."},
	{"dolby atmos", "Dolby Atmos support for immersive overhead sound."},
	{"dolby vision", "Dolby Vision HDR for scene-by-scene dynamic range."},
	{"wifi 6", "Wi-Fi 6 radio for faster, more stable wireless on busy networks."},
	{"bluetooth", "Bluetooth connectivity for headphones and accessories."},
	{"battery", "Check the battery-life section for runtime on a single charge."},
	{"warranty", "Comes with a manufacturer warranty; terms are in the product sheet."},
	{"energy star", "ENERGY STAR certified for lower power consumption."},
	{"ssd", "Solid-state storage for fast boot and load times."},
	{"noise cancel", "Active noise cancellation for loud environments."},
	{"water resist", "Water resistance rated for splashes and rain."},
}

// attachmentTable suggests add-on products per category. Keys are lowercase
// category labels as stored on product records.
var attachmentTable = map[string][]string{
	"tv":         {"HDMI 2.1 cable", "wall mount", "surge protector"},
	"television": {"HDMI 2.1 cable", "wall mount", "surge protector"},
	"laptop":     {"laptop sleeve", "wireless mouse", "USB-C hub"},
	"monitor":    {"DisplayPort cable", "monitor arm"},
	"headphones": {"carrying case", "replacement ear pads"},
	"soundbar":   {"optical cable", "wall mount kit"},
	"camera":     {"SD card", "spare battery", "camera bag"},
	"phone":      {"protective case", "screen protector", "fast charger"},
	"tablet":     {"keyboard cover", "stylus", "screen protector"},
	"console":    {"extra controller", "headset", "game subscription card"},
	"printer":    {"ink cartridge set", "paper ream", "USB cable"},
}
