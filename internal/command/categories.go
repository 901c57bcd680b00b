package command

// CategoryWeights orders categories in help output.
var CategoryWeights = map[string]int{
	"🕯️ Information": 0,
	"🎵 Music":        10,
	"🎚️ Effects":     20,
	"🔊 Voice":        30,
	"⚙️ Settings":    50,
	"🛠️ Maintenance": 60,
}
