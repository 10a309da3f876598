package protocol

// sceneTables maps a device model to its scene name → scene code table.
// Codes are device firmware identifiers and differ per model family.
var sceneTables = map[string]map[string]uint16{
	"H7020": {
		"twighlight":     2070,
		"meteor":         2071,
		"nebula":         2072,
		"illumination":   63,
		"bright":         2552,
		"colorful":       2553,
		"cheerful":       2097,
		"meditation":     2098,
		"hearthbeat":     65,
		"christmas":      2095,
		"christmas_tree": 2096,
		"sled":           2557,
	},
}

// defaultSceneModel is the table used for models without a dedicated entry.
// The scene command framing is shared across the known string-light models,
// only the code values are firmware specific.
const defaultSceneModel = "H7020"

// SceneCode looks up the numeric scene code for a scene name on a given
// device model. Models without a dedicated table fall back to the default
// table.
//
// Returns:
//   - uint16: The scene code to embed in the scene sub-payload
//   - bool: false if the scene name is unknown
func SceneCode(model, scene string) (uint16, bool) {
	table, ok := sceneTables[model]
	if !ok {
		table = sceneTables[defaultSceneModel]
	}
	code, ok := table[scene]
	return code, ok
}
