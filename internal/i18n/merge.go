// Package i18n merges compiled-in translation trees with CMS-origin overlays.
package i18n

// DeepMerge combines a base translation tree with an overlay. Recursion only
// descends through plain nested mappings; an array or scalar in the overlay
// replaces the corresponding base value wholesale, regardless of the base's
// type. Arrays are never concatenated. Neither input is mutated.
func DeepMerge(base, overlay map[string]any) map[string]any {
	merged := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range overlay {
		overlayMap, overlayIsMap := v.(map[string]any)
		baseMap, baseIsMap := merged[k].(map[string]any)
		if overlayIsMap && baseIsMap {
			merged[k] = DeepMerge(baseMap, overlayMap)
			continue
		}
		merged[k] = v
	}
	return merged
}
