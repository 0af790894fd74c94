package reader

import "strings"

// colorspaceName picks a colorspace name from container metadata. A Foundry
// colorspace tag wins verbatim; Arri gamma tags map onto their known names;
// otherwise the pixel family decides a gamma guess.
func colorspaceName(entries []metadataEntry, rgb bool) string {
	for _, e := range entries {
		key := strings.ToLower(e.Key)
		if strings.Contains(key, "foundry") && strings.Contains(key, "colorspace") {
			return e.Value
		}
	}
	for _, e := range entries {
		key := strings.ReplaceAll(strings.ToLower(e.Key), " ", "")
		if !strings.Contains(key, "arri") || !strings.Contains(key, "colorgamma") {
			continue
		}
		value := strings.ToUpper(e.Value)
		switch {
		case strings.HasPrefix(value, "LOG-C"):
			return "AlexaV3LogC"
		case strings.HasPrefix(value, "REC-709"):
			return "rec709"
		}
	}
	if rgb {
		return "Gamma1.8"
	}
	return "Gamma2.2"
}
