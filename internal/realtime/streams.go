package realtime

import "strings"

const roadmapStreamPrefix = "roadmap:"

// RoadmapStream names the stream carrying board events of one roadmap.
func RoadmapStream(roadmapID string) string {
	return roadmapStreamPrefix + normalizeStream(roadmapID)
}

func normalizeStream(stream string) string {
	return strings.ToLower(strings.TrimSpace(stream))
}
