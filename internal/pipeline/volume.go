package pipeline

import (
	"strings"
)

// Words-per-minute reference for reading-time estimates.
const readingWPM = 200

// visibilityCaps limit how many interactive elements render at once.
var visibilityCaps = map[Category]int{
	CategoryFillBlank:     5,
	CategoryClozeDropdown: 5,
	CategorySingleSelect:  6,
	CategoryMultiSelect:   6,
	CategoryPoll:          6,
	CategorySequencing:    8,
	CategorySorting:       8,
	CategoryTimeline:      8,
	CategoryDragDrop:      8,
}

const defaultVisibilityCap = 10

// textFields are the fields mined for prose, in scan order.
var textFields = []string{
	"question", "prompt", "statement", "text", "passage", "instructions",
	"front", "back", "sentence",
}

// elementKeys name the countable interactive collections per category.
var elementKeys = map[Category][]string{
	CategorySingleSelect:    {"options"},
	CategoryMultiSelect:     {"options"},
	CategoryPoll:            {"options"},
	CategoryFillBlank:       {"blanks"},
	CategoryClozeDropdown:   {"blanks"},
	CategoryDragDrop:        {"sources", "targets"},
	CategoryMatching:        {"pairs"},
	CategoryMemoryMatch:     {"pairs"},
	CategorySequencing:      {"items"},
	CategorySorting:         {"items", "categories"},
	CategoryTimeline:        {"events"},
	CategoryLabeling:        {"labels"},
	CategoryHotspot:         {"regions"},
	CategoryTableFill:       {"rows"},
	CategoryGraphPlot:       {"points"},
	CategoryCrossword:       {"clues"},
	CategoryWordSearch:      {"words"},
	CategorySentenceBuilder: {"words"},
	CategorySpelling:        {"words"},
	CategoryCodeEditor:      {"testCases"},
	CategorySimulation:      {"parameters"},
	CategoryHighlightText:   {"targets"},
}

// ComputeVolume derives the quantitative profile a layout decision needs.
func ComputeVolume(content CanonicalContent) VolumeMetrics {
	data := content.Data
	if data == nil {
		data = map[string]any{}
	}
	text := collectText(data, content.Category)

	m := VolumeMetrics{}
	m.Characters = len(text)
	m.Words = WordCount(text)
	m.Paragraphs = paragraphCount(text)
	m.ReadingTimeSec = readingSeconds(m.Words)

	for _, key := range elementKeys[content.Category] {
		m.Elements += sliceLen(data, key)
	}
	visCap := visibilityCaps[content.Category]
	if visCap == 0 {
		visCap = defaultVisibilityCap
	}
	m.VisibleElements = minInt(m.Elements, visCap)
	m.Interactions = maxInt(m.Elements, 1)

	m.MediaCount, m.MediaBytes = countMedia(data)

	m.TextComplexity = textComplexity(text)
	m.ComplexityScore = complexityScore(m, content.Category)
	m.CognitiveLoad = cognitiveLoad(m.ComplexityScore)
	return m
}

func collectText(data map[string]any, cat Category) string {
	var parts []string
	for _, f := range textFields {
		if s := strings.TrimSpace(stringFromAny(data[f])); s != "" {
			parts = append(parts, s)
		}
	}
	for _, key := range elementKeys[cat] {
		for _, el := range anySlice(data[key]) {
			switch t := el.(type) {
			case string:
				parts = append(parts, t)
			case map[string]any:
				if s := firstString(t, "label", "text", "left", "right", "clue", "title"); s != "" {
					parts = append(parts, s)
				}
			}
		}
	}
	return strings.Join(parts, "\n")
}

func paragraphCount(text string) int {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0
	}
	count := 0
	for _, p := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(p) != "" {
			count++
		}
	}
	return maxInt(count, 1)
}

// readingSeconds rounds the estimate up to the next whole second.
func readingSeconds(words int) int {
	if words == 0 {
		return 0
	}
	secs := (words*60 + readingWPM - 1) / readingWPM
	return maxInt(secs, 1)
}

// countMedia tallies media references: a media array of records, plus direct
// image/audio/video url fields.
func countMedia(data map[string]any) (int, int64) {
	count := 0
	var bytes int64
	for _, m := range mapSlice(data, "media") {
		count++
		if f, ok := numberFromAny(m["sizeBytes"]); ok {
			bytes += int64(f)
		}
	}
	for _, key := range []string{"image", "audio", "video"} {
		if strings.TrimSpace(stringFromAny(data[key])) != "" {
			count++
		}
	}
	return count, bytes
}

// textComplexity bands prose difficulty from average word and sentence length.
func textComplexity(text string) string {
	words := wordRE.FindAllString(text, -1)
	if len(words) == 0 {
		return "simple"
	}
	totalLen := 0
	for _, w := range words {
		totalLen += len(w)
	}
	avgWordLen := float64(totalLen) / float64(len(words))

	sentences := 0
	for _, r := range text {
		if r == '.' || r == '!' || r == '?' {
			sentences++
		}
	}
	if sentences == 0 {
		sentences = 1
	}
	avgSentenceLen := float64(len(words)) / float64(sentences)

	switch {
	case avgWordLen > 6 || avgSentenceLen > 20:
		return "complex"
	case avgWordLen > 4 || avgSentenceLen > 15:
		return "moderate"
	default:
		return "simple"
	}
}

// complexityScore composes the 1-10 score from text, element, media and
// category signals.
func complexityScore(m VolumeMetrics, cat Category) int {
	score := 1
	switch m.TextComplexity {
	case "complex":
		score += 2
	case "moderate":
		score++
	}
	switch {
	case m.Elements > 10:
		score += 2
	case m.Elements > 5:
		score++
	}
	if m.MediaCount > 0 {
		score++
	}
	if interactionHeavy[cat] {
		score += 2
	}
	return clampInt(score, 1, 10)
}

func cognitiveLoad(score int) string {
	switch {
	case score <= 3:
		return "low"
	case score <= 6:
		return "medium"
	default:
		return "high"
	}
}
