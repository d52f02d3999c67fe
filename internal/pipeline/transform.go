package pipeline

import (
	"fmt"
	"strings"
)

// promptSynonyms is the accepted spelling order for free-text prompt fields.
// The canonical name for each category comes first in its transform.
var promptSynonyms = []string{"question", "prompt", "instructions", "text", "title"}

// transform maps a raw record into the canonical field layout for a category.
// Transforms are idempotent: canonical fields already present win over
// synonyms and derivations, so a second pass is a no-op.
func transform(raw RawContent, cat Category) map[string]any {
	data := map[string]any{}
	for k, v := range raw {
		data[k] = v
	}
	delete(data, "category")
	delete(data, "contentType")
	delete(data, "content_type")
	delete(data, "hint")
	delete(data, "suggestedCategory")
	delete(data, "suggested_category")

	switch cat {
	case CategoryFillBlank, CategoryClozeDropdown:
		transformBlanks(data)
	case CategorySingleSelect:
		renameFirst(data, "question", promptSynonyms...)
		renameFirst(data, "options", "options", "choices", "answers")
		normalizeOptionList(data, "options")
		inferCorrectOption(data)
	case CategoryMultiSelect:
		renameFirst(data, "question", promptSynonyms...)
		renameFirst(data, "options", "options", "choices", "answers")
		normalizeOptionList(data, "options")
		inferCorrectOptions(data)
	case CategoryTrueFalse:
		renameFirst(data, "statement", "statement", "question", "prompt", "text")
	case CategoryEssay, CategoryDrawing, CategoryCodeEditor, CategoryAudioResponse,
		CategoryVideoResponse, CategoryFileUpload, CategorySimulation,
		CategoryLabeling, CategoryHotspot:
		renameFirst(data, "prompt", "prompt", "question", "instructions", "text", "title")
	case CategoryDragDrop:
		renameFirst(data, "question", promptSynonyms...)
		renameFirst(data, "sources", "sources", "draggables", "items")
		renameFirst(data, "targets", "targets", "dropZones", "zones", "buckets")
		normalizeOptionList(data, "sources")
		normalizeOptionList(data, "targets")
	case CategoryMatching:
		renameFirst(data, "question", promptSynonyms...)
		derivePairs(data)
	case CategorySequencing, CategorySorting, CategoryTimeline:
		renameFirst(data, "question", promptSynonyms...)
		if cat == CategoryTimeline {
			renameFirst(data, "events", "events", "items")
			normalizeOptionList(data, "events")
		} else {
			renameFirst(data, "items", "items", "elements", "entries")
			normalizeOptionList(data, "items")
		}
	case CategoryHighlightText:
		renameFirst(data, "passage", "passage", "text", "content")
	case CategoryDictation:
		renameFirst(data, "audio", "audio", "audioUrl", "url")
	default:
		renameFirst(data, "question", promptSynonyms...)
	}
	return data
}

// renameFirst moves the first present synonym into the canonical key.
// When the canonical key already holds a value nothing changes.
func renameFirst(data map[string]any, canonical string, synonyms ...string) {
	if v, ok := data[canonical]; ok && v != nil {
		if s, isStr := v.(string); !isStr || strings.TrimSpace(s) != "" {
			return
		}
	}
	for _, syn := range synonyms {
		if syn == canonical {
			continue
		}
		v, ok := data[syn]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			continue
		}
		data[canonical] = v
		delete(data, syn)
		return
	}
}

// transformBlanks canonicalizes fill-blank shapes. An explicit blanks array is
// authoritative; marker scanning runs only when the array is absent.
func transformBlanks(data map[string]any) {
	renameFirst(data, "text", "text", "question", "prompt", "sentence")
	if hasSlice(data, "blanks") {
		return
	}
	text := stringFromAny(data["text"])
	locs := blankMarkerRE.FindAllStringIndex(text, -1)
	blanks := make([]any, 0, len(locs))
	for i, loc := range locs {
		marker := text[loc[0]:loc[1]]
		blank := map[string]any{
			"id":       fmt.Sprintf("blank%d", i+1),
			"position": loc[0],
		}
		if strings.HasPrefix(marker, "{{") {
			inner := strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(marker, "{{"), "}}"))
			if inner != "" {
				blank["answer"] = inner
			}
		}
		blanks = append(blanks, blank)
	}
	data["blanks"] = blanks
}

// normalizeOptionList lifts scalar list entries into records with id+label.
func normalizeOptionList(data map[string]any, key string) {
	items := anySlice(data[key])
	if items == nil {
		return
	}
	out := make([]any, 0, len(items))
	changed := false
	for i, it := range items {
		if m, ok := it.(map[string]any); ok && m != nil {
			if _, hasID := m["id"]; !hasID {
				m["id"] = fmt.Sprintf("%s%d", optionIDPrefix(key), i+1)
				changed = true
			}
			out = append(out, m)
			continue
		}
		out = append(out, map[string]any{
			"id":    fmt.Sprintf("%s%d", optionIDPrefix(key), i+1),
			"label": fmt.Sprintf("%v", it),
		})
		changed = true
	}
	if changed || len(out) != len(items) {
		data[key] = out
	}
}

func optionIDPrefix(key string) string {
	switch key {
	case "options":
		return "opt"
	case "sources":
		return "src"
	case "targets":
		return "tgt"
	case "items":
		return "item"
	case "events":
		return "ev"
	default:
		return "el"
	}
}

// inferCorrectOption fills correctOptionId from an isCorrect flag or from
// equality with a reference answer field.
func inferCorrectOption(data map[string]any) {
	if s := strings.TrimSpace(stringFromAny(data["correctOptionId"])); s != "" {
		return
	}
	opts := mapSlice(data, "options")
	for _, o := range opts {
		if truthy(o["isCorrect"]) {
			data["correctOptionId"] = stringFromAny(o["id"])
			return
		}
	}
	answer := strings.TrimSpace(firstString(data, "answer", "correctAnswer"))
	if answer == "" {
		return
	}
	for _, o := range opts {
		label := firstString(o, "label", "text", "value")
		if strings.EqualFold(strings.TrimSpace(label), answer) || stringFromAny(o["id"]) == answer {
			data["correctOptionId"] = stringFromAny(o["id"])
			return
		}
	}
}

// inferCorrectOptions fills correctOptionIds and defaults maxSelections to the
// number of correct options when unspecified.
func inferCorrectOptions(data map[string]any) {
	ids := anySlice(data["correctOptionIds"])
	if ids == nil {
		collected := []any{}
		for _, o := range mapSlice(data, "options") {
			if truthy(o["isCorrect"]) {
				collected = append(collected, stringFromAny(o["id"]))
			}
		}
		if len(collected) > 0 {
			data["correctOptionIds"] = collected
			ids = collected
		}
	}
	if _, ok := numberFromAny(data["maxSelections"]); !ok {
		n := len(ids)
		if n == 0 {
			n = 1
		}
		data["maxSelections"] = float64(n)
	}
}

// derivePairs builds matching pairs from parallel left/right arrays when no
// explicit pairs array exists.
func derivePairs(data map[string]any) {
	if hasSlice(data, "pairs") {
		normalizeOptionList(data, "pairs")
		return
	}
	left := anySlice(data["left"])
	right := anySlice(data["right"])
	if left == nil || right == nil {
		return
	}
	n := minInt(len(left), len(right))
	pairs := make([]any, 0, n)
	for i := 0; i < n; i++ {
		pairs = append(pairs, map[string]any{
			"id":    fmt.Sprintf("pair%d", i+1),
			"left":  fmt.Sprintf("%v", left[i]),
			"right": fmt.Sprintf("%v", right[i]),
		})
	}
	data["pairs"] = pairs
	delete(data, "left")
	delete(data, "right")
}
