package prompts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jwebster45206/world-forge/pkg/entity"
	"github.com/jwebster45206/world-forge/pkg/rules"
	"github.com/jwebster45206/world-forge/pkg/world"
)

// ContextSummaryInstructions asks the model to condense ambient world
// state into a short narrative hint for downstream stages.
const ContextSummaryInstructions = `You are a world-building assistant. Condense the following world state into a short narrative hint of 2-3 sentences. Capture tone, place, and anything recent that should color newly created things. Output only the hint, with no preamble.`

// draftInstructions is the shared preamble for base-entity drafting.
const draftInstructions = `You are a game content designer. Create a single %s for the world described below. Respond with JSON only, matching the requested schema exactly. Keep the description to 2-3 vivid sentences. Set "id" to "pending"; it is assigned later.`

const attributeInstructions = `You are a game systems designer. Assign gameplay attributes to the entity described below. Prefer the known attributes listed; use their descriptions and reference ranges to calibrate values. You may add attributes beyond the known set when the entity clearly calls for them, and when you do, include metadata for each new attribute.

Respond with JSON only, in this shape:
{"attributes": {"<name>": <value>, ...}, "attribute_metadata": {"<new name>": {"type": "...", "description": "...", "reference": "...", "values": [...]}, ...}}`

// ContextSummary builds the prompt for the context-synthesis stage.
func ContextSummary(wctx world.Context, r *rules.WorldRules) string {
	var sb strings.Builder
	sb.WriteString(ContextSummaryInstructions)
	sb.WriteString("\n\n")
	if r != nil {
		fmt.Fprintf(&sb, "Genre: %s\n", r.Genre)
		if r.Period != "" {
			fmt.Fprintf(&sb, "Period: %s\n", r.Period)
		}
	}
	if wctx.CurrentRegion.Name != "" {
		fmt.Fprintf(&sb, "Region: %s", wctx.CurrentRegion.Name)
		if wctx.CurrentRegion.Biome != "" {
			fmt.Fprintf(&sb, " (%s)", wctx.CurrentRegion.Biome)
		}
		sb.WriteString("\n")
		if wctx.CurrentRegion.Description != "" {
			fmt.Fprintf(&sb, "Region description: %s\n", wctx.CurrentRegion.Description)
		}
	}
	if wctx.Setting != "" {
		fmt.Fprintf(&sb, "Setting: %s\n", wctx.Setting)
	}
	if len(wctx.RecentEvents) > 0 {
		sb.WriteString("Recent events:\n")
		for _, ev := range wctx.RecentEvents {
			fmt.Fprintf(&sb, "- %s\n", ev)
		}
	}
	return sb.String()
}

// Draft builds the prompt for the base-entity drafting stage.
func Draft(kind entity.Kind, userPrompt, contextSummary string, r *rules.WorldRules) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, draftInstructions, kind)
	sb.WriteString("\n\n")
	if r != nil {
		fmt.Fprintf(&sb, "Genre: %s\n", r.Genre)
		if r.Period != "" {
			fmt.Fprintf(&sb, "Period: %s\n", r.Period)
		}
		if categories := r.Categories.Categories(); len(categories) > 0 {
			fmt.Fprintf(&sb, "Known categories: %s\n", strings.Join(categories, ", "))
		}
	}
	if contextSummary != "" {
		fmt.Fprintf(&sb, "World context: %s\n", contextSummary)
	}
	switch kind {
	case entity.KindNPC:
		sb.WriteString("Include a one-line \"purpose\": the NPC's role or agenda in the world.\n")
	case entity.KindLocation:
		sb.WriteString("The category should describe the kind of place (e.g. settlement, ruin, landmark).\n")
	}
	fmt.Fprintf(&sb, "\nRequest: %s", userPrompt)
	return sb.String()
}

// Attributes builds the prompt for the attribute-reconciliation stage.
// Known attribute descriptions and reference ranges are included as
// calibration for the model.
func Attributes(draft *entity.Draft, contextSummary string, available map[string]rules.AttributeMeta, r *rules.WorldRules) string {
	var sb strings.Builder
	sb.WriteString(attributeInstructions)
	sb.WriteString("\n\n")
	fmt.Fprintf(&sb, "Entity: %s (%s, %s)\n", draft.Name, draft.Category, draft.Rarity)
	fmt.Fprintf(&sb, "Description: %s\n", draft.Description)
	if r != nil {
		fmt.Fprintf(&sb, "Genre: %s\n", r.Genre)
	}
	if contextSummary != "" {
		fmt.Fprintf(&sb, "World context: %s\n", contextSummary)
	}

	if len(available) > 0 {
		sb.WriteString("\nKnown attributes:\n")
		names := make([]string, 0, len(available))
		for name := range available {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			meta := available[name]
			fmt.Fprintf(&sb, "- %s (%s): %s", name, meta.Type, meta.Description)
			if meta.Reference != "" {
				fmt.Fprintf(&sb, " [%s]", meta.Reference)
			}
			if len(meta.Values) > 0 {
				fmt.Fprintf(&sb, " {%s}", strings.Join(meta.Values, "|"))
			}
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

// Image builds the prompt for the image-synthesis stage.
func Image(draft *entity.Draft, artStyle string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s, %s rarity. %s", draft.Name, draft.Rarity, draft.Description)
	if artStyle != "" {
		fmt.Fprintf(&sb, " Art style: %s.", artStyle)
	}
	return sb.String()
}
