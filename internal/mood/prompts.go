package mood

import (
	"fmt"
	"strings"
)

// Mood prompts carry a strict no-text rule: mood boards are pure visual
// reference material, so any typography the model renders is a defect. The
// builders assemble the instruction around the user's creative direction.

func buildImagePrompt(direction string) string {
	sb := &strings.Builder{}
	sb.WriteString("You are creating inspirational creative material for a social media campaign mood board.\n\n")
	sb.WriteString("CRITICAL RULES:\n")
	sb.WriteString("- DO NOT include any text, words, letters, or typography on the image\n")
	sb.WriteString("- DO NOT add captions, labels, or written content of any kind\n")
	sb.WriteString("- Focus purely on visual aesthetics, mood, atmosphere, and emotion\n")
	sb.WriteString("- Create cohesive compositions that blend the reference images naturally\n")
	sb.WriteString("- Emphasize lighting, color palette, and visual storytelling\n")
	sb.WriteString("- Generate professional, high-quality visuals suitable for brand campaigns\n\n")
	sb.WriteString("Your output should be a visually stunning image with NO TEXT whatsoever.\n\n")
	sb.WriteString("USER CREATIVE DIRECTION:\n")
	fmt.Fprintf(sb, "%s\n\n", strings.TrimSpace(direction))
	sb.WriteString("Generate a visually stunning mood board image that captures this creative direction.")
	return sb.String()
}

func buildVideoPrompt(direction, aspectRatio string, durationSeconds int) string {
	sb := &strings.Builder{}
	sb.WriteString("Create inspirational video material for a social media campaign mood board.\n\n")
	sb.WriteString("CRITICAL RULES:\n")
	sb.WriteString("- DO NOT include any text or typography on the video\n")
	sb.WriteString("- Create smooth, cinematic motion\n")
	sb.WriteString("- Maintain visual coherence throughout the video\n")
	sb.WriteString("- Focus on atmosphere, emotion, and visual storytelling\n")
	sb.WriteString("- Generate professional, high-quality video suitable for brand campaigns\n\n")
	sb.WriteString("Your output should be a visually stunning video with NO TEXT whatsoever.\n\n")
	sb.WriteString("USER CREATIVE DIRECTION:\n")
	fmt.Fprintf(sb, "%s\n\n", strings.TrimSpace(direction))
	sb.WriteString("Generate a cinematic video that captures this creative direction with smooth motion and visual appeal.\n\n")
	sb.WriteString("TECHNICAL SPECIFICATIONS:\n")
	fmt.Fprintf(sb, "- Aspect Ratio: %s\n", aspectRatio)
	fmt.Fprintf(sb, "- Duration: %d seconds", durationSeconds)
	return sb.String()
}
