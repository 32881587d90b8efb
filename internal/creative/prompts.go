package creative

import (
	"fmt"
	"strings"

	"adforge/internal/domain"
)

// Prompt text is assembled in builders rather than kept in const blocks so the
// campaign context can be interpolated field by field, mirroring how the copy
// and image calls consume it.

func buildCopyPrompt(req CopyRequest) string {
	sb := &strings.Builder{}
	sb.WriteString("You are a professional social media copywriter specializing in creative ad campaigns.\n\n")
	sb.WriteString("Generate compelling social media post content based on the following information:\n\n")
	sb.WriteString("CAMPAIGN INFORMATION:\n")
	fmt.Fprintf(sb, "- Campaign Message: %s\n", req.CampaignMessage)
	if req.CallToAction != "" {
		fmt.Fprintf(sb, "- Call to Action: %s\n", req.CallToAction)
	}
	fmt.Fprintf(sb, "- Target Region: %s\n", req.TargetRegion)
	fmt.Fprintf(sb, "- Target Audience: %s\n\n", req.TargetAudience)
	sb.WriteString("PRODUCT INFORMATION:\n")
	fmt.Fprintf(sb, "- Product Name: %s\n", req.ProductName)
	if req.ProductDescription != "" {
		fmt.Fprintf(sb, "- Product Description: %s\n", req.ProductDescription)
	}
	sb.WriteString("\nUSER REQUEST:\n")
	fmt.Fprintf(sb, "%s\n\n", req.UserPrompt)
	sb.WriteString("OUTPUT REQUIREMENTS:\n")
	sb.WriteString("Generate a JSON object with exactly these fields:\n")
	sb.WriteString("1. \"headline\": A short, punchy headline (max 60 characters) that grabs attention\n")
	sb.WriteString("2. \"body_text\": Main post content (2-3 sentences, max 280 characters) that highlights key benefits\n")
	sb.WriteString("3. \"caption\": An engaging social media caption (1-2 sentences, max 150 characters) with relevant tone\n\n")
	sb.WriteString("STYLE GUIDELINES:\n")
	sb.WriteString("- Match the tone to the target audience\n")
	fmt.Fprintf(sb, "- Match the primary language of the region unless specified otherwise; if the region is Global use English. Here is the region: %s\n", req.TargetRegion)
	sb.WriteString("- Incorporate the campaign message naturally\n")
	sb.WriteString("- Make it platform-appropriate for Instagram/Facebook/LinkedIn\n")
	sb.WriteString("- Use active voice and compelling language\n")
	sb.WriteString("- Focus on benefits, not just features\n")
	sb.WriteString("- Keep it concise and impactful\n\n")
	sb.WriteString("IMPORTANT: Return ONLY a valid JSON object with no additional text or explanation. Format:\n")
	sb.WriteString("{\n\"headline\": \"Your headline here\",\n\"body_text\": \"Your body text here\",\n\"caption\": \"Your caption here\",\n\"text_color\": \"#RRGGBB\"\n}\n\n")
	sb.WriteString("The \"text_color\" should be a hex color code for the headline background that:\n")
	sb.WriteString("- Complements the campaign/product vibe\n")
	sb.WriteString("- Provides high contrast for white text\n")
	sb.WriteString("- Is bold, vibrant, and eye-catching for social media\n")
	sb.WriteString("- Examples: \"#FF4081\" (hot pink), \"#00BCD4\" (cyan), \"#FF6F00\" (orange), \"#8E24AA\" (purple)")
	return sb.String()
}

type creativePromptParams struct {
	CampaignMessage string
	Headline        string
	UserPrompt      string
	AspectRatio     string
	SourceCount     int
}

func buildCreativePrompt(p creativePromptParams) string {
	dims := domain.DimensionHint(p.AspectRatio)
	sb := &strings.Builder{}
	if p.SourceCount > 1 {
		fmt.Fprintf(sb, "Blend the %d provided reference images into one new marketing composition for a social media campaign.\n\n", p.SourceCount)
	} else {
		sb.WriteString("Transform this product image for a social media marketing campaign while keeping the product clearly recognizable.\n\n")
	}
	sb.WriteString("CAMPAIGN CONTEXT:\n")
	fmt.Fprintf(sb, "- Campaign Message: %s\n", p.CampaignMessage)
	fmt.Fprintf(sb, "- Post Headline: %s\n", p.Headline)
	fmt.Fprintf(sb, "- Creative Direction: %s\n\n", p.UserPrompt)
	sb.WriteString("OUTPUT FORMAT:\n")
	fmt.Fprintf(sb, "- Generate the image at exactly %s\n", dims)
	fmt.Fprintf(sb, "- Compose the image to perfectly fit the %s aspect ratio without any stretching or distortion\n", p.AspectRatio)
	sb.WriteString("- Fill the entire frame naturally and beautifully\n\n")
	sb.WriteString("REQUIREMENTS:\n")
	if p.SourceCount > 1 {
		sb.WriteString("- Combine every reference image into one cohesive scene; keep the main subject clearly identifiable\n")
	} else {
		sb.WriteString("- Keep the product as the main focus and clearly identifiable\n")
	}
	sb.WriteString("- Add campaign-appropriate atmosphere, lighting, and styling\n")
	sb.WriteString("- Enhance visual appeal for social media (vibrant, eye-catching)\n")
	sb.WriteString("- Make it feel professional and on-brand\n")
	fmt.Fprintf(sb, "- The style should complement the headline: %q\n", p.Headline)
	fmt.Fprintf(sb, "- Add the %q text as an overlay in a visually appealing way appropriate for the campaign\n", p.Headline)
	fmt.Fprintf(sb, "- Compose elements to naturally fill the %s format\n\n", p.AspectRatio)
	sb.WriteString("Transform the imagery to match the campaign vibe while maintaining subject clarity and the specified dimensions.")
	return sb.String()
}

func buildProductImagePrompt(name, description, userPrompt string) string {
	sb := &strings.Builder{}
	fmt.Fprintf(sb, "Generate a professional product photograph for: %s", name)
	if description != "" {
		fmt.Fprintf(sb, "\n\nProduct Description: %s", description)
	}
	if userPrompt != "" {
		fmt.Fprintf(sb, "\n\nStyle/Mood: %s", userPrompt)
	}
	sb.WriteString("\n\nREQUIREMENTS:\n")
	sb.WriteString("- Create a clean, professional product photo suitable for e-commerce and social media\n")
	sb.WriteString("- Place the product as the main focal point with clear visibility\n")
	sb.WriteString("- Use appropriate lighting that highlights product features\n")
	sb.WriteString("- Professional composition with simple, complementary background\n")
	sb.WriteString("- High quality, photorealistic style\n")
	sb.WriteString("- The product should look appealing and ready for marketing use\n")
	sb.WriteString("- Output size: 1080x1080 pixels (square format)\n\n")
	sb.WriteString("IMPORTANT: Focus on creating a professional, marketable product image that would work well in advertising campaigns.")
	return sb.String()
}

func buildAdaptationPrompt(headline, aspectRatio string) string {
	dims := domain.DimensionHint(aspectRatio)
	sb := &strings.Builder{}
	sb.WriteString("Adapt this image to a new aspect ratio while maintaining the exact same visual style and content.\n\n")
	sb.WriteString("TARGET FORMAT:\n")
	fmt.Fprintf(sb, "- Output size: exactly %s\n", dims)
	fmt.Fprintf(sb, "- Aspect ratio: %s\n\n", aspectRatio)
	sb.WriteString("REQUIREMENTS:\n")
	sb.WriteString("- Keep the EXACT same product, styling, colors, atmosphere, and visual elements\n")
	fmt.Fprintf(sb, "- Keep the %q text in the same style and position relative to the new composition\n", headline)
	fmt.Fprintf(sb, "- Intelligently extend or crop the composition to fit the new %s\n", aspectRatio)
	sb.WriteString("- If extending (adding more space), naturally continue the background/atmosphere as if the camera zoomed out\n")
	sb.WriteString("- If cropping (removing space), do so in a way that preserves the key elements\n")
	sb.WriteString("- Maintain visual consistency: this should look like the same image, just reformatted or zoomed out\n\n")
	fmt.Fprintf(sb, "Create a version of this image at %s that feels like a natural recomposition, not a distorted stretch or tiling.", dims)
	return sb.String()
}
