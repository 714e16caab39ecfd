// Package prompt builds the provider prompts for each pipeline stage.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"medmonics/internal/domain"
)

const (
	StyleCartoon         = "cartoon"
	StylePhotorealistic  = "photorealistic"
	StyleProfessional    = "professional"
	DefaultTheme         = "Standard Mnemonic"
	DefaultFallbackTheme = "Minimalist abstract medical vector art, blue and white, clean lines"
)

var styleInstructions = map[string]string{
	StyleCartoon:        "Style: Hyper-vibrant 3D Chibi/Pixar style with exaggerated expressions and cinematic colors.",
	StylePhotorealistic: "Style: Cinematic, high-fidelity National Geographic photography. Real human beings with genuine skin textures, pores, and hair. Shot on 35mm lens, Kodak Portra 400 aesthetic. NO 3D renders, NO animation, NO cartoon elements.",
	StyleProfessional:   "Style: Professional studio headshot, corporate/formal look. 85mm f/1.4 lens compression, classic three-point lighting, clean solid backdrop. Real people in business attire.",
}

// StyleInstruction returns the visual instruction for style, defaulting to cartoon.
func StyleInstruction(style string) string {
	if s, ok := styleInstructions[strings.ToLower(strings.TrimSpace(style))]; ok {
		return s
	}
	return styleInstructions[StyleCartoon]
}

// LanguageInstruction returns the output-language instruction. Only "es" changes the
// default English output.
func LanguageInstruction(lang string) string {
	if strings.EqualFold(lang, "es") {
		return `IMPORTANT: OUTPUT MUST BE IN SPANISH (ESPAÑOL).
- ALL values, text, descriptions, story content, explanations, and terms MUST be in Spanish.
- The characters should have Spanish names or names that make sense in a Spanish pun context.`
	}
	return "Provide all output in English."
}

func toneInstruction(style string) string {
	switch strings.ToLower(style) {
	case StylePhotorealistic:
		return "The tone should be cinematic and editorial (real people in dramatic or grounded scenes)."
	case StyleProfessional:
		return "The tone should be professional and formal (corporate headshot aesthetic)."
	default:
		return "The tone should be humorous and wacky (cartoon style)."
	}
}

// Mnemonic is the step 1 instruction. The topic and optional facts are sent as separate parts.
func Mnemonic(language, theme, style string) string {
	var b strings.Builder
	b.WriteString("Act as an expert medical educator (like Picmonic or SketchyMedical).\n")
	b.WriteString(LanguageInstruction(language) + "\n\n")
	if theme != "" {
		fmt.Fprintf(&b, "The visual style and character setting should follow this theme: '%s'.\n", theme)
	}
	b.WriteString(StyleInstruction(style) + "\n\n")
	b.WriteString("1. Analyze the input to extract high-yield medical facts, dosages, symptoms, and treatments.\n")
	b.WriteString("2. Create a memorable mnemonic story to explain these facts.\n")
	b.WriteString("   - Use sound-alike characters (e.g., 'Macrolide' -> 'Macaroni Slide').\n")
	b.WriteString("   - Keep language simple and narrative.\n")
	b.WriteString("   - " + toneInstruction(style) + "\n")
	b.WriteString("3. List the associations between characters and medical terms.\n")
	b.WriteString("4. Create a visual prompt for a high-quality illustration of this story.\n")
	fmt.Fprintf(&b, "   - IMPORTANT: The visual prompt must incorporate the theme: '%s'.\n\n", theme)
	b.WriteString(`Output a single JSON object with the keys "topic", "facts" (array of strings), "story", ` +
		`"associations" (array of {"character", "medicalTerm", "explanation"}) and "visualPrompt".`)
	return b.String()
}

// Facts renders user-supplied facts as a prompt part.
func Facts(facts []string) string {
	if len(facts) == 0 {
		return ""
	}
	lines := make([]string, 0, len(facts)+1)
	lines = append(lines, "Base the mnemonic on these SPECIFIC facts:")
	for _, f := range facts {
		lines = append(lines, "- "+f)
	}
	return strings.Join(lines, "\n")
}

// EnhanceVisual is the step 2 instruction.
func EnhanceVisual(record *domain.MnemonicRecord, theme string) string {
	assoc, err := json.Marshal(record.Associations)
	if err != nil {
		assoc = []byte("[]")
	}
	return fmt.Sprintf(`Topic: %s
Story: %s
Associations: %s
Theme: %s

Create a highly detailed visual description (visual prompt) for an image generator to illustrate this story.
Focus on visual clarity of the characters and consistency with the story's visual style.
IMPORTANT: The visual prompt MUST follow and explicitly reference the theme: '%s'.
Respond with the visual prompt text only.`, record.Topic, record.Story, assoc, theme, theme)
}

// Image is the step 3 instruction for a visual prompt rendered in theme and style.
func Image(visualPrompt, theme, style string) string {
	var b strings.Builder
	b.WriteString(StyleInstruction(style) + "\n\n")
	fmt.Fprintf(&b, "Subject: %s.\n", strings.TrimSpace(visualPrompt))
	if theme != "" {
		fmt.Fprintf(&b, "Follow the style/aesthetic of '%s'.\n", theme)
	}
	b.WriteString("Composition: A single cohesive scene. High quality, detailed.")
	return b.String()
}

// ImageAttempts is the explicit two-attempt policy of step 3: the primary prompt in the
// requested theme, then the same subject in the safe fallback theme.
type ImageAttempts struct {
	Primary  string
	Fallback string
}

// ImagePolicy builds both attempts for one visual prompt.
func ImagePolicy(visualPrompt, theme, fallbackTheme, style string) ImageAttempts {
	if fallbackTheme == "" {
		fallbackTheme = DefaultFallbackTheme
	}
	return ImageAttempts{
		Primary:  Image(visualPrompt, theme, style),
		Fallback: Image(visualPrompt, fallbackTheme, style),
	}
}

// BboxTargets describes the characters to locate.
func BboxTargets(associations []domain.Association) string {
	parts := make([]string, 0, len(associations))
	for _, a := range associations {
		parts = append(parts, fmt.Sprintf("- Target Character: %q\n  Medical Concept: %q\n  Visual Description/Context: %s",
			a.Character, a.MedicalTerm, a.Explanation))
	}
	return strings.Join(parts, "\n\n")
}

// Bbox is the step 4 instruction.
func Bbox(associations []domain.Association) string {
	return fmt.Sprintf(`You are an expert visual analyzer for medical mnemonic illustrations.

Task: Identify the 2D bounding box for the specific characters listed below in the provided image.

List of Targets:
%s

Instructions:
1. Analyze the image to locate the character described. Use the "Visual Description/Context" to disambiguate if necessary.
2. Return the bounding box [ymin, xmin, ymax, xmax] for each character found.
3. IMPORTANT: Use the normalized 0-1000 scale for coordinates (e.g., [450, 200, 600, 400]).
4. If a character is not found, omit it from the list.

Output Format:
Return a JSON object with a "boxes" key containing an array of objects. Each object must have:
- "character": The exact "Target Character" name.
- "box_2d": [ymin, xmin, ymax, xmax].`, BboxTargets(associations))
}

// QuizContext summarizes the record for step 5.
func QuizContext(record *domain.MnemonicRecord, characters []string) string {
	lines := make([]string, 0, len(record.Associations))
	for _, a := range record.Associations {
		lines = append(lines, fmt.Sprintf("Character: %s -> Medical Concept: %s", a.Character, a.MedicalTerm))
	}
	return fmt.Sprintf("Topic: %s\nFacts: %s\nAssociations:\n%s\nCharacters visible in the illustration: %s",
		record.Topic, strings.Join(record.Facts, "; "), strings.Join(lines, "\n"), strings.Join(characters, ", "))
}

// Quiz is the step 5 instruction.
func Quiz(language string) string {
	return LanguageInstruction(language) + `
Generate a challenging multiple-choice quiz based on the provided associations for a medical student audience.

For each association listed above:
1. Create a question that tests understanding of the medical concept.
   - Do NOT just ask "What does this character represent?".
   - Instead, ask about the *implication* of the fact (mechanism, clinical presentation, treatment).
   - If the association is simple, ask a second-order question related to that fact.
2. Only use characters from the "Characters visible in the illustration" list.

Output Format:
Return a JSON object with a "quizzes" key containing an array of objects. Each object must have:
- "character": The exact character name this question is about.
- "question": The question text.
- "options": An array of 4 options.
- "correctOptionIndex": The index of the correct answer (0-3).
- "explanation": A brief explanation.

Generate questions for ALL associations.`
}

// TopicBreakdown asks for a markdown breakdown of a topic into mnemonic-sized subtopics.
func TopicBreakdown(topic, language string) string {
	return LanguageInstruction(language) + `
Act as an expert medical educator specializing in creating comprehensive study materials for medical students.

Topic: ` + topic + `

Task: Break this medical topic down into detailed subtopics suitable for mnemonic creation.
Cover pathophysiology, clinical presentation, diagnosis, treatment, complications and special populations.
Each subtopic covers ONE concept with 6-10 high-yield facts, ordered from basics to advanced.

Output Format (Strict Markdown):
# [Descriptive Title for the Topic]

## [Subtopic Name]
**Overview**: [Brief context]

**Key Facts**:
- [Fact with specific details]
`
}

// ContentBreakdown asks for the same breakdown over an attached document.
func ContentBreakdown(language string) string {
	return LanguageInstruction(language) + `
Act as an expert medical educator specializing in creating comprehensive study materials for medical students.

Task: Extract ALL important medical information from the provided content and break it into subtopics
suitable for mnemonic creation. Preserve specific values, drug names and criteria. Do not summarize.

Output Format (Strict Markdown):
# [Descriptive Title Based on Source Material]

## [Subtopic Name]
**Overview**: [Brief context]

**Key Facts**:
- [Fact from source]
`
}
