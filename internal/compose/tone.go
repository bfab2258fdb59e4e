package compose

// NeutralTone is used whenever a tone is missing or unknown.
const NeutralTone = "constructive"

var toneModifiers = map[string]string{
	"educational":   "Explain the reasoning behind every point and include a short example of the better approach. Assume they are still learning the fundamentals.",
	"collaborative": "Frame feedback as a conversation between teammates. Ask what they think before prescribing a fix.",
	"direct":        "Be direct and professional. Assume they know the fundamentals. Focus on team standards and architectural concerns.",
	"peer":          "Speak as a peer. Skip basics, debate tradeoffs openly and expect them to defend their choices.",
	"encouraging":   "Lead with what went well. Keep criticism gentle and pair every concern with a concrete next step.",
	"constructive":  "Balance strengths and improvements. Keep each point specific and actionable.",
	"challenging":   "Push back on weak reasoning. Ask probing questions and hold a high bar for evidence.",
	"balanced":      "Give equal weight to strengths and gaps. Keep the tone calm and matter-of-fact.",
	"mentoring":     "Act as a patient mentor. Offer context they may not have and check their understanding as you go.",
	"supportive":    "Reassure them that mistakes are expected. Keep the pace slow and celebrate small wins.",
}

// ToneModifier returns the prompt fragment for tone, falling back to the
// neutral tone.
func ToneModifier(tone string) string {
	if m, ok := toneModifiers[tone]; ok {
		return m
	}
	return toneModifiers[NeutralTone]
}

// KnownTone reports whether tone has its own prompt fragment.
func KnownTone(tone string) bool {
	_, ok := toneModifiers[tone]
	return ok
}
