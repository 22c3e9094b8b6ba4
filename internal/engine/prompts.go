package engine

// Built-in prompts, one per task route. The analyze route accepts a caller
// override; the others always use theirs.

const AnalysisPrompt = `Analyze this music and provide:
1. Genre and style
2. Mood and energy level (1-10)
3. Best use case (party, chill, workout, etc.)
4. Similar artists/tracks
5. Production notes (tempo, key, instrumentation)
`

const PartyVibePrompt = `Rate this track for a party (1-10) and explain why.
Consider: energy, danceability, crowd appeal, drop quality.
Give a one-line verdict like "🔥 BANGER - Drop this at peak time!" or "😴 Skip - Too chill"
`

const TranscriptionPrompt = "Transcribe all lyrics from this song accurately."

const CaptionPrompt = `Create a catchy social media caption for this track.
Make it fun, include emojis, and capture the vibe.
Examples: "This drop hits different 🚀", "Late night drives only 🌙"
`
