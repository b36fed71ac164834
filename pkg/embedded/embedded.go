package embedded

import (
	_ "embed"
)

// Embed all prompt template files
//
//go:embed prompts/system_prompt.txt
var SystemPromptTxt []byte

//go:embed prompts/melody_prompt.txt
var MelodyPromptTxt []byte

//go:embed prompts/emotion_prompt.txt
var EmotionPromptTxt []byte

//go:embed prompts/continuation_context.txt
var ContinuationContextTxt []byte
