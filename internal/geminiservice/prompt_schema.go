package geminiservice

/* =================================================================================
							SAMPLING CONFIGURATIONS
=================================================================================*/

// PlanConfig is used for the plan-metadata prompt and each day prompt.
var PlanConfig = GenerationConfig{
	Temperature:     0.7,
	TopK:            40,
	TopP:            0.95,
	MaxOutputTokens: 8192,
}

// ChatConfig keeps assistant replies short.
var ChatConfig = GenerationConfig{
	Temperature:     0.7,
	TopK:            40,
	TopP:            0.95,
	MaxOutputTokens: 500,
}

/* =================================================================================
							CHAT ASSISTANT PROMPT
=================================================================================*/

const ChatSystemPrompt = `You are FitAI, a friendly fitness and nutrition assistant.
Answer questions about diet, meal planning, macronutrients, hydration, supplements and exercise.
Keep answers short and practical, use simple Markdown lists when they help readability.
You are not a doctor: for medical conditions, medication or eating disorders, recommend consulting a qualified professional.
If a question is unrelated to health, fitness or nutrition, politely steer the conversation back.`
