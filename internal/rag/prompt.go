package rag

import "strings"

// PromptTemplateVersion identifies the static instructions in Render. Bump it
// whenever the wording changes so logged prompts can be traced back.
const PromptTemplateVersion = "v1"

// PromptPayload is everything the generation client needs for one answer.
type PromptPayload struct {
	Question string
	Context  string
	History  string
}

// AssemblePrompt packages the three inputs without transforming them.
func AssemblePrompt(question, context, history string) PromptPayload {
	return PromptPayload{
		Question: question,
		Context:  context,
		History:  history,
	}
}

// Render fills the instruction template.
func (p PromptPayload) Render() string {
	var b strings.Builder

	// Layer 1: Role
	b.WriteString("You are a helpful assistant that answers questions and concerns about Google Cloud Certifications. ")
	b.WriteString("You help users with the certification process, exam details and project ideas, ")
	b.WriteString("and you can explain the different certification paths and the benefits of getting certified.\n\n")

	// Layer 2: Question and retrieved documents
	b.WriteString("Answer the user's question: ")
	b.WriteString(p.Question)
	b.WriteString("\n\nUse the information provided here: ")
	b.WriteString(p.Context)
	b.WriteString("\n")

	// Layer 3: Conversation so far
	if p.History != "" {
		b.WriteString(p.History)
		b.WriteString("\n")
	}

	// Layer 4: Follow-up rules
	b.WriteString("\nIMPORTANT: If this is a follow-up question (like \"What about this?\" or \"What career paths?\"), ")
	b.WriteString("focus your answer on the certification or topic mentioned in the previous conversation. ")
	b.WriteString("Only mention other certifications if they are directly relevant to the specific question being asked. ")
	b.WriteString("Stay focused on the context of the ongoing conversation.\n\n")

	b.WriteString("Please provide a helpful and detailed response that stays on topic.")

	return b.String()
}
