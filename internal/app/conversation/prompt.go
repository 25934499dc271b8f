package conversation

import "strings"

// injectContext builds the outbound user content. The strategy is fixed:
// context from the context service goes in a prefixed block ahead of the
// user text, never into the system slot (that slot belongs to the
// configured persona). With no context the text passes through untouched.
func injectContext(contextText, userText string) string {
	if contextText == "" {
		return userText
	}

	var b strings.Builder
	b.WriteString("[Context]\n")
	b.WriteString(contextText)
	b.WriteString("\n\n[User Message]\n")
	b.WriteString(userText)
	return b.String()
}
