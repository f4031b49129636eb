package script

import "fmt"

// wordsPerMinute converts a target duration into an approximate word budget
// for the dialogue prompt.
const wordsPerMinute = 150

func dialoguePrompt(content string, minutes int) string {
	words := minutes * wordsPerMinute

	return fmt.Sprintf(`You are creating a natural, engaging podcast discussion between a host and guest.

**Speakers:**
- Host: Curious, asks insightful questions, represents the learner
- Guest: Knowledgeable expert, explains clearly, makes topics accessible

**Source Material:**
%s

**Instructions:**
1. Create a %d-minute podcast script (approximately %d words)
2. Start with a warm, engaging introduction
3. Discuss the key points from the source material
4. Use natural conversation with reactions like "wow," "interesting," "that's fascinating"
5. Host should ask follow-up questions that a learner would ask
6. Guest should explain concepts clearly with examples or analogies
7. End with a brief, memorable conclusion
8. Stay true to the source material - don't make up facts
9. Make it sound like a real conversation, not a lecture

**CRITICAL: Format your response EXACTLY like this:**
Host: [Line of dialogue]
Guest: [Response]
Host: [Follow-up]
Guest: [Explanation]
...

Do not include any text outside of the script format. Do not use markdown code blocks. Begin now:
`, content, minutes, words)
}

func summaryPrompt(content string) string {
	return fmt.Sprintf(`Summarize the following content while preserving all key information,
facts, and important details. Keep the summary comprehensive but concise.

Content:
%s

Summary:`, content)
}
