package llm

import "fmt"

// InternalSentinel prefixes every prompt recollect sends. When the claude-cli
// provider runs, the child session's hooks see it and skip auto-save.
const InternalSentinel = "[recollect-internal]"

// AuditPrompt asks the model to find things discussed in chat that are missing from memories.
func AuditPrompt(chat, memories string, days int) string {
	return fmt.Sprintf(`%s
You are a MEMORY AUDITOR for a coding assistant.

The assistant keeps a memory store of facts, decisions and state that survive between
sessions. Memories are saved by hand, so things get missed.

Your job: compare the CONVERSATIONS from the last %d days against the SAVED MEMORIES and list
anything important that was discussed but never saved.

LOOK FOR:
1. Decisions made: architecture choices, tool selections, approach decisions
2. New facts learned: endpoints discovered, bugs found, workarounds identified
3. State changes: things deployed, configured, fixed or broken
4. Commitments: promises made about future work
5. Key insights about the project or its systems
6. People and accounts: new names, emails, services mentioned
7. Blockers discovered

IGNORE:
- Routine debugging steps that were resolved
- Transient status checks
- Small talk
- Anything already covered by the saved memories
- One-off commands or file reads with no lasting significance

OUTPUT FORMAT, one block per gap:
## Gap N: <short title>
- **Category**: knowledge | decision | current_state
- **Significance**: 1-10
- **What was discussed**: <brief summary>
- **Suggested memory**: <the text that should be saved>
- **Tags**: <comma-separated tags>

Finish with a summary: total gaps, the most critical gaps (significance >= 8), and an overall
assessment of how well the memory store is keeping up.

=== SAVED MEMORIES (%d chars) ===

%s

=== CONVERSATIONS FROM LAST %d DAYS (%d chars) ===

%s

=== YOUR ANALYSIS ===
`, InternalSentinel, days, len(memories), memories, days, len(chat), chat)
}
