package state

// History walks previously submitted prompts, newest first, the way a shell does.
type History struct {
	entries []string
	cursor  int // len(entries) means "not browsing"
	draft   string
}

// NewHistory starts a history from saved prompts, oldest first.
func NewHistory(prompts []string) *History {
	entries := append([]string(nil), prompts...)
	return &History{entries: entries, cursor: len(entries)}
}

// Add records prompt and resets browsing. Blank prompts and immediate
// repeats are not recorded.
func (h *History) Add(prompt string) {
	if prompt != "" && (len(h.entries) == 0 || h.entries[len(h.entries)-1] != prompt) {
		h.entries = append(h.entries, prompt)
	}
	h.cursor = len(h.entries)
	h.draft = ""
}

// Prev moves to the previous prompt. current is remembered as the draft when
// browsing starts. ok is false at the oldest entry.
func (h *History) Prev(current string) (string, bool) {
	if h.cursor == 0 {
		return "", false
	}
	if h.cursor == len(h.entries) {
		h.draft = current
	}
	h.cursor--
	return h.entries[h.cursor], true
}

// Next moves towards the newest prompt and finally back to the draft.
func (h *History) Next() (string, bool) {
	if h.cursor >= len(h.entries) {
		return "", false
	}
	h.cursor++
	if h.cursor == len(h.entries) {
		return h.draft, true
	}
	return h.entries[h.cursor], true
}

// Entries returns the prompts, oldest first.
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}
