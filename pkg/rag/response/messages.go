package response

import "regexp"

// insufficient matches the refusal-style phrases models use when the
// context does not cover the question. Both apostrophe forms are accepted.
var insufficient = regexp.MustCompile(`(?i)don['’]t have|not enough information|cannot find`)

// IsInsufficient reports whether answer admits the context was not enough.
func IsInsufficient(answer string) bool {
	return insufficient.MatchString(answer)
}

// FailureNotice is shown to users when a turn aborts. It must never match IsInsufficient.
const FailureNotice = "Sorry, something went wrong while answering your question. Please try again."
