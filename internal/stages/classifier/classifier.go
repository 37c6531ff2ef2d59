package classifier

import (
	"regexp"
	"strings"
)

type Shape int

const (
	StatementList Shape = iota
	TypeDeclaration
	CompleteProgram
)

func (s Shape) String() string {
	switch s {
	case CompleteProgram:
		return "complete_program"
	case TypeDeclaration:
		return "type_declaration"
	default:
		return "statement_list"
	}
}

// Classified is a submission tagged with its shape. Source is the trimmed
// submission with public class modifiers demoted, except for complete
// programs which are kept as submitted.
type Classified struct {
	Shape  Shape
	Source string
}

var (
	entryPointRegex  = regexp.MustCompile(`\bstatic\s+void\s+main\s*\(`)
	typeKeywordRegex = regexp.MustCompile(`\b(?:class|interface|enum)\s+[A-Za-z_$]`)
	publicClassRegex = regexp.MustCompile(`\bpublic\s+((?:(?:abstract|final|static)\s+)*)class(\s+)`)
)

// Classify never fails. Anything that is neither a complete program nor a
// type declaration is treated as a statement list.
func Classify(source string) Classified {
	source = strings.TrimSpace(source)

	if entryPointRegex.MatchString(source) {
		return Classified{Shape: CompleteProgram, Source: source}
	}

	stripped := DemotePublicClasses(source)
	if typeKeywordRegex.MatchString(stripped) {
		return Classified{Shape: TypeDeclaration, Source: stripped}
	}

	return Classified{Shape: StatementList, Source: stripped}
}

// DemotePublicClasses drops the public modifier from every class declaration
// and leaves the rest of each declaration untouched.
func DemotePublicClasses(source string) string {
	return publicClassRegex.ReplaceAllString(source, "${1}class${2}")
}
