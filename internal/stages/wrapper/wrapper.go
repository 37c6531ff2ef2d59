package wrapper

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/codevault/worker/internal/logger"
	"github.com/codevault/worker/internal/stages/classifier"
	"github.com/codevault/worker/pkg/constants"
	"github.com/codevault/worker/pkg/languages"
	"go.uber.org/zap"
)

var (
	importLineRegex      = regexp.MustCompile(`^import\s+((?:static\s+)?[\w$.]+(?:\.\*)?)\s*;$`)
	packageLineRegex     = regexp.MustCompile(`^package\s+[\w$.]+\s*;$`)
	typeDeclarationRegex = regexp.MustCompile(`\b(?:class|interface|enum)\s+[A-Za-z_$]`)
	staticModifierRegex  = regexp.MustCompile(`\bstatic\b`)
	typeNameRegex        = regexp.MustCompile(`\b(?:class|interface|enum|record)\s+([A-Za-z_$][\w$]*)`)
)

// Result is the compilable form of a submission.
type Result struct {
	Shape  classifier.Shape
	Source string
}

type Wrapper interface {
	// Wrap turns a submission into a program the execution backend can run.
	// Languages that need no wrapping are returned untouched.
	Wrap(language languages.LanguageType, code string) Result
}

type wrapper struct {
	logger *zap.SugaredLogger
}

func NewWrapper() Wrapper {
	return &wrapper{logger: logger.NewNamedLogger("wrapper")}
}

func (w *wrapper) Wrap(language languages.LanguageType, code string) Result {
	if !language.RequiresWrapping() {
		return Result{Shape: classifier.CompleteProgram, Source: code}
	}

	result := WrapJava(code)
	w.logger.Debugf("Wrapped %s submission as %s", language, result.Shape)
	return result
}

// WrapJava classifies a Java submission and fills the driver program slots
// according to its shape. Complete programs are returned unchanged.
func WrapJava(code string) Result {
	classified := classifier.Classify(code)

	switch classified.Shape {
	case classifier.CompleteProgram:
		return Result{Shape: classified.Shape, Source: classified.Source}
	case classifier.TypeDeclaration:
		program := NewDriverProgram()
		imports, body := SplitImports(classified.Source)
		program.AddImports(imports...)
		program.UserTypes = MakeStatic(body)
		program.DropShadowedHelpers()
		program.EntryPoint = fmt.Sprintf("System.out.println(%q);", constants.CompileCheckMessage)
		return Result{Shape: classified.Shape, Source: program.Emit()}
	default:
		program := NewDriverProgram()
		imports, body := SplitImports(classified.Source)
		program.AddImports(imports...)
		program.EntryPoint = body
		return Result{Shape: classified.Shape, Source: program.Emit()}
	}
}

// NewDriverProgram returns a program with the standard imports and helper
// types and empty user and entry point slots.
func NewDriverProgram() *Program {
	imports := make([]string, len(standardImports))
	copy(imports, standardImports)

	return &Program{
		Imports:    imports,
		DriverName: constants.JavaDriverTypeName,
		Helpers:    helperDeclarations(),
	}
}

// SplitImports lifts the leading import statements out of a submission. A
// leading package declaration is dropped since the driver lives in the
// default package. Comment lines among the imports stay with the body.
func SplitImports(source string) ([]string, string) {
	depths := CodeDepths(source)
	lines := strings.Split(source, "\n")
	var imports, comments []string

	i, offset := 0, 0
	for ; i < len(lines); i++ {
		raw := lines[i]
		start := offset
		offset += len(raw) + 1

		line := strings.TrimSpace(raw)
		if line == "" || packageLineRegex.MatchString(line) {
			continue
		}
		if commentOnly(raw, depths[start:start+len(raw)]) {
			comments = append(comments, raw)
			continue
		}
		match := importLineRegex.FindStringSubmatch(line)
		if match == nil {
			break
		}
		imports = append(imports, strings.Join(strings.Fields(match[1]), " "))
	}

	return imports, strings.Join(append(comments, lines[i:]...), "\n")
}

func commentOnly(line string, depths []int) bool {
	for k := 0; k < len(line); k++ {
		if depths[k] != -1 && !unicode.IsSpace(rune(line[k])) {
			return false
		}
	}
	return true
}

// DeclaredTypes returns the names of the top level types declared in source.
func DeclaredTypes(source string) map[string]struct{} {
	depths := CodeDepths(source)
	names := make(map[string]struct{})
	for _, m := range typeNameRegex.FindAllStringSubmatchIndex(source, -1) {
		if depths[m[0]] != 0 || (m[0] > 0 && source[m[0]-1] == '.') {
			continue
		}
		names[source[m[2]:m[3]]] = struct{}{}
	}
	return names
}

// MakeStatic adds the static modifier to every top level type declaration so
// the types can be nested in the driver and still be instantiated from main.
func MakeStatic(source string) string {
	depths := CodeDepths(source)
	matches := typeDeclarationRegex.FindAllStringIndex(source, -1)

	for k := len(matches) - 1; k >= 0; k-- {
		start := matches[k][0]
		if depths[start] != 0 {
			continue
		}
		if start > 0 && source[start-1] == '.' {
			continue
		}
		if staticModifierRegex.MatchString(modifiersBefore(source, depths, start)) {
			continue
		}
		source = source[:start] + "static " + source[start:]
	}

	return source
}

// modifiersBefore returns the text between the previous top level boundary
// and the declaration keyword at start.
func modifiersBefore(source string, depths []int, start int) string {
	i := start - 1
	for ; i >= 0; i-- {
		if depths[i] != 0 {
			continue
		}
		if c := source[i]; c == ';' || c == '}' || c == '{' {
			break
		}
	}
	return source[i+1 : start]
}
