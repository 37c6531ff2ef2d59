package harness

import (
	"fmt"
	"strings"

	"github.com/codevault/worker/internal/logger"
	"github.com/codevault/worker/internal/stages/classifier"
	"github.com/codevault/worker/internal/stages/wrapper"
	"github.com/codevault/worker/pkg/messages"
	"go.uber.org/zap"
)

type Harness interface {
	// Synthesize builds a program that feeds the test case input to the
	// submitted solution type and prints the result on a single line.
	Synthesize(source string, testCase messages.TestCase) (string, error)
}

type harness struct {
	logger *zap.SugaredLogger
}

func NewHarness() Harness {
	return &harness{logger: logger.NewNamedLogger("harness")}
}

func (h *harness) Synthesize(source string, testCase messages.TestCase) (string, error) {
	imports, body := wrapper.SplitImports(classifier.DemotePublicClasses(strings.TrimSpace(source)))

	typeName := FindSolutionType(body)
	lines := InputLines(testCase.Input)

	call, err := Resolve(typeName, ScanMethods(body, typeName), len(lines))
	if err != nil {
		h.logger.Warnf("Failed to resolve solution method: %s", err)
		return "", err
	}
	h.logger.Debugf("Calling %s.%s as %s", call.TypeName, call.Method.Name, call.Variant)

	program := wrapper.NewDriverProgram()
	program.AddImports(imports...)
	program.UserTypes = wrapper.MakeStatic(body)
	program.DropShadowedHelpers()
	program.Utilities = utilityDeclarations()
	program.EntryPoint = entryPoint(call, lines)

	return program.Emit(), nil
}

// InputLines splits a raw test input into its argument lines. Blank input has
// no lines.
func InputLines(input string) []string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil
	}

	lines := strings.Split(trimmed, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return lines
}

func entryPoint(call Call, lines []string) string {
	var b strings.Builder

	// Static methods are called through the type name.
	receiver := call.TypeName
	if !call.Method.Static {
		receiver = "solution"
		fmt.Fprintf(&b, "%s solution = new %s();\n", call.TypeName, call.TypeName)
	}
	b.WriteString("try {\n")

	kinds := variantArgs[call.Variant]
	args := make([]string, len(kinds))
	for i, kind := range kinds {
		line := ""
		if i < len(lines) {
			line = lines[i]
		}
		args[i] = writeArgument(&b, i+1, kind, call.Method.Params[i], line)
	}

	invocation := fmt.Sprintf("%s.%s(%s)", receiver, call.Method.Name, strings.Join(args, ", "))
	if call.Method.ReturnType == "void" {
		fmt.Fprintf(&b, "    %s;\n", invocation)
		fmt.Fprintf(&b, "    System.out.println(%s);\n", formatExpression(argumentType(kinds[0]), args[0]))
	} else {
		fmt.Fprintf(&b, "    %s result = %s;\n", call.Method.ReturnType, invocation)
		fmt.Fprintf(&b, "    System.out.println(%s);\n", formatExpression(call.Method.ReturnType, "result"))
	}

	b.WriteString("} catch (Exception e) {\n")
	b.WriteString("    System.out.println(\"Error calling method: \" + e.getMessage());\n")
	b.WriteString("}\n")

	return b.String()
}

// writeArgument emits the statements building argument n and returns the
// expression to pass.
func writeArgument(b *strings.Builder, n int, kind argKind, paramType, line string) string {
	literal := javaStringLiteral(line)

	switch kind {
	case kindLinkedList:
		fmt.Fprintf(b, "    int[] arr%d = parseArray(%s);\n", n, literal)
		fmt.Fprintf(b, "    ListNode list%d = buildList(arr%d);\n", n, n)
		return fmt.Sprintf("list%d", n)
	case kindArray:
		fmt.Fprintf(b, "    int[] arr%d = parseArray(%s);\n", n, literal)
		return fmt.Sprintf("arr%d", n)
	default:
		parse := "Integer.parseInt"
		if paramType == "long" {
			parse = "Long.parseLong"
		}
		fmt.Fprintf(b, "    %s val%d = %s(%s.trim());\n", paramType, n, parse, literal)
		return fmt.Sprintf("val%d", n)
	}
}

func argumentType(kind argKind) string {
	if kind == kindLinkedList {
		return "ListNode"
	}
	return "int[]"
}

// formatExpression converts a value of the given static type to the textual
// array convention. Linked lists and arrays are formatted directly so an
// empty result prints [] rather than null.
func formatExpression(typ, expr string) string {
	switch typ {
	case "ListNode":
		return fmt.Sprintf("formatArray(linkedListToArray(%s))", expr)
	case "int[]":
		return fmt.Sprintf("formatArray(%s)", expr)
	default:
		return fmt.Sprintf("render(%s)", expr)
	}
}

func javaStringLiteral(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}
