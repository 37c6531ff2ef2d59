package wrapper

import (
	"fmt"
	"strings"
)

const indentUnit = "    "

// Declaration is a member nested in the driver type.
type Declaration struct {
	Name    string
	Comment string
	Source  string
}

// Program is one Java compilation unit with a single public driver type. The
// driver holds, in order, the helper types, the user's types, utility methods
// and the entry point.
type Program struct {
	Imports    []string
	DriverName string
	Helpers    []Declaration
	UserTypes  string
	Utilities  []Declaration
	EntryPoint string
}

// AddImports appends imports that are not present yet.
func (p *Program) AddImports(imports ...string) {
	for _, imp := range imports {
		found := false
		for _, existing := range p.Imports {
			if existing == imp {
				found = true
				break
			}
		}
		if !found {
			p.Imports = append(p.Imports, imp)
		}
	}
}

// DropShadowedHelpers removes the helper types the user types declare
// themselves.
func (p *Program) DropShadowedHelpers() {
	declared := DeclaredTypes(p.UserTypes)

	kept := p.Helpers[:0]
	for _, helper := range p.Helpers {
		if _, ok := declared[helper.Name]; !ok {
			kept = append(kept, helper)
		}
	}
	p.Helpers = kept
}

// Emit renders the program as Java source text.
func (p *Program) Emit() string {
	var b strings.Builder

	for _, imp := range p.Imports {
		fmt.Fprintf(&b, "import %s;\n", imp)
	}
	if len(p.Imports) > 0 {
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "public class %s {\n", p.DriverName)

	for _, decl := range p.Helpers {
		writeDeclaration(&b, decl)
	}
	if strings.TrimSpace(p.UserTypes) != "" {
		writeDeclaration(&b, Declaration{Source: p.UserTypes})
	}
	for _, decl := range p.Utilities {
		writeDeclaration(&b, decl)
	}

	b.WriteString(indentUnit + "public static void main(String[] args) {\n")
	if strings.TrimSpace(p.EntryPoint) != "" {
		b.WriteString(indent(p.EntryPoint, 2))
	}
	b.WriteString(indentUnit + "}\n")
	b.WriteString("}\n")

	return b.String()
}

func writeDeclaration(b *strings.Builder, decl Declaration) {
	if decl.Comment != "" {
		fmt.Fprintf(b, "%s// %s\n", indentUnit, decl.Comment)
	}
	b.WriteString(indent(decl.Source, 1))
	b.WriteString("\n")
}

// indent prefixes every non blank line and keeps the relative indentation of
// the text. The result always ends with a line break.
func indent(text string, level int) string {
	prefix := strings.Repeat(indentUnit, level)
	lines := strings.Split(strings.Trim(text, "\n"), "\n")

	var b strings.Builder
	for _, line := range lines {
		line = strings.TrimRight(line, " \t\r")
		if line != "" {
			b.WriteString(prefix)
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	return b.String()
}
