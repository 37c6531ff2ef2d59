package harness

import (
	"regexp"
	"strings"

	"github.com/codevault/worker/internal/stages/wrapper"
	"github.com/codevault/worker/pkg/constants"
)

// Method is a method signature found in a Java type body.
type Method struct {
	Name       string
	ReturnType string
	Params     []string
	Private    bool
	Static     bool
}

var (
	classNameRegex  = regexp.MustCompile(`\bclass\s+([A-Za-z_$][\w$]*)`)
	annotationRegex = regexp.MustCompile(`@[\w$.]+(?:\s*\([^)]*\))?`)
	methodRegex     = regexp.MustCompile(
		`^((?:(?:public|protected|private|static|final|synchronized|abstract|native|strictfp|default)\s+)*)` +
			`(?:<[^>]*>\s*)?` +
			`([\w$.<>\[\],?\s]+?)\s+([A-Za-z_$][\w$]*)\s*\(([^()]*)\)` +
			`\s*(?:throws\s+[\w$.,\s]+)?$`)
)

var javaKeywords = map[string]struct{}{
	"abstract": {}, "case": {}, "catch": {}, "default": {}, "do": {}, "else": {},
	"final": {}, "for": {}, "if": {}, "new": {}, "native": {}, "private": {},
	"protected": {}, "public": {}, "return": {}, "static": {}, "strictfp": {},
	"switch": {}, "synchronized": {}, "throw": {}, "try": {}, "while": {},
}

// FindSolutionType returns the top level type the harness instantiates. A type
// named Solution wins, otherwise the first declared class is used.
func FindSolutionType(source string) string {
	depths := wrapper.CodeDepths(source)

	first := ""
	for _, m := range classNameRegex.FindAllStringSubmatchIndex(source, -1) {
		if depths[m[0]] != 0 {
			continue
		}
		name := source[m[2]:m[3]]
		if name == constants.DefaultSolutionTypeName {
			return name
		}
		if first == "" {
			first = name
		}
	}

	if first == "" {
		return constants.DefaultSolutionTypeName
	}
	return first
}

// ScanMethods lists the methods declared directly in the body of typeName, in
// declaration order. Nested types, initializers and fields are skipped.
func ScanMethods(source, typeName string) []Method {
	depths := wrapper.CodeDepths(source)

	bodyStart := -1
	for _, m := range classNameRegex.FindAllStringSubmatchIndex(source, -1) {
		if depths[m[0]] != 0 || source[m[2]:m[3]] != typeName {
			continue
		}
		for j := m[1]; j < len(source); j++ {
			if depths[j] == 0 && source[j] == '{' {
				bodyStart = j + 1
				break
			}
		}
		break
	}
	if bodyStart < 0 {
		return nil
	}

	var methods []Method
	var header strings.Builder

	for k := bodyStart; k < len(source); k++ {
		depth := depths[k]
		c := source[k]

		if depth == 0 && c == '}' {
			break
		}
		if depth != 1 {
			continue
		}

		switch c {
		case ';', '}':
			header.Reset()
		case '{':
			if method, ok := parseMethodHeader(header.String()); ok {
				methods = append(methods, method)
			}
			header.Reset()
		default:
			header.WriteByte(c)
		}
	}

	return methods
}

func parseMethodHeader(header string) (Method, bool) {
	header = annotationRegex.ReplaceAllString(header, " ")
	header = strings.Join(strings.Fields(header), " ")

	match := methodRegex.FindStringSubmatch(header)
	if match == nil {
		return Method{}, false
	}

	modifiers := strings.Fields(match[1])
	returnType := strings.Join(strings.Fields(match[2]), "")
	name := match[3]

	if _, ok := javaKeywords[name]; ok {
		return Method{}, false
	}
	if _, ok := javaKeywords[returnType]; ok {
		return Method{}, false
	}

	method := Method{
		Name:       name,
		ReturnType: returnType,
		Params:     splitParams(match[4]),
	}
	for _, mod := range modifiers {
		switch mod {
		case "private":
			method.Private = true
		case "static":
			method.Static = true
		}
	}

	return method, true
}

// splitParams returns the normalized parameter types of a parameter list.
func splitParams(list string) []string {
	if strings.TrimSpace(list) == "" {
		return nil
	}

	var params []string
	angle := 0
	start := 0
	for i := 0; i <= len(list); i++ {
		if i < len(list) {
			switch list[i] {
			case '<':
				angle++
				continue
			case '>':
				angle--
				continue
			case ',':
				if angle > 0 {
					continue
				}
			default:
				continue
			}
		}
		params = append(params, paramType(list[start:i]))
		start = i + 1
	}

	return params
}

func paramType(param string) string {
	fields := strings.Fields(param)
	var kept []string
	for _, f := range fields {
		if f != "final" {
			kept = append(kept, f)
		}
	}
	if len(kept) < 2 {
		return strings.Join(kept, "")
	}

	typ := strings.Join(kept[:len(kept)-1], "")
	name := kept[len(kept)-1]

	for strings.HasSuffix(name, "[]") {
		typ += "[]"
		name = strings.TrimSuffix(name, "[]")
	}
	if strings.HasSuffix(typ, "...") {
		typ = strings.TrimSuffix(typ, "...") + "[]"
	}

	return typ
}
