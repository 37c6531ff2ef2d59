package languages

import (
	"fmt"
	"sort"
	"strings"

	"github.com/codevault/worker/pkg/constants"
	"github.com/codevault/worker/pkg/errors"
	"github.com/codevault/worker/pkg/messages"
)

type LanguageType int

const (
	JAVA LanguageType = iota + 1
	PYTHON
	CPP
	JAVASCRIPT
)

func (lt LanguageType) String() string {
	for key, value := range LanguageTypeMap {
		if value == lt {
			return key
		}
	}
	return ""
}

// RequiresWrapping reports whether submitted source must be turned into a full
// program before it is sent to a backend.
func (lt LanguageType) RequiresWrapping() bool {
	return lt == JAVA
}

func (lt LanguageType) PistonName() (string, error) {
	if name, ok := PistonLanguageMap[lt]; ok {
		return name, nil
	}
	return "", errors.ErrInvalidLanguageType
}

func (lt LanguageType) Judge0ID() (int, error) {
	if id, ok := Judge0LanguageIDMap[lt]; ok {
		return id, nil
	}
	return 0, errors.ErrInvalidLanguageType
}

var LanguageTypeMap = map[string]LanguageType{
	"JAVA":       JAVA,
	"PYTHON":     PYTHON,
	"CPP":        CPP,
	"JAVASCRIPT": JAVASCRIPT,
}

var LanguageExtensionMap = map[LanguageType]string{
	JAVA:       ".java",
	PYTHON:     ".py",
	CPP:        ".cpp",
	JAVASCRIPT: ".js",
}

var PistonLanguageMap = map[LanguageType]string{
	JAVA:       "java",
	PYTHON:     "python",
	CPP:        "cpp",
	JAVASCRIPT: "javascript",
}

// Judge0 CE language ids: OpenJDK 13, Python 3.8, GCC 9.2, Node.js 12.
var Judge0LanguageIDMap = map[LanguageType]int{
	JAVA:       62,
	PYTHON:     71,
	CPP:        54,
	JAVASCRIPT: 63,
}

func GetSupportedLanguages() []string {
	var languages []string
	for lang := range LanguageTypeMap {
		languages = append(languages, lang)
	}
	sort.Strings(languages)
	return languages
}

// GetSourceFileName returns the file name a backend should compile the
// submission under. Java sources must match the public driver type.
func GetSourceFileName(language LanguageType) (string, error) {
	if language == JAVA {
		return constants.JavaSourceFileName, nil
	}
	if extension, ok := LanguageExtensionMap[language]; ok {
		return fmt.Sprintf("solution%s", extension), nil
	}
	return "", errors.ErrInvalidLanguageType
}

func ParseLanguageType(s string) (LanguageType, error) {
	if lt, ok := LanguageTypeMap[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return lt, nil
	}
	return 0, errors.ErrInvalidLanguageType
}

func GetSupportedLanguagesWithBackends() messages.ResponseHandshakePayload {
	supportedLanguages := make([]messages.LanguageSpec, 0, len(LanguageTypeMap))
	for _, name := range GetSupportedLanguages() {
		langType := LanguageTypeMap[name]
		supportedLanguages = append(supportedLanguages, messages.LanguageSpec{
			LanguageName: name,
			Extension:    LanguageExtensionMap[langType],
			PistonName:   PistonLanguageMap[langType],
			Judge0ID:     Judge0LanguageIDMap[langType],
		})
	}
	return messages.ResponseHandshakePayload{
		Languages: supportedLanguages,
	}
}
