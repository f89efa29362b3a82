package script

import (
	"path/filepath"
	"strings"
)

// Language is the interpreter family of a script, inferred from its file extension.
type Language string

const (
	LanguageBash       Language = "Bash"
	LanguageShell      Language = "Shell"
	LanguagePython     Language = "Python"
	LanguageJavaScript Language = "JavaScript"
	LanguageRuby       Language = "Ruby"
	LanguagePerl       Language = "Perl"
	LanguagePowerShell Language = "PowerShell"
	LanguageBatch      Language = "Batch"
	LanguageUnknown    Language = "Unknown"
)

// Languages lists every known language.
var Languages = []Language{
	LanguageBash, LanguageShell, LanguagePython, LanguageJavaScript,
	LanguageRuby, LanguagePerl, LanguagePowerShell, LanguageBatch, LanguageUnknown,
}

// LanguageFromExtension maps a file extension (with or without the dot) to a language.
func LanguageFromExtension(ext string) Language {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "sh":
		return LanguageShell
	case "bash":
		return LanguageBash
	case "py":
		return LanguagePython
	case "js":
		return LanguageJavaScript
	case "rb":
		return LanguageRuby
	case "pl":
		return LanguagePerl
	case "ps1":
		return LanguagePowerShell
	case "bat", "cmd":
		return LanguageBatch
	default:
		return LanguageUnknown
	}
}

// LanguageFromPath infers the language of a file, treating a missing extension as "sh".
func LanguageFromPath(path string) Language {
	ext := filepath.Ext(path)
	if ext == "" {
		ext = "sh"
	}
	return LanguageFromExtension(ext)
}

// ParseLanguage resolves a lowercase label such as "python" back to a Language.
func ParseLanguage(label string) (Language, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	for _, l := range Languages {
		if l.Label() == label {
			return l, true
		}
	}
	return LanguageUnknown, false
}

// Label returns the lowercase display name.
func (l Language) Label() string {
	switch l {
	case LanguageBash, LanguageShell, LanguagePython, LanguageJavaScript,
		LanguageRuby, LanguagePerl, LanguagePowerShell, LanguageBatch:
		return strings.ToLower(string(l))
	default:
		return "unknown"
	}
}

// Extension returns the file extension used when materializing the script.
func (l Language) Extension() string {
	switch l {
	case LanguagePython:
		return "py"
	case LanguageJavaScript:
		return "js"
	case LanguageRuby:
		return "rb"
	case LanguagePerl:
		return "pl"
	case LanguagePowerShell:
		return "ps1"
	case LanguageBatch:
		return "bat"
	default:
		return "sh"
	}
}

// Interpreter returns the command and the arguments that precede the script path.
func (l Language) Interpreter() (string, []string) {
	switch l {
	case LanguageShell:
		return "sh", nil
	case LanguagePython:
		return "python3", nil
	case LanguageJavaScript:
		return "node", nil
	case LanguageRuby:
		return "ruby", nil
	case LanguagePerl:
		return "perl", nil
	case LanguagePowerShell:
		return "powershell", []string{"-File"}
	case LanguageBatch:
		return "cmd", []string{"/C"}
	default:
		return "bash", nil
	}
}

// Shebang returns the conventional shebang line, or "" when the language has none.
func (l Language) Shebang() string {
	switch l {
	case LanguageBash:
		return "#!/usr/bin/env bash"
	case LanguageShell:
		return "#!/bin/sh"
	case LanguagePython:
		return "#!/usr/bin/env python3"
	case LanguageRuby:
		return "#!/usr/bin/env ruby"
	case LanguagePerl:
		return "#!/usr/bin/env perl"
	default:
		return ""
	}
}
