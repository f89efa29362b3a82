package script

import "strings"

// dangerousPatterns are substrings that make a script require explicit confirmation.
var dangerousPatterns = []string{
	"rm -rf /",
	"rm -rf /*",
	"mkfs",
	"dd if=",
	"> /dev/sda",
	":(){ :|:& };:", // fork bomb
}

// cautionPatterns are reported to the user but never gate a run.
var cautionPatterns = []string{
	"chmod -R 777 /",
	"chown -R",
	"> /dev/sd",
	"mkfs.ext",
	":(){:|:&};:",
}

// DangerousPatterns returns a copy of the patterns checked by IsSafe.
func DangerousPatterns() []string {
	return append([]string(nil), dangerousPatterns...)
}

// IsSafe reports whether the content contains none of the dangerous patterns.
// Matching is a plain case-sensitive substring test.
func (s *Script) IsSafe() bool {
	return len(s.DangerousMatches()) == 0
}

// DangerousMatches returns every dangerous pattern found in the content.
func (s *Script) DangerousMatches() []string {
	return matchPatterns(s.Content, dangerousPatterns)
}

// CautionMatches returns the advisory patterns found in the content.
func (s *Script) CautionMatches() []string {
	return matchPatterns(s.Content, cautionPatterns)
}

func matchPatterns(content string, patterns []string) []string {
	var matches []string
	for _, p := range patterns {
		if strings.Contains(content, p) {
			matches = append(matches, p)
		}
	}
	return matches
}
