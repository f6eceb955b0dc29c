package formatter

import (
	"encoding/hex"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/lixenwraith/rlog"
)

// Character classes matched by a sanitize rule
const (
	MatchNonPrintable uint64 = 1 << iota // !strconv.IsPrint
	MatchControl                         // unicode.IsControl
	MatchLineBreak                       // '\n' and '\r'
)

// Replacements applied to a matched rune
const (
	ReplaceStrip  uint64 = 1 << iota // drop the rune
	ReplaceHex                       // "<xxyy>" of the UTF-8 bytes
	ReplaceEscape                    // Go escape sequence, e.g. "\n" or "\x00"
	ReplaceSpace                     // a single space
)

// SanitizeRule pairs a match mask with a replacement. The first rule whose
// mask matches a rune is applied.
type SanitizeRule struct {
	Match   uint64
	Replace uint64
}

// Preset rule sets
var (
	// HexNonPrintable keeps log lines printable while preserving the bytes
	HexNonPrintable = []SanitizeRule{{Match: MatchNonPrintable, Replace: ReplaceHex}}
	// SingleLine folds line breaks to spaces and escapes remaining controls,
	// for syslog and other line oriented targets
	SingleLine = []SanitizeRule{
		{Match: MatchLineBreak, Replace: ReplaceSpace},
		{Match: MatchControl, Replace: ReplaceEscape},
	}
	// StripControl removes control characters
	StripControl = []SanitizeRule{{Match: MatchControl, Replace: ReplaceStrip}}
)

// Sanitize rewrites runes of the message according to its rules. Place it
// before CallSite in a chain, or it will also rewrite the call-site line break.
type Sanitize struct {
	rules []SanitizeRule
}

// NewSanitize creates a Sanitize formatter. Without rules it uses
// HexNonPrintable.
func NewSanitize(rules ...SanitizeRule) *Sanitize {
	if len(rules) == 0 {
		rules = HexNonPrintable
	}
	return &Sanitize{rules: append([]SanitizeRule(nil), rules...)}
}

// Format implements rlog.Formatter
func (s *Sanitize) Format(msg string, _ rlog.Level, _ rlog.CallSite) string {
	// Fast path: nothing to rewrite
	dirty := false
	for _, r := range msg {
		if s.ruleFor(r) != nil {
			dirty = true
			break
		}
	}
	if !dirty {
		return msg
	}

	buf := make([]byte, 0, len(msg)+16)
	for _, r := range msg {
		rule := s.ruleFor(r)
		if rule == nil {
			buf = utf8.AppendRune(buf, r)
			continue
		}
		buf = replaceRune(buf, r, rule.Replace)
	}
	return string(buf)
}

func (s *Sanitize) ruleFor(r rune) *SanitizeRule {
	for i := range s.rules {
		if matches(r, s.rules[i].Match) {
			return &s.rules[i]
		}
	}
	return nil
}

func matches(r rune, mask uint64) bool {
	if mask&MatchLineBreak != 0 && (r == '\n' || r == '\r') {
		return true
	}
	if mask&MatchControl != 0 && unicode.IsControl(r) {
		return true
	}
	if mask&MatchNonPrintable != 0 && !strconv.IsPrint(r) {
		return true
	}
	return false
}

func replaceRune(buf []byte, r rune, replace uint64) []byte {
	switch {
	case replace&ReplaceStrip != 0:
		return buf
	case replace&ReplaceHex != 0:
		var tmp [utf8.UTFMax]byte
		n := utf8.EncodeRune(tmp[:], r)
		buf = append(buf, '<')
		buf = append(buf, hex.EncodeToString(tmp[:n])...)
		return append(buf, '>')
	case replace&ReplaceEscape != 0:
		quoted := strconv.QuoteRune(r)
		return append(buf, quoted[1:len(quoted)-1]...)
	case replace&ReplaceSpace != 0:
		return append(buf, ' ')
	default:
		return utf8.AppendRune(buf, r)
	}
}

var _ rlog.Formatter = (*Sanitize)(nil)
