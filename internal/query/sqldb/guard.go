package sqldb

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

var (
	ErrReadOnly           = errors.New("only read-only statements are allowed")
	ErrMultipleStatements = errors.New("multiple SQL statements are not allowed")
)

var readOnlyLeadingKeywords = map[string]struct{}{
	"SELECT":   {},
	"WITH":     {},
	"EXPLAIN":  {},
	"PRAGMA":   {},
	"SHOW":     {},
	"DESCRIBE": {},
	"VALUES":   {},
}

// Keywords that never appear in a read-only statement, even nested in a CTE.
var mutatingKeywords = map[string]struct{}{
	"INSERT":   {},
	"UPDATE":   {},
	"DELETE":   {},
	"MERGE":    {},
	"UPSERT":   {},
	"DROP":     {},
	"CREATE":   {},
	"ALTER":    {},
	"TRUNCATE": {},
	"GRANT":    {},
	"REVOKE":   {},
	"ATTACH":   {},
	"DETACH":   {},
	"VACUUM":   {},
	"COPY":     {},
	"CALL":     {},
	"EXEC":     {},
	"EXECUTE":  {},
	"INTO":     {},
	"OUTFILE":  {},
	"DUMPFILE": {},
}

// PRAGMAs that may take a parenthesised argument without changing anything.
var readOnlyPragmas = map[string]struct{}{
	"TABLE_INFO":       {},
	"TABLE_XINFO":      {},
	"TABLE_LIST":       {},
	"INDEX_LIST":       {},
	"INDEX_INFO":       {},
	"INDEX_XINFO":      {},
	"FOREIGN_KEY_LIST": {},
}

// CheckReadOnly accepts a single statement whose leading keyword is one of the
// query verbs and that contains no data- or schema-changing keyword outside
// string literals, quoted identifiers and comments.
func CheckReadOnly(sqlText string) error {
	normalized := stripTrailingSemicolons(sqlText)
	if normalized == "" {
		return fmt.Errorf("sql is required")
	}
	words, multiple := scanWords(normalized)
	if multiple {
		return ErrMultipleStatements
	}
	if len(words) == 0 {
		return fmt.Errorf("%w: no statement found", ErrReadOnly)
	}
	if _, ok := readOnlyLeadingKeywords[words[0]]; !ok {
		return fmt.Errorf("%w: %s statements are rejected", ErrReadOnly, words[0])
	}
	for _, word := range words[1:] {
		if _, ok := mutatingKeywords[word]; ok {
			return fmt.Errorf("%w: statement contains %s", ErrReadOnly, word)
		}
	}
	if words[0] == "PRAGMA" {
		return checkPragma(stripQuoted(normalized))
	}
	return nil
}

// checkPragma rejects both assignment forms, PRAGMA x = v and PRAGMA x(v),
// unless the pragma only reports schema information.
func checkPragma(sqlText string) error {
	if strings.Contains(sqlText, "=") {
		return fmt.Errorf("%w: PRAGMA assignments are rejected", ErrReadOnly)
	}
	open := strings.Index(sqlText, "(")
	if open < 0 {
		return nil
	}
	words, _ := scanWords(sqlText[:open])
	if len(words) == 0 {
		return fmt.Errorf("%w: malformed PRAGMA", ErrReadOnly)
	}
	name := words[len(words)-1]
	if _, ok := readOnlyPragmas[name]; !ok {
		return fmt.Errorf("%w: PRAGMA %s with an argument is rejected", ErrReadOnly, name)
	}
	return nil
}

// scanWords returns the upper-cased bare words of sqlText and whether a
// statement separator appears outside quotes and comments.
func scanWords(sqlText string) ([]string, bool) {
	var (
		words    []string
		current  strings.Builder
		multiple bool
	)
	flush := func() {
		if current.Len() > 0 {
			words = append(words, strings.ToUpper(current.String()))
			current.Reset()
		}
	}

	runes := []rune(sqlText)
	for i := 0; i < len(runes); i++ {
		char := runes[i]
		switch {
		case char == '-' && i+1 < len(runes) && runes[i+1] == '-':
			flush()
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
		case char == '/' && i+1 < len(runes) && runes[i+1] == '*':
			flush()
			i += 2
			for i < len(runes) && !(runes[i] == '*' && i+1 < len(runes) && runes[i+1] == '/') {
				i++
			}
			i++
		case char == '\'' || char == '"' || char == '`' || char == '[':
			flush()
			closing := char
			if char == '[' {
				closing = ']'
			}
			i = skipQuoted(runes, i, closing)
		case char == ';':
			flush()
			multiple = true
		case unicode.IsLetter(char) || unicode.IsDigit(char) || char == '_':
			current.WriteRune(char)
		default:
			flush()
		}
	}
	flush()
	return words, multiple
}

// skipQuoted returns the index of the closing quote that matches the opening
// one at start. Doubled closing quotes are escapes.
func skipQuoted(runes []rune, start int, closing rune) int {
	for i := start + 1; i < len(runes); i++ {
		if runes[i] == '\\' && closing == '\'' {
			i++
			continue
		}
		if runes[i] != closing {
			continue
		}
		if i+1 < len(runes) && runes[i+1] == closing {
			i++
			continue
		}
		return i
	}
	return len(runes)
}

func stripQuoted(sqlText string) string {
	runes := []rune(sqlText)
	var b strings.Builder
	for i := 0; i < len(runes); i++ {
		switch runes[i] {
		case '\'', '"', '`':
			i = skipQuoted(runes, i, runes[i])
		default:
			b.WriteRune(runes[i])
		}
	}
	return b.String()
}

func stripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
