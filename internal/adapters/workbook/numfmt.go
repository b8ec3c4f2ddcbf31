package workbook

import (
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/okian/examboard/internal/domain/model"
)

// Built-in number formats that carry a code worth reporting.
var builtinFormats = map[int]string{
	0:  model.FormatGeneral,
	1:  "0",
	2:  "0.00",
	3:  "#,##0",
	4:  "#,##0.00",
	9:  "0%",
	10: "0.00%",
	11: "0.00E+00",
	12: "# ?/?",
	13: "# ??/??",
	14: "mm-dd-yy",
	15: "d-mmm-yy",
	16: "d-mmm",
	17: "mmm-yy",
	18: "h:mm AM/PM",
	19: "h:mm:ss AM/PM",
	20: "h:mm",
	21: "h:mm:ss",
	22: "m/d/yy h:mm",
	45: "mm:ss",
	46: "[h]:mm:ss",
	47: "mmss.0",
	49: "@",
}

func isBuiltinDate(id int) bool {
	return (id >= 14 && id <= 22) || (id >= 45 && id <= 47)
}

// formatOf returns the number-format code of a style and whether it renders dates.
func formatOf(style *excelize.Style) (string, bool) {
	if style == nil {
		return model.FormatGeneral, false
	}
	if style.CustomNumFmt != nil && *style.CustomNumFmt != "" {
		code := *style.CustomNumFmt
		return code, isDateCode(code)
	}
	code, ok := builtinFormats[style.NumFmt]
	if !ok {
		code = model.FormatGeneral
	}
	return code, isBuiltinDate(style.NumFmt)
}

// isDateCode reports whether a custom code contains date or time tokens
// outside quoted literals, escapes and bracketed sections.
func isDateCode(code string) bool {
	var b strings.Builder
	inQuote, inBracket, escaped := false, false, false
	for _, r := range code {
		switch {
		case escaped:
			escaped = false
		case inQuote:
			inQuote = r != '"'
		case inBracket:
			inBracket = r != ']'
		case r == '"':
			inQuote = true
		case r == '[':
			inBracket = true
		case r == '\\':
			escaped = true
		default:
			b.WriteRune(r)
		}
	}
	return strings.ContainsAny(strings.ToLower(b.String()), "ydhms")
}
