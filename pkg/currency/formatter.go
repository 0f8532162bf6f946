package currency

import (
	"strings"

	"github.com/shopspring/decimal"
)

type style struct {
	places int32
	group  byte
	point  byte
}

var defaultStyle = style{places: 2, group: ',', point: '.'}

// styles lists currencies that differ from two decimals with comma grouping.
var styles = map[string]style{
	"IDR": {places: 0, group: '.'},
	"JPY": {places: 0, group: ','},
	"KRW": {places: 0, group: ','},
	"VND": {places: 0, group: '.'},
}

// Format renders an amount with its ISO currency code, e.g. "USD 1,234.50"
// or "IDR 1.250.000". Rounding is half away from zero.
func Format(amount float64, code string) string {
	code = strings.ToUpper(code)
	if code == "" {
		code = "USD"
	}
	st, ok := styles[code]
	if !ok {
		st = defaultStyle
	}

	d := decimal.NewFromFloat(amount).Round(st.places)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}

	digits := d.StringFixed(st.places)
	intPart, fracPart := digits, ""
	if st.places > 0 {
		cut := len(digits) - int(st.places) - 1
		intPart, fracPart = digits[:cut], digits[cut+1:]
	}

	var b strings.Builder
	b.WriteString(sign)
	b.WriteString(code)
	b.WriteByte(' ')
	b.WriteString(group(intPart, st.group))
	if fracPart != "" {
		b.WriteByte(st.point)
		b.WriteString(fracPart)
	}
	return b.String()
}

// FormatIDR is Format for rupiah.
func FormatIDR(amount float64) string {
	return Format(amount, "IDR")
}

func group(digits string, sep byte) string {
	if len(digits) <= 3 {
		return digits
	}

	out := make([]byte, 0, len(digits)+len(digits)/3)
	lead := len(digits) % 3
	if lead == 0 {
		lead = 3
	}
	out = append(out, digits[:lead]...)
	for i := lead; i < len(digits); i += 3 {
		out = append(out, sep)
		out = append(out, digits[i:i+3]...)
	}
	return string(out)
}
