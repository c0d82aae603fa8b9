package money

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Formatter renders amounts for API display fields in the business locale.
type Formatter struct {
	printer *message.Printer
}

// displayLocales are the locales the formatter supports; the first entry is
// the fallback for unparseable or unsupported tags.
var displayLocales = language.NewMatcher([]language.Tag{
	language.French,
	language.English,
})

// NewFormatter builds a Formatter for the given BCP 47 tag, matched against
// the supported display locales. Unknown tags fall back to French.
func NewFormatter(locale string) *Formatter {
	tag, err := language.Parse(locale)
	if err != nil {
		tag = language.French
	}
	tag, _, _ = displayLocales.Match(tag)
	return &Formatter{printer: message.NewPrinter(tag)}
}

// Format renders amount with two decimals using locale conventions.
func (f *Formatter) Format(amount float64) string {
	return f.printer.Sprintf("%.2f", Round2(amount))
}
