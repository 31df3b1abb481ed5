// Package quotes wraps GraphQL string contents in their quote delimiters.
package quotes

const (
	quoteStr      = `"`
	blockQuoteStr = `"""`
)

// WrapString wraps str in quotes (").
func WrapString(str string) string {
	return quoteStr + str + quoteStr
}

// WrapBlockString wraps str in block string quotes (""").
func WrapBlockString(str string) string {
	return blockQuoteStr + str + blockQuoteStr
}

// Wrap wraps str in block string quotes when block is set, in quotes otherwise.
func Wrap(str string, block bool) string {
	if block {
		return WrapBlockString(str)
	}
	return WrapString(str)
}
