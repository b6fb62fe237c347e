package textwire

// pending separators
var (
	sepNone         []byte
	sepNewLine      = []byte("\n")
	sepCommaNewLine = []byte(",\n")
	sepCommaSpace   = []byte(", ")
	sepSpace        = []byte(" ")
)

const (
	endField     = '\n'
	indentWidth  = 2
	fieldSep     = ": "
	nullLiteral  = `!!null ""`
	documentMark = "---"
	endOfBlock   = "..."
)

// built-in tags, written after a leading '!'
const (
	tagNull     = "!null"
	tagBinary   = "!binary"
	tagAtomic   = "!atomic"
	tagSeqMap   = "seqmap"
	tagType     = "type"
	hexDigits   = "0123456789ABCDEF"
	padBoundary = 64
)

// characters that force double quotes when a string starts with them
const startsQuoteChars = "0123456789+- \t',#:{}[]|>\"!&*"

// characters that force double quotes anywhere after the first position
const quoteChars = "',#:{}[]|>"

type quotes byte

const (
	quoteNone   quotes = 0
	quoteSingle quotes = '\''
	quoteDouble quotes = '"'
)
