package expr

// TokenType classifies a lexeme.
type TokenType int

const (
	TokenEOF    TokenType = iota
	TokenNumber           // 3, 0.5, 1e-3
	TokenIdent            // X, k, X_tau, sin
	TokenPlus             // +
	TokenMinus            // -
	TokenStar             // *
	TokenSlash            // /
	TokenCaret            // ^
	TokenComma            // ,
	TokenLParen           // (
	TokenRParen           // )
)

var tokenNames = map[TokenType]string{
	TokenEOF:    "end of input",
	TokenNumber: "number",
	TokenIdent:  "identifier",
	TokenPlus:   "'+'",
	TokenMinus:  "'-'",
	TokenStar:   "'*'",
	TokenSlash:  "'/'",
	TokenCaret:  "'^'",
	TokenComma:  "','",
	TokenLParen: "'('",
	TokenRParen: "')'",
}

func (t TokenType) String() string {
	if s, ok := tokenNames[t]; ok {
		return s
	}
	return "unknown token"
}

// Token is a classified lexeme with its rune offset in the source.
type Token struct {
	Type   TokenType
	Text   string
	Value  float64 // set for TokenNumber
	Offset int
}

func (t Token) describe() string {
	switch t.Type {
	case TokenNumber, TokenIdent:
		return t.Type.String() + " '" + t.Text + "'"
	}
	return t.Type.String()
}
