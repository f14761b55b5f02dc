package usage

import (
	"os"
	"strings"
)

// ParseFile reads and parses one source file.
func ParseFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data)), nil
}

// Parse builds the syntax tree for a source text. The parser is tolerant:
// constructs outside the recognized subset degrade to generic nodes
// rather than failing, so analysis sees as much of the file as possible.
func Parse(src string) *File {
	p := &parser{toks: lex(src), file: &File{}}
	p.file.Stmts = p.parseStmts("")
	return p.file
}

type parser struct {
	toks []token
	pos  int
	file *File
}

func (p *parser) cur() token  { return p.toks[p.pos] }
func (p *parser) peek() token { return p.at(p.pos + 1) }

func (p *parser) at(i int) token {
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *parser) next() token {
	tok := p.toks[p.pos]
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return tok
}

func (p *parser) is(text string) bool { return p.cur().text == text && p.cur().kind != tokString }

func (p *parser) accept(text string) bool {
	if p.is(text) {
		p.next()
		return true
	}
	return false
}

// parseStmts parses until the closing punct (or EOF when until is empty).
func (p *parser) parseStmts(until string) []Stmt {
	var stmts []Stmt
	for p.cur().kind != tokEOF && !(until != "" && p.is(until)) {
		before := p.pos
		if s := p.parseStmt(); s != nil {
			stmts = append(stmts, s)
		}
		if p.pos == before {
			p.next() // never stall on unrecognized input
		}
	}
	return stmts
}

func (p *parser) parseStmt() Stmt {
	tok := p.cur()

	if tok.kind == tokPunct {
		switch tok.text {
		case "{":
			return p.parseBlock()
		case ";":
			p.next()
			return nil
		}
		return p.parseExprStmt()
	}

	if tok.kind != tokIdent {
		return p.parseExprStmt()
	}

	switch tok.text {
	case "import":
		p.parseImport()
		return nil
	case "export":
		p.next()
		if p.accept("default") {
			return p.parseStmt()
		}
		if p.is("{") || p.is("*") {
			// Export list or re-export; a from-clause is an import edge.
			p.skipUntilFrom()
			return nil
		}
		return p.parseStmt()
	case "async":
		if p.peek().text == "function" {
			p.next()
			return p.parseFuncDecl()
		}
		return p.parseExprStmt()
	case "function":
		return p.parseFuncDecl()
	case "const", "let", "var":
		return p.parseVarStmt()
	case "return":
		p.next()
		r := &ReturnStmt{Line: tok.line}
		if !p.is(";") && !p.is("}") && p.cur().kind != tokEOF {
			r.X = p.parseAssign()
		}
		p.accept(";")
		return r
	case "if":
		return p.parseIf()
	case "try":
		return p.parseTry()
	case "for":
		return p.parseFor()
	case "while":
		return p.parseWhile()
	case "do":
		return p.parseDoWhile()
	case "switch":
		return p.parseSwitch()
	case "throw":
		p.next()
		t := &ThrowStmt{X: p.parseAssign()}
		p.accept(";")
		return t
	case "break", "continue":
		p.next()
		if p.cur().kind == tokIdent {
			p.next() // label
		}
		p.accept(";")
		return nil
	case "interface", "enum":
		p.next()
		for p.cur().kind != tokEOF && !p.is("{") {
			p.next()
		}
		p.skipBalanced("{", "}")
		return nil
	case "type":
		if p.peek().kind == tokIdent {
			p.next()
			p.next()
			if p.accept("<") {
				p.skipBalancedFrom("<", ">")
			}
			if p.accept("=") {
				p.skipType()
			}
			p.accept(";")
			return nil
		}
		return p.parseExprStmt()
	case "class":
		p.next()
		for p.cur().kind != tokEOF && !p.is("{") {
			p.next()
		}
		p.skipBalanced("{", "}")
		return nil
	case "declare", "namespace":
		p.next()
		return p.parseStmt()
	}

	return p.parseExprStmt()
}

func (p *parser) parseExprStmt() Stmt {
	x := p.parseAssign()
	p.accept(";")
	if x == nil {
		return nil
	}
	return &ExprStmt{X: x}
}

func (p *parser) parseBlock() *BlockStmt {
	if !p.accept("{") {
		return &BlockStmt{}
	}
	stmts := p.parseStmts("}")
	p.accept("}")
	return &BlockStmt{Stmts: stmts}
}

func (p *parser) parseImport() {
	p.next() // import
	for p.cur().kind != tokEOF {
		tok := p.cur()
		if tok.kind == tokString {
			p.file.Imports = append(p.file.Imports, Import{Path: tok.text, Line: tok.line})
			p.next()
			p.accept(";")
			return
		}
		if tok.text == ";" {
			p.next()
			return
		}
		p.next()
	}
}

func (p *parser) skipUntilFrom() {
	for p.cur().kind != tokEOF && !p.is(";") {
		if p.cur().kind == tokString {
			p.file.Imports = append(p.file.Imports, Import{Path: p.cur().text, Line: p.cur().line})
		}
		p.next()
	}
	p.accept(";")
}

func (p *parser) parseFuncDecl() Stmt {
	p.next() // function
	decl := &FuncDecl{}
	if p.cur().kind == tokIdent {
		decl.Name = p.next().text
	}
	p.skipSignature()
	decl.Body = p.parseBlock()
	return decl
}

// skipSignature consumes optional generic params, the parameter list and
// an optional return-type annotation.
func (p *parser) skipSignature() {
	if p.is("<") {
		p.skipBalanced("<", ">")
	}
	p.skipBalanced("(", ")")
	if p.accept(":") {
		p.skipType()
	}
}

func (p *parser) parseVarStmt() Stmt {
	p.next() // const | let | var
	v := &VarStmt{}
	for {
		// Binding pattern: identifier or destructuring.
		switch {
		case p.is("{"):
			p.skipBalanced("{", "}")
		case p.is("["):
			p.skipBalanced("[", "]")
		case p.cur().kind == tokIdent:
			p.next()
		}
		p.accept("!")
		if p.accept(":") {
			p.skipType()
		}
		if p.accept("=") {
			if init := p.parseAssign(); init != nil {
				v.Inits = append(v.Inits, init)
			}
		}
		if !p.accept(",") {
			break
		}
	}
	p.accept(";")
	return v
}

func (p *parser) parseIf() Stmt {
	p.next() // if
	s := &IfStmt{}
	if p.accept("(") {
		s.Cond = p.parseAssign()
		p.accept(")")
	}
	s.Then = p.parseStmt()
	if p.accept("else") {
		s.Else = p.parseStmt()
	}
	return s
}

func (p *parser) parseTry() Stmt {
	p.next() // try
	s := &TryStmt{Body: p.parseBlock()}
	if p.accept("catch") {
		if p.is("(") {
			p.skipBalanced("(", ")")
		}
		s.Catch = p.parseBlock()
	}
	if p.accept("finally") {
		s.Finally = p.parseBlock()
	}
	return s
}

func (p *parser) parseFor() Stmt {
	p.next()         // for
	p.accept("await") // for await (... of ...)
	s := &ForStmt{}
	if p.accept("(") {
		if p.is("const") || p.is("let") || p.is("var") {
			p.next()
			switch {
			case p.is("{"):
				p.skipBalanced("{", "}")
			case p.is("["):
				p.skipBalanced("[", "]")
			case p.cur().kind == tokIdent:
				p.next()
			}
			if p.accept(":") {
				p.skipType()
			}
		}
		for p.cur().kind != tokEOF && !p.is(")") {
			if p.accept(";") || p.accept("of") || p.accept("in") {
				continue
			}
			before := p.pos
			if x := p.parseAssign(); x != nil {
				s.Header = append(s.Header, x)
			}
			if p.pos == before {
				p.next()
			}
		}
		p.accept(")")
	}
	s.Body = p.parseStmt()
	return s
}

func (p *parser) parseWhile() Stmt {
	p.next() // while
	s := &ForStmt{}
	if p.accept("(") {
		if x := p.parseAssign(); x != nil {
			s.Header = append(s.Header, x)
		}
		p.accept(")")
	}
	s.Body = p.parseStmt()
	return s
}

func (p *parser) parseDoWhile() Stmt {
	p.next() // do
	s := &ForStmt{Body: p.parseStmt()}
	if p.accept("while") && p.accept("(") {
		if x := p.parseAssign(); x != nil {
			s.Header = append(s.Header, x)
		}
		p.accept(")")
	}
	p.accept(";")
	return s
}

func (p *parser) parseSwitch() Stmt {
	p.next() // switch
	s := &ForStmt{}
	if p.accept("(") {
		if x := p.parseAssign(); x != nil {
			s.Header = append(s.Header, x)
		}
		p.accept(")")
	}
	if p.accept("{") {
		var stmts []Stmt
		for p.cur().kind != tokEOF && !p.is("}") {
			if p.accept("case") {
				p.parseAssign()
				p.accept(":")
				continue
			}
			if p.accept("default") {
				p.accept(":")
				continue
			}
			before := p.pos
			if st := p.parseStmt(); st != nil {
				stmts = append(stmts, st)
			}
			if p.pos == before {
				p.next()
			}
		}
		p.accept("}")
		s.Body = &BlockStmt{Stmts: stmts}
	}
	return s
}

// --- expressions ---

var assignOps = map[string]bool{
	"=": true, "+=": true, "-=": true, "*=": true, "/=": true, "%=": true,
	"&=": true, "|=": true, "^=": true, "**=": true,
}

var binaryOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"<": true, ">": true, "<=": true, ">=": true,
	"==": true, "===": true, "!=": true, "!==": true,
	"&&": true, "||": true, "??": true,
	"&": true, "|": true, "^": true, "<<": true, ">>": true,
	"instanceof": true, "in": true,
}

func (p *parser) parseAssign() Expr {
	x := p.parseCond()
	if p.cur().kind == tokPunct && assignOps[p.cur().text] {
		p.next()
		y := p.parseAssign()
		return &Assign{X: x, Y: y}
	}
	return x
}

func (p *parser) parseCond() Expr {
	x := p.parseBinary()
	if p.is("?") {
		p.next()
		then := p.parseAssign()
		p.accept(":")
		els := p.parseAssign()
		return &Cond{Cond: x, Then: then, Else: els}
	}
	return x
}

// parseBinary folds every binary operator at one level; the usage
// contract never depends on arithmetic precedence.
func (p *parser) parseBinary() Expr {
	x := p.parseUnary()
	for {
		tok := p.cur()
		if tok.kind == tokIdent && tok.text == "as" {
			p.next()
			p.skipType()
			continue
		}
		if !binaryOps[tok.text] || tok.kind == tokString {
			return x
		}
		op := p.next().text
		y := p.parseUnary()
		x = &Binary{Op: op, X: x, Y: y}
	}
}

func (p *parser) parseUnary() Expr {
	tok := p.cur()
	switch tok.text {
	case "await":
		p.next()
		return &Await{X: p.parseUnary()}
	case "!", "-", "+", "~", "...", "typeof", "void", "delete":
		p.next()
		return &Unary{Op: tok.text, X: p.parseUnary()}
	case "new":
		p.next()
		return &Unary{Op: "new", X: p.parsePostfix(p.parsePrimary())}
	}
	return p.parsePostfix(p.parsePrimary())
}

func (p *parser) parsePostfix(x Expr) Expr {
	for {
		tok := p.cur()
		switch {
		case p.is("."):
			p.next()
			if p.cur().kind == tokIdent {
				x = &Member{X: x, Sel: p.next().text}
			}
		case p.is("?."):
			p.next()
			if p.is("(") {
				x = p.parseCallArgs(x, nil, tok.line)
			} else if p.cur().kind == tokIdent {
				x = &Member{X: x, Sel: p.next().text}
			}
		case p.is("("):
			x = p.parseCallArgs(x, nil, tok.line)
		case p.is("["):
			p.next()
			i := p.parseAssign()
			p.accept("]")
			x = &Index{X: x, I: i}
		case p.is("<"):
			args, ok := p.tryTypeArgs()
			if !ok {
				return x
			}
			x = p.parseCallArgs(x, args, tok.line)
		case p.is("!"), p.is("++"), p.is("--"):
			p.next()
		default:
			return x
		}
	}
}

func (p *parser) parseCallArgs(fun Expr, typeArgs []string, line int) Expr {
	p.accept("(")
	call := &Call{Fun: fun, TypeArgs: typeArgs, Line: line}
	for p.cur().kind != tokEOF && !p.is(")") {
		before := p.pos
		if arg := p.parseAssign(); arg != nil {
			call.Args = append(call.Args, arg)
		}
		p.accept(",")
		if p.pos == before {
			p.next()
		}
	}
	p.accept(")")

	// require('./x') and import('./x') are import edges too.
	if ident, ok := fun.(*Ident); ok && (ident.Name == "require" || ident.Name == "import") {
		if len(call.Args) == 1 {
			if lit, ok := call.Args[0].(*BasicLit); ok {
				p.file.Imports = append(p.file.Imports, Import{Path: lit.Value, Line: line})
			}
		}
	}
	return call
}

// tryTypeArgs disambiguates generic call type arguments from a less-than
// comparison: a short run of type-ish tokens closed by > and immediately
// followed by ( is treated as type arguments.
func (p *parser) tryTypeArgs() ([]string, bool) {
	const window = 64
	depth := 0
	var parts []string
	var current []string
	for j := p.pos; j < len(p.toks) && j < p.pos+window; j++ {
		tok := p.toks[j]
		switch tok.text {
		case "<":
			if depth > 0 {
				current = append(current, tok.text)
			}
			depth++
			continue
		case ">":
			depth--
			if depth == 0 {
				if p.at(j+1).text != "(" {
					return nil, false
				}
				if len(current) > 0 {
					parts = append(parts, strings.Join(current, ""))
				}
				p.pos = j + 1
				return parts, true
			}
			current = append(current, tok.text)
			continue
		case ",":
			if depth == 1 {
				parts = append(parts, strings.Join(current, ""))
				current = nil
				continue
			}
		}
		switch tok.kind {
		case tokIdent, tokNumber:
			current = append(current, tok.text)
		case tokString:
			current = append(current, "'"+tok.text+"'")
		case tokPunct:
			switch tok.text {
			case "[", "]", ".", "|", "&", ",":
				current = append(current, tok.text)
			default:
				return nil, false
			}
		default:
			return nil, false
		}
	}
	return nil, false
}

func (p *parser) parsePrimary() Expr {
	tok := p.cur()

	switch tok.kind {
	case tokNumber, tokString, tokTemplate:
		p.next()
		return &BasicLit{Value: tok.text, Line: tok.line}
	case tokIdent:
		switch tok.text {
		case "async":
			p.next()
			if p.is("function") {
				p.next()
				return p.parseFuncLit()
			}
			return p.parseArrowOrIdent(tok)
		case "function":
			p.next()
			return p.parseFuncLit()
		default:
			if p.peek().text == "=>" {
				p.next()
				p.next()
				return p.parseArrowBody()
			}
			p.next()
			return &Ident{Name: tok.text, Line: tok.line}
		}
	}

	switch tok.text {
	case "(":
		if p.looksLikeArrow() {
			p.skipBalanced("(", ")")
			if p.accept(":") {
				p.skipType()
			}
			p.accept("=>")
			return p.parseArrowBody()
		}
		p.next()
		x := p.parseAssign()
		p.accept(")")
		return x
	case "{":
		return p.parseObjectLit()
	case "[":
		return p.parseArrayLit()
	}

	// Unrecognized token: consume it so the parser progresses.
	p.next()
	return nil
}

// parseArrowOrIdent handles the tail after an async keyword in
// expression position.
func (p *parser) parseArrowOrIdent(async token) Expr {
	if p.is("(") {
		if p.looksLikeArrow() {
			p.skipBalanced("(", ")")
			if p.accept(":") {
				p.skipType()
			}
			p.accept("=>")
			return p.parseArrowBody()
		}
	}
	if p.cur().kind == tokIdent && p.peek().text == "=>" {
		p.next()
		p.next()
		return p.parseArrowBody()
	}
	return &Ident{Name: async.text, Line: async.line}
}

// looksLikeArrow scans past the matching ) to see whether => follows,
// optionally after a return-type annotation.
func (p *parser) looksLikeArrow() bool {
	depth := 0
	j := p.pos
	for ; j < len(p.toks); j++ {
		switch p.toks[j].text {
		case "(":
			depth++
		case ")":
			depth--
			if depth == 0 {
				goto after
			}
		}
		if p.toks[j].kind == tokEOF {
			return false
		}
	}
	return false
after:
	k := j + 1
	if p.at(k).text == "=>" {
		return true
	}
	if p.at(k).text == ":" {
		const window = 32
		angle := 0
		for ; k < len(p.toks) && k < j+window; k++ {
			switch p.toks[k].text {
			case "<", "(", "[", "{":
				angle++
			case ">", ")", "]", "}":
				angle--
			case "=>":
				if angle <= 0 {
					return true
				}
			case ";":
				return false
			}
		}
	}
	return false
}

func (p *parser) parseArrowBody() Expr {
	if p.is("{") {
		return &FuncLit{Body: p.parseBlock()}
	}
	x := p.parseAssign()
	return &FuncLit{Body: &BlockStmt{Stmts: []Stmt{&ReturnStmt{X: x}}}}
}

func (p *parser) parseFuncLit() Expr {
	if p.cur().kind == tokIdent {
		p.next() // optional name
	}
	p.skipSignature()
	return &FuncLit{Body: p.parseBlock()}
}

func (p *parser) parseObjectLit() Expr {
	p.accept("{")
	obj := &ObjectLit{}
	for p.cur().kind != tokEOF && !p.is("}") {
		before := p.pos

		if p.accept("...") {
			v := p.parseAssign()
			obj.Fields = append(obj.Fields, ObjectField{Value: v})
			p.accept(",")
			continue
		}

		var key string
		switch {
		case p.is("["):
			p.skipBalanced("[", "]")
		case p.cur().kind == tokIdent || p.cur().kind == tokString || p.cur().kind == tokNumber:
			key = p.next().text
		}

		switch {
		case p.is("("), p.is("<"):
			// Method shorthand.
			p.skipSignature()
			obj.Fields = append(obj.Fields, ObjectField{Key: key, Value: &FuncLit{Body: p.parseBlock()}})
		case p.accept(":"):
			obj.Fields = append(obj.Fields, ObjectField{Key: key, Value: p.parseAssign()})
		default:
			// Shorthand property.
			obj.Fields = append(obj.Fields, ObjectField{Key: key, Value: &Ident{Name: key}})
		}
		p.accept(",")

		if p.pos == before {
			p.next()
		}
	}
	p.accept("}")
	return obj
}

func (p *parser) parseArrayLit() Expr {
	p.accept("[")
	arr := &ArrayLit{}
	for p.cur().kind != tokEOF && !p.is("]") {
		before := p.pos
		if x := p.parseAssign(); x != nil {
			arr.Elems = append(arr.Elems, x)
		}
		p.accept(",")
		if p.pos == before {
			p.next()
		}
	}
	p.accept("]")
	return arr
}

// --- token skipping ---

func (p *parser) skipBalanced(open, close string) {
	if !p.accept(open) {
		return
	}
	p.skipBalancedFrom(open, close)
}

// skipBalancedFrom assumes the opening token was already consumed.
func (p *parser) skipBalancedFrom(open, close string) {
	depth := 1
	for p.cur().kind != tokEOF && depth > 0 {
		switch p.cur().text {
		case open:
			depth++
		case close:
			depth--
		}
		p.next()
	}
}

// skipType consumes a type annotation: everything up to a top-level
// comma, closing bracket, semicolon or assignment.
func (p *parser) skipType() {
	depth := 0
	for p.cur().kind != tokEOF {
		tok := p.cur()
		switch tok.text {
		case "<", "(", "[", "{":
			depth++
		case ">", ")", "]", "}":
			if depth == 0 {
				return
			}
			depth--
		case ",", ";", "=", "=>":
			if depth == 0 {
				return
			}
		}
		p.next()
	}
}
