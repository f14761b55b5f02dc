package usage

// File is the parsed source file: its top-level statements plus every
// module specifier it imports (static imports, re-exports, require and
// dynamic import calls).
type File struct {
	Stmts   []Stmt
	Imports []Import
}

// Import is one module specifier as written in the source.
type Import struct {
	Path string
	Line int
}

// Stmt is a statement node.
type Stmt interface{ stmt() }

// Expr is an expression node.
type Expr interface{ expr() }

// BlockStmt is a braced statement list.
type BlockStmt struct {
	Stmts []Stmt
}

// ExprStmt is an expression in statement position.
type ExprStmt struct {
	X Expr
}

// VarStmt is a const/let/var declaration list; only the initializer
// expressions are retained.
type VarStmt struct {
	Inits []Expr
}

// ReturnStmt is a return; X is nil for a bare return.
type ReturnStmt struct {
	X    Expr
	Line int
}

// IfStmt covers if/else chains.
type IfStmt struct {
	Cond Expr
	Then Stmt
	Else Stmt
}

// TryStmt is a try block with optional catch and finally.
type TryStmt struct {
	Body    *BlockStmt
	Catch   *BlockStmt
	Finally *BlockStmt
}

// ForStmt covers for, for-of, for-await-of, while and do-while loops.
// Header holds the loop-header expressions so calls there are visited.
type ForStmt struct {
	Header []Expr
	Body   Stmt
}

// ThrowStmt is a throw.
type ThrowStmt struct {
	X Expr
}

// FuncDecl is a named function declaration.
type FuncDecl struct {
	Name string
	Body *BlockStmt
}

func (*BlockStmt) stmt()  {}
func (*ExprStmt) stmt()   {}
func (*VarStmt) stmt()    {}
func (*ReturnStmt) stmt() {}
func (*IfStmt) stmt()     {}
func (*TryStmt) stmt()    {}
func (*ForStmt) stmt()    {}
func (*ThrowStmt) stmt()  {}
func (*FuncDecl) stmt()   {}

// Ident is an identifier or keyword literal (true, null, undefined, this).
type Ident struct {
	Name string
	Line int
}

// BasicLit is a string, template or numeric literal.
type BasicLit struct {
	Value string
	Line  int
}

// Member is property access: X.Sel or X?.Sel.
type Member struct {
	X   Expr
	Sel string
}

// Call is a call expression, with any generic type arguments captured as
// raw text (nango.batchSave<GithubIssue>(...)).
type Call struct {
	Fun      Expr
	TypeArgs []string
	Args     []Expr
	Line     int
}

// Await wraps an awaited expression.
type Await struct {
	X Expr
}

// FuncLit is a function expression or arrow function.
type FuncLit struct {
	Body *BlockStmt
}

// ObjectLit is an object literal; computed and spread members are kept
// with an empty key.
type ObjectLit struct {
	Fields []ObjectField
}

// ObjectField is one key/value member of an object literal.
type ObjectField struct {
	Key   string
	Value Expr
}

// ArrayLit is an array literal.
type ArrayLit struct {
	Elems []Expr
}

// Unary is a prefix operator application (!, -, typeof, spread, new, ...).
type Unary struct {
	Op string
	X  Expr
}

// Binary folds all binary and logical operators; precedence is irrelevant
// to the usage contract.
type Binary struct {
	Op   string
	X, Y Expr
}

// Cond is the ternary operator.
type Cond struct {
	Cond, Then, Else Expr
}

// Assign is an assignment; X is the target, Y the value.
type Assign struct {
	X, Y Expr
}

// Index is computed access: X[I].
type Index struct {
	X, I Expr
}

func (*Ident) expr()     {}
func (*BasicLit) expr()  {}
func (*Member) expr()    {}
func (*Call) expr()      {}
func (*Await) expr()     {}
func (*FuncLit) expr()   {}
func (*ObjectLit) expr() {}
func (*ArrayLit) expr()  {}
func (*Unary) expr()     {}
func (*Binary) expr()    {}
func (*Cond) expr()      {}
func (*Assign) expr()    {}
func (*Index) expr()     {}

// HasKey reports whether the object literal declares the given key.
func (o *ObjectLit) HasKey(key string) bool {
	for _, f := range o.Fields {
		if f.Key == key {
			return true
		}
	}
	return false
}
