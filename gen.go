package dao

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
	"unicode"
)

// Daoc is the code generator behind the daoc tool. It parses plain struct
// declarations and emits the schema block a model type needs: property
// variables, the Table descriptor, TableName when not hand-declared, and
// typed accessors over the embedded Model. The struct's Go fields only
// declare the schema; runtime values live in the embedded Model, which is
// what lets the DAO distinguish unset columns from zero values.
type Daoc struct {
	logFn   func(messages ...any)
	rootDir string
}

// NewDaoc creates a generator handler with rootDir defaulting to ".".
func NewDaoc() *Daoc {
	return &Daoc{rootDir: "."}
}

// SetLog sets the function for warnings. Unset means silent.
func (g *Daoc) SetLog(fn func(messages ...any)) { g.logFn = fn }

// SetRootDir sets the directory Run scans. Useful in tests.
func (g *Daoc) SetRootDir(dir string) { g.rootDir = dir }

func (g *Daoc) log(messages ...any) {
	if g.logFn != nil {
		g.logFn(messages...)
	}
}

// GenFieldInfo describes one schema column parsed from a struct field.
type GenFieldInfo struct {
	Name       string
	ColumnName string
	Type       ColumnType
	GoType     string
}

// GenStructInfo is the parsed metadata for one model struct.
type GenStructInfo struct {
	Name              string
	TableName         string
	IDColumn          string
	PackageName       string
	Fields            []GenFieldInfo
	TableNameDeclared bool
	SourceFile        string
}

// detectTableName scans for a literal-returning TableName method on the
// struct. Empty when none is declared.
func detectTableName(node *ast.File, structName string) string {
	for _, decl := range node.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Recv == nil || len(fn.Recv.List) == 0 || fn.Name.Name != "TableName" {
			continue
		}
		recvName := ""
		switch r := fn.Recv.List[0].Type.(type) {
		case *ast.Ident:
			recvName = r.Name
		case *ast.StarExpr:
			if ident, ok := r.X.(*ast.Ident); ok {
				recvName = ident.Name
			}
		}
		if recvName != structName {
			continue
		}
		if fn.Body != nil && len(fn.Body.List) == 1 {
			if ret, ok := fn.Body.List[0].(*ast.ReturnStmt); ok && len(ret.Results) == 1 {
				if lit, ok := ret.Results[0].(*ast.BasicLit); ok {
					return strings.Trim(lit.Value, `"`)
				}
			}
		}
	}
	return ""
}

// ParseStruct parses one struct from a Go file and returns its metadata.
func (g *Daoc) ParseStruct(structName, goFile string) (GenStructInfo, error) {
	if structName == "" {
		return GenStructInfo{}, fmt.Errorf("struct name required")
	}
	if goFile == "" {
		return GenStructInfo{}, fmt.Errorf("source file required")
	}

	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, goFile, nil, parser.ParseComments)
	if err != nil {
		return GenStructInfo{}, fmt.Errorf("parse %s: %w", goFile, err)
	}

	var target *ast.StructType
	ast.Inspect(node, func(n ast.Node) bool {
		if spec, ok := n.(*ast.TypeSpec); ok && spec.Name.Name == structName {
			if st, ok := spec.Type.(*ast.StructType); ok {
				target = st
				return false
			}
		}
		return true
	})
	if target == nil {
		return GenStructInfo{}, fmt.Errorf("struct %s not found in %s", structName, goFile)
	}

	tableName := detectTableName(node, structName)
	declared := tableName != ""
	if !declared {
		tableName = snakeLow(structName) + "s"
	}

	info := GenStructInfo{
		Name:              structName,
		TableName:         tableName,
		IDColumn:          DefaultIDColumn,
		PackageName:       node.Name.Name,
		TableNameDeclared: declared,
	}

	for _, field := range target.Fields.List {
		if len(field.Names) == 0 {
			continue // embedded, typically dao.Model
		}
		fieldName := field.Names[0].Name
		if !ast.IsExported(fieldName) {
			continue
		}

		dbTag := ""
		if field.Tag != nil {
			tagVal := strings.Trim(field.Tag.Value, "`")
			for _, part := range strings.Fields(tagVal) {
				if strings.HasPrefix(part, `db:"`) {
					dbTag = strings.TrimSuffix(strings.TrimPrefix(part, `db:"`), `"`)
					break
				}
			}
		}
		if dbTag == "-" {
			continue
		}

		typeStr := ""
		switch t := field.Type.(type) {
		case *ast.Ident:
			typeStr = t.Name
		case *ast.ArrayType:
			if elt, ok := t.Elt.(*ast.Ident); ok && elt.Name == "byte" {
				typeStr = "[]byte"
			}
		}

		var ctype ColumnType
		switch typeStr {
		case "string":
			ctype = TypeText
		case "int", "int32", "int64":
			ctype = TypeInt64
		case "float32", "float64":
			ctype = TypeFloat64
		case "bool":
			ctype = TypeBool
		case "[]byte":
			ctype = TypeBlob
		default:
			g.log(fmt.Sprintf("warning: unsupported type %s for %s.%s; skipping, use db:\"-\" to suppress", typeStr, structName, fieldName))
			continue
		}

		colName := dbTag
		if colName == "" {
			colName = snakeLow(fieldName)
		}

		if fieldName == "ID" && ctype == TypeInt64 {
			if dbTag != "" {
				info.IDColumn = dbTag
			}
			continue // the identifier is implicit on every table
		}

		info.Fields = append(info.Fields, GenFieldInfo{
			Name:       fieldName,
			ColumnName: colName,
			Type:       ctype,
			GoType:     typeStr,
		})
	}

	return info, nil
}

var ctypeNames = map[ColumnType]struct{ ctor, accessor, goType string }{
	TypeText:    {"dao.TextProperty", "String", "string"},
	TypeInt64:   {"dao.Int64Property", "Int64", "int64"},
	TypeFloat64: {"dao.Float64Property", "Float64", "float64"},
	TypeBool:    {"dao.BoolProperty", "Bool", "bool"},
	TypeBlob:    {"dao.BlobProperty", "Bytes", "[]byte"},
}

// GenerateForFile writes the schema blocks for all infos next to their
// source file, in <source>_dao.go.
func (g *Daoc) GenerateForFile(infos []GenStructInfo, sourceFile string) error {
	if len(infos) == 0 {
		return nil
	}
	var b strings.Builder
	b.WriteString("// Code generated by daoc; DO NOT EDIT.\n")
	fmt.Fprintf(&b, "package %s\n\n", infos[0].PackageName)
	b.WriteString("import (\n\t\"github.com/tinywasm/dao\"\n)\n\n")

	for _, info := range infos {
		if !info.TableNameDeclared {
			fmt.Fprintf(&b, "func (m *%s) TableName() string { return %q }\n\n", info.Name, info.TableName)
		}

		b.WriteString("var (\n")
		for _, f := range info.Fields {
			fmt.Fprintf(&b, "\t%s%s = %s(%q)\n", info.Name, f.Name, ctypeNames[f.Type].ctor, f.ColumnName)
		}
		b.WriteString("\n")
		fmt.Fprintf(&b, "\t%sTable = dao.NewTable(%q, []dao.Property{", info.Name, info.TableName)
		for i, f := range info.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s%s", info.Name, f.Name)
		}
		b.WriteString("}")
		if info.IDColumn != DefaultIDColumn {
			fmt.Fprintf(&b, ", dao.WithIDColumn(%q)", info.IDColumn)
		}
		b.WriteString(")\n)\n\n")

		for _, f := range info.Fields {
			names := ctypeNames[f.Type]
			fmt.Fprintf(&b, "func (m *%s) Get%s() %s { return m.Base().%s(%s%s) }\n",
				info.Name, f.Name, names.goType, names.accessor, info.Name, f.Name)
			fmt.Fprintf(&b, "func (m *%s) Set%s(v %s) { m.Base().Set%s(%s%s, v) }\n\n",
				info.Name, f.Name, names.goType, names.accessor, info.Name, f.Name)
		}
	}

	outName := strings.TrimSuffix(sourceFile, ".go") + "_dao.go"
	return os.WriteFile(outName, []byte(b.String()), 0o644)
}

// GenerateForStruct parses one struct and writes its schema block.
func (g *Daoc) GenerateForStruct(structName, goFile string) error {
	info, err := g.ParseStruct(structName, goFile)
	if err != nil {
		return err
	}
	if len(info.Fields) == 0 {
		return nil
	}
	info.SourceFile = goFile
	return g.GenerateForFile([]GenStructInfo{info}, goFile)
}

// Run scans rootDir for model.go / models.go files and generates schema
// blocks for every struct they declare.
func (g *Daoc) Run() error {
	byFile := make(map[string][]GenStructInfo)
	var fileOrder []string

	err := filepath.Walk(g.rootDir, func(path string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			switch fi.Name() {
			case "vendor", ".git", "testdata":
				return filepath.SkipDir
			}
			return nil
		}
		if fi.Name() != "model.go" && fi.Name() != "models.go" {
			return nil
		}

		fset := token.NewFileSet()
		node, perr := parser.ParseFile(fset, path, nil, parser.ParseComments)
		if perr != nil {
			return nil // skip unparseable files
		}
		for _, decl := range node.Decls {
			gd, ok := decl.(*ast.GenDecl)
			if !ok || gd.Tok != token.TYPE {
				continue
			}
			for _, spec := range gd.Specs {
				ts, ok := spec.(*ast.TypeSpec)
				if !ok {
					continue
				}
				if _, ok := ts.Type.(*ast.StructType); !ok {
					continue
				}
				info, serr := g.ParseStruct(ts.Name.Name, path)
				if serr != nil {
					g.log(fmt.Sprintf("skipping %s in %s: %v", ts.Name.Name, path, serr))
					continue
				}
				if len(info.Fields) == 0 {
					g.log(fmt.Sprintf("warning: %s has no mappable fields; skipping", ts.Name.Name))
					continue
				}
				info.SourceFile = path
				if _, seen := byFile[path]; !seen {
					fileOrder = append(fileOrder, path)
				}
				byFile[path] = append(byFile[path], info)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("walk %s: %w", g.rootDir, err)
	}
	if len(fileOrder) == 0 {
		return fmt.Errorf("no models found under %s", g.rootDir)
	}

	for _, path := range fileOrder {
		if gerr := g.GenerateForFile(byFile[path], path); gerr != nil {
			g.log(fmt.Sprintf("failed to write output for %s: %v", path, gerr))
		}
	}
	return nil
}

// snakeLow converts CamelCase to snake_case.
func snakeLow(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
