// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package annotate rewrites analyzed source files, marking functions proven
// pure with a directive comment the next analysis run (or a human reader) can
// pick up.
package annotate

import (
	"fmt"
	"go/types"
	"os"
	"path/filepath"
	"strings"

	"github.com/awslabs/ar-fixpoint-tools/analysis/config"
	"github.com/dave/dst"
	"github.com/dave/dst/decorator"
	"github.com/dave/dst/decorator/resolver/gopackages"
	"golang.org/x/tools/go/packages"
	"golang.org/x/tools/go/ssa"
)

// Directive is the comment inserted above functions proven pure.
const Directive = "//propcheck:pure"

// KeyOf returns the identifier under which a function is looked up in the
// pure-function set handed to MarkPure.
func KeyOf(f *ssa.Function) string {
	pkg := ""
	if f.Package() != nil {
		pkg = f.Package().Pkg.Path()
	}
	recv := ""
	if r := f.Signature.Recv(); r != nil {
		recv = receiverName(r.Type())
	}
	return key(pkg, recv, f.Name())
}

func key(pkg, recv, name string) string {
	return pkg + ":" + recv + ":" + name
}

func receiverName(t types.Type) string {
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}
	if n, ok := t.(*types.Named); ok {
		return n.Obj().Name()
	}
	return t.String()
}

// MarkPure loads the packages matching patterns with the dst decorator,
// inserts the directive above every declared function whose key is in pure,
// and rewrites the changed files in place. Files that already carry the
// directive are left alone.
func MarkPure(patterns []string, pure map[string]bool, loadMode packages.LoadMode,
	logger *config.LogGroup) error {
	cfg := &packages.Config{
		Mode:  loadMode,
		Tests: false,
	}
	pkgs, err := decorator.Load(cfg, patterns...)
	if err != nil {
		return fmt.Errorf("could not load packages to annotate: %w", err)
	}
	for _, pack := range pkgs {
		for _, dstFile := range pack.Syntax {
			changed := false
			for _, decl := range dstFile.Decls {
				funcDecl, ok := decl.(*dst.FuncDecl)
				if !ok {
					continue
				}
				if !pure[key(pack.PkgPath, declReceiver(funcDecl), funcDecl.Name.Name)] {
					continue
				}
				if hasDirective(funcDecl) {
					continue
				}
				funcDecl.Decs.Start.Append(Directive)
				changed = true
			}
			if !changed {
				continue
			}
			filename := pack.Decorator.Filenames[dstFile]
			if filename == "" {
				return fmt.Errorf("no filename recorded for annotated file in %s", pack.PkgPath)
			}
			if err := writeFile(filename, dstFile); err != nil {
				return err
			}
			logger.Infof("annotated %s", filename)
		}
	}
	return nil
}

func declReceiver(funcDecl *dst.FuncDecl) string {
	if funcDecl.Recv == nil || len(funcDecl.Recv.List) == 0 {
		return ""
	}
	t := funcDecl.Recv.List[0].Type
	if star, ok := t.(*dst.StarExpr); ok {
		t = star.X
	}
	if ident, ok := t.(*dst.Ident); ok {
		return ident.Name
	}
	return ""
}

func hasDirective(funcDecl *dst.FuncDecl) bool {
	for _, c := range funcDecl.Decs.Start.All() {
		if strings.Contains(c, "propcheck:pure") {
			return true
		}
	}
	return false
}

func writeFile(filename string, dstFile *dst.File) error {
	dir := filepath.Dir(filename)
	r := decorator.NewRestorerWithImports(dir, gopackages.New(dir))
	out, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("could not rewrite %s: %w", filename, err)
	}
	defer out.Close()
	if err := r.Fprint(out, dstFile); err != nil {
		return fmt.Errorf("could not print annotated %s: %w", filename, err)
	}
	return nil
}
