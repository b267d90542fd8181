// Command check_boundaries enforces the package dependency rules of this
// module. Run it from the repository root:
//
//	go run ./scripts/check_boundaries.go
package main

import (
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "contracthub"

// Packages that compose several bounded contexts. Nothing else may import
// more than one context.
var compositionRoots = []string{
	"internal/app/bootstrap",
	"internal/app/integration",
	"internal/platform/httpserver",
}

// OpenTelemetry API packages the application layer may instrument with. The
// SDK and exporters stay in internal/platform/observability.
var telemetryAPI = []string{
	"go.opentelemetry.io/otel",
	"go.opentelemetry.io/otel/attribute",
	"go.opentelemetry.io/otel/codes",
	"go.opentelemetry.io/otel/metric",
	"go.opentelemetry.io/otel/trace",
}

type finding struct {
	file   string
	line   int
	target string
	reason string
}

// sourceFile is one non-test Go file and its module-relative location.
type sourceFile struct {
	path    string
	dir     string
	context string // "<ctx>/<svc>" for files under contexts/
	layer   string // first directory below the service, or "" at service root
	imports []importRef
}

type importRef struct {
	path string
	line int
}

func main() {
	files, err := loadSources(".", "contexts", "internal", "cmd", "contracts")
	if err != nil {
		fmt.Fprintf(os.Stderr, "load sources: %v\n", err)
		os.Exit(2)
	}

	findings := checkFiles(files)
	findings = append(findings, checkContextFanIn(files)...)
	if len(findings) == 0 {
		fmt.Printf("boundary checks passed (%d files)\n", len(files))
		return
	}

	sort.Slice(findings, func(i, j int) bool {
		if findings[i].file != findings[j].file {
			return findings[i].file < findings[j].file
		}
		return findings[i].line < findings[j].line
	})
	fmt.Println("boundary violations found:")
	for _, f := range findings {
		if f.target == "" {
			fmt.Printf("- %s: %s\n", f.file, f.reason)
			continue
		}
		fmt.Printf("- %s:%d imports %q (%s)\n", f.file, f.line, f.target, f.reason)
	}
	os.Exit(1)
}

func loadSources(root string, dirs ...string) ([]sourceFile, error) {
	var files []sourceFile
	for _, dir := range dirs {
		err := filepath.WalkDir(filepath.Join(root, dir), func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				if os.IsNotExist(err) {
					return filepath.SkipDir
				}
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
				return nil
			}
			file, err := parseSource(root, path)
			if err != nil {
				return err
			}
			files = append(files, file)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func parseSource(root string, path string) (sourceFile, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return sourceFile{}, err
	}
	rel = filepath.ToSlash(rel)

	fset := token.NewFileSet()
	parsed, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
	if err != nil {
		return sourceFile{}, fmt.Errorf("%s: %w", rel, err)
	}

	file := sourceFile{path: rel, dir: filepath.ToSlash(filepath.Dir(rel))}
	parts := strings.Split(rel, "/")
	if parts[0] == "contexts" && len(parts) >= 4 {
		file.context = parts[1] + "/" + parts[2]
		if len(parts) > 4 {
			file.layer = parts[3]
		}
	}
	for _, imp := range parsed.Imports {
		file.imports = append(file.imports, importRef{
			path: strings.Trim(imp.Path.Value, `"`),
			line: fset.Position(imp.Pos()).Line,
		})
	}
	return file, nil
}

func checkFiles(files []sourceFile) []finding {
	var findings []finding
	for _, file := range files {
		for _, imp := range file.imports {
			if reason := importRule(file, imp.path); reason != "" {
				findings = append(findings, finding{file: file.path, line: imp.line, target: imp.path, reason: reason})
			}
		}
	}
	return findings
}

// importRule returns why file may not import target, or "" when it may.
func importRule(file sourceFile, target string) string {
	local, isLocal := strings.CutPrefix(target, modulePath+"/")

	switch {
	case file.context != "":
		own := "contexts/" + file.context
		if isLocal && strings.HasPrefix(local, "contexts/") && !within(local, own) {
			return "contexts must not import each other; bridge them in internal/app/integration"
		}
		if isLocal && (within(local, "internal") || within(local, "cmd")) {
			return "contexts must not depend on runtime infrastructure"
		}
		return layerRule(file.layer, own, local, isLocal, target)

	case within(file.dir, "contracts"):
		if isLocal || !isStdlib(target) {
			return "event contracts are shared by every context and may only use the standard library"
		}

	case within(file.dir, "cmd"):
		if isLocal && !within(local, "internal/app/bootstrap") && !within(local, "internal/platform") {
			return "entrypoints wire through internal/app/bootstrap"
		}

	case within(file.dir, "internal/platform"):
		if isLocal && within(local, "internal/app") {
			return "platform packages must not depend on the composition root"
		}
		if isLocal && strings.HasPrefix(local, "contexts/") && !isCompositionRoot(file.dir) {
			return "only the HTTP edge of internal/platform may see contexts"
		}
	}
	return ""
}

func layerRule(layer string, own string, local string, isLocal bool, target string) string {
	switch layer {
	case "domain":
		if isLocal && !within(local, own+"/domain") {
			return "domain may only import its own domain packages"
		}
		if !isLocal && !isStdlib(target) {
			return "domain must stay free of third-party packages"
		}
	case "ports":
		if isLocal && !within(local, own+"/domain") && !within(local, "contracts/gen/events/v1") {
			return "ports may only reference domain types and event contracts"
		}
		if !isLocal && !isStdlib(target) {
			return "ports must stay free of third-party packages"
		}
	case "application":
		if isLocal && within(local, own+"/adapters") {
			return "application must not import adapters"
		}
		if isLocal && !within(local, own+"/application") && !within(local, own+"/domain") &&
			!within(local, own+"/ports") && !within(local, "contracts/gen/events/v1") {
			return "application import is outside its own service and the event contracts"
		}
		if !isLocal && !isStdlib(target) && !isTelemetryAPI(target) {
			return "application may only add the OpenTelemetry API to the standard library"
		}
	}
	return ""
}

// checkContextFanIn flags packages outside the composition roots that reach
// into more than one context.
func checkContextFanIn(files []sourceFile) []finding {
	seen := map[string]map[string]struct{}{}
	for _, file := range files {
		if file.context != "" || isCompositionRoot(file.dir) {
			continue
		}
		for _, imp := range file.imports {
			local, ok := strings.CutPrefix(imp.path, modulePath+"/contexts/")
			if !ok {
				continue
			}
			parts := strings.SplitN(local, "/", 3)
			if len(parts) < 2 {
				continue
			}
			if seen[file.dir] == nil {
				seen[file.dir] = map[string]struct{}{}
			}
			seen[file.dir][parts[0]+"/"+parts[1]] = struct{}{}
		}
	}

	var findings []finding
	for dir, contexts := range seen {
		if len(contexts) < 2 {
			continue
		}
		names := make([]string, 0, len(contexts))
		for name := range contexts {
			names = append(names, name)
		}
		sort.Strings(names)
		findings = append(findings, finding{
			file:   dir,
			reason: "package spans contexts " + strings.Join(names, ", ") + " outside the composition roots",
		})
	}
	return findings
}

func isCompositionRoot(dir string) bool {
	for _, root := range compositionRoots {
		if within(dir, root) {
			return true
		}
	}
	return false
}

func isTelemetryAPI(importPath string) bool {
	for _, allowed := range telemetryAPI {
		if importPath == allowed {
			return true
		}
	}
	return false
}

func within(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isStdlib(importPath string) bool {
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".") && first != modulePath
}
