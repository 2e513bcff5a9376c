package registry

import (
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/dop251/goja"
	"github.com/goliatone/go-scriptsave/internal/hydrate"
)

const (
	// InfoFile declares a script by calling registerScript({...}).
	InfoFile = "info.js"
	// MainFile holds the script body.
	MainFile = "main.js"
)

var infoAliases = map[string]string{
	"minVersionToLoad": "min_version_to_load",
}

// ScannerOption configures a Scanner.
type ScannerOption func(*Scanner)

// WithStrictInfo rejects info objects carrying unknown keys.
func WithStrictInfo() ScannerOption {
	return func(s *Scanner) {
		s.strict = true
	}
}

// Scanner discovers scripts in a file system. Each directory holding an
// info.js file is one script version.
type Scanner struct {
	strict bool
}

// NewScanner constructs a Scanner.
func NewScanner(opts ...ScannerOption) *Scanner {
	s := &Scanner{}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Scan walks fsys and registers every valid script into reg. Broken scripts
// are reported in the joined error while the others are still registered.
func (s *Scanner) Scan(fsys fs.FS, reg *Registry) (int, error) {
	if reg == nil {
		return 0, errors.New("registry: scan target is nil")
	}
	var (
		count int
		errs  []error
	)
	walkErr := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || d.Name() != InfoFile {
			return nil
		}
		info, err := s.Load(fsys, path.Dir(p))
		if err == nil {
			err = reg.Register(info)
		}
		if err != nil {
			errs = append(errs, err)
			return nil
		}
		count++
		return nil
	})
	if walkErr != nil {
		errs = append(errs, fmt.Errorf("registry: walk: %w", walkErr))
	}
	return count, errors.Join(errs...)
}

// Load reads a single script directory.
func (s *Scanner) Load(fsys fs.FS, dir string) (Info, error) {
	infoPath := path.Join(dir, InfoFile)
	raw, err := fs.ReadFile(fsys, infoPath)
	if err != nil {
		return Info{}, fmt.Errorf("registry: read %s: %w", infoPath, err)
	}
	payload, err := evaluateInfo(infoPath, string(raw))
	if err != nil {
		return Info{}, err
	}

	opts := []hydrate.DecoderOption[Info]{
		hydrate.WithPreHook[Info](hydrate.RenameKeys(infoAliases)),
		hydrate.WithPostHook[Info](func(_ hydrate.Context, info *Info) error {
			return info.Validate()
		}),
	}
	if s.strict {
		opts = append(opts, hydrate.WithDisallowUnknownFields[Info]())
	}
	info, err := hydrate.NewDecoder(opts...).Decode(hydrate.Context{Path: infoPath}, payload)
	if err != nil {
		return Info{}, fmt.Errorf("registry: %w", err)
	}

	mainPath := path.Join(dir, MainFile)
	source, err := fs.ReadFile(fsys, mainPath)
	if err != nil {
		return Info{}, fmt.Errorf("registry: read %s: %w", mainPath, err)
	}
	info.Path = dir
	info.Source = string(source)
	return info, nil
}

func evaluateInfo(name, src string) (map[string]any, error) {
	vm := goja.New()
	var (
		payload map[string]any
		calls   int
	)
	err := vm.Set("registerScript", func(call goja.FunctionCall) goja.Value {
		calls++
		exported, ok := call.Argument(0).Export().(map[string]any)
		if !ok {
			panic(vm.NewTypeError("registerScript expects an object"))
		}
		payload = exported
		return goja.Undefined()
	})
	if err != nil {
		return nil, fmt.Errorf("registry: prepare %s: %w", name, err)
	}
	if _, err := vm.RunScript(name, src); err != nil {
		return nil, fmt.Errorf("registry: evaluate %s: %w", name, err)
	}
	switch calls {
	case 0:
		return nil, fmt.Errorf("registry: %s never called registerScript", name)
	case 1:
		return payload, nil
	default:
		return nil, fmt.Errorf("registry: %s called registerScript %d times", name, calls)
	}
}
