package archive

import (
	"path"
	"strings"

	"github.com/mikey/project-digest/internal/core"
	"go.uber.org/zap"
)

// Registry selects a parser from the file extension
type Registry struct {
	parsers map[string]core.Parser
	logger  *zap.Logger
}

// NewRegistry enables the given extensions. Extensions without a known parser
// are ignored with a warning.
func NewRegistry(extensions []string, logger *zap.Logger) *Registry {
	known := map[string]core.Parser{
		".msg": NewMsgParser(),
		".eml": NewEmlParser(),
	}

	parsers := make(map[string]core.Parser, len(extensions))
	for _, ext := range extensions {
		ext = normalizeExt(ext)
		p, ok := known[ext]
		if !ok {
			logger.Warn("No parser for input extension", zap.String("extension", ext))
			continue
		}
		parsers[ext] = p
	}

	if len(parsers) > 0 {
		names := make([]string, 0, len(parsers))
		for ext := range parsers {
			names = append(names, ext)
		}
		logger.Info("Initialized archive parsers", zap.Strings("extensions", names))
	}

	return &Registry{
		parsers: parsers,
		logger:  logger,
	}
}

// ParserFor returns the parser for name's extension
func (r *Registry) ParserFor(name string) (core.Parser, bool) {
	p, ok := r.parsers[strings.ToLower(path.Ext(name))]
	return p, ok
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}
