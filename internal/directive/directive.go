// Package directive parses Markdown fragments: the optional YAML front
// matter and the include directives that pull playground code into the
// document.
//
// Recognized directive forms, each alone on its line:
//
//	::example='src/store.ts'::
//	::example='src/store.ts#store-setup'::
//	::example='src/webpack.config.js' lang='javascript'::
//	::snippet='typed-reducer'::
//	::toc::
package directive

import (
	"fmt"
	"hash/crc32"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/docstitch/docstitch/internal/errors"
	"github.com/docstitch/docstitch/internal/types"
	"github.com/docstitch/docstitch/internal/validation"
)

const frontMatterFence = "---"

var (
	directiveRE = regexp.MustCompile(
		`^::(example|snippet)='([^']+)'(?:\s+lang='([^']*)')?::\s*$`)
	tocRE = regexp.MustCompile(`^::toc::\s*$`)
	// Anything else that looks like a directive is a typo worth failing on.
	directiveLikeRE = regexp.MustCompile(`^::[a-z]+`)
)

// ParseFile reads and parses a fragment file.
func ParseFile(path string) (*types.FragmentInfo, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewIOError("READ_FRAGMENT", fmt.Sprintf("reading %q", path), err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.NewIOError("STAT_FRAGMENT", fmt.Sprintf("stating %q", path), err)
	}

	fragment, err := Parse(path, content)
	if err != nil {
		return nil, err
	}
	fragment.LastMod = info.ModTime()

	return fragment, nil
}

// Parse parses fragment content. The path is used only for error locations
// and the resulting FragmentInfo.
func Parse(path string, content []byte) (*types.FragmentInfo, error) {
	body := string(content)

	meta, body, bodyOffset, err := splitFrontMatter(path, body)
	if err != nil {
		return nil, err
	}

	fragment := &types.FragmentInfo{
		Path: path,
		Meta: meta,
		Body: body,
		Hash: fmt.Sprintf("%x", crc32.ChecksumIEEE(content)),
	}

	var fences validation.FenceTracker
	for i, line := range strings.Split(body, "\n") {
		lineNo := bodyOffset + i + 1
		trimmed := strings.TrimSpace(line)

		if fences.Observe(line) || fences.InFence() {
			continue
		}

		if tocRE.MatchString(trimmed) {
			fragment.Directives = append(fragment.Directives, types.Directive{
				Kind:     types.DirectiveTOC,
				Line:     lineNo,
				BodyLine: i + 1,
			})
			continue
		}

		m := directiveRE.FindStringSubmatch(trimmed)
		if m == nil {
			if directiveLikeRE.MatchString(trimmed) {
				return nil, errors.NewParseError("MALFORMED_DIRECTIVE",
					fmt.Sprintf("unrecognized directive %q", trimmed)).
					WithLocation(path, lineNo, 0)
			}
			continue
		}

		directive := types.Directive{
			Kind:     types.DirectiveKind(m[1]),
			Target:   m[2],
			Language: m[3],
			Line:     lineNo,
			BodyLine: i + 1,
		}

		if directive.Kind == types.DirectiveExample {
			if target, region, found := strings.Cut(directive.Target, "#"); found {
				if region == "" {
					return nil, errors.NewParseError("MALFORMED_DIRECTIVE",
						"empty region name in example directive").
						WithLocation(path, lineNo, 0)
				}
				directive.Target = target
				directive.Region = region
			}
		}

		fragment.Directives = append(fragment.Directives, directive)
	}

	return fragment, nil
}

// splitFrontMatter strips and parses the YAML front matter when present.
// It returns the body and the number of lines consumed by the header so
// directive line numbers stay file-relative.
func splitFrontMatter(path, content string) (types.FrontMatter, string, int, error) {
	var meta types.FrontMatter

	if !strings.HasPrefix(content, frontMatterFence+"\n") {
		return meta, content, 0, nil
	}

	rest := content[len(frontMatterFence)+1:]

	// An immediately closing fence is an empty header, not a parse error.
	if rest == frontMatterFence {
		return meta, "", 2, nil
	}
	if strings.HasPrefix(rest, frontMatterFence+"\n") {
		return meta, rest[len(frontMatterFence)+1:], 2, nil
	}

	idx := strings.Index(rest, "\n"+frontMatterFence+"\n")
	if idx < 0 {
		// A closing fence at EOF without trailing newline also counts.
		if strings.HasSuffix(rest, "\n"+frontMatterFence) {
			idx = len(rest) - len("\n"+frontMatterFence)
			header := rest[:idx]
			if err := yaml.Unmarshal([]byte(header), &meta); err != nil {
				return meta, "", 0, errors.NewParseError("BAD_FRONT_MATTER",
					"invalid YAML front matter").WithLocation(path, 1, 0)
			}
			return meta, "", strings.Count(content, "\n") + 1, nil
		}
		return meta, "", 0, errors.NewParseError("BAD_FRONT_MATTER",
			"front matter is not closed").WithLocation(path, 1, 0)
	}

	header := rest[:idx]
	if err := yaml.Unmarshal([]byte(header), &meta); err != nil {
		return meta, "", 0, errors.NewParseError("BAD_FRONT_MATTER",
			"invalid YAML front matter").WithLocation(path, 1, 0)
	}

	body := rest[idx+len("\n"+frontMatterFence+"\n"):]
	consumed := 2 + strings.Count(header, "\n") + 1

	return meta, body, consumed, nil
}
