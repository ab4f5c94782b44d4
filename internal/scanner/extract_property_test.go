package scanner

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// Wrapping arbitrary lines in region markers and extracting must give back
// exactly those lines, for every supported comment style.
func TestExtractRoundTrip_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200

	properties := gopter.NewProperties(parameters)

	properties.Property("extract returns the wrapped lines", prop.ForAll(
		func(name string, lines []string) bool {
			src := "// ::snippet " + name + "\n" +
				strings.Join(lines, "\n") + "\n" +
				"// ::end\n"

			regions, err := ExtractRegions("prop.go", ".go", []byte(src))
			if err != nil || len(regions) != 1 {
				return false
			}
			region := regions[0]
			if region.Name != name {
				return false
			}
			if len(region.Lines) != len(lines) {
				return false
			}
			for i := range lines {
				if region.Lines[i] != lines[i] {
					return false
				}
			}
			return true
		},
		gen.Identifier(),
		gen.SliceOfN(5, gen.Identifier()),
	))

	properties.Property("hash-comment styles agree with slash styles", prop.ForAll(
		func(name string, lines []string) bool {
			slashSrc := "// ::snippet " + name + "\n" + strings.Join(lines, "\n") + "\n// ::end\n"
			hashSrc := "# ::snippet " + name + "\n" + strings.Join(lines, "\n") + "\n# ::end\n"

			slashRegions, err1 := ExtractRegions("a.go", ".go", []byte(slashSrc))
			hashRegions, err2 := ExtractRegions("a.py", ".py", []byte(hashSrc))
			if err1 != nil || err2 != nil {
				return false
			}
			if len(slashRegions) != 1 || len(hashRegions) != 1 {
				return false
			}
			return strings.Join(slashRegions[0].Lines, "\n") == strings.Join(hashRegions[0].Lines, "\n")
		},
		gen.Identifier(),
		gen.SliceOfN(3, gen.Identifier()),
	))

	properties.TestingRun(t)
}
