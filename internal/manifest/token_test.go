package manifest

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

const sampleManifest = `from conan import ConanFile


class HelloWorldConan(ConanFile):
    name = "hello_world"
    version = "1.0"
    settings = "os", "compiler", "build_type", "arch"
    exports_sources = "CMakeLists.txt", "src/*", "include/foo.h"
    requires = "fmt/8.1.1", "spdlog/1.9.2"

    def requirements(self):
        self.requires("ambrosia/[^1.2.0]")
        self.requires('nectar/[~2.0.1]')
        self.requires("foo/1.0.0@acme/stable")

    def build_requirements(self):
        self.tool_requires("cmake/[3.27.0]")
`

func TestScan(t *testing.T) {
	tokens := Scan(sampleManifest)

	expected := []struct {
		pkg       string
		version   string
		variant   Variant
		qualifier string
		context   Context
		spec      string
	}{
		{"fmt", "8.1.1", VariantExact, "", ContextDirect, "8.1.1"},
		{"spdlog", "1.9.2", VariantExact, "", ContextDirect, "1.9.2"},
		{"ambrosia", "1.2.0", VariantCaret, "", ContextDirect, "[^1.2.0]"},
		{"nectar", "2.0.1", VariantTilde, "", ContextDirect, "[~2.0.1]"},
		{"foo", "1.0.0", VariantExact, "acme/stable", ContextDirect, "1.0.0@acme/stable"},
		{"cmake", "3.27.0", VariantBracket, "", ContextBuild, "[3.27.0]"},
	}

	if len(tokens) != len(expected) {
		for _, tok := range tokens {
			t.Logf("token: %s", tok.Requirement())
		}
		t.Fatalf("expected %d tokens, got %d", len(expected), len(tokens))
	}

	for i, exp := range expected {
		tok := tokens[i]
		if tok.Package != exp.pkg || tok.Version != exp.version || tok.Variant != exp.variant ||
			tok.Qualifier != exp.qualifier || tok.Context != exp.context || tok.Spec != exp.spec {
			t.Errorf("token %d = %+v, expected %+v", i, tok, exp)
		}
		if sampleManifest[tok.Start:tok.End] != tok.Spec {
			t.Errorf("token %d offsets point at %q, expected %q", i, sampleManifest[tok.Start:tok.End], tok.Spec)
		}
	}
}

func TestScanSkipsUnrecognizedSpecs(t *testing.T) {
	inputs := []string{
		`requires = "boost/[>=1.70 <2.0]"`,
		`requires = "boost/[>=1.70]"`,
		`requires = "zlib/1.3#a1b2c3"`,
		`requires = "zlib/1.3@user"`,
		`requires = "zlib/latest"`,
		`requires = "zlib/[^1.0"`,
		`requires = "zlib/1.3'`,
		`url = "https://github.com/conan-io/conan"`,
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			if tokens := Scan(input); len(tokens) != 0 {
				t.Errorf("Scan(%q) returned %d tokens, expected none", input, len(tokens))
			}
		})
	}
}

func TestScanBuildRequiresAttribute(t *testing.T) {
	text := `    build_requires = "protobuf/3.21.12"
    requires = "grpc/1.54.3"
`
	tokens := Scan(text)
	if len(tokens) != 2 {
		t.Fatalf("expected 2 tokens, got %d", len(tokens))
	}
	if tokens[0].Context != ContextBuild {
		t.Errorf("protobuf should be build-time, got %s", tokens[0].Context)
	}
	if tokens[1].Context != ContextDirect {
		t.Errorf("grpc should be direct, got %s", tokens[1].Context)
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		requirement string
		newVersion  string
		expected    string
	}{
		{"fmt/8.1.1", "9.1.0", "9.1.0"},
		{"ambrosia/[^1.2.0]", "1.4.0", "[^1.4.0]"},
		{"nectar/[~2.0.1]", "2.1.0", "[~2.1.0]"},
		{"cmake/[3.27.0]", "3.28.1", "[3.28.1]"},
		{"foo/1.0.0@acme/stable", "1.2.0", "1.2.0@acme/stable"},
		{"bar/[^1.0]@mili/integration", "2.0", "[^2.0]@mili/integration"},
	}

	for _, tt := range tests {
		t.Run(tt.requirement, func(t *testing.T) {
			tok, ok := ParseRequirement(tt.requirement)
			if !ok {
				t.Fatalf("ParseRequirement(%q) failed", tt.requirement)
			}
			if got := tok.Format(tt.newVersion); got != tt.expected {
				t.Errorf("Format(%q) = %q, expected %q", tt.newVersion, got, tt.expected)
			}
		})
	}
}

func TestParseRequirementInvalid(t *testing.T) {
	for _, input := range []string{"", "fmt", "/1.0", "fmt/", "fmt/abc"} {
		if _, ok := ParseRequirement(input); ok {
			t.Errorf("ParseRequirement(%q) should fail", input)
		}
	}
}

// genSpec generates version specs covering every supported variant
func genSpec() gopter.Gen {
	return gopter.CombineGens(
		gen.OneConstOf("1", "1.0", "1.9.2", "10.20.30", "3.27.0", "2.0.0-rc1", "1.2.3_p1"),
		gen.OneConstOf("", "[", "[^", "[~"),
		gen.OneConstOf("", "@acme/stable", "@mili/integration", "@_/_"),
	).Map(func(values []interface{}) string {
		version := values[0].(string)
		prefix := values[1].(string)
		suffix := values[2].(string)
		spec := prefix + version
		if prefix != "" {
			spec += "]"
		}
		return spec + suffix
	})
}

// TestPropertyFormatRoundTrip checks format(parse(x), version(x)) == x
func TestPropertyFormatRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("Format with unchanged version reproduces the written requirement", prop.ForAll(
		func(pkg, spec string) bool {
			text := `    requires = "` + pkg + "/" + spec + `"` + "\n"
			tokens := Scan(text)
			if len(tokens) != 1 {
				return false
			}
			tok := tokens[0]
			return tok.Format(tok.Version) == spec && tok.Spec == spec
		},
		gen.OneConstOf("fmt", "spdlog", "libjpeg-turbo", "b2", "openssl", "zlib"),
		genSpec(),
	))

	properties.Property("Format keeps decoration around a new version", prop.ForAll(
		func(spec string) bool {
			tok, ok := ParseRequirement("pkg/" + spec)
			if !ok {
				return false
			}
			formatted := tok.Format("42.0.1")
			return strings.Replace(spec, tok.Version, "42.0.1", 1) == formatted
		},
		genSpec(),
	))

	properties.TestingRun(t)
}
