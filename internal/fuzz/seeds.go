package fuzztests

import (
	"testing"
)

const (
	maxFuzzInput = 1 << 16 // 64 KiB
)

// ilSeeds are small disassembly fragments covering every construct the
// normalizer tracks.
var ilSeeds = []string{
	"IL_0000:  ldstr      \"https://example.com/\"\n",
	"IL_0000:  ldstr      \"a\"\n  + \"b\"\n  + \"c\"\nIL_0005:  ret\n",
	"ldstr \"a\" /* one */ + /* two */ \"b\"\n",
	"ldstr \"esc \\\" \\\\\" + \"\\n\"\n",
	"ldstr bytearray (41 00 42 00)\n",
	"// comment with ldstr \"x\" + \"y\"\nldstr \"z\"\n",
	"call void Foo::myldstr \"a\" + \"b\"\n",
	"ldstr \"unterminated",
	"ldstr \"a\" + ",
	"ldstr \"a\" /* open",
	"a / b\n",
	".field public static literal string U = \"https://example.com/\"\n",
}

func addCorpusSeeds(f *testing.F) {
	for _, s := range ilSeeds {
		f.Add([]byte(s), uint16(len(s)/2))
	}
}

func clip(input []byte) []byte {
	if len(input) > maxFuzzInput {
		return append([]byte(nil), input[:maxFuzzInput]...)
	}
	return append([]byte(nil), input...)
}
