package diag

import (
	"fmt"
)

type Code uint16

const (
	// Неизвестная ошибка
	UnknownCode Code = 0

	// Normalizer
	NormInfo                Code = 1000
	NormUnterminatedLiteral Code = 1001
	NormUnterminatedComment Code = 1002
	NormDanglingConcat      Code = 1003
	NormMissingLiteral      Code = 1004
	NormAbandonedLoad       Code = 1005

	// Rewrite
	RwInfo              Code = 2000
	RwBadMatchPattern   Code = 2001
	RwBadReplacePattern Code = 2002

	// Patch
	PatchInfo             Code = 3000
	PatchNoMatches        Code = 3001
	PatchBadOperand       Code = 3002
	PatchResourceMissing  Code = 3003
	PatchResourceReadFail Code = 3004

	// IO / config
	IOLoadFileError  Code = 4001
	IOWriteFileError Code = 4002
	CfgInvalid       Code = 4100
	CfgMissingField  Code = 4101
)

var codeDescription = map[Code]string{
	UnknownCode:             "Unknown error",
	NormInfo:                "Normalizer information",
	NormUnterminatedLiteral: "Unterminated string literal at end of stream",
	NormUnterminatedComment: "Unterminated block comment at end of stream",
	NormDanglingConcat:      "Concatenation operator without a following literal",
	NormMissingLiteral:      "Load instruction without a string operand",
	NormAbandonedLoad:       "Load keyword not followed by a quoted literal on the same line",
	RwInfo:                  "Rewrite information",
	RwBadMatchPattern:       "Invalid match pattern",
	RwBadReplacePattern:     "Invalid replace pattern",
	PatchInfo:               "Patch information",
	PatchNoMatches:          "No matching strings or resources found",
	PatchBadOperand:         "Malformed string operand",
	PatchResourceMissing:    "Resource file not found",
	PatchResourceReadFail:   "Resource file could not be read",
	IOLoadFileError:         "I/O error while loading file",
	IOWriteFileError:        "I/O error while writing file",
	CfgInvalid:              "Invalid configuration",
	CfgMissingField:         "Missing configuration field",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("NRM%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("RWR%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("PAT%04d", ic)
	case ic >= 4000 && ic < 4100:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 4100 && ic < 5000:
		return fmt.Sprintf("CFG%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

// MarshalText renders the stable ID form.
func (c Code) MarshalText() ([]byte, error) {
	return []byte(c.ID()), nil
}
